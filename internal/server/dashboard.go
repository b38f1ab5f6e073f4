package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/biz/repo"
)

const (
	defaultAnalyticsDays = 7
	maxAnalyticsDays     = 365
	shutdownTimeout      = 10 * time.Second
)

// Controller drives running sessions
type Controller interface {
	StartSession(ctx context.Context, id string) error
	StopSession(ctx context.Context, id string) error
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	UpdateConfig(ctx context.Context, id string, patch domain.RuntimeConfigPatch) (domain.RuntimeConfig, error)
	Status(id string) (domain.Report, bool)
	IsRunning(id string) bool
	BeginLogin(id string, timeout time.Duration) error
}

// StatusResponse describes a session and, while it runs, its worker's last report
type StatusResponse struct {
	Session *domain.Session `json:"session"`
	Running bool            `json:"running"`
	Report  *domain.Report  `json:"report,omitempty"`
}

// Server is the dashboard HTTP API
type Server struct {
	sessions     repo.SessionRepo
	analytics    repo.AnalyticsRepo
	ctl          Controller
	loginTimeout time.Duration
	now          func() time.Time
	log          *zap.Logger
	router       *gin.Engine
}

// NewServer creates the dashboard server and registers its routes
func NewServer(sessions repo.SessionRepo, analytics repo.AnalyticsRepo, ctl Controller, loginTimeout time.Duration, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		sessions:     sessions,
		analytics:    analytics,
		ctl:          ctl,
		loginTimeout: loginTimeout,
		now:          time.Now,
		log:          log.Named("dashboard"),
		router:       gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("dashboard listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("dashboard: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard shutdown: %w", err)
	}
	return <-errCh
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/sessions")
	api.GET("", s.handleListSessions)
	api.POST("", s.handleCreateSession)
	api.GET("/:id", s.handleGetSession)
	api.DELETE("/:id", s.handleDeleteSession)

	api.POST("/:id/start", s.control(s.ctl.StartSession, domain.SessionRunning))
	api.POST("/:id/stop", s.control(s.ctl.StopSession, domain.SessionStopped))
	api.POST("/:id/pause", s.control(s.ctl.Pause, domain.SessionPaused))
	api.POST("/:id/resume", s.control(s.ctl.Resume, domain.SessionRunning))
	api.POST("/:id/login", s.handleLogin)

	api.GET("/:id/config", s.handleGetConfig)
	api.PUT("/:id/config", s.handleUpdateConfig)
	api.GET("/:id/status", s.handleStatus)
	api.GET("/:id/analytics", s.handleAnalytics)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// writeError maps domain errors to HTTP status codes
func (s *Server) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionRunning), errors.Is(err, domain.ErrSessionNotRunning):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Warn("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.sessions.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

type createSessionRequest struct {
	Name string `json:"name" binding:"required"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	rec, err := s.sessions.Create(c.Request.Context(), req.Name)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec.Meta)
}

func (s *Server) handleGetSession(c *gin.Context) {
	rec, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.Meta)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	if s.ctl.IsRunning(id) {
		s.writeError(c, domain.ErrSessionRunning)
		return
	}
	if err := s.sessions.Delete(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// control wraps a controller call that only needs the session ID
func (s *Server) control(fn func(ctx context.Context, id string) error, status domain.SessionStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := fn(c.Request.Context(), id); err != nil {
			s.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "status": status})
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.sessions.Get(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	if err := s.ctl.BeginLogin(id, s.loginTimeout); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": id, "status": string(domain.SessionLoggingIn)})
}

func (s *Server) handleGetConfig(c *gin.Context) {
	rec, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.Config)
}

func (s *Server) handleUpdateConfig(c *gin.Context) {
	var patch domain.RuntimeConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid config: %v", err)})
		return
	}
	cfg, err := s.ctl.UpdateConfig(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleStatus(c *gin.Context) {
	id := c.Param("id")
	rec, err := s.sessions.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := StatusResponse{Session: &rec.Meta}
	if report, ok := s.ctl.Status(id); ok {
		resp.Running = true
		resp.Report = &report
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleAnalytics(c *gin.Context) {
	id := c.Param("id")
	days := defaultAnalyticsDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxAnalyticsDays {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("days must be between 1 and %d", maxAnalyticsDays)})
			return
		}
		days = n
	}

	if _, err := s.sessions.Get(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}

	now := s.now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))
	summary, err := s.analytics.Summary(c.Request.Context(), id, since)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
