package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snapreply/snapreply/internal/biz/domain"
	"github.com/snapreply/snapreply/internal/server"
)

// Client is the HTTP client for the dashboard API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new dashboard client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx answer from the dashboard
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// ListSessions lists all sessions
func (c *Client) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var result struct {
		Sessions []domain.Session `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions", &result); err != nil {
		return nil, err
	}
	return result.Sessions, nil
}

// Status gets the stored status and live report of a session
func (c *Client) Status(ctx context.Context, id string) (*server.StatusResponse, error) {
	var result server.StatusResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(id, "status"), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Action posts a lifecycle action (start, stop, pause, resume) and returns the resulting status
func (c *Client) Action(ctx context.Context, id, action string) (string, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, sessionPath(id, action), &result); err != nil {
		return "", err
	}
	return result.Status, nil
}

func sessionPath(id, action string) string {
	return "/api/sessions/" + url.PathEscape(id) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
