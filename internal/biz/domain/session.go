package domain

import "time"

// SessionStatus is the persisted status of an automated account
type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionLoggingIn SessionStatus = "logging_in"
	SessionRunning   SessionStatus = "running"
	SessionPaused    SessionStatus = "paused"
	SessionStopped   SessionStatus = "stopped"
	SessionError     SessionStatus = "error"
)

// StatusFor maps a worker state to the session status stored on disk
func StatusFor(state WorkerState) SessionStatus {
	switch state {
	case WorkerStarting, WorkerRunning:
		return SessionRunning
	case WorkerPaused:
		return SessionPaused
	default:
		return SessionStopped
	}
}

// Session represents the metadata of one automated account
type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	LastLoginAt time.Time     `json:"lastLoginAt,omitempty"`
	LastError   string        `json:"lastError,omitempty"`
}

// Cookie is a browser cookie in a driver-neutral form
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires,omitempty"` // seconds since epoch, 0 for session cookies
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	Secure   bool    `json:"secure,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// BrowserState is the persisted login state of a session
type BrowserState struct {
	Cookies      []Cookie          `json:"cookies"`
	LocalStorage map[string]string `json:"localStorage,omitempty"`
	SavedAt      time.Time         `json:"savedAt,omitempty"`
}

// IsEmpty checks if nothing was captured yet
func (b BrowserState) IsEmpty() bool {
	return len(b.Cookies) == 0 && len(b.LocalStorage) == 0
}

// SessionRecord is everything stored for one session
type SessionRecord struct {
	Meta         Session       `json:"meta"`
	Config       RuntimeConfig `json:"config"`
	BrowserState BrowserState  `json:"browserState"`
}
