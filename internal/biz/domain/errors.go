package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionRunning    = errors.New("session is running")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrNavigation        = errors.New("navigation failed")
	ErrNoChatInput       = errors.New("chat input not found")
	ErrLoginTimeout      = errors.New("login not detected before timeout")
)
