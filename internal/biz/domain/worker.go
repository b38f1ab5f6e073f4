package domain

import "time"

// WorkerState is the lifecycle state of a worker
type WorkerState string

const (
	WorkerStopped  WorkerState = "stopped"
	WorkerStarting WorkerState = "starting"
	WorkerRunning  WorkerState = "running"
	WorkerPaused   WorkerState = "paused"
	WorkerStopping WorkerState = "stopping"
)

// ControlType is a command sent from the orchestrator to a worker
type ControlType string

const (
	ControlPause  ControlType = "pause"
	ControlResume ControlType = "resume"
	ControlStop   ControlType = "stop"
	ControlConfig ControlType = "config"
)

// ControlMessage is one message on the control channel
type ControlMessage struct {
	Type   ControlType         `json:"type"`
	Config *RuntimeConfigPatch `json:"config,omitempty"`
}

// Next returns the state a command moves s to.
// ok is false when the command does not apply in s.
func (s WorkerState) Next(cmd ControlType) (next WorkerState, ok bool) {
	switch cmd {
	case ControlPause:
		if s == WorkerRunning {
			return WorkerPaused, true
		}
	case ControlResume:
		if s == WorkerPaused {
			return WorkerRunning, true
		}
	case ControlStop:
		if s == WorkerStarting || s == WorkerRunning || s == WorkerPaused {
			return WorkerStopping, true
		}
	case ControlConfig:
		return s, true
	}
	return s, false
}

// ReportType is the kind of event a worker emits
type ReportType string

const (
	ReportStatus          ReportType = "status"
	ReportMessageReceived ReportType = "message_received"
	ReportMessageSent     ReportType = "message_sent"
	ReportHeartbeat       ReportType = "heartbeat"
	ReportError           ReportType = "error"
)

// Report is one event on the report channel
type Report struct {
	Type         ReportType  `json:"type"`
	SessionID    string      `json:"sessionId"`
	State        WorkerState `json:"state"`
	Stats        WorkerStats `json:"stats"`
	Conversation string      `json:"conversation,omitempty"`
	Text         string      `json:"text,omitempty"`
	Error        string      `json:"error,omitempty"`
	Total        int         `json:"total,omitempty"`  // conversations seen in the last scan
	Unread       int         `json:"unread,omitempty"` // unread after filtering
	At           time.Time   `json:"at"`
}
