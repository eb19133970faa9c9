package models

import "github.com/google/uuid"

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WSMessage is the envelope for everything pushed over the workspace
// websocket channel.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SessionEvent announces a lifecycle transition of a study session.
type SessionEvent struct {
	SessionID        uuid.UUID `json:"session_id"`
	Status           string    `json:"status"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Paused           bool      `json:"paused"`
}

const (
	EventSessionStarted     = "session_started"
	EventSessionPaused      = "session_paused"
	EventSessionResumed     = "session_resumed"
	EventSessionCompleted   = "session_completed"
	EventSessionInterrupted = "session_interrupted"
	EventSessionCancelled   = "session_cancelled"
)
