package models

import "time"

// EventType names the lifecycle events emitted to external collaborators.
type EventType string

const (
	EventSessionCreated   EventType = "SessionCreated"
	EventSessionConfirmed EventType = "SessionConfirmed"
	EventSessionCancelled EventType = "SessionCancelled"
	EventNoShowRecorded   EventType = "NoShowRecorded"
	EventChargeRequested  EventType = "ChargeRequested"
)

// SessionEvent is the payload fanned out to the notification collaborator.
// Delivery failure is never fatal to the originating transition.
type SessionEvent struct {
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	TrainerID  string    `json:"trainer_id"`
	UserID     string    `json:"user_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ChargeRequest is emitted to the payment collaborator when a cancellation is
// adjudicated as charged. The core never captures money itself.
type ChargeRequest struct {
	SessionID string  `json:"session_id"`
	ClientID  string  `json:"client_id"`
	Amount    float64 `json:"amount"`
}
