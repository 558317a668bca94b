package dto

import "time"

// CheckInRequest records a client arrival. Time defaults to now when omitted.
type CheckInRequest struct {
	Time *time.Time `json:"time,omitempty"`
}

// CheckOutRequest records a client departure.
type CheckOutRequest struct {
	Time *time.Time `json:"time,omitempty"`
}

// NoShowRequest marks a missed appointment.
type NoShowRequest struct {
	Reason string     `json:"reason" validate:"required"`
	Time   *time.Time `json:"time,omitempty"`
}
