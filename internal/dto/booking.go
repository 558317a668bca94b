package dto

import (
	"time"

	"github.com/kineticfit/booking-api/internal/models"
)

// CreateSessionRequest books a single slot for a client, or blocked/open time
// when no client is given.
type CreateSessionRequest struct {
	TrainerID     string    `json:"trainer_id" validate:"required"`
	UserID        *string   `json:"user_id,omitempty"`
	SessionTypeID string    `json:"session_type_id" validate:"required"`
	SessionDate   time.Time `json:"session_date" validate:"required"`
	IsBlocked     bool      `json:"is_blocked"`
}

// RecurringBookingRequest expands a rule into materialized occurrences
// sharing one recurring group.
type RecurringBookingRequest struct {
	Seed CreateSessionRequest  `json:"seed" validate:"required"`
	Rule models.RecurrenceRule `json:"rule" validate:"required"`
}

// RescheduleRequest moves a session to a new start time. ApplyToSeries shifts
// every non-terminal sibling in the recurring group by the same offset, each
// independently re-validated.
type RescheduleRequest struct {
	SessionDate   time.Time `json:"session_date" validate:"required"`
	ApplyToSeries bool      `json:"apply_to_series"`
}

// OpenSlotsRequest publishes bookable slots with no client attached.
type OpenSlotsRequest struct {
	TrainerID     string      `json:"trainer_id" validate:"required"`
	SessionTypeID string      `json:"session_type_id" validate:"required"`
	Slots         []time.Time `json:"slots" validate:"required,min=1"`
}

// UpdateStatusRequest drives pure status transitions (confirm, complete,
// block, unblock). Moves that need a new time window go through reschedule.
type UpdateStatusRequest struct {
	Status models.SessionStatus `json:"status" validate:"required"`
}

// BookingItemResult reports the outcome for one occurrence of a batch
// operation. Batch operations always return per-item results.
type BookingItemResult struct {
	SessionDate          time.Time `json:"session_date"`
	SessionID            string    `json:"session_id,omitempty"`
	OK                   bool      `json:"ok"`
	Reason               string    `json:"reason,omitempty"`
	ConflictingSessionID string    `json:"conflicting_session_id,omitempty"`
}

// RecurringBookingResponse aggregates a recurring expansion commit.
type RecurringBookingResponse struct {
	RecurringGroupID string              `json:"recurring_group_id"`
	Requested        int                 `json:"requested"`
	Booked           int                 `json:"booked"`
	Results          []BookingItemResult `json:"results"`
}

// SeriesRescheduleResponse aggregates an apply-to-series reschedule.
type SeriesRescheduleResponse struct {
	RecurringGroupID string              `json:"recurring_group_id"`
	Moved            int                 `json:"moved"`
	Skipped          int                 `json:"skipped"`
	Results          []BookingItemResult `json:"results"`
}

// SessionQuery filters session listings.
type SessionQuery struct {
	TrainerID string `form:"trainerId"`
	UserID    string `form:"userId"`
	Status    string `form:"status"`
	From      string `form:"from"`
	To        string `form:"to"`
	GroupID   string `form:"groupId"`
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
}
