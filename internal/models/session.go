package models

import "time"

// SessionStatus enumerates the session lifecycle states.
type SessionStatus string

const (
	SessionStatusAvailable SessionStatus = "available"
	SessionStatusRequested SessionStatus = "requested"
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusConfirmed SessionStatus = "confirmed"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
	SessionStatusNoShow    SessionStatus = "no_show"
	SessionStatusBlocked   SessionStatus = "blocked"
)

// Terminal reports whether the status admits no further lifecycle transitions.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow:
		return true
	}
	return false
}

// Cancellable reports whether a session in this status may still be cancelled.
func (s SessionStatus) Cancellable() bool {
	switch s {
	case SessionStatusAvailable, SessionStatusRequested, SessionStatusScheduled, SessionStatusConfirmed:
		return true
	}
	return false
}

// CancellationChargeType classifies the fee applied on cancellation.
type CancellationChargeType string

const (
	ChargeTypeNone    CancellationChargeType = "none"
	ChargeTypeFull    CancellationChargeType = "full"
	ChargeTypePartial CancellationChargeType = "partial"
	ChargeTypeLateFee CancellationChargeType = "late_fee"
)

// ValidChargeType reports whether the value is a known charge type.
func ValidChargeType(t CancellationChargeType) bool {
	switch t {
	case ChargeTypeNone, ChargeTypeFull, ChargeTypePartial, ChargeTypeLateFee:
		return true
	}
	return false
}

// CancellationDecision is the adjudication state of a cancelled session.
type CancellationDecision string

const (
	DecisionPending CancellationDecision = "pending"
	DecisionCharged CancellationDecision = "charged"
	DecisionWaived  CancellationDecision = "waived"
)

// AttendanceStatus records the outcome of a kept or missed appointment.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceNoShow  AttendanceStatus = "no_show"
)

// Session is a bookable unit of trainer time. Duration and buffers are
// snapshotted from the session type at creation and never recomputed.
type Session struct {
	ID            string        `db:"id" json:"id"`
	TrainerID     string        `db:"trainer_id" json:"trainer_id"`
	UserID        *string       `db:"user_id" json:"user_id,omitempty"`
	SessionTypeID string        `db:"session_type_id" json:"session_type_id"`
	SessionDate   time.Time     `db:"session_date" json:"session_date"`
	Duration      int           `db:"duration" json:"duration"`
	BufferBefore  int           `db:"buffer_before" json:"buffer_before"`
	BufferAfter   int           `db:"buffer_after" json:"buffer_after"`
	Status        SessionStatus `db:"status" json:"status"`
	IsBlocked     bool          `db:"is_blocked" json:"is_blocked"`

	RecurringGroupID *string `db:"recurring_group_id" json:"recurring_group_id,omitempty"`
	RecurrenceRule   *string `db:"recurrence_rule" json:"recurrence_rule,omitempty"`

	CreditDeducted bool `db:"credit_deducted" json:"credit_deducted"`

	CancelledBy              *string                 `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason       *string                 `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt              *time.Time              `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancellationChargeType   *CancellationChargeType `db:"cancellation_charge_type" json:"cancellation_charge_type,omitempty"`
	CancellationChargeAmount *float64                `db:"cancellation_charge_amount" json:"cancellation_charge_amount,omitempty"`
	CancellationDecision     *CancellationDecision   `db:"cancellation_decision" json:"cancellation_decision,omitempty"`
	CancellationReviewedBy   *string                 `db:"cancellation_reviewed_by" json:"cancellation_reviewed_by,omitempty"`
	CancellationReviewedAt   *time.Time              `db:"cancellation_reviewed_at" json:"cancellation_reviewed_at,omitempty"`
	CancellationReviewReason *string                 `db:"cancellation_review_reason" json:"cancellation_review_reason,omitempty"`
	SessionCreditRestored    bool                    `db:"session_credit_restored" json:"session_credit_restored"`
	CancellationChargedAt    *time.Time              `db:"cancellation_charged_at" json:"cancellation_charged_at,omitempty"`

	AttendanceStatus     *AttendanceStatus `db:"attendance_status" json:"attendance_status,omitempty"`
	CheckInTime          *time.Time        `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime         *time.Time        `db:"check_out_time" json:"check_out_time,omitempty"`
	NoShowReason         *string           `db:"no_show_reason" json:"no_show_reason,omitempty"`
	MarkedPresentBy      *string           `db:"marked_present_by" json:"marked_present_by,omitempty"`
	AttendanceRecordedAt *time.Time        `db:"attendance_recorded_at" json:"attendance_recorded_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// EffectiveStart is the booked start expanded by the before-buffer.
func (s *Session) EffectiveStart() time.Time {
	return s.SessionDate.Add(-time.Duration(s.BufferBefore) * time.Minute)
}

// EffectiveEnd is the booked end expanded by the after-buffer.
func (s *Session) EffectiveEnd() time.Time {
	return s.SessionDate.Add(time.Duration(s.Duration+s.BufferAfter) * time.Minute)
}

// Overlaps applies the half-open interval test against another session's
// effective window.
func (s *Session) Overlaps(other *Session) bool {
	return s.EffectiveStart().Before(other.EffectiveEnd()) && other.EffectiveStart().Before(s.EffectiveEnd())
}

// SessionFilter captures listing criteria for sessions.
type SessionFilter struct {
	TrainerID string
	UserID    string
	// VisibleToClient scopes results to the client's own sessions plus
	// unclaimed open slots.
	VisibleToClient string
	Status          SessionStatus
	// DecisionPending restricts to cancellations awaiting adjudication.
	DecisionPending bool
	From            *time.Time
	To              *time.Time
	GroupID         string
	Page            int
	PageSize        int
}
