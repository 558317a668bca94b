package dto

import "github.com/kineticfit/booking-api/internal/models"

// CancelSessionRequest enters the cancellation workflow for a session.
type CancelSessionRequest struct {
	Reason string `json:"reason"`
}

// ReviewCancellationRequest is the admin adjudication payload resolving a
// pending cancellation into charged or waived.
type ReviewCancellationRequest struct {
	Decision     models.CancellationDecision `json:"decision" validate:"required,oneof=charged waived"`
	Reason       string                      `json:"reason"`
	ChargeAmount *float64                    `json:"charge_amount,omitempty"`
}

// CancellationOutcome summarises the workflow state after cancel or review.
type CancellationOutcome struct {
	SessionID             string                        `json:"session_id"`
	ChargeType            models.CancellationChargeType `json:"charge_type"`
	ChargeAmount          float64                       `json:"charge_amount"`
	Decision              models.CancellationDecision   `json:"decision"`
	SessionCreditRestored bool                          `json:"session_credit_restored"`
}
