package dto

import "time"

// UpsertAvailabilityBlockRequest creates or replaces a trainer availability
// block. Recurring blocks set DayOfWeek; overrides set the effective range.
type UpsertAvailabilityBlockRequest struct {
	DayOfWeek     *int       `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	EffectiveFrom *time.Time `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"`
	StartMinute   int        `json:"start_minute" validate:"min=0,max=1439"`
	EndMinute     int        `json:"end_minute" validate:"min=1,max=1440"`
	Kind          string     `json:"kind" validate:"required,oneof=available blocked vacation"`
	IsRecurring   bool       `json:"is_recurring"`
}

// AvailabilityQuery selects the resolution window.
type AvailabilityQuery struct {
	From string `form:"from" validate:"required"`
	To   string `form:"to" validate:"required"`
}
