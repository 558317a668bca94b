package models

import "time"

// AvailabilityKind classifies a trainer availability block.
type AvailabilityKind string

const (
	AvailabilityAvailable AvailabilityKind = "available"
	AvailabilityBlocked   AvailabilityKind = "blocked"
	AvailabilityVacation  AvailabilityKind = "vacation"
)

// TrainerAvailabilityBlock is either a recurring weekly window (DayOfWeek set,
// IsRecurring true) or a date-bound override (EffectiveFrom/EffectiveTo set).
// Blocked and vacation blocks take precedence over available ones.
type TrainerAvailabilityBlock struct {
	ID            string           `db:"id" json:"id"`
	TrainerID     string           `db:"trainer_id" json:"trainer_id"`
	DayOfWeek     *int             `db:"day_of_week" json:"day_of_week,omitempty"`
	EffectiveFrom *time.Time       `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo   *time.Time       `db:"effective_to" json:"effective_to,omitempty"`
	StartMinute   int              `db:"start_minute" json:"start_minute"`
	EndMinute     int              `db:"end_minute" json:"end_minute"`
	Kind          AvailabilityKind `db:"kind" json:"kind"`
	IsRecurring   bool             `db:"is_recurring" json:"is_recurring"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// AppliesOn reports whether the block covers the given calendar day.
// Recurring blocks match by weekday inside their optional effective range;
// overrides match any day inside their range.
func (b *TrainerAvailabilityBlock) AppliesOn(day time.Time) bool {
	if b.EffectiveFrom != nil && day.Before(*b.EffectiveFrom) {
		return false
	}
	if b.EffectiveTo != nil && !day.Before(*b.EffectiveTo) {
		return false
	}
	if b.IsRecurring {
		return b.DayOfWeek != nil && int(day.Weekday()) == *b.DayOfWeek
	}
	return b.EffectiveFrom != nil || b.EffectiveTo != nil
}

// OpenInterval is a concrete bookable window on a specific date.
type OpenInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether [start, end) fits entirely inside the interval.
func (o OpenInterval) Contains(start, end time.Time) bool {
	return !start.Before(o.Start) && !end.After(o.End)
}

// DateRange is an inclusive day range used by availability queries.
type DateRange struct {
	Start time.Time
	End   time.Time
}
