package service

import (
	"time"

	"github.com/kineticfit/booking-api/internal/models"
)

// RecurrenceExpander materializes bounded recurrence rules into concrete
// occurrence start times.
type RecurrenceExpander struct {
	maxOccurrences int
	maxLookahead   time.Duration
}

// NewRecurrenceExpander builds an expander with hard caps applied on top of
// the rule's own bound.
func NewRecurrenceExpander(maxOccurrences, maxLookaheadDays int) *RecurrenceExpander {
	if maxOccurrences <= 0 {
		maxOccurrences = 52
	}
	if maxLookaheadDays <= 0 {
		maxLookaheadDays = 365
	}
	return &RecurrenceExpander{
		maxOccurrences: maxOccurrences,
		maxLookahead:   time.Duration(maxLookaheadDays) * 24 * time.Hour,
	}
}

// Expand returns the occurrence start times for the rule, beginning at the
// seed. The seed itself counts as an occurrence when it matches the rule.
// Expansion always terminates: it stops at the rule's bound (count or until),
// at the occurrence cap, or at the lookahead horizon, whichever comes first.
func (e *RecurrenceExpander) Expand(seed time.Time, rule models.RecurrenceRule) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}

	limit := e.maxOccurrences
	if rule.Count > 0 && rule.Count < limit {
		limit = rule.Count
	}
	horizon := seed.Add(e.maxLookahead)
	if rule.Until != nil && rule.Until.Before(horizon) {
		horizon = *rule.Until
	}

	var occurrences []time.Time
	switch rule.Frequency {
	case models.RecurrenceWeekly:
		wanted := make(map[time.Weekday]bool, len(rule.Weekdays))
		for _, d := range rule.Weekdays {
			wanted[d] = true
		}
		for day := seed; len(occurrences) < limit; day = day.AddDate(0, 0, 1) {
			if day.After(horizon) {
				break
			}
			if wanted[day.Weekday()] {
				occurrences = append(occurrences, day)
			}
		}
	case models.RecurrenceEveryNWeeks:
		step := time.Duration(rule.Interval) * 7 * 24 * time.Hour
		for occ := seed; len(occurrences) < limit; occ = occ.Add(step) {
			if occ.After(horizon) {
				break
			}
			occurrences = append(occurrences, occ)
		}
	}

	return occurrences, nil
}
