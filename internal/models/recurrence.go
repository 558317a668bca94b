package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecurrenceFrequency tags the supported recurrence patterns.
type RecurrenceFrequency string

const (
	RecurrenceWeekly      RecurrenceFrequency = "weekly"
	RecurrenceEveryNWeeks RecurrenceFrequency = "every_n_weeks"
)

// RecurrenceRule is a tagged, always-bounded recurrence pattern. Weekly rules
// repeat on each listed weekday; every-N-weeks rules repeat on the seed's
// weekday with the given interval. Exactly one bound (Count or Until) is
// required.
type RecurrenceRule struct {
	Frequency RecurrenceFrequency `json:"frequency"`
	Weekdays  []time.Weekday      `json:"weekdays,omitempty"`
	Interval  int                 `json:"interval,omitempty"`
	Count     int                 `json:"count,omitempty"`
	Until     *time.Time          `json:"until,omitempty"`
}

// Validate rejects malformed or unbounded rules.
func (r RecurrenceRule) Validate() error {
	switch r.Frequency {
	case RecurrenceWeekly:
		if len(r.Weekdays) == 0 {
			return fmt.Errorf("weekly rule requires at least one weekday")
		}
		for _, d := range r.Weekdays {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("invalid weekday %d", d)
			}
		}
	case RecurrenceEveryNWeeks:
		if r.Interval < 1 {
			return fmt.Errorf("every-n-weeks rule requires interval >= 1")
		}
	default:
		return fmt.Errorf("unknown recurrence frequency %q", r.Frequency)
	}
	if r.Count <= 0 && r.Until == nil {
		return fmt.Errorf("recurrence rule must be bounded by count or until")
	}
	if r.Count < 0 {
		return fmt.Errorf("recurrence count must be positive")
	}
	return nil
}

// Encode serialises the rule for storage on the group's defining instance.
func (r RecurrenceRule) Encode() (string, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode recurrence rule: %w", err)
	}
	return string(raw), nil
}

// DecodeRecurrenceRule parses a stored rule string.
func DecodeRecurrenceRule(raw string) (RecurrenceRule, error) {
	var rule RecurrenceRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return RecurrenceRule{}, fmt.Errorf("decode recurrence rule: %w", err)
	}
	return rule, nil
}
