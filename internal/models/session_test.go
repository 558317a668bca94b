package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEffectiveInterval(t *testing.T) {
	start := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)
	session := Session{SessionDate: start, Duration: 60, BufferBefore: 10, BufferAfter: 15}

	assert.Equal(t, start.Add(-10*time.Minute), session.EffectiveStart())
	assert.Equal(t, start.Add(75*time.Minute), session.EffectiveEnd())
}

func TestSessionOverlapsHalfOpen(t *testing.T) {
	start := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)
	first := Session{SessionDate: start, Duration: 60, BufferAfter: 15}

	touching := Session{SessionDate: start.Add(75 * time.Minute), Duration: 60}
	assert.False(t, first.Overlaps(&touching))
	assert.False(t, touching.Overlaps(&first))

	inside := Session{SessionDate: start.Add(74 * time.Minute), Duration: 60}
	assert.True(t, first.Overlaps(&inside))
	assert.True(t, inside.Overlaps(&first))
}

func TestSessionStatusLifecycle(t *testing.T) {
	for _, status := range []SessionStatus{SessionStatusCompleted, SessionStatusCancelled, SessionStatusNoShow} {
		assert.True(t, status.Terminal(), string(status))
		assert.False(t, status.Cancellable(), string(status))
	}
	for _, status := range []SessionStatus{SessionStatusAvailable, SessionStatusRequested, SessionStatusScheduled, SessionStatusConfirmed} {
		assert.False(t, status.Terminal(), string(status))
		assert.True(t, status.Cancellable(), string(status))
	}
}

func TestRecurrenceRuleEncodeDecode(t *testing.T) {
	rule := RecurrenceRule{
		Frequency: RecurrenceWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Thursday},
		Count:     8,
	}
	raw, err := rule.Encode()
	require.NoError(t, err)

	decoded, err := DecodeRecurrenceRule(raw)
	require.NoError(t, err)
	assert.Equal(t, rule, decoded)
}

func TestRecurrenceRuleValidate(t *testing.T) {
	valid := RecurrenceRule{Frequency: RecurrenceWeekly, Weekdays: []time.Weekday{time.Monday}, Count: 4}
	require.NoError(t, valid.Validate())

	unbounded := RecurrenceRule{Frequency: RecurrenceWeekly, Weekdays: []time.Weekday{time.Monday}}
	require.Error(t, unbounded.Validate())

	noWeekdays := RecurrenceRule{Frequency: RecurrenceWeekly, Count: 4}
	require.Error(t, noWeekdays.Validate())

	badInterval := RecurrenceRule{Frequency: RecurrenceEveryNWeeks, Count: 4}
	require.Error(t, badInterval.Validate())
}
