package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kineticfit/booking-api/internal/models"
)

func sessionAt(id string, start time.Time, duration, before, after int) models.Session {
	return models.Session{
		ID:           id,
		TrainerID:    "tr-1",
		SessionDate:  start,
		Duration:     duration,
		BufferBefore: before,
		BufferAfter:  after,
		Status:       models.SessionStatusScheduled,
	}
}

func TestConflictCheckerBufferedOverlap(t *testing.T) {
	checker := NewConflictChecker()
	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	// 09:00 for 60 minutes with a 15 minute after-buffer occupies [09:00, 10:15).
	existing := []models.Session{sessionAt("sess-9", day.Add(9*time.Hour), 60, 0, 15)}

	at10 := sessionAt("", day.Add(10*time.Hour), 60, 0, 15)
	blocking := checker.FindConflict(&at10, existing)
	require.NotNil(t, blocking)
	assert.Equal(t, "sess-9", blocking.ID)

	// The half-open test admits a start exactly at the previous effective end.
	at1015 := sessionAt("", day.Add(10*time.Hour+15*time.Minute), 60, 0, 15)
	assert.Nil(t, checker.FindConflict(&at1015, existing))
}

func TestConflictCheckerBeforeBuffer(t *testing.T) {
	checker := NewConflictChecker()
	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	// A 10 minute before-buffer pulls the effective start to 08:50.
	existing := []models.Session{sessionAt("sess-9", day.Add(9*time.Hour), 60, 10, 0)}

	endsAt855 := sessionAt("", day.Add(8*time.Hour+25*time.Minute), 30, 0, 0)
	require.NotNil(t, checker.FindConflict(&endsAt855, existing))

	endsAt850 := sessionAt("", day.Add(8*time.Hour+20*time.Minute), 30, 0, 0)
	assert.Nil(t, checker.FindConflict(&endsAt850, existing))
}

func TestConflictCheckerIgnoresCancelledAndSelf(t *testing.T) {
	checker := NewConflictChecker()
	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)

	cancelled := sessionAt("sess-c", day.Add(9*time.Hour), 60, 0, 0)
	cancelled.Status = models.SessionStatusCancelled
	self := sessionAt("sess-self", day.Add(9*time.Hour), 60, 0, 0)

	candidate := sessionAt("sess-self", day.Add(9*time.Hour), 60, 0, 0)
	assert.Nil(t, checker.FindConflict(&candidate, []models.Session{cancelled, self}))
}

func TestConflictCheckerWithinAvailability(t *testing.T) {
	checker := NewConflictChecker()
	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	open := []models.OpenInterval{
		{Start: day.Add(9 * time.Hour), End: day.Add(12 * time.Hour)},
		{Start: day.Add(14 * time.Hour), End: day.Add(18 * time.Hour)},
	}

	fits := sessionAt("", day.Add(9*time.Hour), 60, 0, 15)
	assert.True(t, checker.WithinAvailability(&fits, open))

	// The after-buffer spills past the noon boundary.
	spills := sessionAt("", day.Add(11*time.Hour+30*time.Minute), 30, 0, 15)
	assert.False(t, checker.WithinAvailability(&spills, open))

	gap := sessionAt("", day.Add(13*time.Hour), 30, 0, 0)
	assert.False(t, checker.WithinAvailability(&gap, open))

	assert.False(t, checker.WithinAvailability(&fits, nil))
}
