package service

import (
	"github.com/kineticfit/booking-api/internal/models"
)

// ConflictChecker applies the effective-interval overlap test between a
// candidate session and a trainer's existing sessions. Comparisons use the
// half-open window [start-bufferBefore, start+duration+bufferAfter), so a
// session ending exactly when the next effective window opens is not a
// conflict.
type ConflictChecker struct{}

// NewConflictChecker constructs a ConflictChecker.
func NewConflictChecker() *ConflictChecker {
	return &ConflictChecker{}
}

// FindConflict returns the first existing session whose effective window
// overlaps the candidate's, or nil when the slot is free. Cancelled sessions
// and the candidate itself never conflict.
func (c *ConflictChecker) FindConflict(candidate *models.Session, existing []models.Session) *models.Session {
	for i := range existing {
		other := &existing[i]
		if other.ID != "" && other.ID == candidate.ID {
			continue
		}
		if other.Status == models.SessionStatusCancelled {
			continue
		}
		if candidate.Overlaps(other) {
			return other
		}
	}
	return nil
}

// WithinAvailability reports whether the candidate's effective window fits
// entirely inside one of the resolved open intervals. An empty resolution
// means the trainer has no open time in the window.
func (c *ConflictChecker) WithinAvailability(candidate *models.Session, open []models.OpenInterval) bool {
	start := candidate.EffectiveStart()
	end := candidate.EffectiveEnd()
	for _, interval := range open {
		if interval.Contains(start, end) {
			return true
		}
	}
	return false
}
