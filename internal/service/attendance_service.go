package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type attendanceStore interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	SetCheckIn(ctx context.Context, exec sqlx.ExtContext, id, actorID string, at time.Time, status models.AttendanceStatus) (*models.Session, error)
	SetCheckOut(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (*models.Session, error)
	MarkNoShow(ctx context.Context, exec sqlx.ExtContext, id, actorID, reason string, at time.Time) (*models.Session, error)
}

// lateThreshold is how far past the booked start a check-in counts as late.
const lateThreshold = 10 * time.Minute

// AttendanceService records check-ins, check-outs and no-shows against
// scheduled sessions.
type AttendanceService struct {
	repo      attendanceStore
	events    eventEmitter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceStore, events eventEmitter, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:      repo,
		events:    events,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn records a client arrival. Idempotent: a session that already has a
// check-in is returned as-is with its original timestamp.
func (s *AttendanceService) CheckIn(ctx context.Context, sessionID, actorID string, req dto.CheckInRequest) (*models.Session, error) {
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CheckInTime != nil {
		return session, nil
	}

	at := s.now()
	if req.Time != nil {
		at = req.Time.UTC()
	}
	status := models.AttendancePresent
	if at.After(session.SessionDate.Add(lateThreshold)) {
		status = models.AttendanceLate
	}

	updated, err := s.repo.SetCheckIn(ctx, nil, sessionID, actorID, at, status)
	if err != nil {
		if err == sql.ErrNoRows {
			// Lost a race against a concurrent check-in, or the session left
			// the checkable states. Re-load to tell the two apart.
			current, loadErr := s.load(ctx, sessionID)
			if loadErr != nil {
				return nil, loadErr
			}
			if current.CheckInTime != nil {
				return current, nil
			}
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session is not awaiting check-in")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record check-in")
	}
	return updated, nil
}

// CheckOut records a departure on a checked-in session.
func (s *AttendanceService) CheckOut(ctx context.Context, sessionID string, req dto.CheckOutRequest) (*models.Session, error) {
	at := s.now()
	if req.Time != nil {
		at = req.Time.UTC()
	}
	updated, err := s.repo.SetCheckOut(ctx, nil, sessionID, at)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session has no check-in to close")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record check-out")
	}
	return updated, nil
}

// NoShow marks a missed appointment. Mutually exclusive with check-in: a
// session with a recorded check-in is rejected. The transition is terminal.
func (s *AttendanceService) NoShow(ctx context.Context, sessionID, actorID string, req dto.NoShowRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid no-show payload")
	}
	session, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.CheckInTime != nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCheckedIn, "session has a recorded check-in")
	}

	at := s.now()
	if req.Time != nil {
		at = req.Time.UTC()
	}
	updated, err := s.repo.MarkNoShow(ctx, nil, sessionID, actorID, req.Reason, at)
	if err != nil {
		if err == sql.ErrNoRows {
			current, loadErr := s.load(ctx, sessionID)
			if loadErr != nil {
				return nil, loadErr
			}
			if current.CheckInTime != nil {
				return nil, appErrors.Clone(appErrors.ErrAlreadyCheckedIn, "session has a recorded check-in")
			}
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session cannot be marked as a no-show")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to record no-show")
	}
	s.events.PublishSession(models.EventNoShowRecorded, updated)
	return updated, nil
}

func (s *AttendanceService) load(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.repo.GetByID(ctx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}
