package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/pkg/config"
	"github.com/kineticfit/booking-api/pkg/database"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type sessionStore interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	AcquireTrainerLock(ctx context.Context, exec sqlx.ExtContext, trainerID string) error
	Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error)
	ListOverlapping(ctx context.Context, exec sqlx.ExtContext, trainerID string, from, to time.Time) ([]models.Session, error)
	ListByGroup(ctx context.Context, groupID string) ([]models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	UpdateStatusIfCurrent(ctx context.Context, exec sqlx.ExtContext, id string, current, next models.SessionStatus) (*models.Session, error)
	AssignClient(ctx context.Context, exec sqlx.ExtContext, id, userID string, next models.SessionStatus, creditDeducted bool) (*models.Session, error)
	UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, newDate time.Time, current models.SessionStatus) (*models.Session, error)
}

type sessionTypeReader interface {
	GetByID(ctx context.Context, id string) (*models.SessionType, error)
}

type creditStore interface {
	Deduct(ctx context.Context, exec sqlx.ExtContext, userID string) (bool, error)
	Restore(ctx context.Context, exec sqlx.ExtContext, userID string) error
}

type availabilityResolver interface {
	Resolve(ctx context.Context, trainerID string, from, to time.Time) ([]models.OpenInterval, bool, error)
}

type eventEmitter interface {
	PublishSession(eventType models.EventType, session *models.Session)
	PublishCharge(req models.ChargeRequest)
}

// SessionService orchestrates booking, recurring expansion, rescheduling and
// lifecycle transitions. All slot reservations run inside a transaction that
// holds the trainer's advisory lock across the conflict check and the write.
type SessionService struct {
	repo         sessionStore
	sessionTypes sessionTypeReader
	credits      creditStore
	availability availabilityResolver
	conflicts    *ConflictChecker
	expander     *RecurrenceExpander
	events       eventEmitter
	cfg          config.BookingConfig
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewSessionService constructs SessionService.
func NewSessionService(
	repo sessionStore,
	sessionTypes sessionTypeReader,
	credits creditStore,
	availability availabilityResolver,
	events eventEmitter,
	cfg config.BookingConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:         repo,
		sessionTypes: sessionTypes,
		credits:      credits,
		availability: availability,
		conflicts:    NewConflictChecker(),
		expander:     NewRecurrenceExpander(cfg.MaxRecurrenceOccurrences, cfg.MaxLookaheadDays),
		events:       events,
		cfg:          cfg,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Get loads a single session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// List returns sessions matching the filter with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Book reserves a single slot. The conflict check and the insert run in one
// transaction under the trainer's advisory lock, so two concurrent bookings
// for the same trainer serialize and the loser sees the winner's row.
func (s *SessionService) Book(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	session, err := s.buildSession(ctx, req)
	if err != nil {
		return nil, err
	}
	if session.SessionDate.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "session start is in the past")
	}

	if err := s.reserve(ctx, session); err != nil {
		return nil, err
	}
	s.events.PublishSession(models.EventSessionCreated, session)
	return session, nil
}

// BookRecurring expands a recurrence rule and books every occurrence inside a
// single transaction. Occurrences that conflict or fall outside availability
// are skipped, never failing the batch; the response carries a per-occurrence
// result. Occurrences in the past are skipped up front.
func (s *SessionService) BookRecurring(ctx context.Context, req dto.RecurringBookingRequest) (*dto.RecurringBookingResponse, error) {
	if err := s.validator.Struct(req.Seed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	occurrences, err := s.expander.Expand(req.Seed.SessionDate, req.Rule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence rule")
	}

	prototype, err := s.buildSession(ctx, req.Seed)
	if err != nil {
		return nil, err
	}
	encodedRule, err := req.Rule.Encode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode recurrence rule")
	}
	groupID := uuid.NewString()

	resp := &dto.RecurringBookingResponse{RecurringGroupID: groupID, Requested: len(occurrences)}
	now := s.now()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	if err := s.repo.AcquireTrainerLock(ctx, tx, prototype.TrainerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock trainer schedule")
	}

	var booked []*models.Session
	ruleStored := false
	for _, start := range occurrences {
		result := dto.BookingItemResult{SessionDate: start}
		if start.Before(now) {
			result.Reason = "occurrence is in the past"
			resp.Results = append(resp.Results, result)
			continue
		}

		candidate := *prototype
		candidate.SessionDate = start
		candidate.RecurringGroupID = &groupID
		// The rule lives on the group's defining instance only; siblings
		// carry just the group id.
		if !ruleStored {
			candidate.RecurrenceRule = &encodedRule
		}

		if err := s.checkSlot(ctx, tx, &candidate, &result); err != nil {
			return nil, err
		}
		if !result.OK {
			resp.Results = append(resp.Results, result)
			continue
		}

		if err := s.repo.Create(ctx, tx, &candidate); err != nil {
			if database.IsExclusionViolation(err) {
				result.OK = false
				result.Reason = "time slot conflicts with an existing session"
				resp.Results = append(resp.Results, result)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create session")
		}
		ruleStored = true
		result.SessionID = candidate.ID
		resp.Results = append(resp.Results, result)
		resp.Booked++
		created := candidate
		booked = append(booked, &created)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit recurring booking")
	}
	for _, session := range booked {
		s.events.PublishSession(models.EventSessionCreated, session)
	}
	return resp, nil
}

// PublishOpenSlots creates client-less bookable sessions for a trainer. Each
// slot is validated independently and reported in the per-item results.
func (s *SessionService) PublishOpenSlots(ctx context.Context, req dto.OpenSlotsRequest) ([]dto.BookingItemResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid open slots payload")
	}
	sessionType, err := s.loadSessionType(ctx, req.SessionTypeID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	if err := s.repo.AcquireTrainerLock(ctx, tx, req.TrainerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock trainer schedule")
	}

	now := s.now()
	results := make([]dto.BookingItemResult, 0, len(req.Slots))
	for _, start := range req.Slots {
		result := dto.BookingItemResult{SessionDate: start}
		if start.Before(now) {
			result.Reason = "slot is in the past"
			results = append(results, result)
			continue
		}
		candidate := &models.Session{
			TrainerID:     req.TrainerID,
			SessionTypeID: sessionType.ID,
			SessionDate:   start,
			Duration:      sessionType.Duration,
			BufferBefore:  sessionType.BufferBefore,
			BufferAfter:   sessionType.BufferAfter,
			Status:        models.SessionStatusAvailable,
		}
		if err := s.checkSlot(ctx, tx, candidate, &result); err != nil {
			return nil, err
		}
		if !result.OK {
			results = append(results, result)
			continue
		}
		if err := s.repo.Create(ctx, tx, candidate); err != nil {
			if database.IsExclusionViolation(err) {
				result.OK = false
				result.Reason = "time slot conflicts with an existing session"
				results = append(results, result)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create open slot")
		}
		result.SessionID = candidate.ID
		results = append(results, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit open slots")
	}
	return results, nil
}

// BookOpenSlot claims a published open slot for a client. The claim is a
// compare-and-set on the available status, so two clients racing for the same
// slot resolve to exactly one winner.
func (s *SessionService) BookOpenSlot(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	deducted, err := s.credits.Deduct(ctx, tx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to deduct session credit")
	}

	session, err := s.repo.AssignClient(ctx, tx, sessionID, userID, models.SessionStatusScheduled, deducted)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "slot is no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to claim open slot")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit booking")
	}
	s.events.PublishSession(models.EventSessionCreated, session)
	return session, nil
}

// Reschedule moves a session to a new start. With ApplyToSeries the offset is
// applied to every non-terminal sibling in the recurring group, each move
// re-validated independently; failures skip the occurrence, never the batch.
func (s *SessionService) Reschedule(ctx context.Context, sessionID string, req dto.RescheduleRequest) (*models.Session, *dto.SeriesRescheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.Status.Terminal() {
		return nil, nil, appErrors.Clone(appErrors.ErrStateTransition, "cannot reschedule a finished session")
	}
	if req.SessionDate.Before(s.now()) {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidRange, "new session start is in the past")
	}

	if req.ApplyToSeries && session.RecurringGroupID != nil {
		resp, err := s.rescheduleSeries(ctx, session, req.SessionDate)
		if err != nil {
			return nil, nil, err
		}
		return nil, resp, nil
	}

	moved, err := s.rescheduleOne(ctx, session, req.SessionDate)
	if err != nil {
		return nil, nil, err
	}
	return moved, nil, nil
}

func (s *SessionService) rescheduleOne(ctx context.Context, session *models.Session, newDate time.Time) (*models.Session, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	if err := s.repo.AcquireTrainerLock(ctx, tx, session.TrainerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock trainer schedule")
	}

	candidate := *session
	candidate.SessionDate = newDate
	var probe dto.BookingItemResult
	if err := s.checkSlot(ctx, tx, &candidate, &probe); err != nil {
		return nil, err
	}
	if !probe.OK {
		if probe.ConflictingSessionID != "" {
			return nil, appErrors.ConflictWith(probe.ConflictingSessionID)
		}
		return nil, appErrors.Clone(appErrors.ErrOutsideAvailability, "")
	}

	moved, err := s.repo.UpdateSchedule(ctx, tx, session.ID, newDate, session.Status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session changed state during reschedule")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to reschedule session")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit reschedule")
	}
	return moved, nil
}

func (s *SessionService) rescheduleSeries(ctx context.Context, anchor *models.Session, newDate time.Time) (*dto.SeriesRescheduleResponse, error) {
	offset := newDate.Sub(anchor.SessionDate)
	siblings, err := s.repo.ListByGroup(ctx, *anchor.RecurringGroupID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load recurring group")
	}

	resp := &dto.SeriesRescheduleResponse{RecurringGroupID: *anchor.RecurringGroupID}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	if err := s.repo.AcquireTrainerLock(ctx, tx, anchor.TrainerID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock trainer schedule")
	}

	now := s.now()
	for i := range siblings {
		sibling := siblings[i]
		target := sibling.SessionDate.Add(offset)
		result := dto.BookingItemResult{SessionDate: target, SessionID: sibling.ID}

		if sibling.Status.Terminal() {
			result.Reason = "occurrence already finished"
			resp.Skipped++
			resp.Results = append(resp.Results, result)
			continue
		}
		if target.Before(now) {
			result.Reason = "new start is in the past"
			resp.Skipped++
			resp.Results = append(resp.Results, result)
			continue
		}

		candidate := sibling
		candidate.SessionDate = target
		if err := s.checkSlot(ctx, tx, &candidate, &result); err != nil {
			return nil, err
		}
		if !result.OK {
			resp.Skipped++
			resp.Results = append(resp.Results, result)
			continue
		}

		if _, err := s.repo.UpdateSchedule(ctx, tx, sibling.ID, target, sibling.Status); err != nil {
			if err == sql.ErrNoRows {
				result.OK = false
				result.Reason = "occurrence changed state during reschedule"
				resp.Skipped++
				resp.Results = append(resp.Results, result)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to reschedule occurrence")
		}
		resp.Moved++
		resp.Results = append(resp.Results, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit series reschedule")
	}
	return resp, nil
}

// allowedTransitions enumerates the legal pure status moves. Cancellation,
// no-show and attendance go through their own workflows. Open slots move
// between available and blocked in both directions for trainer-held time.
var allowedTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionStatusAvailable: {models.SessionStatusRequested, models.SessionStatusBlocked},
	models.SessionStatusRequested: {models.SessionStatusScheduled},
	models.SessionStatusScheduled: {models.SessionStatusConfirmed},
	models.SessionStatusConfirmed: {models.SessionStatusCompleted},
	models.SessionStatusBlocked:   {models.SessionStatusAvailable},
}

func transitionAllowed(from, to models.SessionStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// UpdateStatus performs a pure lifecycle transition guarded by a
// compare-and-set on the current status.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID string, next models.SessionStatus) (*models.Session, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(session.Status, next) {
		return nil, appErrors.Clone(appErrors.ErrStateTransition, "transition not allowed from current status")
	}
	updated, err := s.repo.UpdateStatusIfCurrent(ctx, nil, sessionID, session.Status, next)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session changed state concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update session status")
	}
	if next == models.SessionStatusConfirmed {
		s.events.PublishSession(models.EventSessionConfirmed, updated)
	}
	return updated, nil
}

// buildSession snapshots the session type settings onto a new session. The
// stored duration and buffers never change when the type is later edited.
func (s *SessionService) buildSession(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error) {
	sessionType, err := s.loadSessionType(ctx, req.SessionTypeID)
	if err != nil {
		return nil, err
	}
	status := models.SessionStatusScheduled
	if req.IsBlocked {
		status = models.SessionStatusBlocked
	} else if req.UserID == nil {
		status = models.SessionStatusAvailable
	}
	return &models.Session{
		TrainerID:     req.TrainerID,
		UserID:        req.UserID,
		SessionTypeID: sessionType.ID,
		SessionDate:   req.SessionDate,
		Duration:      sessionType.Duration,
		BufferBefore:  sessionType.BufferBefore,
		BufferAfter:   sessionType.BufferAfter,
		Status:        status,
		IsBlocked:     req.IsBlocked,
	}, nil
}

func (s *SessionService) loadSessionType(ctx context.Context, id string) (*models.SessionType, error) {
	sessionType, err := s.sessionTypes.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session type")
	}
	if !sessionType.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session type is inactive")
	}
	return sessionType, nil
}

// reserve writes a single session under the trainer lock. Credit deduction
// for client bookings happens in the same transaction. Transient persistence
// failures retry once after a short delay; unique and exclusion violations
// surface as conflicts.
func (s *SessionService) reserve(ctx context.Context, session *models.Session) error {
	attempt := func() error {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
		}
		defer tx.Rollback()

		if err := s.repo.AcquireTrainerLock(ctx, tx, session.TrainerID); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to lock trainer schedule")
		}

		var probe dto.BookingItemResult
		if err := s.checkSlot(ctx, tx, session, &probe); err != nil {
			return err
		}
		if !probe.OK {
			if probe.ConflictingSessionID != "" {
				return appErrors.ConflictWith(probe.ConflictingSessionID)
			}
			return appErrors.Clone(appErrors.ErrOutsideAvailability, "")
		}

		if session.UserID != nil {
			deducted, err := s.credits.Deduct(ctx, tx, *session.UserID)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to deduct session credit")
			}
			session.CreditDeducted = deducted
		}

		if err := s.repo.Create(ctx, tx, session); err != nil {
			if database.IsExclusionViolation(err) {
				return appErrors.Clone(appErrors.ErrConflict, "")
			}
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create session")
		}
		if err := tx.Commit(); err != nil {
			return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit booking")
		}
		return nil
	}

	err := attempt()
	if err == nil {
		return nil
	}
	appErr := appErrors.FromError(err)
	if appErr.Code != appErrors.ErrPersistence.Code {
		return err
	}

	s.logger.Warn("booking persist failed, retrying once",
		zap.String("trainer_id", session.TrainerID),
		zap.Time("session_date", session.SessionDate),
		zap.Error(err))

	select {
	case <-ctx.Done():
		return appErrors.Wrap(ctx.Err(), appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "booking aborted")
	case <-time.After(s.cfg.PersistRetryDelay):
	}
	session.ID = ""
	return attempt()
}

// checkSlot validates a candidate against availability and existing sessions.
// Blocked sessions skip the availability containment test; they exist to take
// time away. The overlap query is bounded by the configured conflict window
// around the candidate's effective interval.
func (s *SessionService) checkSlot(ctx context.Context, tx sqlx.ExtContext, candidate *models.Session, result *dto.BookingItemResult) error {
	if !candidate.IsBlocked && candidate.Status != models.SessionStatusBlocked {
		open, _, err := s.availability.Resolve(ctx, candidate.TrainerID, startOfDay(candidate.EffectiveStart()), startOfDay(candidate.EffectiveEnd()).AddDate(0, 0, 1))
		if err != nil {
			return err
		}
		if !s.conflicts.WithinAvailability(candidate, open) {
			result.OK = false
			result.Reason = "outside trainer availability"
			return nil
		}
	}

	window := time.Duration(s.cfg.ConflictWindowMinutes) * time.Minute
	existing, err := s.repo.ListOverlapping(ctx, tx,
		candidate.TrainerID,
		candidate.EffectiveStart().Add(-window),
		candidate.EffectiveEnd().Add(window))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check for conflicts")
	}
	if blocking := s.conflicts.FindConflict(candidate, existing); blocking != nil {
		result.OK = false
		result.Reason = "time slot conflicts with an existing session"
		result.ConflictingSessionID = blocking.ID
		return nil
	}
	result.OK = true
	return nil
}
