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
	"github.com/kineticfit/booking-api/internal/repository"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type cancellationStore interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error)
	Cancel(ctx context.Context, exec sqlx.ExtContext, p repository.CancelParams) (*models.Session, error)
	ResolveCancellation(ctx context.Context, exec sqlx.ExtContext, p repository.ResolveParams) (*models.Session, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
}

// CancellationService runs the cancellation workflow: policy evaluation at
// cancel time, admin adjudication, and exactly-once credit restoration. The
// charge policy is injected configuration, never a constant.
type CancellationService struct {
	repo         cancellationStore
	sessionTypes sessionTypeReader
	credits      creditStore
	policy       models.CancellationPolicy
	events       eventEmitter
	validator    *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewCancellationService constructs CancellationService.
func NewCancellationService(
	repo cancellationStore,
	sessionTypes sessionTypeReader,
	credits creditStore,
	policy models.CancellationPolicy,
	events eventEmitter,
	validate *validator.Validate,
	logger *zap.Logger,
) *CancellationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CancellationService{
		repo:         repo,
		sessionTypes: sessionTypes,
		credits:      credits,
		policy:       policy,
		events:       events,
		validator:    validate,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Cancel moves a cancellable session into cancelled and classifies the charge
// from the notice the caller gave. A charge type of none is settled
// immediately as waived, restoring the client's credit in the same
// transaction; anything else leaves the decision pending for review.
func (s *CancellationService) Cancel(ctx context.Context, sessionID, actorID string, req dto.CancelSessionRequest) (*dto.CancellationOutcome, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	session, err := s.repo.GetByIDForUpdate(ctx, tx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if !session.Status.Cancellable() {
		return nil, appErrors.Clone(appErrors.ErrStateTransition, "session is not cancellable")
	}

	sessionType, err := s.sessionTypes.GetByID(ctx, session.SessionTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session type")
	}

	notice := session.SessionDate.Sub(s.now())
	chargeType := s.policy.ChargeTypeFor(notice)
	amount := s.policy.ChargeAmountFor(chargeType, sessionType.Price, nil)

	cancelled, err := s.repo.Cancel(ctx, tx, repository.CancelParams{
		SessionID:    sessionID,
		CancelledBy:  actorID,
		Reason:       req.Reason,
		ChargeType:   chargeType,
		ChargeAmount: amount,
		Decision:     models.DecisionPending,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrStateTransition, "session changed state during cancellation")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to cancel session")
	}

	outcome := &dto.CancellationOutcome{
		SessionID:    sessionID,
		ChargeType:   chargeType,
		ChargeAmount: amount,
		Decision:     models.DecisionPending,
	}

	if chargeType == models.ChargeTypeNone {
		restore := cancelled.CreditDeducted && cancelled.UserID != nil
		settled, err := s.repo.ResolveCancellation(ctx, tx, repository.ResolveParams{
			SessionID:     sessionID,
			Decision:      models.DecisionWaived,
			ReviewedBy:    actorID,
			ReviewReason:  "waived automatically, cancelled with sufficient notice",
			RestoreCredit: restore,
		})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to settle cancellation")
		}
		if restore {
			if err := s.credits.Restore(ctx, tx, *cancelled.UserID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to restore session credit")
			}
		}
		outcome.Decision = models.DecisionWaived
		outcome.SessionCreditRestored = settled.SessionCreditRestored
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit cancellation")
	}
	s.events.PublishSession(models.EventSessionCancelled, cancelled)
	return outcome, nil
}

// Review adjudicates a pending cancellation into charged or waived. The
// update is pinned to the pending decision, so a duplicate review loses the
// race and reads back the settled state instead of changing it. Waiving
// restores the client's credit exactly once; charging emits a charge request
// for the payment collaborator.
func (s *CancellationService) Review(ctx context.Context, sessionID, reviewerID string, req dto.ReviewCancellationRequest) (*dto.CancellationOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to open transaction")
	}
	defer tx.Rollback()

	session, err := s.repo.GetByIDForUpdate(ctx, tx, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Status != models.SessionStatusCancelled || session.CancellationDecision == nil {
		return nil, appErrors.Clone(appErrors.ErrStateTransition, "session has no cancellation to review")
	}
	if *session.CancellationDecision != models.DecisionPending {
		// Already settled: idempotent no-op.
		return outcomeFromSession(session), nil
	}

	restore := req.Decision == models.DecisionWaived && session.CreditDeducted &&
		!session.SessionCreditRestored && session.UserID != nil

	params := repository.ResolveParams{
		SessionID:     sessionID,
		Decision:      req.Decision,
		ReviewedBy:    reviewerID,
		ReviewReason:  req.Reason,
		ChargeAmount:  req.ChargeAmount,
		RestoreCredit: restore || session.SessionCreditRestored,
	}
	if req.Decision == models.DecisionCharged {
		now := s.now()
		params.ChargedAt = &now
	}

	settled, err := s.repo.ResolveCancellation(ctx, tx, params)
	if err != nil {
		if err == sql.ErrNoRows {
			// Lost the adjudication race: report the stored outcome.
			current, loadErr := s.repo.GetByID(ctx, sessionID)
			if loadErr != nil {
				return nil, appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load settled cancellation")
			}
			return outcomeFromSession(current), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to review cancellation")
	}

	if restore {
		if err := s.credits.Restore(ctx, tx, *session.UserID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to restore session credit")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to commit review")
	}

	if req.Decision == models.DecisionCharged && settled.UserID != nil {
		amount := float64(0)
		if settled.CancellationChargeAmount != nil {
			amount = *settled.CancellationChargeAmount
		}
		s.events.PublishCharge(models.ChargeRequest{
			SessionID: sessionID,
			ClientID:  *settled.UserID,
			Amount:    amount,
		})
	}
	return outcomeFromSession(settled), nil
}

// ListPending returns cancelled sessions awaiting adjudication. The pending
// predicate is part of the query, so paging and the total count only ever see
// undecided cancellations.
func (s *CancellationService) ListPending(ctx context.Context, page, pageSize int) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, models.SessionFilter{
		Status:          models.SessionStatusCancelled,
		DecisionPending: true,
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cancellations")
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return sessions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

func outcomeFromSession(session *models.Session) *dto.CancellationOutcome {
	outcome := &dto.CancellationOutcome{
		SessionID:             session.ID,
		SessionCreditRestored: session.SessionCreditRestored,
	}
	if session.CancellationChargeType != nil {
		outcome.ChargeType = *session.CancellationChargeType
	}
	if session.CancellationChargeAmount != nil {
		outcome.ChargeAmount = *session.CancellationChargeAmount
	}
	if session.CancellationDecision != nil {
		outcome.Decision = *session.CancellationDecision
	}
	return outcome
}
