package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type sessionTypeRepository interface {
	Create(ctx context.Context, st *models.SessionType) error
	GetByID(ctx context.Context, id string) (*models.SessionType, error)
	List(ctx context.Context, includeInactive bool) ([]models.SessionType, error)
	Update(ctx context.Context, st *models.SessionType) error
	Deactivate(ctx context.Context, id string) error
}

// SessionTypeService manages the session type catalog. Types are soft
// deleted; sessions booked against a retired type keep their snapshotted
// duration and buffers.
type SessionTypeService struct {
	repo      sessionTypeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionTypeService constructs SessionTypeService.
func NewSessionTypeService(repo sessionTypeRepository, validate *validator.Validate, logger *zap.Logger) *SessionTypeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionTypeService{repo: repo, validator: validate, logger: logger}
}

// Create adds a catalog entry.
func (s *SessionTypeService) Create(ctx context.Context, req dto.CreateSessionTypeRequest) (*models.SessionType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session type payload")
	}
	sessionType := &models.SessionType{
		Name:         req.Name,
		Duration:     req.Duration,
		BufferBefore: req.BufferBefore,
		BufferAfter:  req.BufferAfter,
		Color:        req.Color,
		Price:        req.Price,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, sessionType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create session type")
	}
	return sessionType, nil
}

// Get loads a catalog entry, active or retired.
func (s *SessionTypeService) Get(ctx context.Context, id string) (*models.SessionType, error) {
	sessionType, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session type not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session type")
	}
	return sessionType, nil
}

// List returns catalog entries, optionally including retired ones.
func (s *SessionTypeService) List(ctx context.Context, includeInactive bool) ([]models.SessionType, error) {
	types, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session types")
	}
	return types, nil
}

// Update edits a catalog entry. Existing sessions are unaffected: duration
// and buffers were snapshotted at booking time.
func (s *SessionTypeService) Update(ctx context.Context, id string, req dto.UpdateSessionTypeRequest) (*models.SessionType, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session type payload")
	}
	sessionType, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		sessionType.Name = *req.Name
	}
	if req.Duration != nil {
		sessionType.Duration = *req.Duration
	}
	if req.BufferBefore != nil {
		sessionType.BufferBefore = *req.BufferBefore
	}
	if req.BufferAfter != nil {
		sessionType.BufferAfter = *req.BufferAfter
	}
	if req.Color != nil {
		sessionType.Color = *req.Color
	}
	if req.Price != nil {
		sessionType.Price = *req.Price
	}
	if err := s.repo.Update(ctx, sessionType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to update session type")
	}
	return sessionType, nil
}

// Deactivate retires a catalog entry without touching booked sessions.
func (s *SessionTypeService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to deactivate session type")
	}
	return nil
}
