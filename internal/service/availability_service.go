package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

type availabilityRepository interface {
	Create(ctx context.Context, block *models.TrainerAvailabilityBlock) error
	GetByID(ctx context.Context, id string) (*models.TrainerAvailabilityBlock, error)
	ListForTrainer(ctx context.Context, trainerID string, from, to time.Time) ([]models.TrainerAvailabilityBlock, error)
	HasOverlappingRecurring(ctx context.Context, trainerID string, dayOfWeek, startMinute, endMinute int, excludeID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// AvailabilityService manages trainer availability blocks and resolves them
// into concrete open intervals for a date window.
type AvailabilityService struct {
	repo      availabilityRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs AvailabilityService.
func NewAvailabilityService(repo availabilityRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

func availabilityCacheKey(trainerID string, from, to time.Time) string {
	return fmt.Sprintf("availability:%s:%s:%s", trainerID, from.UTC().Format("20060102"), to.UTC().Format("20060102"))
}

// CreateBlock adds an availability block for a trainer. Recurring available
// blocks must not overlap an existing recurring block on the same weekday.
func (s *AvailabilityService) CreateBlock(ctx context.Context, trainerID string, req dto.UpsertAvailabilityBlockRequest) (*models.TrainerAvailabilityBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}
	if req.EndMinute <= req.StartMinute {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "end minute must follow start minute")
	}
	if req.IsRecurring {
		if req.DayOfWeek == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recurring block requires a day of week")
		}
	} else {
		if req.EffectiveFrom == nil || req.EffectiveTo == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "override block requires an effective range")
		}
		if !req.EffectiveTo.After(*req.EffectiveFrom) {
			return nil, appErrors.Clone(appErrors.ErrInvalidRange, "effective range end precedes start")
		}
	}

	kind := models.AvailabilityKind(req.Kind)
	if req.IsRecurring && kind == models.AvailabilityAvailable {
		overlaps, err := s.repo.HasOverlappingRecurring(ctx, trainerID, *req.DayOfWeek, req.StartMinute, req.EndMinute, "")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate availability block")
		}
		if overlaps {
			return nil, appErrors.Clone(appErrors.ErrConflict, "overlapping recurring availability block")
		}
	}

	block := &models.TrainerAvailabilityBlock{
		TrainerID:     trainerID,
		DayOfWeek:     req.DayOfWeek,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		StartMinute:   req.StartMinute,
		EndMinute:     req.EndMinute,
		Kind:          kind,
		IsRecurring:   req.IsRecurring,
	}
	if err := s.repo.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to create availability block")
	}
	s.invalidate(ctx, trainerID)
	return block, nil
}

// ListBlocks returns the raw blocks intersecting the window.
func (s *AvailabilityService) ListBlocks(ctx context.Context, trainerID string, from, to time.Time) ([]models.TrainerAvailabilityBlock, error) {
	if !to.After(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}
	blocks, err := s.repo.ListForTrainer(ctx, trainerID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability blocks")
	}
	return blocks, nil
}

// DeleteBlock removes a block owned by the trainer.
func (s *AvailabilityService) DeleteBlock(ctx context.Context, trainerID, blockID string) error {
	block, err := s.repo.GetByID(ctx, blockID)
	if err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "availability block not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability block")
	}
	if block.TrainerID != trainerID {
		return appErrors.Clone(appErrors.ErrForbidden, "block belongs to another trainer")
	}
	if err := s.repo.Delete(ctx, blockID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to delete availability block")
	}
	s.invalidate(ctx, trainerID)
	return nil
}

// Resolve flattens the trainer's blocks into concrete open intervals for each
// day in [from, to). Blocked and vacation blocks punch holes in the available
// windows. Results are cached per trainer and window; the second return
// reports whether the cache served the window.
func (s *AvailabilityService) Resolve(ctx context.Context, trainerID string, from, to time.Time) ([]models.OpenInterval, bool, error) {
	if !to.After(from) {
		return nil, false, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	key := availabilityCacheKey(trainerID, from, to)
	if s.cache.Enabled() {
		var cached []models.OpenInterval
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	blocks, err := s.repo.ListForTrainer(ctx, trainerID, from, to)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability blocks")
	}

	intervals := resolveIntervals(blocks, from, to)

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, intervals, s.cacheTTL); err != nil {
			s.logger.Warn("availability cache write failed", zap.String("trainer_id", trainerID), zap.Error(err))
		}
	}
	return intervals, false, nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, trainerID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("availability:%s:*", trainerID)); err != nil {
		s.logger.Warn("availability cache invalidation failed", zap.String("trainer_id", trainerID), zap.Error(err))
	}
}

// resolveIntervals walks the window day by day, applying recurring available
// windows first, then subtracting recurring and override blocked or vacation
// time. Output is sorted and non-overlapping.
func resolveIntervals(blocks []models.TrainerAvailabilityBlock, from, to time.Time) []models.OpenInterval {
	var open []models.OpenInterval
	for day := startOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		var dayOpen []models.OpenInterval
		for _, b := range blocks {
			if b.Kind != models.AvailabilityAvailable || !b.AppliesOn(day) {
				continue
			}
			dayOpen = append(dayOpen, models.OpenInterval{
				Start: day.Add(time.Duration(b.StartMinute) * time.Minute),
				End:   day.Add(time.Duration(b.EndMinute) * time.Minute),
			})
		}
		for _, b := range blocks {
			if b.Kind == models.AvailabilityAvailable || !b.AppliesOn(day) {
				continue
			}
			hole := models.OpenInterval{
				Start: day.Add(time.Duration(b.StartMinute) * time.Minute),
				End:   day.Add(time.Duration(b.EndMinute) * time.Minute),
			}
			dayOpen = subtractInterval(dayOpen, hole)
		}
		open = append(open, dayOpen...)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Start.Before(open[j].Start) })
	return clampIntervals(open, from, to)
}

func subtractInterval(intervals []models.OpenInterval, hole models.OpenInterval) []models.OpenInterval {
	var out []models.OpenInterval
	for _, iv := range intervals {
		if !hole.Start.Before(iv.End) || !iv.Start.Before(hole.End) {
			out = append(out, iv)
			continue
		}
		if iv.Start.Before(hole.Start) {
			out = append(out, models.OpenInterval{Start: iv.Start, End: hole.Start})
		}
		if hole.End.Before(iv.End) {
			out = append(out, models.OpenInterval{Start: hole.End, End: iv.End})
		}
	}
	return out
}

func clampIntervals(intervals []models.OpenInterval, from, to time.Time) []models.OpenInterval {
	var out []models.OpenInterval
	for _, iv := range intervals {
		if iv.Start.Before(from) {
			iv.Start = from
		}
		if iv.End.After(to) {
			iv.End = to
		}
		if iv.Start.Before(iv.End) {
			out = append(out, iv)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
