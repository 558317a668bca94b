package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kineticfit/booking-api/internal/models"
)

const availabilityColumns = `id, trainer_id, day_of_week, effective_from, effective_to, start_minute, end_minute, kind, is_recurring, created_at, updated_at`

// AvailabilityRepository manages trainer availability blocks.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository builds the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Create inserts an availability block.
func (r *AvailabilityRepository) Create(ctx context.Context, block *models.TrainerAvailabilityBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now

	const query = `
INSERT INTO trainer_availability_blocks (id, trainer_id, day_of_week, effective_from, effective_to, start_minute, end_minute, kind, is_recurring, created_at, updated_at)
VALUES (:id, :trainer_id, :day_of_week, :effective_from, :effective_to, :start_minute, :end_minute, :kind, :is_recurring, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create availability block: %w", err)
	}
	return nil
}

// GetByID returns a block by identifier.
func (r *AvailabilityRepository) GetByID(ctx context.Context, id string) (*models.TrainerAvailabilityBlock, error) {
	query := fmt.Sprintf(`SELECT %s FROM trainer_availability_blocks WHERE id = $1 LIMIT 1`, availabilityColumns)
	var block models.TrainerAvailabilityBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		return nil, err
	}
	return &block, nil
}

// ListForTrainer returns every block that can influence the given window:
// all recurring blocks plus overrides intersecting [from, to].
func (r *AvailabilityRepository) ListForTrainer(ctx context.Context, trainerID string, from, to time.Time) ([]models.TrainerAvailabilityBlock, error) {
	query := fmt.Sprintf(`
SELECT %s FROM trainer_availability_blocks
WHERE trainer_id = $1
  AND (is_recurring = TRUE
       OR (effective_from <= $3 AND (effective_to IS NULL OR effective_to >= $2)))
ORDER BY is_recurring DESC, start_minute ASC`, availabilityColumns)
	var blocks []models.TrainerAvailabilityBlock
	if err := r.db.SelectContext(ctx, &blocks, query, trainerID, from, to); err != nil {
		return nil, fmt.Errorf("list availability blocks: %w", err)
	}
	return blocks, nil
}

// HasOverlappingRecurring reports whether another recurring available block of
// the trainer overlaps the candidate on the same weekday. Overlapping
// available blocks on one day are disallowed; blocked and vacation blocks may
// overlap freely.
func (r *AvailabilityRepository) HasOverlappingRecurring(ctx context.Context, trainerID string, dayOfWeek, startMinute, endMinute int, excludeID string) (bool, error) {
	const query = `
SELECT EXISTS (
  SELECT 1 FROM trainer_availability_blocks
  WHERE trainer_id = $1
    AND is_recurring = TRUE
    AND kind = $2
    AND day_of_week = $3
    AND start_minute < $5
    AND end_minute > $4
    AND id <> $6
)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, trainerID, models.AvailabilityAvailable, dayOfWeek, startMinute, endMinute, excludeID); err != nil {
		return false, fmt.Errorf("check overlapping recurring blocks: %w", err)
	}
	return exists, nil
}

// Delete removes an availability block.
func (r *AvailabilityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM trainer_availability_blocks WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete availability block: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("availability block %s not found", id)
	}
	return nil
}
