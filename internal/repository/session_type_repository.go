package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kineticfit/booking-api/internal/models"
)

const sessionTypeColumns = `id, name, duration, buffer_before, buffer_after, color, price, is_active, created_at, updated_at`

// SessionTypeRepository manages the session type catalog.
type SessionTypeRepository struct {
	db *sqlx.DB
}

// NewSessionTypeRepository builds the repository.
func NewSessionTypeRepository(db *sqlx.DB) *SessionTypeRepository {
	return &SessionTypeRepository{db: db}
}

// Create inserts a catalog entry.
func (r *SessionTypeRepository) Create(ctx context.Context, st *models.SessionType) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now

	const query = `
INSERT INTO session_types (id, name, duration, buffer_before, buffer_after, color, price, is_active, created_at, updated_at)
VALUES (:id, :name, :duration, :buffer_before, :buffer_after, :color, :price, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("create session type: %w", err)
	}
	return nil
}

// GetByID returns a catalog entry by identifier, active or not. Historical
// sessions reference soft-deleted types, so lookup never filters on is_active.
func (r *SessionTypeRepository) GetByID(ctx context.Context, id string) (*models.SessionType, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_types WHERE id = $1 LIMIT 1`, sessionTypeColumns)
	var st models.SessionType
	if err := r.db.GetContext(ctx, &st, query, id); err != nil {
		return nil, err
	}
	return &st, nil
}

// List returns catalog entries, optionally including soft-deleted ones.
func (r *SessionTypeRepository) List(ctx context.Context, includeInactive bool) ([]models.SessionType, error) {
	query := fmt.Sprintf(`SELECT %s FROM session_types`, sessionTypeColumns)
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name ASC`
	var types []models.SessionType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list session types: %w", err)
	}
	return types, nil
}

// Update writes the mutable catalog fields.
func (r *SessionTypeRepository) Update(ctx context.Context, st *models.SessionType) error {
	st.UpdatedAt = time.Now().UTC()
	const query = `
UPDATE session_types SET name = :name, duration = :duration, buffer_before = :buffer_before, buffer_after = :buffer_after, color = :color, price = :price, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, st); err != nil {
		return fmt.Errorf("update session type: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a catalog entry. Rows are never hard-deleted.
func (r *SessionTypeRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE session_types SET is_active = FALSE, updated_at = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate session type: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("session type %s not found", id)
	}
	return nil
}
