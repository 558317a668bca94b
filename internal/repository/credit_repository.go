package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kineticfit/booking-api/internal/models"
)

// CreditRepository manages client session credit balances.
type CreditRepository struct {
	db *sqlx.DB
}

// NewCreditRepository builds the repository.
func NewCreditRepository(db *sqlx.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

func (r *CreditRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// GetBalance returns the client's current credit balance; zero when no row
// exists yet.
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (*models.ClientCredit, error) {
	const query = `SELECT user_id, balance, updated_at FROM client_credits WHERE user_id = $1 LIMIT 1`
	var credit models.ClientCredit
	if err := r.db.GetContext(ctx, &credit, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return &models.ClientCredit{UserID: userID}, nil
		}
		return nil, fmt.Errorf("get credit balance: %w", err)
	}
	return &credit, nil
}

// Deduct removes one credit when the balance allows it. Returns false when the
// client has no credit to consume; booking still proceeds in that case and the
// charge is settled out of band.
func (r *CreditRepository) Deduct(ctx context.Context, exec sqlx.ExtContext, userID string) (bool, error) {
	const query = `UPDATE client_credits SET balance = balance - 1, updated_at = $2 WHERE user_id = $1 AND balance > 0`
	res, err := r.exec(exec).ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("deduct credit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deduct credit: %w", err)
	}
	return n > 0, nil
}

// Restore returns one credit to the client, creating the balance row when
// missing. Callers guarantee exactly-once semantics by pairing this with the
// session's credit-restored flag in one transaction.
func (r *CreditRepository) Restore(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	const query = `
INSERT INTO client_credits (user_id, balance, updated_at) VALUES ($1, 1, $2)
ON CONFLICT (user_id) DO UPDATE SET balance = client_credits.balance + 1, updated_at = EXCLUDED.updated_at`
	if _, err := r.exec(exec).ExecContext(ctx, query, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("restore credit: %w", err)
	}
	return nil
}

// Grant adds purchased credits to a client balance.
func (r *CreditRepository) Grant(ctx context.Context, userID string, count int) error {
	if count <= 0 {
		return fmt.Errorf("credit grant must be positive")
	}
	const query = `
INSERT INTO client_credits (user_id, balance, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET balance = client_credits.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, userID, count, time.Now().UTC()); err != nil {
		return fmt.Errorf("grant credits: %w", err)
	}
	return nil
}
