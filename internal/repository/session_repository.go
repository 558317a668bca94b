package repository

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kineticfit/booking-api/internal/models"
)

const sessionColumns = `id, trainer_id, user_id, session_type_id, session_date, duration, buffer_before, buffer_after, status, is_blocked, recurring_group_id, recurrence_rule, credit_deducted, cancelled_by, cancellation_reason, cancelled_at, cancellation_charge_type, cancellation_charge_amount, cancellation_decision, cancellation_reviewed_by, cancellation_reviewed_at, cancellation_review_reason, session_credit_restored, cancellation_charged_at, attendance_status, check_in_time, check_out_time, no_show_reason, marked_present_by, attendance_recorded_at, created_at, updated_at`

// SessionRepository manages persistence for sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository builds the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// BeginTx opens a transaction on the underlying database.
func (r *SessionRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}

// AcquireTrainerLock takes a transaction-scoped advisory lock keyed by the
// trainer so that conflict check and insert run as one serializable unit.
// Released automatically at commit or rollback.
func (r *SessionRepository) AcquireTrainerLock(ctx context.Context, exec sqlx.ExtContext, trainerID string) error {
	if _, err := r.exec(exec).ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, trainerLockKey(trainerID)); err != nil {
		return fmt.Errorf("acquire trainer lock: %w", err)
	}
	return nil
}

func trainerLockKey(trainerID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(trainerID))
	return int64(h.Sum64())
}

// Create inserts a session row.
func (r *SessionRepository) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `
INSERT INTO sessions (id, trainer_id, user_id, session_type_id, session_date, duration, buffer_before, buffer_after, status, is_blocked, recurring_group_id, recurrence_rule, credit_deducted, session_credit_restored, created_at, updated_at)
VALUES (:id, :trainer_id, :user_id, :session_type_id, :session_date, :duration, :buffer_before, :buffer_after, :status, :is_blocked, :recurring_group_id, :recurrence_rule, :credit_deducted, :session_credit_restored, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetByID returns a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 LIMIT 1`, sessionColumns)
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetByIDForUpdate loads a session with a row lock inside a transaction.
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListOverlapping returns the trainer's non-cancelled sessions whose effective
// interval intersects [from, to). Buffers widen each stored row in SQL so the
// comparison happens on effective bounds.
func (r *SessionRepository) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, trainerID string, from, to time.Time) ([]models.Session, error) {
	query := fmt.Sprintf(`
SELECT %s FROM sessions
WHERE trainer_id = $1
  AND status <> $2
  AND (session_date - (buffer_before * interval '1 minute')) < $4
  AND (session_date + ((duration + buffer_after) * interval '1 minute')) > $3
ORDER BY session_date ASC`, sessionColumns)
	var sessions []models.Session
	if err := sqlx.SelectContext(ctx, r.exec(exec), &sessions, query, trainerID, models.SessionStatusCancelled, from, to); err != nil {
		return nil, fmt.Errorf("list overlapping sessions: %w", err)
	}
	return sessions, nil
}

// ListByGroup returns every occurrence of a recurring group.
func (r *SessionRepository) ListByGroup(ctx context.Context, groupID string) ([]models.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE recurring_group_id = $1 ORDER BY session_date ASC`, sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, groupID); err != nil {
		return nil, fmt.Errorf("list sessions by group: %w", err)
	}
	return sessions, nil
}

// List returns sessions matching the filter with a total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	baseQuery := `FROM sessions WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TrainerID != "" {
		conditions = append(conditions, fmt.Sprintf("trainer_id = $%d", len(args)+1))
		args = append(args, filter.TrainerID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.VisibleToClient != "" {
		conditions = append(conditions, fmt.Sprintf("(user_id = $%d OR user_id IS NULL)", len(args)+1))
		args = append(args, filter.VisibleToClient)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DecisionPending {
		conditions = append(conditions, fmt.Sprintf("cancellation_decision = $%d", len(args)+1))
		args = append(args, models.DecisionPending)
	}
	if filter.GroupID != "" {
		conditions = append(conditions, fmt.Sprintf("recurring_group_id = $%d", len(args)+1))
		args = append(args, filter.GroupID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("session_date < $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY session_date ASC LIMIT %d OFFSET %d", sessionColumns, baseQuery, pageSize, offset)

	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// UpdateStatusIfCurrent transitions the status only when the stored status
// still matches the expected one. sql.ErrNoRows signals a lost race or an
// illegal move.
func (r *SessionRepository) UpdateStatusIfCurrent(ctx context.Context, exec sqlx.ExtContext, id string, current, next models.SessionStatus) (*models.Session, error) {
	// is_blocked tracks the blocked status so unblocking reopens the slot.
	query := fmt.Sprintf(`UPDATE sessions SET status = $3, is_blocked = $4, updated_at = $5 WHERE id = $1 AND status = $2 RETURNING %s`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id, current, next, next == models.SessionStatusBlocked, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &session, nil
}

// AssignClient books an open slot: attaches the client and moves the status,
// guarded by the current status so two bookers cannot both win.
func (r *SessionRepository) AssignClient(ctx context.Context, exec sqlx.ExtContext, id, userID string, next models.SessionStatus, creditDeducted bool) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET user_id = $2, status = $3, credit_deducted = $4, updated_at = $5
WHERE id = $1 AND status = $6 AND user_id IS NULL
RETURNING %s`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id, userID, next, creditDeducted, time.Now().UTC(), models.SessionStatusAvailable); err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSchedule moves a session to a new start, guarded by the current status.
func (r *SessionRepository) UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, newDate time.Time, current models.SessionStatus) (*models.Session, error) {
	query := fmt.Sprintf(`UPDATE sessions SET session_date = $2, updated_at = $3 WHERE id = $1 AND status = $4 RETURNING %s`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id, newDate, time.Now().UTC(), current); err != nil {
		return nil, err
	}
	return &session, nil
}

// CancelParams captures the fields written when a session enters cancellation.
type CancelParams struct {
	SessionID    string
	CancelledBy  string
	Reason       string
	ChargeType   models.CancellationChargeType
	ChargeAmount float64
	Decision     models.CancellationDecision
	ChargedAt    *time.Time
}

// Cancel transitions a cancellable session into cancelled with its provisional
// charge classification. sql.ErrNoRows signals the session was not cancellable.
func (r *SessionRepository) Cancel(ctx context.Context, exec sqlx.ExtContext, p CancelParams) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET
  status = $2,
  cancelled_by = $3,
  cancellation_reason = $4,
  cancelled_at = $5,
  cancellation_charge_type = $6,
  cancellation_charge_amount = $7,
  cancellation_decision = $8,
  cancellation_charged_at = $9,
  updated_at = $5
WHERE id = $1 AND status = ANY($10)
RETURNING %s`, sessionColumns)
	cancellable := []string{
		string(models.SessionStatusAvailable),
		string(models.SessionStatusRequested),
		string(models.SessionStatusScheduled),
		string(models.SessionStatusConfirmed),
	}
	var session models.Session
	now := time.Now().UTC()
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query,
		p.SessionID, models.SessionStatusCancelled, p.CancelledBy, p.Reason, now,
		p.ChargeType, p.ChargeAmount, p.Decision, p.ChargedAt, pq.Array(cancellable)); err != nil {
		return nil, err
	}
	return &session, nil
}

// ResolveParams captures an adjudication write.
type ResolveParams struct {
	SessionID     string
	Decision      models.CancellationDecision
	ReviewedBy    string
	ReviewReason  string
	ChargeAmount  *float64
	RestoreCredit bool
	ChargedAt     *time.Time
}

// ResolveCancellation settles a pending decision. The WHERE clause pins the
// stored decision to pending, so a concurrent duplicate adjudication loses the
// race and sees sql.ErrNoRows; callers treat that as an idempotent no-op.
// session_credit_restored is set in the same statement as the decision.
func (r *SessionRepository) ResolveCancellation(ctx context.Context, exec sqlx.ExtContext, p ResolveParams) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET
  cancellation_decision = $2,
  cancellation_reviewed_by = $3,
  cancellation_reviewed_at = $4,
  cancellation_review_reason = $5,
  cancellation_charge_amount = COALESCE($6, cancellation_charge_amount),
  session_credit_restored = $7,
  cancellation_charged_at = COALESCE($8, cancellation_charged_at),
  updated_at = $4
WHERE id = $1 AND status = $9 AND cancellation_decision = $10
RETURNING %s`, sessionColumns)
	var session models.Session
	now := time.Now().UTC()
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query,
		p.SessionID, p.Decision, p.ReviewedBy, now, p.ReviewReason,
		p.ChargeAmount, p.RestoreCredit, p.ChargedAt,
		models.SessionStatusCancelled, models.DecisionPending); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetCheckIn records a check-in only when none exists yet and the session is
// still in an attendable status. sql.ErrNoRows means the write was skipped.
func (r *SessionRepository) SetCheckIn(ctx context.Context, exec sqlx.ExtContext, id, actorID string, at time.Time, status models.AttendanceStatus) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET
  attendance_status = $2,
  check_in_time = $3,
  marked_present_by = $4,
  attendance_recorded_at = $5,
  updated_at = $5
WHERE id = $1 AND check_in_time IS NULL AND status = ANY($6)
RETURNING %s`, sessionColumns)
	attendable := []string{
		string(models.SessionStatusScheduled),
		string(models.SessionStatusConfirmed),
	}
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query,
		id, status, at, actorID, time.Now().UTC(), pq.Array(attendable)); err != nil {
		return nil, err
	}
	return &session, nil
}

// SetCheckOut records the departure time on a checked-in session.
func (r *SessionRepository) SetCheckOut(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET check_out_time = $2, updated_at = $3
WHERE id = $1 AND check_in_time IS NOT NULL
RETURNING %s`, sessionColumns)
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query, id, at, time.Now().UTC()); err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkNoShow transitions an attendable, not-yet-checked-in session to no_show.
func (r *SessionRepository) MarkNoShow(ctx context.Context, exec sqlx.ExtContext, id, actorID, reason string, at time.Time) (*models.Session, error) {
	query := fmt.Sprintf(`
UPDATE sessions SET
  status = $2,
  attendance_status = $3,
  no_show_reason = $4,
  marked_present_by = $5,
  attendance_recorded_at = $6,
  updated_at = $6
WHERE id = $1 AND check_in_time IS NULL AND status = ANY($7)
RETURNING %s`, sessionColumns)
	attendable := []string{
		string(models.SessionStatusScheduled),
		string(models.SessionStatusConfirmed),
	}
	var session models.Session
	if err := sqlx.GetContext(ctx, r.exec(exec), &session, query,
		id, models.SessionStatusNoShow, models.AttendanceNoShow, reason, actorID, at, pq.Array(attendable)); err != nil {
		return nil, err
	}
	return &session, nil
}
