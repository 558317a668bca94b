package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/kineticfit/booking-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows(sessions ...models.Session) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "trainer_id", "user_id", "session_type_id", "session_date", "duration",
		"buffer_before", "buffer_after", "status", "is_blocked", "recurring_group_id",
		"recurrence_rule", "credit_deducted", "cancelled_by", "cancellation_reason",
		"cancelled_at", "cancellation_charge_type", "cancellation_charge_amount",
		"cancellation_decision", "cancellation_reviewed_by", "cancellation_reviewed_at",
		"cancellation_review_reason", "session_credit_restored", "cancellation_charged_at",
		"attendance_status", "check_in_time", "check_out_time", "no_show_reason",
		"marked_present_by", "attendance_recorded_at", "created_at", "updated_at",
	})
	for _, s := range sessions {
		rows.AddRow(
			s.ID, s.TrainerID, s.UserID, s.SessionTypeID, s.SessionDate, s.Duration,
			s.BufferBefore, s.BufferAfter, s.Status, s.IsBlocked, s.RecurringGroupID,
			s.RecurrenceRule, s.CreditDeducted, s.CancelledBy, s.CancellationReason,
			s.CancelledAt, s.CancellationChargeType, s.CancellationChargeAmount,
			s.CancellationDecision, s.CancellationReviewedBy, s.CancellationReviewedAt,
			s.CancellationReviewReason, s.SessionCreditRestored, s.CancellationChargedAt,
			s.AttendanceStatus, s.CheckInTime, s.CheckOutTime, s.NoShowReason,
			s.MarkedPresentBy, s.AttendanceRecordedAt, s.CreatedAt, s.UpdatedAt,
		)
	}
	return rows
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.Session{
		TrainerID:     "tr-1",
		SessionTypeID: "st-1",
		SessionDate:   time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Duration:      60,
		BufferAfter:   15,
		Status:        models.SessionStatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), nil, session))
	require.NotEmpty(t, session.ID)
	require.False(t, session.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListOverlapping(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	existing := models.Session{
		ID:          "sess-1",
		TrainerID:   "tr-1",
		SessionDate: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Duration:    60,
		BufferAfter: 15,
		Status:      models.SessionStatusScheduled,
	}
	mock.ExpectQuery("SELECT (.+) FROM sessions").
		WithArgs("tr-1", models.SessionStatusCancelled, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sessionRows(existing))

	sessions, err := repo.ListOverlapping(context.Background(), nil, "tr-1",
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "sess-1", sessions[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListClientScope(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	open := models.Session{
		ID:          "sess-open",
		TrainerID:   "tr-1",
		SessionDate: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Duration:    60,
		Status:      models.SessionStatusAvailable,
	}
	mock.ExpectQuery(regexp.QuoteMeta(`(user_id = $1 OR user_id IS NULL)`)).
		WithArgs("client-1").
		WillReturnRows(sessionRows(open))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.SessionFilter{VisibleToClient: "client-1"})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListPendingDecision(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	pending := models.Session{
		ID:          "sess-1",
		TrainerID:   "tr-1",
		SessionDate: time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
		Duration:    60,
		Status:      models.SessionStatusCancelled,
	}
	mock.ExpectQuery(regexp.QuoteMeta(`status = $1 AND cancellation_decision = $2`)).
		WithArgs(models.SessionStatusCancelled, models.DecisionPending).
		WillReturnRows(sessionRows(pending))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(models.SessionStatusCancelled, models.DecisionPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.SessionFilter{
		Status:          models.SessionStatusCancelled,
		DecisionPending: true,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateStatusIfCurrentLostRace(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery("UPDATE sessions SET status").
		WithArgs("sess-1", models.SessionStatusScheduled, models.SessionStatusConfirmed, false, sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatusIfCurrent(context.Background(), nil, "sess-1",
		models.SessionStatusScheduled, models.SessionStatusConfirmed)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryResolveCancellationAlreadySettled(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	// Decision no longer pending: the guarded update matches no rows.
	mock.ExpectQuery("UPDATE sessions SET").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ResolveCancellation(context.Background(), nil, ResolveParams{
		SessionID:  "sess-1",
		Decision:   models.DecisionWaived,
		ReviewedBy: "admin-1",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryAcquireTrainerLock(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(trainerLockKey("tr-1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AcquireTrainerLock(context.Background(), nil, "tr-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTrainerLockKeyStable(t *testing.T) {
	require.Equal(t, trainerLockKey("tr-1"), trainerLockKey("tr-1"))
	require.NotEqual(t, trainerLockKey("tr-1"), trainerLockKey("tr-2"))
}

func TestSessionRepositorySetCheckIn(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	checkIn := time.Date(2026, 9, 7, 8, 58, 0, 0, time.UTC)
	updated := models.Session{
		ID:          "sess-1",
		TrainerID:   "tr-1",
		Status:      models.SessionStatusConfirmed,
		CheckInTime: &checkIn,
	}
	mock.ExpectQuery("UPDATE sessions SET").
		WillReturnRows(sessionRows(updated))

	session, err := repo.SetCheckIn(context.Background(), nil, "sess-1", "tr-1", checkIn, models.AttendancePresent)
	require.NoError(t, err)
	require.NotNil(t, session.CheckInTime)
	require.Equal(t, checkIn, session.CheckInTime.UTC())
	require.NoError(t, mock.ExpectationsWereMet())
}
