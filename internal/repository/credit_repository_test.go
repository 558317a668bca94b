package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestCreditRepositoryGetBalanceMissingRow(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	mock.ExpectQuery("SELECT user_id, balance, updated_at FROM client_credits").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "balance", "updated_at"}))

	credit, err := repo.GetBalance(context.Background(), "client-1")
	require.NoError(t, err)
	require.Equal(t, "client-1", credit.UserID)
	require.Zero(t, credit.Balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepositoryDeduct(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_credits SET balance = balance - 1")).
		WithArgs("client-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deducted, err := repo.Deduct(context.Background(), nil, "client-1")
	require.NoError(t, err)
	require.True(t, deducted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepositoryDeductEmptyBalance(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	// Guard clause matches no rows when balance is already zero.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE client_credits SET balance = balance - 1")).
		WithArgs("client-2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deducted, err := repo.Deduct(context.Background(), nil, "client-2")
	require.NoError(t, err)
	require.False(t, deducted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepositoryRestoreUpserts(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_credits")).
		WithArgs("client-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Restore(context.Background(), nil, "client-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepositoryGrant(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO client_credits")).
		WithArgs("client-1", 10, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Grant(context.Background(), "client-1", 10))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditRepositoryGrantRejectsNonPositive(t *testing.T) {
	db, _, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewCreditRepository(db)

	require.Error(t, repo.Grant(context.Background(), "client-1", 0))
	require.Error(t, repo.Grant(context.Background(), "client-1", -3))
}
