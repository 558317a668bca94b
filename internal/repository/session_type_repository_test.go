package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/kineticfit/booking-api/internal/models"
)

func sessionTypeRows(types ...models.SessionType) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "name", "duration", "buffer_before", "buffer_after",
		"color", "price", "is_active", "created_at", "updated_at",
	})
	for _, st := range types {
		rows.AddRow(
			st.ID, st.Name, st.Duration, st.BufferBefore, st.BufferAfter,
			st.Color, st.Price, st.IsActive, st.CreatedAt, st.UpdatedAt,
		)
	}
	return rows
}

func TestSessionTypeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO session_types")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	st := &models.SessionType{
		Name:        "Personal Training",
		Duration:    60,
		BufferAfter: 15,
		Price:       80,
		IsActive:    true,
	}
	require.NoError(t, repo.Create(context.Background(), st))
	require.NotEmpty(t, st.ID)
	require.False(t, st.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTypeRepositoryGetByIDIncludesInactive(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionTypeRepository(db)

	retired := models.SessionType{
		ID:       "st-1",
		Name:     "Intro Assessment",
		Duration: 30,
		IsActive: false,
	}
	mock.ExpectQuery("SELECT (.+) FROM session_types WHERE id").
		WithArgs("st-1").
		WillReturnRows(sessionTypeRows(retired))

	st, err := repo.GetByID(context.Background(), "st-1")
	require.NoError(t, err)
	require.Equal(t, "st-1", st.ID)
	require.False(t, st.IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTypeRepositoryListActiveOnly(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionTypeRepository(db)

	active := models.SessionType{ID: "st-2", Name: "Strength", Duration: 60, IsActive: true}
	mock.ExpectQuery(`SELECT (.+) FROM session_types WHERE is_active = TRUE`).
		WillReturnRows(sessionTypeRows(active))

	types, err := repo.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.Equal(t, "st-2", types[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTypeRepositoryDeactivateMissing(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE session_types SET is_active = FALSE")).
		WithArgs("st-404", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Deactivate(context.Background(), "st-404")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTypeRepositoryUpdate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionTypeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE session_types SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	st := &models.SessionType{ID: "st-1", Name: "Mobility", Duration: 45, Price: 55}
	require.NoError(t, repo.Update(context.Background(), st))
	require.WithinDuration(t, time.Now().UTC(), st.UpdatedAt, time.Minute)
	require.NoError(t, mock.ExpectationsWereMet())
}
