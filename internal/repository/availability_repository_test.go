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

func availabilityRows(blocks ...models.TrainerAvailabilityBlock) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "trainer_id", "day_of_week", "effective_from", "effective_to",
		"start_minute", "end_minute", "kind", "is_recurring", "created_at", "updated_at",
	})
	for _, b := range blocks {
		rows.AddRow(
			b.ID, b.TrainerID, b.DayOfWeek, b.EffectiveFrom, b.EffectiveTo,
			b.StartMinute, b.EndMinute, b.Kind, b.IsRecurring, b.CreatedAt, b.UpdatedAt,
		)
	}
	return rows
}

func TestAvailabilityRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO trainer_availability_blocks")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	monday := 1
	block := &models.TrainerAvailabilityBlock{
		TrainerID:   "tr-1",
		DayOfWeek:   &monday,
		StartMinute: 540,
		EndMinute:   1020,
		Kind:        models.AvailabilityAvailable,
		IsRecurring: true,
	}
	require.NoError(t, repo.Create(context.Background(), block))
	require.NotEmpty(t, block.ID)
	require.False(t, block.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryListForTrainer(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	monday := 1
	recurring := models.TrainerAvailabilityBlock{
		ID:          "av-1",
		TrainerID:   "tr-1",
		DayOfWeek:   &monday,
		StartMinute: 540,
		EndMinute:   1020,
		Kind:        models.AvailabilityAvailable,
		IsRecurring: true,
	}
	mock.ExpectQuery("SELECT (.+) FROM trainer_availability_blocks").
		WithArgs("tr-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(availabilityRows(recurring))

	blocks, err := repo.ListForTrainer(context.Background(), "tr-1",
		time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "av-1", blocks[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryHasOverlappingRecurring(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("tr-1", models.AvailabilityAvailable, 1, 540, 600, "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasOverlappingRecurring(context.Background(), "tr-1", 1, 540, 600, "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM trainer_availability_blocks")).
		WithArgs("av-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "av-404")
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}
