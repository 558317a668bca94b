package service

import (
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/pkg/storage"
)

type scheduleSourceStub struct {
	sessions []models.Session
}

func (s *scheduleSourceStub) List(_ context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	matched := make([]models.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		if filter.TrainerID != "" && session.TrainerID != filter.TrainerID {
			continue
		}
		matched = append(matched, session)
	}
	return matched, len(matched), nil
}

func newExportFixture(t *testing.T) *ExportService {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	client := "client-1"
	source := &scheduleSourceStub{sessions: []models.Session{
		{
			ID:            "sess-1",
			TrainerID:     "tr-1",
			UserID:        &client,
			SessionTypeID: "st-1",
			SessionDate:   time.Date(2026, 9, 7, 9, 0, 0, 0, time.UTC),
			Duration:      60,
			Status:        models.SessionStatusConfirmed,
		},
		{
			ID:            "sess-2",
			TrainerID:     "tr-1",
			SessionTypeID: "st-1",
			SessionDate:   time.Date(2026, 9, 7, 11, 0, 0, 0, time.UTC),
			Duration:      60,
			Status:        models.SessionStatusAvailable,
		},
	}}
	types := &mockSessionTypeReader{types: map[string]*models.SessionType{
		"st-1": {ID: "st-1", Name: "Personal Training", Duration: 60, IsActive: true},
	}}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(source, types, local, signer, ExportConfig{
		APIPrefix: "/api/v1",
		ResultTTL: time.Hour,
	}, zap.NewNop(), nil, nil)
}

func TestExportServiceGenerateScheduleCSV(t *testing.T) {
	svc := newExportFixture(t)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)
	result, err := svc.GenerateSchedule(context.Background(), "tr-1", from, to, ExportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, ExportFormatCSV, result.Format)
	require.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/"))
	require.True(t, result.ExpiresAt.After(time.Now()))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, []string{"Start", "Duration (min)", "Type", "Client", "Status"}, records[0])
	require.Equal(t, "Personal Training", records[1][2])
	require.Equal(t, "client-1", records[1][3])
	require.Empty(t, records[2][3])
}

func TestExportServiceGenerateSchedulePDF(t *testing.T) {
	svc := newExportFixture(t)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateSchedule(context.Background(), "tr-1", from, from.AddDate(0, 0, 7), ExportFormatPDF)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(result.RelativePath, ".pdf"))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	require.Equal(t, "%PDF", string(header))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportFixture(t)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	_, err := svc.GenerateSchedule(context.Background(), "tr-1", from, from.AddDate(0, 0, 7), ExportFormat("xlsx"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported format")
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc := newExportFixture(t)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateSchedule(context.Background(), "tr-1", from, from.AddDate(0, 0, 7), ExportFormatCSV)
	require.NoError(t, err)

	_, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	require.Equal(t, result.RelativePath, relPath)

	_, _, _, err = svc.ParseToken(result.Token+"tampered", false)
	require.Error(t, err)
}

func TestExportServiceDelete(t *testing.T) {
	svc := newExportFixture(t)

	from := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	result, err := svc.GenerateSchedule(context.Background(), "tr-1", from, from.AddDate(0, 0, 7), ExportFormatCSV)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(result.RelativePath))
	_, err = svc.Open(result.RelativePath)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "na", sanitizeFilename(""))
	require.Equal(t, "tr_1", sanitizeFilename("tr 1"))
	require.Equal(t, "a-b", sanitizeFilename("a/b"))
	require.Len(t, sanitizeFilename(strings.Repeat("x", 200)), 100)
}
