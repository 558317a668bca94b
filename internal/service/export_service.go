package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/pkg/export"
	"github.com/kineticfit/booking-api/pkg/storage"
)

// ExportFormat names the supported schedule export renderings.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type scheduleSource interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders trainer schedules to downloadable files behind
// signed, expiring URLs.
type ExportService struct {
	sessions     scheduleSource
	sessionTypes sessionTypeReader
	storage      fileStorage
	csv          csvRenderer
	pdf          pdfRenderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(sessions scheduleSource, sessionTypes sessionTypeReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sessions:     sessions,
		sessionTypes: sessionTypes,
		storage:      storage,
		csv:          csv,
		pdf:          pdf,
		signer:       signer,
		logger:       logger,
		cfg:          cfg,
	}
}

// GenerateSchedule renders a trainer's sessions in [from, to) and stores the
// file, returning a signed download URL.
func (s *ExportService) GenerateSchedule(ctx context.Context, trainerID string, from, to time.Time, format ExportFormat) (*ExportResult, error) {
	dataset, title, err := s.buildScheduleDataset(ctx, trainerID, from, to)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	exportID := uuid.NewString()
	filename := s.buildFilename(trainerID, from, format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(exportID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(trainerID string, from time.Time, format ExportFormat) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("schedule_%s_%s_%s.%s", sanitizeFilename(trainerID), from.UTC().Format("20060102"), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildScheduleDataset(ctx context.Context, trainerID string, from, to time.Time) (export.Dataset, string, error) {
	sessions, _, err := s.sessions.List(ctx, models.SessionFilter{
		TrainerID: trainerID,
		From:      &from,
		To:        &to,
		PageSize:  100,
	})
	if err != nil {
		return export.Dataset{}, "", err
	}

	typeNames := make(map[string]string)
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		name, ok := typeNames[session.SessionTypeID]
		if !ok {
			sessionType, err := s.sessionTypes.GetByID(ctx, session.SessionTypeID)
			if err != nil {
				name = session.SessionTypeID
			} else {
				name = sessionType.Name
			}
			typeNames[session.SessionTypeID] = name
		}
		client := ""
		if session.UserID != nil {
			client = *session.UserID
		}
		rows = append(rows, map[string]string{
			"Start":          session.SessionDate.UTC().Format(time.RFC3339),
			"Duration (min)": fmt.Sprintf("%d", session.Duration),
			"Type":           name,
			"Client":         client,
			"Status":         string(session.Status),
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Start", "Duration (min)", "Type", "Client", "Status"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Schedule %s to %s", from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	return dataset, title, nil
}
