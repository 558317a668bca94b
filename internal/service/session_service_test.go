package service

import (
	"context"
	"database/sql"
	"math/rand"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kineticfit/booking-api/internal/dto"
	"github.com/kineticfit/booking-api/internal/models"
	"github.com/kineticfit/booking-api/internal/repository"
	"github.com/kineticfit/booking-api/pkg/config"
	appErrors "github.com/kineticfit/booking-api/pkg/errors"
)

// txFactory hands out real transactions from a sqlmock-backed pool so
// services can exercise their begin/commit/rollback flow. Statement-level
// expectations are not asserted; the mocks below answer the actual queries.
type txFactory struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxFactory(t *testing.T) *txFactory {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(false)
	t.Cleanup(func() { db.Close() })
	return &txFactory{db: sqlx.NewDb(db, "sqlmock"), mock: mock}
}

func (f *txFactory) begin(ctx context.Context) (*sqlx.Tx, error) {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectRollback()
	return f.db.BeginTxx(ctx, nil)
}

type mockSessionStore struct {
	tx       *txFactory
	sessions map[string]models.Session
	existing []models.Session

	lockedTrainers []string
	created        []models.Session
	statusUpdates  map[string]models.SessionStatus
	cancelled      *repository.CancelParams
	resolved       *repository.ResolveParams

	createErr error
	assignErr error
}

func newMockSessionStore(t *testing.T) *mockSessionStore {
	return &mockSessionStore{
		tx:            newTxFactory(t),
		sessions:      make(map[string]models.Session),
		statusUpdates: make(map[string]models.SessionStatus),
	}
}

func (m *mockSessionStore) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return m.tx.begin(ctx)
}

func (m *mockSessionStore) AcquireTrainerLock(ctx context.Context, exec sqlx.ExtContext, trainerID string) error {
	m.lockedTrainers = append(m.lockedTrainers, trainerID)
	return nil
}

func (m *mockSessionStore) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	if session.ID == "" {
		session.ID = "sess-new"
	}
	m.sessions[session.ID] = *session
	m.created = append(m.created, *session)
	return nil
}

func (m *mockSessionStore) GetByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionStore) GetByIDForUpdate(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Session, error) {
	return m.GetByID(ctx, id)
}

func (m *mockSessionStore) ListOverlapping(ctx context.Context, exec sqlx.ExtContext, trainerID string, from, to time.Time) ([]models.Session, error) {
	var out []models.Session
	for _, s := range m.existing {
		if s.TrainerID == trainerID && s.EffectiveStart().Before(to) && from.Before(s.EffectiveEnd()) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionStore) ListByGroup(ctx context.Context, groupID string) ([]models.Session, error) {
	var out []models.Session
	for _, s := range m.sessions {
		if s.RecurringGroupID != nil && *s.RecurringGroupID == groupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSessionStore) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	var out []models.Session
	for _, s := range m.sessions {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.DecisionPending &&
			(s.CancellationDecision == nil || *s.CancellationDecision != models.DecisionPending) {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSessionStore) UpdateStatusIfCurrent(ctx context.Context, exec sqlx.ExtContext, id string, current, next models.SessionStatus) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status != current {
		return nil, sql.ErrNoRows
	}
	s.Status = next
	m.sessions[id] = s
	m.statusUpdates[id] = next
	return &s, nil
}

func (m *mockSessionStore) AssignClient(ctx context.Context, exec sqlx.ExtContext, id, userID string, next models.SessionStatus, creditDeducted bool) (*models.Session, error) {
	if m.assignErr != nil {
		return nil, m.assignErr
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != models.SessionStatusAvailable || s.UserID != nil {
		return nil, sql.ErrNoRows
	}
	s.UserID = &userID
	s.Status = next
	s.CreditDeducted = creditDeducted
	m.sessions[id] = s
	return &s, nil
}

func (m *mockSessionStore) UpdateSchedule(ctx context.Context, exec sqlx.ExtContext, id string, newDate time.Time, current models.SessionStatus) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.Status != current {
		return nil, sql.ErrNoRows
	}
	s.SessionDate = newDate
	m.sessions[id] = s
	return &s, nil
}

func (m *mockSessionStore) Cancel(ctx context.Context, exec sqlx.ExtContext, p repository.CancelParams) (*models.Session, error) {
	s, ok := m.sessions[p.SessionID]
	if !ok || !s.Status.Cancellable() {
		return nil, sql.ErrNoRows
	}
	now := time.Now().UTC()
	s.Status = models.SessionStatusCancelled
	s.CancelledBy = &p.CancelledBy
	s.CancellationReason = &p.Reason
	s.CancelledAt = &now
	s.CancellationChargeType = &p.ChargeType
	s.CancellationChargeAmount = &p.ChargeAmount
	s.CancellationDecision = &p.Decision
	m.sessions[p.SessionID] = s
	m.cancelled = &p
	return &s, nil
}

func (m *mockSessionStore) ResolveCancellation(ctx context.Context, exec sqlx.ExtContext, p repository.ResolveParams) (*models.Session, error) {
	s, ok := m.sessions[p.SessionID]
	if !ok || s.Status != models.SessionStatusCancelled ||
		s.CancellationDecision == nil || *s.CancellationDecision != models.DecisionPending {
		return nil, sql.ErrNoRows
	}
	s.CancellationDecision = &p.Decision
	s.CancellationReviewedBy = &p.ReviewedBy
	s.CancellationReviewReason = &p.ReviewReason
	if p.ChargeAmount != nil {
		s.CancellationChargeAmount = p.ChargeAmount
	}
	s.SessionCreditRestored = p.RestoreCredit
	s.CancellationChargedAt = p.ChargedAt
	m.sessions[p.SessionID] = s
	m.resolved = &p
	return &s, nil
}

func (m *mockSessionStore) SetCheckIn(ctx context.Context, exec sqlx.ExtContext, id, actorID string, at time.Time, status models.AttendanceStatus) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.CheckInTime != nil || (s.Status != models.SessionStatusScheduled && s.Status != models.SessionStatusConfirmed) {
		return nil, sql.ErrNoRows
	}
	s.AttendanceStatus = &status
	s.CheckInTime = &at
	s.MarkedPresentBy = &actorID
	m.sessions[id] = s
	return &s, nil
}

func (m *mockSessionStore) SetCheckOut(ctx context.Context, exec sqlx.ExtContext, id string, at time.Time) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.CheckInTime == nil {
		return nil, sql.ErrNoRows
	}
	s.CheckOutTime = &at
	m.sessions[id] = s
	return &s, nil
}

func (m *mockSessionStore) MarkNoShow(ctx context.Context, exec sqlx.ExtContext, id, actorID, reason string, at time.Time) (*models.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.CheckInTime != nil || (s.Status != models.SessionStatusScheduled && s.Status != models.SessionStatusConfirmed) {
		return nil, sql.ErrNoRows
	}
	s.Status = models.SessionStatusNoShow
	noShow := models.AttendanceNoShow
	s.AttendanceStatus = &noShow
	s.NoShowReason = &reason
	m.sessions[id] = s
	return &s, nil
}

type mockSessionTypeReader struct {
	types map[string]*models.SessionType
}

func (m *mockSessionTypeReader) GetByID(ctx context.Context, id string) (*models.SessionType, error) {
	if st, ok := m.types[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

type mockCreditStore struct {
	balances  map[string]int
	deducted  []string
	restored  []string
	deductErr error
}

func (m *mockCreditStore) Deduct(ctx context.Context, exec sqlx.ExtContext, userID string) (bool, error) {
	if m.deductErr != nil {
		return false, m.deductErr
	}
	if m.balances[userID] > 0 {
		m.balances[userID]--
		m.deducted = append(m.deducted, userID)
		return true, nil
	}
	return false, nil
}

func (m *mockCreditStore) Restore(ctx context.Context, exec sqlx.ExtContext, userID string) error {
	m.balances[userID]++
	m.restored = append(m.restored, userID)
	return nil
}

type mockAvailability struct {
	open []models.OpenInterval
}

func (m *mockAvailability) Resolve(ctx context.Context, trainerID string, from, to time.Time) ([]models.OpenInterval, bool, error) {
	return m.open, false, nil
}

type mockEvents struct {
	sessions []models.SessionEvent
	charges  []models.ChargeRequest
}

func (m *mockEvents) PublishSession(eventType models.EventType, session *models.Session) {
	event := models.SessionEvent{Type: eventType, SessionID: session.ID, TrainerID: session.TrainerID}
	if session.UserID != nil {
		event.UserID = *session.UserID
	}
	m.sessions = append(m.sessions, event)
}

func (m *mockEvents) PublishCharge(req models.ChargeRequest) {
	m.charges = append(m.charges, req)
}

var testBookingConfig = config.BookingConfig{
	MaxRecurrenceOccurrences: 52,
	MaxLookaheadDays:         365,
	PersistRetryDelay:        time.Millisecond,
	ConflictWindowMinutes:    240,
}

func allDayOpen(days ...time.Time) []models.OpenInterval {
	var open []models.OpenInterval
	for _, d := range days {
		open = append(open, models.OpenInterval{Start: d, End: d.AddDate(0, 0, 1)})
	}
	return open
}

func newBookingFixture(t *testing.T) (*SessionService, *mockSessionStore, *mockCreditStore, *mockEvents, *mockAvailability) {
	store := newMockSessionStore(t)
	types := &mockSessionTypeReader{types: map[string]*models.SessionType{
		"st-1": {ID: "st-1", Name: "Personal Training", Duration: 60, BufferAfter: 15, Price: 80, IsActive: true},
	}}
	credits := &mockCreditStore{balances: map[string]int{"client-1": 5}}
	availability := &mockAvailability{}
	events := &mockEvents{}
	svc := NewSessionService(store, types, credits, availability, events, testBookingConfig, validator.New(), zap.NewNop())
	return svc, store, credits, events, availability
}

func strPtr(s string) *string { return &s }

func TestSessionServiceBook(t *testing.T) {
	svc, store, credits, events, availability := newBookingFixture(t)

	start := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start.Add(-48 * time.Hour) }
	availability.open = allDayOpen(time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC))

	session, err := svc.Book(context.Background(), dto.CreateSessionRequest{
		TrainerID:     "tr-1",
		UserID:        strPtr("client-1"),
		SessionTypeID: "st-1",
		SessionDate:   start,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)
	assert.Equal(t, 60, session.Duration)
	assert.Equal(t, 15, session.BufferAfter)
	assert.True(t, session.CreditDeducted)
	assert.Contains(t, store.lockedTrainers, "tr-1")
	assert.Contains(t, credits.deducted, "client-1")
	require.Len(t, events.sessions, 1)
	assert.Equal(t, models.EventSessionCreated, events.sessions[0].Type)
}

func TestSessionServiceBookBufferConflict(t *testing.T) {
	svc, store, _, _, availability := newBookingFixture(t)

	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(-24 * time.Hour) }
	availability.open = allDayOpen(day)

	// 09:00 booked with 60 min duration and a 15 min after-buffer occupies
	// [09:00, 10:15). A 10:00 request overlaps; 10:15 does not.
	store.existing = []models.Session{{
		ID:          "sess-9am",
		TrainerID:   "tr-1",
		SessionDate: day.Add(9 * time.Hour),
		Duration:    60,
		BufferAfter: 15,
		Status:      models.SessionStatusScheduled,
	}}

	_, err := svc.Book(context.Background(), dto.CreateSessionRequest{
		TrainerID:     "tr-1",
		UserID:        strPtr("client-1"),
		SessionTypeID: "st-1",
		SessionDate:   day.Add(10 * time.Hour),
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "sess-9am")

	session, err := svc.Book(context.Background(), dto.CreateSessionRequest{
		TrainerID:     "tr-1",
		UserID:        strPtr("client-1"),
		SessionTypeID: "st-1",
		SessionDate:   day.Add(10*time.Hour + 15*time.Minute),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
}

func TestSessionServiceBookOutsideAvailability(t *testing.T) {
	svc, _, _, _, availability := newBookingFixture(t)

	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(-24 * time.Hour) }
	// Open 09:00-12:00 only; a 60+15 minute session at 11:30 spills out.
	availability.open = []models.OpenInterval{{Start: day.Add(9 * time.Hour), End: day.Add(12 * time.Hour)}}

	_, err := svc.Book(context.Background(), dto.CreateSessionRequest{
		TrainerID:     "tr-1",
		UserID:        strPtr("client-1"),
		SessionTypeID: "st-1",
		SessionDate:   day.Add(11*time.Hour + 30*time.Minute),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutsideAvailability.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceBookRecurringPartialResults(t *testing.T) {
	svc, store, _, events, availability := newBookingFixture(t)

	seed := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC) // a Monday
	svc.now = func() time.Time { return seed.Add(-24 * time.Hour) }
	availability.open = []models.OpenInterval{{Start: seed.AddDate(0, -1, 0), End: seed.AddDate(0, 2, 0)}}

	// The second Monday is already taken.
	store.existing = []models.Session{{
		ID:          "sess-taken",
		TrainerID:   "tr-1",
		SessionDate: seed.AddDate(0, 0, 7),
		Duration:    60,
		BufferAfter: 15,
		Status:      models.SessionStatusScheduled,
	}}

	resp, err := svc.BookRecurring(context.Background(), dto.RecurringBookingRequest{
		Seed: dto.CreateSessionRequest{
			TrainerID:     "tr-1",
			UserID:        strPtr("client-1"),
			SessionTypeID: "st-1",
			SessionDate:   seed,
		},
		Rule: models.RecurrenceRule{
			Frequency: models.RecurrenceWeekly,
			Weekdays:  []time.Weekday{time.Monday},
			Count:     4,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Requested)
	assert.Equal(t, 3, resp.Booked)
	assert.NotEmpty(t, resp.RecurringGroupID)
	require.Len(t, resp.Results, 4)
	assert.False(t, resp.Results[1].OK)
	assert.Equal(t, "sess-taken", resp.Results[1].ConflictingSessionID)
	assert.Len(t, events.sessions, 3)

	for _, created := range store.created {
		require.NotNil(t, created.RecurringGroupID)
		assert.Equal(t, resp.RecurringGroupID, *created.RecurringGroupID)
	}
	// Only the defining instance stores the rule; siblings carry the group id.
	require.NotNil(t, store.created[0].RecurrenceRule)
	for _, created := range store.created[1:] {
		assert.Nil(t, created.RecurrenceRule)
	}
}

func TestSessionServiceBookOpenSlotRace(t *testing.T) {
	svc, store, credits, _, _ := newBookingFixture(t)
	svc.now = func() time.Time { return time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC) }

	store.sessions["slot-1"] = models.Session{
		ID:          "slot-1",
		TrainerID:   "tr-1",
		SessionDate: time.Date(2027, 3, 2, 9, 0, 0, 0, time.UTC),
		Duration:    60,
		Status:      models.SessionStatusAvailable,
	}

	session, err := svc.BookOpenSlot(context.Background(), "slot-1", "client-1")
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)
	require.NotNil(t, session.UserID)
	assert.Equal(t, "client-1", *session.UserID)
	assert.True(t, session.CreditDeducted)
	assert.Equal(t, 4, credits.balances["client-1"])

	// Second claim loses the compare-and-set.
	_, err = svc.BookOpenSlot(context.Background(), "slot-1", "client-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateStatus(t *testing.T) {
	svc, store, _, events, _ := newBookingFixture(t)

	store.sessions["sess-1"] = models.Session{ID: "sess-1", TrainerID: "tr-1", Status: models.SessionStatusScheduled}

	session, err := svc.UpdateStatus(context.Background(), "sess-1", models.SessionStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusConfirmed, session.Status)
	require.Len(t, events.sessions, 1)
	assert.Equal(t, models.EventSessionConfirmed, events.sessions[0].Type)

	_, err = svc.UpdateStatus(context.Background(), "sess-1", models.SessionStatusScheduled)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStateTransition.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateStatusBlockToggle(t *testing.T) {
	svc, store, _, _, _ := newBookingFixture(t)

	store.sessions["slot-1"] = models.Session{ID: "slot-1", TrainerID: "tr-1", Status: models.SessionStatusAvailable}

	// Trainer pulls the published slot off the market, then reopens it.
	session, err := svc.UpdateStatus(context.Background(), "slot-1", models.SessionStatusBlocked)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusBlocked, session.Status)

	session, err = svc.UpdateStatus(context.Background(), "slot-1", models.SessionStatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAvailable, session.Status)
}

func TestSessionServiceRescheduleSeries(t *testing.T) {
	svc, store, _, _, availability := newBookingFixture(t)

	base := time.Date(2027, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(-24 * time.Hour) }
	availability.open = []models.OpenInterval{{Start: base.AddDate(0, -1, 0), End: base.AddDate(0, 2, 0)}}

	group := "group-1"
	store.sessions["occ-1"] = models.Session{ID: "occ-1", TrainerID: "tr-1", SessionDate: base, Duration: 60, Status: models.SessionStatusScheduled, RecurringGroupID: &group}
	store.sessions["occ-2"] = models.Session{ID: "occ-2", TrainerID: "tr-1", SessionDate: base.AddDate(0, 0, 7), Duration: 60, Status: models.SessionStatusScheduled, RecurringGroupID: &group}
	store.sessions["occ-3"] = models.Session{ID: "occ-3", TrainerID: "tr-1", SessionDate: base.AddDate(0, 0, 14), Duration: 60, Status: models.SessionStatusCompleted, RecurringGroupID: &group}

	_, resp, err := svc.Reschedule(context.Background(), "occ-1", dto.RescheduleRequest{
		SessionDate:   base.Add(time.Hour),
		ApplyToSeries: true,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 2, resp.Moved)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, base.Add(time.Hour), store.sessions["occ-1"].SessionDate)
	assert.Equal(t, base.AddDate(0, 0, 7).Add(time.Hour), store.sessions["occ-2"].SessionDate)
	// Finished occurrences stay put.
	assert.Equal(t, base.AddDate(0, 0, 14), store.sessions["occ-3"].SessionDate)
}

func TestSessionServiceRandomBookingsNeverOverlap(t *testing.T) {
	svc, store, _, _, availability := newBookingFixture(t)

	day := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return day.Add(-24 * time.Hour) }
	availability.open = allDayOpen(day)

	// Random quarter-hour starts across the day; every accepted booking joins
	// the trainer's schedule for the next attempt's conflict check.
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 120; i++ {
		start := day.Add(time.Duration(rng.Intn(22*4)) * 15 * time.Minute)
		session, err := svc.Book(context.Background(), dto.CreateSessionRequest{
			TrainerID:     "tr-1",
			UserID:        strPtr("client-1"),
			SessionTypeID: "st-1",
			SessionDate:   start,
		})
		if err != nil {
			assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
			continue
		}
		store.existing = append(store.existing, *session)
	}
	require.NotEmpty(t, store.created)

	for i := range store.created {
		for j := i + 1; j < len(store.created); j++ {
			a, b := store.created[i], store.created[j]
			overlap := a.EffectiveStart().Before(b.EffectiveEnd()) && b.EffectiveStart().Before(a.EffectiveEnd())
			assert.Falsef(t, overlap, "sessions %s and %s overlap: [%s,%s) vs [%s,%s)",
				a.ID, b.ID, a.EffectiveStart(), a.EffectiveEnd(), b.EffectiveStart(), b.EffectiveEnd())
		}
	}
}

func TestSessionServiceBookPastDate(t *testing.T) {
	svc, _, _, _, availability := newBookingFixture(t)
	availability.open = allDayOpen(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Book(context.Background(), dto.CreateSessionRequest{
		TrainerID:     "tr-1",
		UserID:        strPtr("client-1"),
		SessionTypeID: "st-1",
		SessionDate:   time.Date(2020, 1, 1, 9, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}
