package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"studyflow-backend/models"
)

var jakarta = mustLocation("Asia/Jakarta")

// tuesdayMorning is 2025-01-14 09:00 in Jakarta, a Tuesday.
var tuesdayMorning = time.Date(2025, time.January, 14, 9, 0, 0, 0, jakarta)

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err, "open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.NotificationToken{},
		&models.WeeklyTarget{},
		&models.LearningLog{},
		&models.ReminderLog{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, userID, token string, enabled bool, days string) {
	t.Helper()
	require.NoError(t, db.Create(&models.NotificationToken{UserID: userID, DeviceToken: token, IsEnabled: enabled}).Error)
	if days != "" {
		require.NoError(t, db.Create(&models.WeeklyTarget{UserID: userID, Days: days}).Error)
	}
}

func seedLog(t *testing.T, db *gorm.DB, userID, date string) {
	t.Helper()
	require.NoError(t, db.Create(&models.LearningLog{UserID: userID, LogDate: date}).Error)
}

type fakeStore struct {
	rows    []models.Recipient
	err     error
	byUser  map[string]models.Recipient
	enabled map[string]bool

	mu    sync.Mutex
	calls []time.Time
	days  []models.Weekday
}

func (f *fakeStore) QueryEligible(ctx context.Context, day models.Weekday, asOf time.Time) ([]models.Recipient, error) {
	f.mu.Lock()
	f.calls = append(f.calls, asOf)
	f.days = append(f.days, day)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Recipient(nil), f.rows...), nil
}

func (f *fakeStore) FindRecipient(ctx context.Context, userID string) (models.Recipient, bool, error) {
	if f.err != nil {
		return models.Recipient{}, false, f.err
	}
	rc, ok := f.byUser[userID]
	if !ok {
		return models.Recipient{}, false, ErrRecipientNotFound
	}
	return rc, f.enabled[userID], nil
}

type fakeProvider struct {
	mu    sync.Mutex
	sent  []PushMessage
	fail  map[string]string
	delay map[string]time.Duration
	panic map[string]bool

	inFlight    int
	maxInFlight int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fail: map[string]string{}, delay: map[string]time.Duration{}, panic: map[string]bool{}}
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Send(ctx context.Context, msg PushMessage) PushResult {
	p.mu.Lock()
	p.sent = append(p.sent, msg)
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	delay := p.delay[msg.Address]
	reason, shouldFail := p.fail[msg.Address]
	shouldPanic := p.panic[msg.Address]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if shouldPanic {
		panic("boom")
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return PushResult{Error: ctx.Err().Error()}
		}
	}
	if shouldFail {
		return PushResult{Delivered: false, Error: reason}
	}
	return PushResult{Delivered: true, ProviderMessageID: "msg-" + msg.Address}
}

func (p *fakeProvider) sentTo() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, m := range p.sent {
		out = append(out, m.Address)
	}
	return out
}

type fakeRecorder struct {
	mu        sync.Mutex
	summaries []models.DispatchSummary
	err       error
}

func (r *fakeRecorder) Record(ctx context.Context, provider string, summary models.DispatchSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, summary)
	return r.err
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func recipients(ids ...string) []models.Recipient {
	out := make([]models.Recipient, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Recipient{UserID: id, PushAddress: "tok-" + id})
	}
	return out
}
