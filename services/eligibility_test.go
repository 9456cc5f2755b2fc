package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyflow-backend/models"
)

func newResolver(store RecipientStore, now time.Time) *EligibilityResolver {
	r := NewEligibilityResolver(store, jakarta, nopLogger())
	r.now = fixedClock(now)
	return r
}

func userIDs(rs []models.Recipient) []string {
	ids := make([]string, 0, len(rs))
	for _, r := range rs {
		ids = append(ids, r.UserID)
	}
	return ids
}

func TestResolveEligible_TuesdayExcludesLoggedUser(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "ana", "tok-ana", true, `["Senin","Selasa"]`)
	seedUser(t, db, "budi", "tok-budi", true, `["Selasa"]`)
	seedUser(t, db, "citra", "tok-citra", true, `["Tuesday","Thursday"]`)
	seedLog(t, db, "budi", "2025-01-14")

	r := newResolver(NewGormRecipientStore(db), tuesdayMorning)
	got, err := r.ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)

	assert.Equal(t, []string{"ana", "citra"}, userIDs(got))
	assert.Equal(t, "tok-ana", got[0].PushAddress)
}

func TestResolveEligible_DedupsDuplicateScheduleRows(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "ana", "tok-ana", true, `["Selasa"]`)
	require.NoError(t, db.Create(&models.WeeklyTarget{UserID: "ana", Days: `["Selasa","selasa"]`}).Error)
	require.NoError(t, db.Create(&models.WeeklyTarget{UserID: "ana", Days: `["Tuesday"]`}).Error)
	seedUser(t, db, "budi", "tok-budi", true, `["Selasa"]`)

	r := newResolver(NewGormRecipientStore(db), tuesdayMorning)
	got, err := r.ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana", "budi"}, userIDs(got))

	// The resolver dedups even when the store does not.
	fs := &fakeStore{rows: append(recipients("x", "y", "x"), recipients("y")...)}
	got, err = newResolver(fs, tuesdayMorning).ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, userIDs(got))
}

func TestResolveEligible_ActivityTodayAlwaysExcludes(t *testing.T) {
	db := newTestDB(t)
	everyDay := `["Minggu","Senin","Selasa","Rabu","Kamis","Jumat","Sabtu"]`
	seedUser(t, db, "ana", "tok-ana", true, everyDay)
	seedUser(t, db, "budi", "tok-budi", true, everyDay)
	seedLog(t, db, "ana", "2025-01-14")
	// A log yesterday does not count for today.
	seedLog(t, db, "budi", "2025-01-13")

	store := NewGormRecipientStore(db)
	for d := models.Sunday; d <= models.Saturday; d++ {
		got, err := newResolver(store, tuesdayMorning).ResolveEligible(context.Background(), d)
		require.NoError(t, err)
		assert.NotContains(t, userIDs(got), "ana", "day %s", d)
		assert.Contains(t, userIDs(got), "budi", "day %s", d)
	}
}

func TestResolveEligible_FiltersOptOutAndMissingAddress(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "ana", "tok-ana", false, `["Selasa"]`)
	seedUser(t, db, "budi", "", true, `["Selasa"]`)
	seedUser(t, db, "citra", "tok-citra", true, `["Rabu"]`)
	seedUser(t, db, "dewi", "tok-dewi", true, `not-json`)
	seedUser(t, db, "eka", "tok-eka", true, "")

	got, err := newResolver(NewGormRecipientStore(db), tuesdayMorning).ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)

	fs := &fakeStore{rows: []models.Recipient{{UserID: "blank", PushAddress: "  "}, {UserID: "ok", PushAddress: "tok"}}}
	got, err = newResolver(fs, tuesdayMorning).ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, userIDs(got))
}

func TestResolveEligible_UsesTodayInConfiguredZone(t *testing.T) {
	// 2025-01-13 23:30 UTC is already Tuesday 06:30 in Jakarta.
	now := time.Date(2025, time.January, 13, 23, 30, 0, 0, time.UTC)
	fs := &fakeStore{}

	_, err := newResolver(fs, now).ResolveEligible(context.Background(), models.Tuesday)
	require.NoError(t, err)
	require.Len(t, fs.calls, 1)
	assert.Equal(t, "2025-01-14", fs.calls[0].Format("2006-01-02"))
	assert.Equal(t, jakarta, fs.calls[0].Location())
}

func TestResolveEligible_StoreUnavailable(t *testing.T) {
	fs := &fakeStore{err: errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")}

	got, err := newResolver(fs, tuesdayMorning).ResolveEligible(context.Background(), models.Tuesday)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	db := newTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	got, err = newResolver(NewGormRecipientStore(db), tuesdayMorning).ResolveEligible(context.Background(), models.Tuesday)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestResolveEligible_InvalidWeekday(t *testing.T) {
	_, err := newResolver(&fakeStore{}, tuesdayMorning).ResolveEligible(context.Background(), models.Weekday(9))
	assert.Error(t, err)
}
