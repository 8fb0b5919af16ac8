package behavior

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
	"github.com/nyuchitech/harare-metro-sub001/internal/store"
)

func newTestActor(t *testing.T) *Actor {
	t.Helper()

	s, err := store.NewBadgerStore(store.BadgerConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return New(actor.NewHost(s), logger.NewNop())
}

func TestGet_UnseenUserReturnsZeroProfile(t *testing.T) {
	a := newTestActor(t)

	profile, err := a.Get(context.Background(), "u-unknown")
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.ArticlesRead)
	assert.Equal(t, 0, profile.Streak.Current)
	assert.NotNil(t, profile.CategoriesViewed)
	assert.NotNil(t, profile.Preferences)
}

func TestRecord_ReadArticleAccumulates(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	profile, err := a.Record(ctx, "u1", ActionReadArticle, Payload{
		EntityID:    "art1",
		Category:    "politics",
		ReadingTime: 120,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), profile.ArticlesRead)
	assert.Equal(t, int64(120), profile.TotalReadingTime)
	assert.Equal(t, int64(1), profile.CategoriesViewed["politics"])
	assert.Equal(t, 1, profile.Streak.Current)
	assert.Equal(t, 1, profile.Streak.Longest)
}

func TestRecord_TrackTimeHasNoStreakEffect(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	profile, err := a.Record(ctx, "u1", ActionTrackTime, Payload{ReadingTime: 45})
	require.NoError(t, err)

	assert.Equal(t, int64(45), profile.TotalReadingTime)
	assert.Equal(t, int64(0), profile.ArticlesRead)
	assert.Equal(t, 0, profile.Streak.Current)
}

func TestRecord_UpdatePreferencesShallowMerge(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	_, err := a.Record(ctx, "u1", ActionUpdatePreferences, Payload{
		Preferences: map[string]any{"theme": "dark", "digest": true},
	})
	require.NoError(t, err)

	profile, err := a.Record(ctx, "u1", ActionUpdatePreferences, Payload{
		Preferences: map[string]any{"theme": "light"},
	})
	require.NoError(t, err)

	assert.Equal(t, "light", profile.Preferences["theme"])
	assert.Equal(t, true, profile.Preferences["digest"])
}

func TestStreak_Progression(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	day := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	a.nowFn = func() time.Time { return day }

	read := func() Profile {
		p, err := a.Record(ctx, "u1", ActionReadArticle, Payload{ReadingTime: 60})
		require.NoError(t, err)
		return p
	}

	// Day D: streak starts at 1.
	p := read()
	assert.Equal(t, 1, p.Streak.Current)

	// Second read on day D: untouched.
	p = read()
	assert.Equal(t, 1, p.Streak.Current)
	assert.Equal(t, 1, p.Streak.Longest)

	// Day D+1: extends.
	day = day.AddDate(0, 0, 1)
	p = read()
	assert.Equal(t, 2, p.Streak.Current)
	assert.Equal(t, 2, p.Streak.Longest)

	// Day D+3 (a day was skipped): resets to 1, longest stays.
	day = day.AddDate(0, 0, 2)
	p = read()
	assert.Equal(t, 1, p.Streak.Current)
	assert.Equal(t, 2, p.Streak.Longest)
	assert.GreaterOrEqual(t, p.Streak.Longest, p.Streak.Current)
}

func TestStreak_AcrossMonthBoundary(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	day := time.Date(2025, 1, 31, 23, 0, 0, 0, time.UTC)
	a.nowFn = func() time.Time { return day }

	_, err := a.Record(ctx, "u1", ActionReadArticle, Payload{})
	require.NoError(t, err)

	day = time.Date(2025, 2, 1, 1, 0, 0, 0, time.UTC)
	p, err := a.Record(ctx, "u1", ActionReadArticle, Payload{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Streak.Current)
}

func TestClear_RemovesProfileAndReadRecords(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	for _, entity := range []string{"art1", "art2", "art3"} {
		_, err := a.Record(ctx, "u1", ActionReadArticle, Payload{EntityID: entity, ReadingTime: 10})
		require.NoError(t, err)
	}

	removed, err := a.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, removed, "profile plus three read records")

	profile, err := a.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), profile.ArticlesRead)
}

func TestRecord_MissingUserID(t *testing.T) {
	a := newTestActor(t)

	_, err := a.Record(context.Background(), "", ActionReadArticle, Payload{})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, engage.StatusOf(err))
}
