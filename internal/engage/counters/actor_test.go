package counters

import (
	"context"
	"net/http"
	"sort"
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

	return New(actor.NewHost(s), logger.NewNop(), Config{})
}

// fixedClock pins the actor's clock to a settable instant.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) fn() func() time.Time {
	return func() time.Time { return c.now }
}

func TestParseAction(t *testing.T) {
	for _, valid := range []string{"view", "read", "share", "bookmark", "like", "active_user"} {
		action, err := ParseAction(valid)
		require.NoError(t, err)
		assert.Equal(t, Action(valid), action)
	}

	_, err := ParseAction("scroll")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, engage.StatusOf(err))
}

func TestGet_UnseenCounterReturnsZeroAggregate(t *testing.T) {
	a := newTestActor(t)

	agg, err := a.Get(context.Background(), "global")
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.Totals.Views)
	assert.Empty(t, agg.Hourly)
	assert.Empty(t, agg.Daily)
}

func TestUpdate_OrdinaryActionBumpsTotalsAndBuckets(t *testing.T) {
	a := newTestActor(t)
	clock := &fixedClock{now: time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)}
	a.nowFn = clock.fn()

	agg, side, err := a.Update(context.Background(), "global", ActionView, 3, "", "")
	require.NoError(t, err)
	assert.False(t, side.Attempted)

	assert.Equal(t, int64(3), agg.Totals.Views)
	assert.Equal(t, int64(3), agg.Hourly["2025-03-10T14"].Views)
	assert.Equal(t, int64(3), agg.Daily["2025-03-10"].Views)
	assert.Equal(t, clock.now, agg.LastUpdated)
}

// After writes on 25 consecutive distinct hours only the most recent 24
// hour buckets may remain.
func TestUpdate_HourlyBucketRetention(t *testing.T) {
	a := newTestActor(t)
	clock := &fixedClock{now: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	a.nowFn = clock.fn()
	ctx := context.Background()

	var agg Aggregate
	for i := 0; i < 25; i++ {
		var err error
		agg, _, err = a.Update(ctx, "global", ActionView, 1, "", "")
		require.NoError(t, err)
		clock.now = clock.now.Add(time.Hour)
	}

	require.Len(t, agg.Hourly, 24)

	keys := make([]string, 0, len(agg.Hourly))
	for k := range agg.Hourly {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, "2025-03-10T01", keys[0], "oldest hour must be pruned")
	assert.Equal(t, "2025-03-11T00", keys[len(keys)-1])

	// Totals are cumulative and unaffected by pruning.
	assert.Equal(t, int64(25), agg.Totals.Views)
}

func TestUpdate_DailyBucketRetention(t *testing.T) {
	a := newTestActor(t)
	clock := &fixedClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	a.nowFn = clock.fn()
	ctx := context.Background()

	var agg Aggregate
	for i := 0; i < 31; i++ {
		var err error
		agg, _, err = a.Update(ctx, "global", ActionRead, 1, "", "")
		require.NoError(t, err)
		clock.now = clock.now.AddDate(0, 0, 1)
	}

	assert.Len(t, agg.Daily, 30)
	_, hasOldest := agg.Daily["2025-01-01"]
	assert.False(t, hasOldest, "day outside the 30-day window must be pruned")
}

func TestUpdate_ActiveUserDedupWithinHour(t *testing.T) {
	a := newTestActor(t)
	clock := &fixedClock{now: time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC)}
	a.nowFn = clock.fn()
	ctx := context.Background()

	agg, _, err := a.Update(ctx, "global", ActionActiveUser, 1, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.Totals.ActiveUsers)

	// Same user, same hour: idempotent no-op.
	agg, _, err = a.Update(ctx, "global", ActionActiveUser, 1, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.Totals.ActiveUsers)

	// One hour later the hour key changes, so the user counts again.
	clock.now = clock.now.Add(time.Hour)
	agg, _, err = a.Update(ctx, "global", ActionActiveUser, 1, "u1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), agg.Totals.ActiveUsers)
}

func TestUpdate_ActiveUserRequiresUserID(t *testing.T) {
	a := newTestActor(t)

	_, _, err := a.Update(context.Background(), "global", ActionActiveUser, 1, "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, engage.StatusOf(err))
}

func TestUpdate_MissingCounterID(t *testing.T) {
	a := newTestActor(t)

	_, _, err := a.Update(context.Background(), "", ActionView, 1, "", "")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, engage.StatusOf(err))
}

func TestUpdate_CategorySideWrite(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	_, side, err := a.Update(ctx, "global", ActionLike, 2, "", "politics")
	require.NoError(t, err)
	assert.True(t, side.Attempted)
	assert.Equal(t, "category:politics", side.CounterID)
	require.NoError(t, side.Err)

	// The sibling scope received totals only, no buckets.
	catAgg, err := a.Get(ctx, "category:politics")
	require.NoError(t, err)
	assert.Equal(t, int64(2), catAgg.Totals.Likes)
	assert.Empty(t, catAgg.Hourly)
	assert.Empty(t, catAgg.Daily)
}

func TestReset_DeletesEverything(t *testing.T) {
	a := newTestActor(t)
	ctx := context.Background()

	_, _, err := a.Update(ctx, "global", ActionView, 5, "", "")
	require.NoError(t, err)

	require.NoError(t, a.Reset(ctx, "global"))

	agg, err := a.Get(ctx, "global")
	require.NoError(t, err)
	assert.Equal(t, int64(0), agg.Totals.Views)
	assert.Empty(t, agg.Hourly)
}
