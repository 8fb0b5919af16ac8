// Package counters implements the counter aggregator actor. One partition per
// named counter scope (the shared "global" scope or "category:<id>") tracks
// cumulative totals plus hourly and daily time-bucketed breakdowns with
// sliding-window retention, and a TTL-based unique-active-user tracker.
package counters

import (
	"context"
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
)

// Action identifies one countable action.
type Action string

// The closed set of counter actions.
const (
	ActionView       Action = "view"
	ActionRead       Action = "read"
	ActionShare      Action = "share"
	ActionBookmark   Action = "bookmark"
	ActionLike       Action = "like"
	ActionActiveUser Action = "active_user"
)

// ParseAction validates a wire-level action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionView, ActionRead, ActionShare, ActionBookmark, ActionLike, ActionActiveUser:
		return Action(s), nil
	default:
		return "", engage.Input("unknown counter action %q", s)
	}
}

// Bucket key formats. Zero-padded ISO prefixes so lexicographic comparison
// equals chronological comparison; retention pruning relies on this.
const (
	hourKeyFormat = "2006-01-02T15"
	dayKeyFormat  = "2006-01-02"
)

// FieldTotals holds the per-field counts of one bucket or of the totals row.
type FieldTotals struct {
	Views       int64 `json:"views"`
	Reads       int64 `json:"reads"`
	Shares      int64 `json:"shares"`
	Bookmarks   int64 `json:"bookmarks"`
	Likes       int64 `json:"likes"`
	ActiveUsers int64 `json:"active_users"`
}

// Aggregate is the full state of one counter scope.
type Aggregate struct {
	Totals      FieldTotals            `json:"totals"`
	Hourly      map[string]FieldTotals `json:"hourly"`
	Daily       map[string]FieldTotals `json:"daily"`
	LastUpdated time.Time              `json:"last_updated"`
}

// SideWrite reports the outcome of the best-effort category side-write.
// The side-write is an independent step: it can fail while the primary
// write succeeded, and nothing compensates for that.
type SideWrite struct {
	Attempted bool   `json:"attempted"`
	CounterID string `json:"counter_id,omitempty"`
	Err       error  `json:"-"`
}

// Config holds the retention windows for one aggregator.
type Config struct {
	// HourlyWindow is how far back hourly buckets are kept.
	HourlyWindow time.Duration
	// DailyWindow is how far back daily buckets are kept.
	DailyWindow time.Duration
	// ActiveUserTTL is the expiry of the per-hour active user marker.
	ActiveUserTTL time.Duration
}

// Default retention windows.
const (
	DefaultHourlyWindow  = 24 * time.Hour
	DefaultDailyWindow   = 30 * 24 * time.Hour
	DefaultActiveUserTTL = time.Hour
)

// SetDefaults applies default retention values.
func (c *Config) SetDefaults() {
	if c.HourlyWindow == 0 {
		c.HourlyWindow = DefaultHourlyWindow
	}
	if c.DailyWindow == 0 {
		c.DailyWindow = DefaultDailyWindow
	}
	if c.ActiveUserTTL == 0 {
		c.ActiveUserTTL = DefaultActiveUserTTL
	}
}

const (
	aggregateKey = "aggregate"
	activePrefix = "active:"

	partitionKind = "counters"

	// categoryScopePrefix names the sibling partition a category side-write
	// lands in.
	categoryScopePrefix = "category:"
)

// Actor serves counter aggregator operations.
type Actor struct {
	host *actor.Host
	log  logger.Logger
	cfg  Config

	nowFn func() time.Time
}

// New creates a counter aggregator actor over the given host.
func New(host *actor.Host, log logger.Logger, cfg Config) *Actor {
	cfg.SetDefaults()
	return &Actor{
		host:  host,
		log:   log.With(logger.String("actor", partitionKind)),
		cfg:   cfg,
		nowFn: time.Now,
	}
}

// Update applies one action to the counter scope.
//
// Ordinary actions bump the matching total plus the current hour and day
// buckets. active_user consults the per-hour marker and is idempotent within
// the hour. Every write prunes buckets that fell out of the retention
// windows. When category is set (and the action is not active_user) a
// best-effort totals-only side-write goes to the category scope; its outcome
// is reported in the returned SideWrite and never affects the primary write.
func (a *Actor) Update(ctx context.Context, counterID string, action Action, increment int64, userID, category string) (Aggregate, SideWrite, error) {
	if counterID == "" {
		return Aggregate{}, SideWrite{}, engage.MissingID("counter_id")
	}
	if action == ActionActiveUser && userID == "" {
		return Aggregate{}, SideWrite{}, engage.Input("user_id is required for active_user")
	}

	var agg Aggregate
	err := a.host.Invoke(ctx, partitionKind, counterID, func(ctx context.Context, p *actor.Partition) error {
		if err := loadAggregate(ctx, p, &agg); err != nil {
			return err
		}

		now := a.nowFn().UTC()
		if action == ActionActiveUser {
			if err := a.applyActiveUser(ctx, p, &agg, userID, now); err != nil {
				return err
			}
		} else {
			applyAction(&agg, action, increment, now)
		}

		a.prune(&agg, now)
		agg.LastUpdated = now

		if err := p.PutJSON(ctx, aggregateKey, agg); err != nil {
			return engage.Store("write aggregate", err)
		}
		return nil
	})
	if err != nil {
		return agg, SideWrite{}, err
	}

	side := a.sideWrite(ctx, action, increment, category)
	if side.Err != nil {
		a.log.Warn("Category side-write failed",
			logger.String("counter_id", side.CounterID),
			logger.Error(side.Err),
		)
	}
	return agg, side, nil
}

// Get returns the counter scope's aggregate, zero-valued if never written.
func (a *Actor) Get(ctx context.Context, counterID string) (Aggregate, error) {
	if counterID == "" {
		return Aggregate{}, engage.MissingID("counter_id")
	}

	var agg Aggregate
	err := a.host.Invoke(ctx, partitionKind, counterID, func(ctx context.Context, p *actor.Partition) error {
		return loadAggregate(ctx, p, &agg)
	})
	return agg, err
}

// Reset deletes the counter scope's entire state, markers included.
func (a *Actor) Reset(ctx context.Context, counterID string) error {
	if counterID == "" {
		return engage.MissingID("counter_id")
	}

	return a.host.Invoke(ctx, partitionKind, counterID, func(ctx context.Context, p *actor.Partition) error {
		if _, err := p.Clear(ctx); err != nil {
			return engage.Store("reset counter", err)
		}
		return nil
	})
}

// applyActiveUser counts a user at most once per hour bucket. The marker's
// lifecycle belongs to the store: its disappearance means "never happened".
func (a *Actor) applyActiveUser(ctx context.Context, p *actor.Partition, agg *Aggregate, userID string, now time.Time) error {
	hourKey := now.Format(hourKeyFormat)
	markerKey := activePrefix + hourKey + ":" + userID

	_, seen, err := p.Get(ctx, markerKey)
	if err != nil {
		return engage.Store("load active user marker", err)
	}
	if seen {
		return nil
	}

	if err := p.PutJSONTTL(ctx, markerKey, now, a.cfg.ActiveUserTTL); err != nil {
		return engage.Store("write active user marker", err)
	}

	agg.Totals.ActiveUsers++
	bumpBucket(agg.Hourly, hourKey, func(ft *FieldTotals) { ft.ActiveUsers++ })
	bumpBucket(agg.Daily, now.Format(dayKeyFormat), func(ft *FieldTotals) { ft.ActiveUsers++ })
	return nil
}

// prune drops buckets that fell out of the retention windows, keeping at
// most 24 hourly and 30 daily buckets up to and including the current one.
// Comparison is plain string ordering against the cutoff key, which is valid
// because the key formats are fixed-width and zero-padded.
func (a *Actor) prune(agg *Aggregate, now time.Time) {
	hourCutoff := now.Add(-a.cfg.HourlyWindow).Format(hourKeyFormat)
	for key := range agg.Hourly {
		if key <= hourCutoff {
			delete(agg.Hourly, key)
		}
	}

	dayCutoff := now.Add(-a.cfg.DailyWindow).Format(dayKeyFormat)
	for key := range agg.Daily {
		if key <= dayCutoff {
			delete(agg.Daily, key)
		}
	}
}

// sideWrite performs the independent, non-atomic totals-only write into the
// category scope. Buckets are deliberately not touched there.
func (a *Actor) sideWrite(ctx context.Context, action Action, increment int64, category string) SideWrite {
	if category == "" || action == ActionActiveUser {
		return SideWrite{}
	}

	counterID := categoryScopePrefix + category
	err := a.host.Invoke(ctx, partitionKind, counterID, func(ctx context.Context, p *actor.Partition) error {
		var agg Aggregate
		if err := loadAggregate(ctx, p, &agg); err != nil {
			return err
		}
		addField(&agg.Totals, action, increment)
		agg.LastUpdated = a.nowFn().UTC()
		if err := p.PutJSON(ctx, aggregateKey, agg); err != nil {
			return engage.Store("write category aggregate", err)
		}
		return nil
	})

	return SideWrite{Attempted: true, CounterID: counterID, Err: err}
}

func loadAggregate(ctx context.Context, p *actor.Partition, agg *Aggregate) error {
	if _, err := p.GetJSON(ctx, aggregateKey, agg); err != nil {
		return engage.Store("load aggregate", err)
	}
	if agg.Hourly == nil {
		agg.Hourly = make(map[string]FieldTotals)
	}
	if agg.Daily == nil {
		agg.Daily = make(map[string]FieldTotals)
	}
	return nil
}

func applyAction(agg *Aggregate, action Action, increment int64, now time.Time) {
	addField(&agg.Totals, action, increment)

	hourKey := now.Format(hourKeyFormat)
	dayKey := now.Format(dayKeyFormat)
	bumpBucket(agg.Hourly, hourKey, func(ft *FieldTotals) { addField(ft, action, increment) })
	bumpBucket(agg.Daily, dayKey, func(ft *FieldTotals) { addField(ft, action, increment) })
}

func bumpBucket(buckets map[string]FieldTotals, key string, apply func(*FieldTotals)) {
	ft := buckets[key]
	apply(&ft)
	buckets[key] = ft
}

func addField(ft *FieldTotals, action Action, increment int64) {
	switch action {
	case ActionView:
		ft.Views += increment
	case ActionRead:
		ft.Reads += increment
	case ActionShare:
		ft.Shares += increment
	case ActionBookmark:
		ft.Bookmarks += increment
	case ActionLike:
		ft.Likes += increment
	case ActionActiveUser:
		ft.ActiveUsers += increment
	}
}
