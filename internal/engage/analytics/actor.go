package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
)

// Local key prefixes inside the analytics partition. Events live next to
// their rollups; scoped clears address one prefix at a time.
const (
	eventPrefix      = "event:"
	popularityPrefix = "popularity:"
	categoryPrefix   = "category:"
	searchPrefix     = "search:"
	trafficPrefix    = "traffic:"
	engagementPrefix = "engagement:"
	seenPrefix       = "seen:"
)

const (
	partitionKind = "analytics"
	partitionID   = "events"

	dayKeyFormat = "2006-01-02"

	// eventIDSuffixLen is the number of random characters appended to the
	// millisecond timestamp to make event keys collision resistant.
	eventIDSuffixLen = 8
)

// Config holds the analytics retention settings.
type Config struct {
	// EventTTL is the expiry of raw event log records.
	EventTTL time.Duration
	// SeenUserTTL is the expiry of the per-day unique user marker.
	SeenUserTTL time.Duration
}

// Default retention values.
const (
	DefaultEventTTL    = 7 * 24 * time.Hour
	DefaultSeenUserTTL = 48 * time.Hour
)

// SetDefaults applies default retention values.
func (c *Config) SetDefaults() {
	if c.EventTTL == 0 {
		c.EventTTL = DefaultEventTTL
	}
	if c.SeenUserTTL == 0 {
		c.SeenUserTTL = DefaultSeenUserTTL
	}
}

// Actor serves the global analytics partition.
type Actor struct {
	host *actor.Host
	log  logger.Logger
	cfg  Config

	nowFn func() time.Time
}

// New creates the analytics event actor over the given host.
func New(host *actor.Host, log logger.Logger, cfg Config) *Actor {
	cfg.SetDefaults()
	return &Actor{
		host:  host,
		log:   log.With(logger.String("actor", partitionKind)),
		cfg:   cfg,
		nowFn: time.Now,
	}
}

// RecordEvent appends the event to the log under a strictly increasing,
// collision-resistant key with a store-owned expiry, then updates the one
// rollup family the event type maps to. Returns the new event id.
// The payload is validated up front so a rejected event leaves no trace in
// the log or the rollups.
func (a *Actor) RecordEvent(ctx context.Context, eventType EventType, payload Payload) (string, error) {
	if err := validateEvent(eventType, payload); err != nil {
		return "", err
	}

	now := a.nowFn().UTC()
	eventID := fmt.Sprintf("%013d:%s", now.UnixMilli(), uuid.NewString()[:eventIDSuffixLen])

	err := a.host.Invoke(ctx, partitionKind, partitionID, func(ctx context.Context, p *actor.Partition) error {
		event := Event{Type: eventType, Payload: payload, Timestamp: now}
		if err := p.PutJSONTTL(ctx, eventPrefix+eventID, event, a.cfg.EventTTL); err != nil {
			return engage.Store("append event", err)
		}
		return a.updateRollup(ctx, p, eventType, payload, now)
	})
	if err != nil {
		return "", err
	}

	a.log.Debug("Analytics event recorded",
		logger.String("event_id", eventID),
		logger.String("event_type", string(eventType)),
	)
	return eventID, nil
}

// validateEvent checks the fields the event type's rollup depends on. It
// runs before anything is written so a rejected event leaves neither a log
// record nor a rollup change.
func validateEvent(eventType EventType, payload Payload) error {
	switch eventType {
	case EventArticleView, EventArticleRead:
		if payload.EntityID == "" {
			return engage.Input("entity_id is required for article events")
		}
	case EventSearch:
		if normalizeTerm(payload.Term) == "" {
			return engage.Input("term is required for search events")
		}
	case EventTrafficSource:
		if payload.Source == "" {
			return engage.Input("source is required for traffic_source events")
		}
	}
	return nil
}

// updateRollup dispatches the event to its rollup family. The switch is
// exhaustive over the closed EventType set; there is no silent default.
func (a *Actor) updateRollup(ctx context.Context, p *actor.Partition, eventType EventType, payload Payload, now time.Time) error {
	dayKey := now.Format(dayKeyFormat)

	switch eventType {
	case EventArticleView:
		return a.bumpEntity(ctx, p, payload, false)
	case EventArticleRead:
		return a.bumpEntity(ctx, p, payload, true)
	case EventSearch:
		return a.bumpFrequency(ctx, p, searchPrefix+dayKey, normalizeTerm(payload.Term))
	case EventTrafficSource:
		return a.bumpFrequency(ctx, p, trafficPrefix+dayKey, payload.Source)
	case EventSessionStart:
		return a.bumpEngagement(ctx, p, dayKey, payload.UserID, true)
	case EventEngagement:
		return a.bumpEngagement(ctx, p, dayKey, payload.UserID, false)
	}
	return engage.Unsupported("event type " + string(eventType) + " has no rollup")
}

// bumpEntity updates the entity popularity rollup and, when the event names
// a category, the category rollup alongside it.
func (a *Actor) bumpEntity(ctx context.Context, p *actor.Partition, payload Payload, isRead bool) error {
	var stats EntityStats
	key := popularityPrefix + payload.EntityID
	if _, err := p.GetJSON(ctx, key, &stats); err != nil {
		return engage.Store("load entity stats", err)
	}
	stats.EntityID = payload.EntityID
	if payload.Title != "" {
		stats.Title = payload.Title
	}
	if payload.Category != "" {
		stats.Category = payload.Category
	}
	if isRead {
		stats.Reads++
	} else {
		stats.Views++
	}
	if err := p.PutJSON(ctx, key, stats); err != nil {
		return engage.Store("write entity stats", err)
	}

	if payload.Category == "" {
		return nil
	}

	var cat CategoryStats
	catKey := categoryPrefix + payload.Category
	if _, err := p.GetJSON(ctx, catKey, &cat); err != nil {
		return engage.Store("load category stats", err)
	}
	cat.Category = payload.Category
	if isRead {
		cat.Reads++
	} else {
		cat.Views++
	}
	if err := p.PutJSON(ctx, catKey, cat); err != nil {
		return engage.Store("write category stats", err)
	}
	return nil
}

func (a *Actor) bumpFrequency(ctx context.Context, p *actor.Partition, key, name string) error {
	var bucket dayCounts
	if _, err := p.GetJSON(ctx, key, &bucket); err != nil {
		return engage.Store("load frequency bucket", err)
	}
	if bucket.Counts == nil {
		bucket.Counts = make(map[string]int64)
	}
	bucket.Counts[name]++

	if err := p.PutJSON(ctx, key, bucket); err != nil {
		return engage.Store("write frequency bucket", err)
	}
	return nil
}

// bumpEngagement updates the per-day engagement rollup. Unique users are
// tracked through a TTL marker per (day, user); its disappearance after the
// TTL simply means the user can be counted again on a later day.
func (a *Actor) bumpEngagement(ctx context.Context, p *actor.Partition, dayKey, userID string, isSession bool) error {
	var stats EngagementStats
	key := engagementPrefix + dayKey
	if _, err := p.GetJSON(ctx, key, &stats); err != nil {
		return engage.Store("load engagement stats", err)
	}
	stats.Day = dayKey
	if isSession {
		stats.Sessions++
	}
	stats.Events++

	if userID != "" {
		markerKey := seenPrefix + dayKey + ":" + userID
		_, seen, err := p.Get(ctx, markerKey)
		if err != nil {
			return engage.Store("load seen marker", err)
		}
		if !seen {
			stats.UniqueUsers++
			if err := p.PutJSONTTL(ctx, markerKey, dayKey, a.cfg.SeenUserTTL); err != nil {
				return engage.Store("write seen marker", err)
			}
		}
	}

	if err := p.PutJSON(ctx, key, stats); err != nil {
		return engage.Store("write engagement stats", err)
	}
	return nil
}

// Clear deletes either the whole analytics partition ("all") or the keys of
// one rollup scope.
func (a *Actor) Clear(ctx context.Context, scope string) (int, error) {
	prefixes, err := scopePrefixes(scope)
	if err != nil {
		return 0, err
	}

	var removed int
	err = a.host.Invoke(ctx, partitionKind, partitionID, func(ctx context.Context, p *actor.Partition) error {
		for _, prefix := range prefixes {
			n, err := p.DeletePrefix(ctx, prefix)
			if err != nil {
				return engage.Store("clear analytics scope", err)
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.log.Info("Analytics data cleared",
		logger.String("scope", scope),
		logger.Int("keys_removed", removed),
	)
	return removed, nil
}

func scopePrefixes(scope string) ([]string, error) {
	switch scope {
	case "", "all":
		return []string{""}, nil
	case "events":
		return []string{eventPrefix}, nil
	case "popularity":
		return []string{popularityPrefix}, nil
	case "categories":
		return []string{categoryPrefix}, nil
	case "search":
		return []string{searchPrefix}, nil
	case "traffic":
		return []string{trafficPrefix}, nil
	case "engagement":
		return []string{engagementPrefix, seenPrefix}, nil
	default:
		return nil, engage.Input("unknown analytics scope %q", scope)
	}
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
