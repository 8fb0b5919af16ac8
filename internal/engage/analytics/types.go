// Package analytics implements the global analytics event actor: a
// short-retention append-only event log plus incrementally maintained
// rollups (entity popularity, category stats, search terms, traffic sources
// and engagement counts) that serve the read side. The log is a durability
// trail; queries never rebuild rollups from it.
package analytics

import (
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
)

// EventType identifies one recordable analytics event.
type EventType string

// The closed set of event types. Each maps to exactly one rollup family.
const (
	EventArticleView   EventType = "article_view"
	EventArticleRead   EventType = "article_read"
	EventSearch        EventType = "search"
	EventTrafficSource EventType = "traffic_source"
	EventSessionStart  EventType = "session_start"
	EventEngagement    EventType = "engagement"
)

// ParseEventType validates a wire-level event type string. Unknown types are
// rejected up front rather than being appended with no rollup effect.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventArticleView, EventArticleRead, EventSearch,
		EventTrafficSource, EventSessionStart, EventEngagement:
		return EventType(s), nil
	default:
		return "", engage.Input("unknown event type %q", s)
	}
}

// Payload carries the event-type-specific fields of one analytics event.
type Payload struct {
	EntityID  string            `json:"entity_id,omitempty"`
	Title     string            `json:"title,omitempty"`
	Category  string            `json:"category,omitempty"`
	UserID    string            `json:"user_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Term      string            `json:"term,omitempty"`
	Source    string            `json:"source,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Event is the stored append-only log record. Never updated; removed only by
// the store's TTL.
type Event struct {
	Type      EventType `json:"type"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityStats is the per-entity popularity rollup.
type EntityStats struct {
	EntityID string `json:"entity_id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
	Views    int64  `json:"views"`
	Reads    int64  `json:"reads"`
}

// CategoryStats is the per-category rollup.
type CategoryStats struct {
	Category string `json:"category"`
	Views    int64  `json:"views"`
	Reads    int64  `json:"reads"`
}

// dayCounts is a frequency map rollup bucketed by day (search terms or
// traffic sources).
type dayCounts struct {
	Counts map[string]int64 `json:"counts"`
}

// EngagementStats is the per-day session/engagement rollup.
type EngagementStats struct {
	Day         string `json:"day"`
	Sessions    int64  `json:"sessions"`
	Events      int64  `json:"events"`
	UniqueUsers int64  `json:"unique_users"`
}

// RankedCount is one entry of a sorted frequency listing.
type RankedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FrequencyReport is the query result for search trends and traffic sources:
// the top entries of one day bucket plus the bucket's total.
type FrequencyReport struct {
	Day   string        `json:"day"`
	Top   []RankedCount `json:"top"`
	Total int64         `json:"total"`
}

// Overview bundles all five query results, returned for kind "all".
type Overview struct {
	PopularEntities []EntityStats   `json:"popular_entities"`
	CategoryStats   []CategoryStats `json:"category_stats"`
	SearchTrends    FrequencyReport `json:"search_trends"`
	TrafficSources  FrequencyReport `json:"traffic_sources"`
	Engagement      EngagementStats `json:"user_engagement"`
}

// QueryKind identifies one analytics read query.
type QueryKind string

// The closed set of query kinds.
const (
	QueryPopularEntities QueryKind = "popular_entities"
	QueryCategoryStats   QueryKind = "category_stats"
	QuerySearchTrends    QueryKind = "search_trends"
	QueryTrafficSources  QueryKind = "traffic_sources"
	QueryUserEngagement  QueryKind = "user_engagement"
	QueryAll             QueryKind = "all"
)

// ParseQueryKind validates a wire-level query kind string.
func ParseQueryKind(s string) (QueryKind, error) {
	switch QueryKind(s) {
	case QueryPopularEntities, QueryCategoryStats, QuerySearchTrends,
		QueryTrafficSources, QueryUserEngagement, QueryAll:
		return QueryKind(s), nil
	default:
		return "", engage.Input("unknown query kind %q", s)
	}
}

// TimeRange is a named lookback window for day-bucketed queries.
type TimeRange string

// Accepted time ranges.
const (
	RangeHour  TimeRange = "1h"
	RangeDay   TimeRange = "24h"
	RangeWeek  TimeRange = "7d"
	RangeMonth TimeRange = "30d"
)

// ParseTimeRange validates a wire-level range string, defaulting to 24h.
func ParseTimeRange(s string) (TimeRange, error) {
	if s == "" {
		return RangeDay, nil
	}
	switch TimeRange(s) {
	case RangeHour, RangeDay, RangeWeek, RangeMonth:
		return TimeRange(s), nil
	default:
		return "", engage.Input("unknown time range %q", s)
	}
}

// Duration returns the lookback window of the range.
func (r TimeRange) Duration() time.Duration {
	switch r {
	case RangeHour:
		return time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	case RangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}
