package analytics

import (
	"context"
	"sort"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
)

// Result sizes for ranked listings.
const (
	topEntities = 20
	topRanked   = 10
)

// Query answers one read query over the incrementally maintained rollups.
// The raw event log is never consulted here.
func (a *Actor) Query(ctx context.Context, kind QueryKind, timeRange TimeRange) (any, error) {
	var result any
	err := a.host.Invoke(ctx, partitionKind, partitionID, func(ctx context.Context, p *actor.Partition) error {
		day := a.cutoffDay(timeRange)

		var err error
		switch kind {
		case QueryPopularEntities:
			result, err = popularEntities(ctx, p)
		case QueryCategoryStats:
			result, err = categoryStats(ctx, p)
		case QuerySearchTrends:
			result, err = frequencyReport(ctx, p, searchPrefix, day)
		case QueryTrafficSources:
			result, err = frequencyReport(ctx, p, trafficPrefix, day)
		case QueryUserEngagement:
			result, err = engagementStats(ctx, p, day)
		case QueryAll:
			result, err = overview(ctx, p, day)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// cutoffDay resolves a time range to the single day bucket read by the
// day-scoped queries.
func (a *Actor) cutoffDay(timeRange TimeRange) string {
	return a.nowFn().UTC().Add(-timeRange.Duration()).Format(dayKeyFormat)
}

func popularEntities(ctx context.Context, p *actor.Partition) ([]EntityStats, error) {
	keys, err := p.Keys(ctx, popularityPrefix)
	if err != nil {
		return nil, engage.Store("scan entity stats", err)
	}

	entities := make([]EntityStats, 0, len(keys))
	for _, key := range keys {
		var stats EntityStats
		ok, err := p.GetJSON(ctx, key, &stats)
		if err != nil {
			return nil, engage.Store("load entity stats", err)
		}
		if ok {
			entities = append(entities, stats)
		}
	}

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Views > entities[j].Views
	})
	if len(entities) > topEntities {
		entities = entities[:topEntities]
	}
	return entities, nil
}

func categoryStats(ctx context.Context, p *actor.Partition) ([]CategoryStats, error) {
	keys, err := p.Keys(ctx, categoryPrefix)
	if err != nil {
		return nil, engage.Store("scan category stats", err)
	}

	categories := make([]CategoryStats, 0, len(keys))
	for _, key := range keys {
		var stats CategoryStats
		ok, err := p.GetJSON(ctx, key, &stats)
		if err != nil {
			return nil, engage.Store("load category stats", err)
		}
		if ok {
			categories = append(categories, stats)
		}
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Views > categories[j].Views
	})
	return categories, nil
}

func frequencyReport(ctx context.Context, p *actor.Partition, prefix, day string) (FrequencyReport, error) {
	report := FrequencyReport{Day: day, Top: []RankedCount{}}

	var bucket dayCounts
	if _, err := p.GetJSON(ctx, prefix+day, &bucket); err != nil {
		return report, engage.Store("load frequency bucket", err)
	}

	for name, count := range bucket.Counts {
		report.Top = append(report.Top, RankedCount{Name: name, Count: count})
		report.Total += count
	}

	sort.Slice(report.Top, func(i, j int) bool {
		if report.Top[i].Count != report.Top[j].Count {
			return report.Top[i].Count > report.Top[j].Count
		}
		return report.Top[i].Name < report.Top[j].Name
	})
	if len(report.Top) > topRanked {
		report.Top = report.Top[:topRanked]
	}
	return report, nil
}

func engagementStats(ctx context.Context, p *actor.Partition, day string) (EngagementStats, error) {
	stats := EngagementStats{Day: day}
	if _, err := p.GetJSON(ctx, engagementPrefix+day, &stats); err != nil {
		return stats, engage.Store("load engagement stats", err)
	}
	return stats, nil
}

func overview(ctx context.Context, p *actor.Partition, day string) (Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.PopularEntities, err = popularEntities(ctx, p); err != nil {
		return o, err
	}
	if o.CategoryStats, err = categoryStats(ctx, p); err != nil {
		return o, err
	}
	if o.SearchTrends, err = frequencyReport(ctx, p, searchPrefix, day); err != nil {
		return o, err
	}
	if o.TrafficSources, err = frequencyReport(ctx, p, trafficPrefix, day); err != nil {
		return o, err
	}
	if o.Engagement, err = engagementStats(ctx, p, day); err != nil {
		return o, err
	}
	return o, nil
}
