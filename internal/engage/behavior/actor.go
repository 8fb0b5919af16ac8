// Package behavior implements the per-user behavior profile actor: cumulative
// reading time, articles read, a category histogram, preferences, and the
// consecutive-day reading streak.
package behavior

import (
	"context"
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
)

// Action identifies one behavior operation.
type Action string

// The closed set of behavior actions.
const (
	ActionReadArticle       Action = "read_article"
	ActionUpdatePreferences Action = "update_preferences"
	ActionTrackTime         Action = "track_time"
)

// ParseAction validates a wire-level action string.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionReadArticle, ActionUpdatePreferences, ActionTrackTime:
		return Action(s), nil
	default:
		return "", engage.Input("unknown behavior action %q", s)
	}
}

// Streak tracks consecutive calendar days with at least one read.
// longest never decreases and is always >= current.
type Streak struct {
	Current        int    `json:"current"`
	Longest        int    `json:"longest"`
	LastActiveDate string `json:"last_active_date,omitempty"`
}

// Profile is the full behavior state of one user.
type Profile struct {
	TotalReadingTime int64            `json:"total_reading_time"`
	ArticlesRead     int64            `json:"articles_read"`
	CategoriesViewed map[string]int64 `json:"categories_viewed"`
	LastActivity     time.Time        `json:"last_activity"`
	Preferences      map[string]any   `json:"preferences"`
	Streak           Streak           `json:"streak"`
}

// Payload carries the per-action fields of a behavior operation.
type Payload struct {
	EntityID    string         `json:"entity_id,omitempty"`
	Category    string         `json:"category,omitempty"`
	Source      string         `json:"source,omitempty"`
	ReadingTime int64          `json:"reading_time,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
}

// ReadRecord is the optional per-article trace of a read_article action.
// It has no TTL and is removed only by Clear.
type ReadRecord struct {
	ReadingTime int64     `json:"reading_time"`
	Category    string    `json:"category,omitempty"`
	Source      string    `json:"source,omitempty"`
	ReadAt      time.Time `json:"read_at"`
}

const (
	profileKey = "profile"
	readPrefix = "read:"

	partitionKind = "behavior"

	dateFormat = "2006-01-02"
)

// Actor serves behavior profile operations.
type Actor struct {
	host *actor.Host
	log  logger.Logger

	nowFn func() time.Time
}

// New creates a behavior profile actor over the given host.
func New(host *actor.Host, log logger.Logger) *Actor {
	return &Actor{
		host:  host,
		log:   log.With(logger.String("actor", partitionKind)),
		nowFn: time.Now,
	}
}

// Record applies one behavior action to the user's profile.
func (a *Actor) Record(ctx context.Context, userID string, action Action, payload Payload) (Profile, error) {
	if userID == "" {
		return Profile{}, engage.MissingID("user_id")
	}

	var profile Profile
	err := a.host.Invoke(ctx, partitionKind, userID, func(ctx context.Context, p *actor.Partition) error {
		if err := loadProfile(ctx, p, &profile); err != nil {
			return err
		}

		now := a.nowFn().UTC()
		switch action {
		case ActionReadArticle:
			if err := a.applyRead(ctx, p, &profile, payload, now); err != nil {
				return err
			}
		case ActionUpdatePreferences:
			for k, v := range payload.Preferences {
				profile.Preferences[k] = v
			}
		case ActionTrackTime:
			profile.TotalReadingTime += payload.ReadingTime
		}
		profile.LastActivity = now

		if err := p.PutJSON(ctx, profileKey, profile); err != nil {
			return engage.Store("write profile", err)
		}
		return nil
	})
	return profile, err
}

// Get returns the user's profile, zero-valued if never written.
func (a *Actor) Get(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, engage.MissingID("user_id")
	}

	var profile Profile
	err := a.host.Invoke(ctx, partitionKind, userID, func(ctx context.Context, p *actor.Partition) error {
		return loadProfile(ctx, p, &profile)
	})
	return profile, err
}

// Clear deletes the profile and every per-article read record of the user.
func (a *Actor) Clear(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, engage.MissingID("user_id")
	}

	var removed int
	err := a.host.Invoke(ctx, partitionKind, userID, func(ctx context.Context, p *actor.Partition) error {
		n, err := p.Clear(ctx)
		if err != nil {
			return engage.Store("clear user data", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	a.log.Info("User behavior data cleared",
		logger.String("user_id", userID),
		logger.Int("keys_removed", removed),
	)
	return removed, nil
}

func (a *Actor) applyRead(ctx context.Context, p *actor.Partition, profile *Profile, payload Payload, now time.Time) error {
	profile.ArticlesRead++
	profile.TotalReadingTime += payload.ReadingTime
	if payload.Category != "" {
		profile.CategoriesViewed[payload.Category]++
	}
	advanceStreak(&profile.Streak, now)

	if payload.EntityID != "" {
		record := ReadRecord{
			ReadingTime: payload.ReadingTime,
			Category:    payload.Category,
			Source:      payload.Source,
			ReadAt:      now,
		}
		if err := p.PutJSON(ctx, readPrefix+payload.EntityID, record); err != nil {
			return engage.Store("write read record", err)
		}
	}
	return nil
}

// advanceStreak applies the consecutive-day rule: a second read on the same
// day is a no-op, a read exactly one calendar day after the last active date
// extends the streak, anything else restarts it at 1.
func advanceStreak(s *Streak, now time.Time) {
	today := now.Format(dateFormat)
	if s.LastActiveDate == today {
		return
	}

	yesterday := now.AddDate(0, 0, -1).Format(dateFormat)
	if s.LastActiveDate == yesterday {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActiveDate = today
}

func loadProfile(ctx context.Context, p *actor.Partition, profile *Profile) error {
	if _, err := p.GetJSON(ctx, profileKey, profile); err != nil {
		return engage.Store("load profile", err)
	}
	if profile.CategoriesViewed == nil {
		profile.CategoriesViewed = make(map[string]int64)
	}
	if profile.Preferences == nil {
		profile.Preferences = make(map[string]any)
	}
	return nil
}
