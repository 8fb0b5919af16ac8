// Package interactions implements the per-article interaction counter actor.
// One partition per content entity tracks view/like/bookmark/share counts and
// a per-user ledger that blocks duplicate positive interactions.
package interactions

import (
	"context"
	"time"

	"github.com/nyuchitech/harare-metro-sub001/internal/actor"
	"github.com/nyuchitech/harare-metro-sub001/internal/engage"
	"github.com/nyuchitech/harare-metro-sub001/internal/logger"
)

// Type identifies one kind of interaction.
type Type string

// The closed set of interaction types.
const (
	TypeView     Type = "view"
	TypeLike     Type = "like"
	TypeBookmark Type = "bookmark"
	TypeShare    Type = "share"
)

// ParseType validates a wire-level interaction type string.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeView, TypeLike, TypeBookmark, TypeShare:
		return Type(s), nil
	default:
		return "", engage.Input("unknown interaction type %q", s)
	}
}

// Snapshot is the running interaction state of one content entity.
type Snapshot struct {
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Bookmarks   int64     `json:"bookmarks"`
	Shares      int64     `json:"shares"`
	LastUpdated time.Time `json:"last_updated"`
}

// ledgerEntry marks that a user already performed a positive interaction.
// Entries are written once and never deleted by this actor: un-liking goes
// through a signed negative delta that leaves the ledger untouched, so a
// repeat positive interaction by the same user always conflicts.
type ledgerEntry struct {
	RecordedAt time.Time `json:"recorded_at"`
}

const (
	snapshotKey  = "snapshot"
	ledgerPrefix = "ledger:"

	partitionKind = "interactions"
)

// Actor serves interaction counter operations.
type Actor struct {
	host *actor.Host
	log  logger.Logger

	nowFn func() time.Time
}

// New creates an interaction counter actor over the given host.
func New(host *actor.Host, log logger.Logger) *Actor {
	return &Actor{
		host:  host,
		log:   log.With(logger.String("actor", partitionKind)),
		nowFn: time.Now,
	}
}

// Record applies a signed interaction delta to the entity's snapshot.
//
// When userID is present and delta is positive, the (user, type) ledger is
// consulted first: a prior entry rejects the call with a conflict carrying
// the unchanged snapshot. Negative deltas never read into or write the
// ledger, and anonymous calls skip dedup entirely.
func (a *Actor) Record(ctx context.Context, entityID string, typ Type, userID string, delta int64) (Snapshot, error) {
	if entityID == "" {
		return Snapshot{}, engage.MissingID("entity_id")
	}

	var snap Snapshot
	err := a.host.Invoke(ctx, partitionKind, entityID, func(ctx context.Context, p *actor.Partition) error {
		if _, err := p.GetJSON(ctx, snapshotKey, &snap); err != nil {
			return engage.Store("load snapshot", err)
		}

		dedup := userID != "" && delta > 0
		if dedup {
			ledgerKey := ledgerPrefix + userID + ":" + string(typ)
			_, exists, err := p.Get(ctx, ledgerKey)
			if err != nil {
				return engage.Store("load ledger entry", err)
			}
			if exists {
				return engage.Conflict("duplicate "+string(typ)+" interaction", snap)
			}
			entry := ledgerEntry{RecordedAt: a.nowFn().UTC()}
			if err := p.PutJSON(ctx, ledgerKey, entry); err != nil {
				return engage.Store("write ledger entry", err)
			}
		}

		snap.apply(typ, delta)
		snap.LastUpdated = a.nowFn().UTC()

		if err := p.PutJSON(ctx, snapshotKey, snap); err != nil {
			return engage.Store("write snapshot", err)
		}
		return nil
	})
	if err != nil {
		return snap, err
	}

	a.log.Debug("Interaction recorded",
		logger.String("entity_id", entityID),
		logger.String("type", string(typ)),
		logger.Int64("delta", delta),
	)
	return snap, nil
}

// Get returns the entity's snapshot, zero-valued if never written.
func (a *Actor) Get(ctx context.Context, entityID string) (Snapshot, error) {
	if entityID == "" {
		return Snapshot{}, engage.MissingID("entity_id")
	}

	var snap Snapshot
	err := a.host.Invoke(ctx, partitionKind, entityID, func(ctx context.Context, p *actor.Partition) error {
		if _, err := p.GetJSON(ctx, snapshotKey, &snap); err != nil {
			return engage.Store("load snapshot", err)
		}
		return nil
	})
	return snap, err
}

func (s *Snapshot) apply(typ Type, delta int64) {
	switch typ {
	case TypeView:
		s.Views += delta
	case TypeLike:
		s.Likes += delta
	case TypeBookmark:
		s.Bookmarks += delta
	case TypeShare:
		s.Shares += delta
	}
}
