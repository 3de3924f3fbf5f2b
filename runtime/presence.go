package runtime

import (
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"dm-lab/domain"
)

const presenceShards = 64

// PresenceRegistry is the single source of truth for "is user X reachable".
// State is sharded by user id so unrelated users never contend on one lock,
// while connect/disconnect for the same user always serialize on the same
// shard. The notify callback runs under the shard lock, which is what keeps
// ONLINE/OFFLINE broadcasts in order per user; it must not block.
//
// Policy: one active handle per user. A new connection replaces the previous
// one, and disconnect only clears the entry when the departing handle is
// still the one on record. Without that guard a stale disconnect from a
// replaced connection would mark a still-connected user offline.
type PresenceRegistry struct {
	log    *slog.Logger
	notify func(domain.PresenceChange)
	shards [presenceShards]presenceShard
}

type presenceShard struct {
	mu      sync.Mutex
	handles map[string]string // userID -> current ConnID
}

func NewPresenceRegistry(log *slog.Logger, notify func(domain.PresenceChange)) *PresenceRegistry {
	r := &PresenceRegistry{log: log, notify: notify}
	for i := range r.shards {
		r.shards[i].handles = make(map[string]string)
	}
	return r
}

func (r *PresenceRegistry) shardFor(userID string) *presenceShard {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return &r.shards[h.Sum32()%presenceShards]
}

// Connect records the handle as the user's current connection. The returned
// change (and the notification) only fires on the offline-to-online edge;
// replacing an existing connection is silent.
func (r *PresenceRegistry) Connect(h domain.Handle) (domain.PresenceChange, bool) {
	shard := r.shardFor(h.UserID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	_, wasOnline := shard.handles[h.UserID]
	shard.handles[h.UserID] = h.ConnID
	if wasOnline {
		r.log.Debug("Connection replaced", "user", h.UserID)
		return domain.PresenceChange{}, false
	}

	change := domain.PresenceChange{
		UserID: h.UserID,
		Status: domain.PresenceOnline,
		At:     time.Now().UTC(),
	}
	if r.notify != nil {
		r.notify(change)
	}
	return change, true
}

// Disconnect removes the association only when the departing handle is still
// the one on record. An unknown or superseded handle is a no-op: the newer
// session stays online and no OFFLINE event is emitted.
func (r *PresenceRegistry) Disconnect(h domain.Handle) (domain.PresenceChange, bool) {
	shard := r.shardFor(h.UserID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	current, ok := shard.handles[h.UserID]
	if !ok || current != h.ConnID {
		return domain.PresenceChange{}, false
	}
	delete(shard.handles, h.UserID)

	change := domain.PresenceChange{
		UserID: h.UserID,
		Status: domain.PresenceOffline,
		At:     time.Now().UTC(),
	}
	if r.notify != nil {
		r.notify(change)
	}
	return change, true
}

// IsOnline is a pure lookup with no side effect.
func (r *PresenceRegistry) IsOnline(userID string) bool {
	shard := r.shardFor(userID)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	_, ok := shard.handles[userID]
	return ok
}
