// Package session holds the in-memory conversation state. The store gives
// every session id its own mutex so one conversation's pipeline runs
// atomically while unrelated conversations proceed without contention; there
// is no global lock. State does not survive a restart.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"lurelab/internal/config"
	"lurelab/internal/domain/models"
	"lurelab/pkg/logger"
)

const shardCount = 32

type entry struct {
	mu         sync.Mutex
	session    *models.Session
	lastActive atomic.Int64 // unix nanos
}

type shard struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// Store is a sharded, concurrency-safe session container with bounded
// oldest-inactive-first eviction.
type Store struct {
	shards    [shardCount]*shard
	cfg       config.SessionConfig
	logger    *logger.Logger
	count     atomic.Int64
	evictions atomic.Int64
	onEvict   func(sessionID string)
	clock     func() time.Time
}

// NewStore creates a store with the given bounds.
func NewStore(cfg config.SessionConfig, log *logger.Logger) *Store {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 10000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	s := &Store{
		cfg:    cfg,
		logger: log.WithComponent("session-store"),
		clock:  time.Now,
	}
	for i := range s.shards {
		s.shards[i] = &shard{entries: make(map[string]*entry)}
	}
	return s
}

// OnEvict registers a hook invoked after a session is evicted. Must be set
// before the store is shared.
func (s *Store) OnEvict(fn func(sessionID string)) {
	s.onEvict = fn
}

func (s *Store) shardFor(id string) *shard {
	// FNV-1a, inlined; the ids are short opaque strings
	h := uint32(2166136261)
	for i := 0; i < len(id); i++ {
		h ^= uint32(id[i])
		h *= 16777619
	}
	return s.shards[h%shardCount]
}

func (s *Store) getOrCreate(id string) *entry {
	sh := s.shardFor(id)

	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if ok {
		return e
	}

	sh.mu.Lock()
	if e, ok = sh.entries[id]; !ok {
		now := s.clock()
		e = &entry{session: models.NewSession(id, now)}
		e.lastActive.Store(now.UnixNano())
		sh.entries[id] = e
		s.count.Add(1)
	}
	sh.mu.Unlock()

	if s.count.Load() > int64(s.cfg.MaxSessions) {
		s.evictOldest(id)
	}
	return e
}

// Do runs fn with exclusive access to the session for id, creating the
// default state lazily. The whole per-turn pipeline executes inside fn; two
// concurrent messages for the same id serialize here while other sessions
// are untouched.
func (s *Store) Do(id string, fn func(*models.Session) error) error {
	e := s.getOrCreate(id)
	e.mu.Lock()
	defer e.mu.Unlock()
	now := s.clock()
	e.session.LastActivity = now
	e.lastActive.Store(now.UnixNano())
	return fn(e.session)
}

// Snapshot returns a deep copy of the session state, or false if the id is
// unknown. Safe to use without holding any lock.
func (s *Store) Snapshot(id string) (*models.Session, bool) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	e, ok := sh.entries[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Snapshot(), true
}

// List returns snapshots of every live session. Intended for the inspection
// endpoints, not the hot path.
func (s *Store) List() []*models.Session {
	var out []*models.Session
	for _, sh := range s.shards {
		sh.mu.RLock()
		ids := make([]string, 0, len(sh.entries))
		for id := range sh.entries {
			ids = append(ids, id)
		}
		sh.mu.RUnlock()
		for _, id := range ids {
			if snap, ok := s.Snapshot(id); ok {
				out = append(out, snap)
			}
		}
	}
	return out
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return int(s.count.Load())
}

// Evictions returns how many sessions have been evicted since start.
func (s *Store) Evictions() int64 {
	return s.evictions.Load()
}

// evictOldest removes the least recently active session other than keep.
// Eviction is data loss by policy; it is logged and counted, never silent.
func (s *Store) evictOldest(keep string) {
	var (
		oldestID    string
		oldestShard *shard
		oldestAt    int64 = 1<<63 - 1
	)
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id, e := range sh.entries {
			if id == keep {
				continue
			}
			if at := e.lastActive.Load(); at < oldestAt {
				oldestAt = at
				oldestID = id
				oldestShard = sh
			}
		}
		sh.mu.RUnlock()
	}
	if oldestID == "" {
		return
	}
	s.remove(oldestShard, oldestID, "capacity")
}

func (s *Store) remove(sh *shard, id string, reason string) {
	sh.mu.Lock()
	e, ok := sh.entries[id]
	if ok {
		delete(sh.entries, id)
		s.count.Add(-1)
	}
	sh.mu.Unlock()
	if !ok {
		return
	}
	// wait for any in-flight turn to finish before declaring it gone
	e.mu.Lock()
	turns := e.session.TurnCount
	e.mu.Unlock()

	s.evictions.Add(1)
	s.logger.Warn().
		Str("session_id", id).
		Str("reason", reason).
		Int("turns", turns).
		Msg("session evicted")
	if s.onEvict != nil {
		s.onEvict(id)
	}
}

// Sweep periodically evicts sessions idle longer than the configured TTL.
// Blocks until ctx is done.
func (s *Store) Sweep(ctx context.Context) {
	interval := s.cfg.IdleTTL / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Store) sweepOnce() {
	cutoff := s.clock().Add(-s.cfg.IdleTTL).UnixNano()
	for _, sh := range s.shards {
		sh.mu.RLock()
		var stale []string
		for id, e := range sh.entries {
			if e.lastActive.Load() < cutoff {
				stale = append(stale, id)
			}
		}
		sh.mu.RUnlock()
		for _, id := range stale {
			s.remove(sh, id, "idle")
		}
	}
}
