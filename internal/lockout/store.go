package lockout

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// shardCount is fixed; 64 shards keep unrelated identifiers off the same
// mutex at realistic login volumes without a measurable memory cost.
const shardCount = 64

// identifierState is the per-identifier aggregate. All fields are guarded by
// the owning shard's mutex; a pointer to an identifierState must never escape
// the store's callback accessors.
type identifierState struct {
	attempts    []time.Time // chronological, oldest first
	lockedUntil time.Time   // zero value = not locked
	lastSeen    time.Time
}

type storeShard struct {
	mu     sync.Mutex
	states map[string]*identifierState
}

// attemptStore owns the identifier -> identifierState mapping. It holds no
// policy: callers pass closures that run under the identifier's shard lock,
// which is what serializes record/reset/sweep for the same identifier.
type attemptStore struct {
	shards [shardCount]storeShard
}

func newAttemptStore() *attemptStore {
	s := &attemptStore{}
	for i := range s.shards {
		s.shards[i].states = make(map[string]*identifierState)
	}
	return s
}

func (s *attemptStore) shardFor(id string) *storeShard {
	return &s.shards[xxhash.Sum64String(id)%shardCount]
}

// update runs fn on the identifier's state under the shard lock, creating an
// empty state first if the identifier is unknown.
func (s *attemptStore) update(id string, fn func(st *identifierState)) {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	st, ok := shard.states[id]
	if !ok {
		st = &identifierState{}
		shard.states[id] = st
	}
	fn(st)
}

// withExisting runs fn on the identifier's state under the shard lock if the
// identifier is known. Returns false without calling fn otherwise.
func (s *attemptStore) withExisting(id string, fn func(st *identifierState)) bool {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	st, ok := shard.states[id]
	if !ok {
		return false
	}
	fn(st)
	return true
}

// remove deletes the identifier's state. No-op for unknown identifiers.
func (s *attemptStore) remove(id string) {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.states, id)
}

// removeIf deletes the identifier's state when pred returns true. The
// predicate is evaluated under the shard lock, so a concurrent update cannot
// interleave between the check and the delete.
func (s *attemptStore) removeIf(id string, pred func(st *identifierState) bool) bool {
	shard := s.shardFor(id)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	st, ok := shard.states[id]
	if !ok || !pred(st) {
		return false
	}
	delete(shard.states, id)
	return true
}

// identifiers returns a snapshot of the current keys. The snapshot is safe to
// iterate while other goroutines mutate the store; entries may appear or
// vanish concurrently.
func (s *attemptStore) identifiers() []string {
	ids := make([]string, 0, 64)
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		for id := range shard.states {
			ids = append(ids, id)
		}
		shard.mu.Unlock()
	}
	return ids
}

// size reports the number of tracked identifiers.
func (s *attemptStore) size() int {
	n := 0
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.Lock()
		n += len(shard.states)
		shard.mu.Unlock()
	}
	return n
}
