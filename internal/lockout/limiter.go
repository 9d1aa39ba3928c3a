// Package lockout tracks failed authentication attempts per identifier over a
// sliding time window and denies further attempts once a configurable
// threshold is exceeded. State lives entirely in process memory: lockouts
// expire lazily on read, and a cleanup sweep bounds memory by evicting idle
// identifiers. Safe for concurrent use; unrelated identifiers do not contend
// thanks to a sharded store.
package lockout

import (
	"sync"
	"time"
)

// Status is a point-in-time snapshot of an identifier's tracking state.
type Status struct {
	// Locked reports whether the identifier is currently denied.
	Locked bool

	// Attempts is the number of in-window failures.
	Attempts int

	// Remaining is MaxAttempts minus Attempts, floored at zero. It describes
	// the attempt history only; consult Locked for the actual gate.
	Remaining int

	// LockedUntil is the lockout expiry instant. Zero when not locked.
	LockedUntil time.Time

	// RetryAfter is the time left until LockedUntil. Zero when not locked.
	RetryAfter time.Duration
}

// Limiter is the policy engine: it records failures, decides lockouts, and
// evicts stale state. Construct with New; the zero value is not usable.
type Limiter struct {
	cfg   Config
	store *attemptStore
	now   func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures optional Limiter behavior.
type Option func(*Limiter)

// WithClock replaces the Limiter's time source. Tests inject a fake clock
// here; production code uses the default time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New validates cfg and returns a ready Limiter. When cfg.SweepInterval is
// positive a background eviction goroutine is started; stop it with Close.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Limiter{
		cfg:   cfg,
		store: newAttemptStore(),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}

	if cfg.SweepInterval > 0 {
		go l.sweeper()
	}
	return l, nil
}

// RecordFailure appends a failed attempt for id at the current instant and
// returns the post-update Status. Crossing the threshold locks the identifier
// within this same call; an already-later lockout expiry is never shortened.
func (l *Limiter) RecordFailure(id string) (Status, error) {
	if id == "" {
		return Status{}, ErrInvalidIdentifier
	}

	now := l.now()
	var st Status
	l.store.update(id, func(s *identifierState) {
		l.expireLocked(s, now)
		l.pruneLocked(s, now)

		s.attempts = append(s.attempts, now)
		s.lastSeen = now

		if len(s.attempts) >= l.cfg.MaxAttempts {
			expiry := now.Add(l.cfg.Lockout)
			if expiry.After(s.lockedUntil) {
				s.lockedUntil = expiry
			}
		}
		st = l.snapshotLocked(s, now)
	})
	return st, nil
}

// IsLocked reports whether id is currently denied. Observing an expired
// lockout clears it, and the attempt history with it, so counting starts
// fresh once a lockout ends.
func (l *Limiter) IsLocked(id string) (bool, error) {
	if id == "" {
		return false, ErrInvalidIdentifier
	}

	now := l.now()
	locked := false
	l.store.withExisting(id, func(s *identifierState) {
		l.expireLocked(s, now)
		locked = !s.lockedUntil.IsZero() && now.Before(s.lockedUntil)
	})
	return locked, nil
}

// IsAllowed is the negation of IsLocked.
func (l *Limiter) IsAllowed(id string) (bool, error) {
	locked, err := l.IsLocked(id)
	if err != nil {
		return false, err
	}
	return !locked, nil
}

// Reset clears all tracking state for id immediately. Idempotent; intended
// for successful authentication and manual unlocks.
func (l *Limiter) Reset(id string) error {
	if id == "" {
		return ErrInvalidIdentifier
	}
	l.store.remove(id)
	return nil
}

// RemainingAttempts returns how many more failures id can accrue before a
// lockout triggers, floored at zero. Unknown identifiers get the full budget.
func (l *Limiter) RemainingAttempts(id string) (int, error) {
	if id == "" {
		return 0, ErrInvalidIdentifier
	}

	now := l.now()
	remaining := l.cfg.MaxAttempts
	l.store.withExisting(id, func(s *identifierState) {
		l.expireLocked(s, now)
		remaining = l.cfg.MaxAttempts - l.countInWindowLocked(s, now)
		if remaining < 0 {
			remaining = 0
		}
	})
	return remaining, nil
}

// Status returns a consolidated snapshot for id. Unknown identifiers get the
// no-history default: unlocked with the full attempt budget.
func (l *Limiter) Status(id string) (Status, error) {
	if id == "" {
		return Status{}, ErrInvalidIdentifier
	}

	now := l.now()
	st := Status{Remaining: l.cfg.MaxAttempts}
	l.store.withExisting(id, func(s *identifierState) {
		l.expireLocked(s, now)
		st = l.snapshotLocked(s, now)
	})
	return st, nil
}

// LockedIdentifiers returns the identifiers currently under an active lockout.
func (l *Limiter) LockedIdentifiers() []string {
	now := l.now()
	var locked []string
	for _, id := range l.store.identifiers() {
		l.store.withExisting(id, func(s *identifierState) {
			l.expireLocked(s, now)
			if !s.lockedUntil.IsZero() && now.Before(s.lockedUntil) {
				locked = append(locked, id)
			}
		})
	}
	return locked
}

// Sweep runs one eviction pass and returns the number of identifiers removed.
// An identifier is evicted when it has no active lockout and has been idle
// longer than RetentionIdle. The idle check runs under the identifier's shard
// lock, so the sweep cannot race a concurrent RecordFailure into losing an
// update.
func (l *Limiter) Sweep() int {
	now := l.now()
	removed := 0
	for _, id := range l.store.identifiers() {
		evicted := l.store.removeIf(id, func(s *identifierState) bool {
			if !s.lockedUntil.IsZero() && now.Before(s.lockedUntil) {
				return false
			}
			return now.Sub(s.lastSeen) > l.cfg.RetentionIdle
		})
		if evicted {
			removed++
		}
	}
	return removed
}

// Size reports how many identifiers are currently tracked.
func (l *Limiter) Size() int {
	return l.store.size()
}

// Close stops the background sweeper, if one is running. Idempotent.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

func (l *Limiter) sweeper() {
	ticker := time.NewTicker(l.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// expireLocked clears an expired lockout and the attempt history behind it.
// Must be called with the identifier's shard lock held.
func (l *Limiter) expireLocked(s *identifierState, now time.Time) {
	if s.lockedUntil.IsZero() || now.Before(s.lockedUntil) {
		return
	}
	s.lockedUntil = time.Time{}
	s.attempts = s.attempts[:0]
}

// pruneLocked drops attempts that have left the window. A record counts while
// its timestamp is at least now-Window; with Window zero only records stamped
// exactly at now survive.
func (l *Limiter) pruneLocked(s *identifierState, now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(s.attempts) && s.attempts[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		s.attempts = append(s.attempts[:0], s.attempts[i:]...)
	}
}

// countInWindowLocked counts records inside the window without mutating the
// sequence; expired records are excluded even when not yet physically purged.
func (l *Limiter) countInWindowLocked(s *identifierState, now time.Time) int {
	cutoff := now.Add(-l.cfg.Window)
	n := 0
	for _, t := range s.attempts {
		if !t.Before(cutoff) {
			n++
		}
	}
	return n
}

func (l *Limiter) snapshotLocked(s *identifierState, now time.Time) Status {
	st := Status{
		Attempts: l.countInWindowLocked(s, now),
	}
	st.Remaining = l.cfg.MaxAttempts - st.Attempts
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !s.lockedUntil.IsZero() && now.Before(s.lockedUntil) {
		st.Locked = true
		st.LockedUntil = s.lockedUntil
		st.RetryAfter = s.lockedUntil.Sub(now)
	}
	return st
}
