package ratelimit

import (
	"sync"
	"time"
)

// Store tracks attempt counts per key. Implementations must be safe for
// concurrent use.
type Store interface {
	// Increment bumps the counter for key, opening a new fixed window when
	// none is active, and returns the count inside the current window.
	Increment(key string, window time.Duration) (int, error)
	// Forgive undoes one increment, used to refund successful attempts.
	Forgive(key string) error
}

type windowCounter struct {
	count   int
	resetAt time.Time
}

// MemoryStore is a process local Store. Counters for expired windows are
// swept lazily on write so an idle server does not need a janitor goroutine.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	ops      int
	now      func() time.Time
}

const sweepEvery = 256

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*windowCounter),
		now:      time.Now,
	}
}

func (s *MemoryStore) Increment(key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.maybeSweep(now)

	c, ok := s.counters[key]
	if !ok || now.After(c.resetAt) {
		c = &windowCounter{resetAt: now.Add(window)}
		s.counters[key] = c
	}

	c.count++
	return c.count, nil
}

func (s *MemoryStore) Forgive(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[key]; ok && c.count > 0 {
		c.count--
	}
	return nil
}

// maybeSweep drops expired counters every sweepEvery writes. Caller holds
// the lock.
func (s *MemoryStore) maybeSweep(now time.Time) {
	s.ops++
	if s.ops%sweepEvery != 0 {
		return
	}

	for key, c := range s.counters {
		if now.After(c.resetAt) {
			delete(s.counters, key)
		}
	}
}
