package app

import (
	"sync"
	"time"

	"github.com/artemav/huddle/internal/core"
)

// ConnStats are diagnostic per-connection counters, never authoritative.
type ConnStats struct {
	Messages     int64
	LastActivity time.Time
}

// StatsRegistry tracks message counts and last activity per connection.
// Entries die with the connection or by the reaper after prolonged
// inactivity.
type StatsRegistry struct {
	mu      sync.Mutex
	entries map[core.ConnectionID]*ConnStats
}

func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{entries: make(map[core.ConnectionID]*ConnStats)}
}

func (s *StatsRegistry) Touch(connID core.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[connID]
	if !ok {
		e = &ConnStats{}
		s.entries[connID] = e
	}
	e.Messages++
	e.LastActivity = time.Now()
}

func (s *StatsRegistry) Get(connID core.ConnectionID) (ConnStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[connID]
	if !ok {
		return ConnStats{}, false
	}
	return *e, true
}

func (s *StatsRegistry) Remove(connID core.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, connID)
}

// EvictIdle drops entries whose last activity is older than ttl.
func (s *StatsRegistry) EvictIdle(ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for id, e := range s.entries {
		if e.LastActivity.Before(cutoff) {
			delete(s.entries, id)
			evicted++
		}
	}
	return evicted
}

func (s *StatsRegistry) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
