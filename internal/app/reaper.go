package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper periodically evicts idle rooms and stale connection statistics.
// It talks to the registries only through their public methods and never
// touches a live connection directly; the idle thresholds are expected to
// exceed any plausible heartbeat interval.
type Reaper struct {
	Rooms    *RoomRegistry
	Sessions *SessionRegistry
	Stats    *StatsRegistry

	Interval     time.Duration
	RoomIdleTTL  time.Duration
	StatsIdleTTL time.Duration
}

// Run sweeps on a fixed period until ctx is canceled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	log.Info().Str("module", "app.reaper").
		Dur("interval", r.Interval).
		Dur("room_idle_ttl", r.RoomIdleTTL).
		Dur("stats_idle_ttl", r.StatsIdleTTL).
		Msg("reaper started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.reaper").Msg("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep runs one eviction pass and logs aggregate counters.
func (r *Reaper) Sweep() {
	evictedRooms := r.Rooms.EvictIdle(r.RoomIdleTTL)
	for _, id := range evictedRooms {
		log.Warn().Str("module", "app.reaper").Str("room", string(id)).Msg("evicted idle room")
	}
	evictedStats := r.Stats.EvictIdle(r.StatsIdleTTL)

	rooms, participants := r.Rooms.Counts()
	log.Info().Str("module", "app.reaper").
		Int("rooms", rooms).
		Int("participants", participants).
		Int("connections", r.Sessions.Count()).
		Int("evicted_rooms", len(evictedRooms)).
		Int("evicted_stats", evictedStats).
		Msg("sweep complete")
}
