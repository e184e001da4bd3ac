// Package scheduler runs the background loops: the daily capture
// retention sweep, periodic stats snapshots, and the stale session
// backstop.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilgate-project/veilgate/internal/capture"
	"github.com/veilgate-project/veilgate/internal/config"
	"github.com/veilgate-project/veilgate/internal/events"
	"github.com/veilgate-project/veilgate/internal/gateway"
	"github.com/veilgate-project/veilgate/internal/telemetry"
)

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg      *config.Config
	bus      *events.Bus
	store    *capture.Store // nil when capture is disabled
	registry *gateway.Registry
	stats    *telemetry.Stats
}

// NewScheduler creates a task scheduler. store may be nil.
func NewScheduler(cfg *config.Config, bus *events.Bus, store *capture.Store, registry *gateway.Registry, stats *telemetry.Stats) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		bus:      bus,
		store:    store,
		registry: registry,
		stats:    stats,
	}
}

// Start begins running all scheduled tasks. Blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Info().Msg("scheduler started")

	if s.store != nil && s.cfg.GetApplication().Capture.Enabled {
		go s.runRetentionLoop(ctx)
	}

	go s.runSnapshotLoop(ctx)
	go s.runStaleSessionLoop(ctx)

	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runRetentionLoop runs the capture sweep at the configured wall-clock
// time each day.
func (s *Scheduler) runRetentionLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		nextRun := nextSweepTime(time.Now(), s.cfg.GetApplication().Timers.RetentionSweepTime)
		sleepDuration := time.Until(nextRun)

		if sleepDuration <= 0 {
			sleepDuration = 24 * time.Hour
		}

		log.Info().
			Time("next_run", nextRun).
			Dur("sleep", sleepDuration).
			Msg("retention sweep scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(sleepDuration):
			s.runRetentionSweep(ctx)
		}
	}
}

// runRetentionSweep deletes captured frames older than the retention
// window.
func (s *Scheduler) runRetentionSweep(ctx context.Context) {
	captureCfg := s.cfg.GetApplication().Capture
	cutoff := time.Now().UTC().AddDate(0, 0, -captureCfg.RetentionDays)

	log.Info().
		Int("retention_days", captureCfg.RetentionDays).
		Time("cutoff", cutoff).
		Msg("running retention sweep")

	removed, err := s.store.PurgeOlderThan(cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("retention sweep failed")
		return
	}

	log.Info().
		Int64("removed_frames", removed).
		Msg("retention sweep completed")

	s.bus.Emit(ctx, events.Event{
		Type:   events.EventCapturePurged,
		Source: "scheduler",
		Payload: events.PurgePayload{
			Removed: removed,
			Cutoff:  cutoff,
		},
	})
}

// runSnapshotLoop emits a stats snapshot on a fixed interval.
func (s *Scheduler) runSnapshotLoop(ctx context.Context) {
	interval := time.Duration(s.cfg.GetApplication().Timers.StatsSnapshotInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.bus.Emit(ctx, events.Event{
				Type:    events.EventStatsSnapshot,
				Source:  "scheduler",
				Payload: s.stats.Snapshot(),
			})
		}
	}
}

// runStaleSessionLoop sweeps sessions that stopped making progress. The
// per-read deadline already drops idle peers; this is the backstop for
// sessions wedged outside the read loop.
func (s *Scheduler) runStaleSessionLoop(ctx context.Context) {
	timers := s.cfg.GetApplication().Timers
	interval := time.Duration(timers.StaleSessionInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	staleAfter := 2 * time.Duration(s.cfg.GetGateway().ReadTimeoutSec) * time.Second

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.registry.CleanStale(staleAfter); removed > 0 {
				log.Info().Int("removed", removed).Msg("stale sessions dropped")
			}
		}
	}
}

// nextSweepTime returns the next wall-clock occurrence of clock ("HH:MM")
// after now. A malformed clock falls back to 04:00.
func nextSweepTime(now time.Time, clock string) time.Time {
	parts := strings.Split(clock, ":")

	hour, minute := 4, 0
	if len(parts) >= 2 {
		fmt.Sscanf(parts[0], "%d", &hour)
		fmt.Sscanf(parts[1], "%d", &minute)
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if next.Before(now) {
		next = next.Add(24 * time.Hour)
	}

	return next
}
