// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package scheduler

import (
	"context"
	"time"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/models"
	syncengine "github.com/tomtom215/callscope/internal/sync"
)

// SyncScheduler runs a scheduled incremental sync for every configured
// agent. Implements suture.Service; the supervisor restarts it if it
// crashes.
type SyncScheduler struct {
	engine *syncengine.Engine
	cfg    *config.Config

	// now is swapped in tests to pin the sync window.
	now func() time.Time
}

// NewSyncScheduler creates a scheduler driving the given engine.
func NewSyncScheduler(engine *syncengine.Engine, cfg *config.Config) *SyncScheduler {
	return &SyncScheduler{
		engine: engine,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Serve implements suture.Service. Syncs all agents once at startup,
// then on every tick of the configured interval. Per-agent failures
// are logged, never fatal; the next tick retries.
func (s *SyncScheduler) Serve(ctx context.Context) error {
	interval := s.cfg.Sync.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	logging.Info().
		Dur("interval", interval).
		Int("agents", len(s.cfg.ElevenLabs.Agents)).
		Msg("Sync scheduler started")

	s.syncAllAgents(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncAllAgents(ctx)
		case <-ctx.Done():
			logging.Info().Msg("Sync scheduler stopped")
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *SyncScheduler) String() string {
	return "sync-scheduler"
}

func (s *SyncScheduler) syncAllAgents(ctx context.Context) {
	for _, agent := range s.cfg.ElevenLabs.Agents {
		if ctx.Err() != nil {
			return
		}

		windowStart := s.monthStart()
		summary, err := s.engine.Sync(ctx, syncengine.Request{
			AgentID:     agent.ID,
			SyncType:    models.SyncTypeScheduled,
			WindowStart: &windowStart,
		})
		if err != nil {
			logging.Warn().Err(err).Str("agent_id", agent.ID).Msg("Scheduled sync failed")
			continue
		}

		logging.Info().
			Str("agent_id", agent.ID).
			Str("run_id", summary.RunID).
			Int("conversations_fetched", summary.ConversationsFetched).
			Int("new_stored", summary.NewStored).
			Msg("Scheduled sync completed")
	}
}

// monthStart returns the first instant of the current UTC month.
// Scheduled syncs only refresh the open month; closed months are
// immutable once archived.
func (s *SyncScheduler) monthStart() int64 {
	now := s.now().UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
}

// Archiver is the archival surface the archive scheduler depends on.
// Satisfied by *export.Archiver.
type Archiver interface {
	CheckAndArchive(ctx context.Context) error
}

// ArchiveScheduler periodically archives closed months to CSV.
// Implements suture.Service.
type ArchiveScheduler struct {
	archiver Archiver
	interval time.Duration
}

// NewArchiveScheduler creates an archive scheduler.
func NewArchiveScheduler(archiver Archiver, cfg *config.ArchiveConfig) *ArchiveScheduler {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 12 * time.Hour
	}
	return &ArchiveScheduler{
		archiver: archiver,
		interval: interval,
	}
}

// Serve implements suture.Service. Checks once at startup, then on
// every tick. Archive failures are logged, never fatal.
func (a *ArchiveScheduler) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", a.interval).Msg("Archive scheduler started")

	a.check(ctx)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.check(ctx)
		case <-ctx.Done():
			logging.Info().Msg("Archive scheduler stopped")
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (a *ArchiveScheduler) String() string {
	return "archive-scheduler"
}

func (a *ArchiveScheduler) check(ctx context.Context) {
	if err := a.archiver.CheckAndArchive(ctx); err != nil {
		logging.Warn().Err(err).Msg("Archive check failed")
	}
}
