// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/metrics"
	"github.com/tomtom215/callscope/internal/models"
)

// archiveGraceDays is how many days into a new month the archiver
// still writes the previous month. Conversations can trickle in late,
// so archiving waits a few days after month end.
const archiveGraceDays = 5

// Store is the persistence surface the archiver depends on.
// Satisfied by *database.DB.
type Store interface {
	ListConversationsByMonth(ctx context.Context, agentID, month string) ([]*models.Conversation, error)
	ListConversationsForExport(ctx context.Context, agentID, month string) ([]*models.Conversation, error)
	ListAgentsForMonth(ctx context.Context, month string) ([]string, error)
	IsMonthArchived(ctx context.Context, agentID, month string) (bool, error)
	InsertArchiveLog(ctx context.Context, log *models.ArchiveLog) error
}

// Archiver writes closed months to CSV files on disk.
type Archiver struct {
	store Store
	dir   string

	// now is swapped in tests to pin the archival window.
	now func() time.Time
}

// NewArchiver creates an archiver writing into cfg.Dir.
func NewArchiver(store Store, cfg *config.ArchiveConfig) *Archiver {
	return &Archiver{
		store: store,
		dir:   cfg.Dir,
		now:   time.Now,
	}
}

// ArchiveMonth writes one agent's month to a CSV file and records it
// in the archive log. Returns nil without writing when the month has
// no data.
func (a *Archiver) ArchiveMonth(ctx context.Context, agentID, month string) (*models.ArchiveLog, error) {
	conversations, err := a.store.ListConversationsByMonth(ctx, agentID, month)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(a.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	filename := fmt.Sprintf("conversations_%s_%s.csv", agentID, month)
	path := filepath.Join(a.dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(archiveColumns); err != nil {
		return nil, fmt.Errorf("failed to write archive header: %w", err)
	}
	for _, c := range conversations {
		if err := w.Write(archiveRow(c)); err != nil {
			return nil, fmt.Errorf("failed to write archive row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush archive file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close archive file: %w", err)
	}

	log := &models.ArchiveLog{
		MonthPartition: month,
		AgentID:        agentID,
		FilePath:       path,
		RecordsCount:   len(conversations),
		ArchivedAt:     time.Now().UTC(),
	}
	if err := a.store.InsertArchiveLog(ctx, log); err != nil {
		return nil, err
	}

	metrics.RecordArchive(len(conversations))
	logging.Info().
		Str("agent_id", agentID).
		Str("month", month).
		Int("records", len(conversations)).
		Str("path", path).
		Msg("Archived month to CSV")

	return log, nil
}

// CheckAndArchive archives the previous month for every agent with
// data, if it has not been archived yet. Only runs during the first
// days of a month; later the previous month is assumed handled.
// Per-agent failures are logged, never fatal.
func (a *Archiver) CheckAndArchive(ctx context.Context) error {
	now := a.now().UTC()
	if now.Day() > archiveGraceDays {
		return nil
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevMonth := firstOfMonth.AddDate(0, 0, -1).Format("2006-01")

	agents, err := a.store.ListAgentsForMonth(ctx, prevMonth)
	if err != nil {
		return fmt.Errorf("failed to list agents for %s: %w", prevMonth, err)
	}

	for _, agentID := range agents {
		archived, err := a.store.IsMonthArchived(ctx, agentID, prevMonth)
		if err != nil {
			logging.Warn().Err(err).Str("agent_id", agentID).Msg("Archive check failed")
			continue
		}
		if archived {
			continue
		}
		if _, err := a.ArchiveMonth(ctx, agentID, prevMonth); err != nil {
			logging.Warn().Err(err).
				Str("agent_id", agentID).
				Str("month", prevMonth).
				Msg("Failed to archive month")
		}
	}
	return nil
}
