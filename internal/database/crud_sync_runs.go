// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/callscope/internal/metrics"
	"github.com/tomtom215/callscope/internal/models"
)

// CreateSyncRun appends a new run to the sync ledger. The row is
// written immediately so an interrupted sync still leaves a trace.
func (db *DB) CreateSyncRun(ctx context.Context, run *models.SyncRun) error {
	start := time.Now()

	query := `INSERT INTO sync_runs (
		id, agent_id, sync_type, started_at, finished_at,
		conversations_fetched, details_fetched, status, error_message,
		period_from, period_to
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		run.ID, run.AgentID, run.SyncType, run.StartedAt, run.FinishedAt,
		run.ConversationsFetched, run.DetailsFetched, run.Status,
		run.ErrorMessage, run.PeriodFrom, run.PeriodTo,
	)
	metrics.RecordDBQuery("insert", "sync_runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to create sync run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateSyncRun persists the current state of a run. The sync engine
// is the only writer; it calls this for progress counters and exactly
// once for the terminal state.
func (db *DB) UpdateSyncRun(ctx context.Context, run *models.SyncRun) error {
	start := time.Now()

	query := `UPDATE sync_runs SET
		finished_at = ?,
		conversations_fetched = ?,
		details_fetched = ?,
		status = ?,
		error_message = ?
	WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, query,
		run.FinishedAt, run.ConversationsFetched, run.DetailsFetched,
		run.Status, run.ErrorMessage, run.ID,
	)
	metrics.RecordDBQuery("update", "sync_runs", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update sync run %s: %w", run.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, ErrNotFound)
	}
	return nil
}

// GetSyncRun fetches a single run by id.
func (db *DB) GetSyncRun(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `SELECT id, agent_id, sync_type, started_at, finished_at,
		conversations_fetched, details_fetched, status, error_message,
		period_from, period_to
	FROM sync_runs WHERE id = ?`

	run := &models.SyncRun{}
	err := db.conn.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.AgentID, &run.SyncType, &run.StartedAt, &run.FinishedAt,
		&run.ConversationsFetched, &run.DetailsFetched, &run.Status,
		&run.ErrorMessage, &run.PeriodFrom, &run.PeriodTo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("sync run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get sync run %s: %w", id, err)
	}
	return run, nil
}

// ListSyncRuns returns the most recent runs, newest first. An empty
// agentID lists runs for all agents. A limit of 0 defaults to 50.
func (db *DB) ListSyncRuns(ctx context.Context, agentID string, limit int) ([]*models.SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, agent_id, sync_type, started_at, finished_at,
		conversations_fetched, details_fetched, status, error_message,
		period_from, period_to
	FROM sync_runs`
	args := []interface{}{}

	if agentID != "" {
		query += " WHERE agent_id = ?"
		args = append(args, agentID)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run := &models.SyncRun{}
		if err := rows.Scan(
			&run.ID, &run.AgentID, &run.SyncType, &run.StartedAt, &run.FinishedAt,
			&run.ConversationsFetched, &run.DetailsFetched, &run.Status,
			&run.ErrorMessage, &run.PeriodFrom, &run.PeriodTo,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
