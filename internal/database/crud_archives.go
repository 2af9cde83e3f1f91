// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/callscope/internal/models"
)

// InsertArchiveLog records a written CSV archive file.
func (db *DB) InsertArchiveLog(ctx context.Context, log *models.ArchiveLog) error {
	archivedAt := log.ArchivedAt
	if archivedAt.IsZero() {
		archivedAt = time.Now().UTC()
	}

	query := `INSERT INTO archive_logs (month_partition, agent_id, file_path, records_count, archived_at)
		VALUES (?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		log.MonthPartition, log.AgentID, log.FilePath, log.RecordsCount, archivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert archive log: %w", err)
	}
	return nil
}

// IsMonthArchived reports whether an archive already exists for an
// agent and month partition.
func (db *DB) IsMonthArchived(ctx context.Context, agentID, month string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM archive_logs WHERE agent_id = ? AND month_partition = ?`
	if err := db.conn.QueryRowContext(ctx, query, agentID, month).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check archive for %s/%s: %w", agentID, month, err)
	}
	return count > 0, nil
}

// ListArchiveLogs returns archive records for an agent, newest first.
// An empty agentID lists archives for all agents.
func (db *DB) ListArchiveLogs(ctx context.Context, agentID string) ([]*models.ArchiveLog, error) {
	query := `SELECT id, month_partition, agent_id, file_path, records_count, archived_at
		FROM archive_logs`
	args := []interface{}{}

	if agentID != "" {
		query += " WHERE agent_id = ?"
		args = append(args, agentID)
	}
	query += " ORDER BY archived_at DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ArchiveLog
	for rows.Next() {
		log := &models.ArchiveLog{}
		if err := rows.Scan(&log.ID, &log.MonthPartition, &log.AgentID,
			&log.FilePath, &log.RecordsCount, &log.ArchivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive log: %w", err)
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
