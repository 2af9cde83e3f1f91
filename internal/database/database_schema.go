// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

/*
database_schema.go - Database Schema Management

This file manages the DuckDB schema: table creation and indexes.

Tables:
  - conversations: provider conversations, one row per conversation_id
  - sync_runs: append-only sync ledger
  - archive_logs: CSV archive bookkeeping

Schema Strategy:
All columns are defined in the initial CREATE TABLE statements. The
schema is created idempotently on every startup (IF NOT EXISTS), so a
fresh database and a restart take the same code path.

Index Strategy:
Indexes cover the common access patterns: per-agent listing, month
partition filtering, unenriched-record selection during sync, and
ledger listing by start time.
*/

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// tableCreationQueries returns the table creation SQL statements.
func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS archive_logs_seq START 1`,

		`CREATE TABLE IF NOT EXISTS conversations (
			-- Identity
			conversation_id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			agent_name TEXT,

			-- Summary fields (list endpoint)
			status TEXT,
			call_successful TEXT,
			start_time_unix BIGINT NOT NULL DEFAULT 0,
			call_duration_secs INTEGER NOT NULL DEFAULT 0,
			message_count INTEGER NOT NULL DEFAULT 0,
			transcript_summary TEXT,
			call_summary_title TEXT,
			main_language TEXT,
			direction TEXT,
			rating DOUBLE,
			tool_names TEXT,
			conversation_initiation_source TEXT,

			-- Detail fields (detail endpoint, guarded by details_fetched)
			agent_phone TEXT,
			client_phone TEXT,
			has_audio BOOLEAN,
			cost DOUBLE,
			termination_reason TEXT,
			user_id TEXT,
			evaluation_criteria_results TEXT,
			data_collection_results TEXT,
			transcript TEXT,

			-- Bookkeeping
			fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			details_fetched BOOLEAN NOT NULL DEFAULT FALSE,
			month_partition TEXT NOT NULL DEFAULT 'unknown'
		)`,

		`CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			agent_id TEXT NOT NULL,
			sync_type TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			conversations_fetched INTEGER NOT NULL DEFAULT 0,
			details_fetched INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error_message TEXT,
			period_from BIGINT,
			period_to BIGINT
		)`,

		`CREATE TABLE IF NOT EXISTS archive_logs (
			id BIGINT PRIMARY KEY DEFAULT nextval('archive_logs_seq'),
			month_partition TEXT NOT NULL,
			agent_id TEXT NOT NULL,
			file_path TEXT NOT NULL,
			records_count INTEGER NOT NULL DEFAULT 0,
			archived_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

// createIndexes creates indexes for the common query patterns.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_conversations_agent ON conversations(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_month ON conversations(agent_id, month_partition)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_start ON conversations(agent_id, start_time_unix)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_unenriched ON conversations(agent_id, details_fetched)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_agent ON sync_runs(agent_id, started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_archive_logs_month ON archive_logs(agent_id, month_partition)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
