// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package models

import "time"

// Sync run lifecycle states. A run moves from running to exactly one
// terminal state and is never updated again afterwards.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Sync run types recorded in the ledger.
const (
	SyncTypeFull        = "full"
	SyncTypeIncremental = "incremental"
	SyncTypeManual      = "manual"
	SyncTypeScheduled   = "scheduled"
)

// SyncRun is one row of the append-only sync ledger. Every sync
// attempt produces a row, including attempts that fail before any
// record is fetched.
type SyncRun struct {
	ID       string `json:"id" db:"id"`
	AgentID  string `json:"agent_id" db:"agent_id"`
	SyncType string `json:"sync_type" db:"sync_type"`

	StartedAt  time.Time  `json:"started_at" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`

	ConversationsFetched int `json:"conversations_fetched" db:"conversations_fetched"`
	DetailsFetched       int `json:"details_fetched" db:"details_fetched"`

	Status       string  `json:"status" db:"status"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	// Optional sync window bounds, unix seconds.
	PeriodFrom *int64 `json:"period_from,omitempty" db:"period_from"`
	PeriodTo   *int64 `json:"period_to,omitempty" db:"period_to"`
}

// Terminal reports whether the run has reached a final state.
func (r *SyncRun) Terminal() bool {
	return r.Status == SyncStatusCompleted || r.Status == SyncStatusFailed
}

// ArchiveLog records one CSV archive file written for a month
// partition of an agent.
type ArchiveLog struct {
	ID             int64     `json:"id" db:"id"`
	MonthPartition string    `json:"month_partition" db:"month_partition"`
	AgentID        string    `json:"agent_id" db:"agent_id"`
	FilePath       string    `json:"file_path" db:"file_path"`
	RecordsCount   int       `json:"records_count" db:"records_count"`
	ArchivedAt     time.Time `json:"archived_at" db:"archived_at"`
}
