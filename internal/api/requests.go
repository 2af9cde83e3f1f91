// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

// Request structs validated with go-playground/validator before any
// handler logic runs. Query-parameter requests are populated from
// r.URL.Query(); body requests are decoded from JSON.

// SyncRequest triggers a sync run for one agent.
type SyncRequest struct {
	AgentID string `json:"agent_id" validate:"required,min=1,max=128"`

	// APIKey optionally overrides the configured provider key.
	APIKey string `json:"api_key" validate:"omitempty,max=256"`

	SyncType string `json:"sync_type" validate:"omitempty,oneof=full incremental manual scheduled"`

	// Optional sync window bounds, unix seconds.
	PeriodFrom *int64 `json:"period_from" validate:"omitempty,min=0"`
	PeriodTo   *int64 `json:"period_to" validate:"omitempty,min=0"`

	SkipDetails bool `json:"skip_details"`
}

// SyncRunsRequest filters the sync run ledger listing.
type SyncRunsRequest struct {
	AgentID string `validate:"omitempty,max=128"`
	Limit   int    `validate:"omitempty,min=1,max=500"`
}

// KPIRequest selects the KPI aggregation scope.
type KPIRequest struct {
	AgentID string `validate:"required,min=1,max=128"`
	Month   string `validate:"omitempty,month"`
}

// ConversationsRequest filters the paged conversation listing.
type ConversationsRequest struct {
	AgentID        string `validate:"omitempty,max=128"`
	Month          string `validate:"omitempty,month"`
	Status         string `validate:"omitempty,max=64"`
	CallSuccessful string `validate:"omitempty,max=64"`
	Direction      string `validate:"omitempty,max=64"`
	Search         string `validate:"omitempty,max=256"`
	Page           int    `validate:"omitempty,min=1"`
	PerPage        int    `validate:"omitempty,min=1,max=1000"`
}

// RefetchRequest resets enrichment for rows missing phone numbers.
type RefetchRequest struct {
	AgentID string `json:"agent_id" validate:"required,min=1,max=128"`
}

// ArchiveRequest archives one agent month to CSV.
type ArchiveRequest struct {
	AgentID string `json:"agent_id" validate:"required,min=1,max=128"`
	Month   string `json:"month" validate:"required,month"`
}

// ExportRequest selects the on-demand export scope. An empty month
// exports every stored month of the agent.
type ExportRequest struct {
	AgentID string `validate:"required,min=1,max=128"`
	Month   string `validate:"omitempty,month"`
}
