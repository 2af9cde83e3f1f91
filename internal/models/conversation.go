// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package models

import "time"

// Conversation is the canonical stored representation of a single
// provider conversation. Summary fields are populated from the list
// endpoint; detail fields (phones, cost, transcript, criteria results)
// are filled in later by the enrichment phase and guarded by
// DetailsFetched.
type Conversation struct {
	ConversationID string `json:"conversation_id" db:"conversation_id"`
	AgentID        string `json:"agent_id" db:"agent_id"`
	AgentName      string `json:"agent_name,omitempty" db:"agent_name"`

	Status         string `json:"status,omitempty" db:"status"`
	CallSuccessful string `json:"call_successful,omitempty" db:"call_successful"`

	StartTimeUnix    int64 `json:"start_time_unix" db:"start_time_unix"`
	CallDurationSecs int   `json:"call_duration_secs" db:"call_duration_secs"`
	MessageCount     int   `json:"message_count" db:"message_count"`

	TranscriptSummary *string  `json:"transcript_summary,omitempty" db:"transcript_summary"`
	CallSummaryTitle  *string  `json:"call_summary_title,omitempty" db:"call_summary_title"`
	MainLanguage      *string  `json:"main_language,omitempty" db:"main_language"`
	Direction         *string  `json:"direction,omitempty" db:"direction"`
	Rating            *float64 `json:"rating,omitempty" db:"rating"`

	// ToolNames is stored as a JSON-encoded array of tool name strings.
	ToolNames *string `json:"tool_names,omitempty" db:"tool_names"`

	InitiationSource *string `json:"conversation_initiation_source,omitempty" db:"conversation_initiation_source"`

	// Detail-only fields, valid when DetailsFetched is true.
	AgentPhone        *string  `json:"agent_phone,omitempty" db:"agent_phone"`
	ClientPhone       *string  `json:"client_phone,omitempty" db:"client_phone"`
	HasAudio          *bool    `json:"has_audio,omitempty" db:"has_audio"`
	Cost              *float64 `json:"cost,omitempty" db:"cost"`
	TerminationReason *string  `json:"termination_reason,omitempty" db:"termination_reason"`
	UserID            *string  `json:"user_id,omitempty" db:"user_id"`

	// EvaluationCriteriaResults and DataCollectionResults hold the raw
	// JSON objects returned by the detail endpoint. They stay opaque in
	// storage; analytics decodes them on demand.
	EvaluationCriteriaResults *string `json:"evaluation_criteria_results,omitempty" db:"evaluation_criteria_results"`
	DataCollectionResults     *string `json:"data_collection_results,omitempty" db:"data_collection_results"`
	Transcript                *string `json:"transcript,omitempty" db:"transcript"`

	FetchedAt      time.Time `json:"fetched_at" db:"fetched_at"`
	DetailsFetched bool      `json:"details_fetched" db:"details_fetched"`

	// MonthPartition groups conversations into calendar months for
	// KPI filtering and CSV archival, e.g. "2026-03".
	MonthPartition string `json:"month_partition" db:"month_partition"`
}

// DetailPatch carries the fields the enrichment phase extracts from a
// conversation detail document. Nil pointers mean "no value observed";
// applying a patch never erases data already stored.
type DetailPatch struct {
	AgentPhone        *string
	ClientPhone       *string
	HasAudio          *bool
	Cost              *float64
	TerminationReason *string
	UserID            *string

	CallSuccessful    *string
	TranscriptSummary *string

	EvaluationCriteriaResults *string
	DataCollectionResults     *string
	Transcript                *string

	// Duration and start time corrections from the detail document.
	CallDurationSecs *int
	StartTimeUnix    *int64
	MessageCount     *int
}

// UnknownPartition marks conversations whose start time is missing or
// zero and therefore cannot be assigned to a calendar month.
const UnknownPartition = "unknown"

// MonthPartitionFor derives the month partition for a unix start time.
// Partitions are computed in UTC so a record lands in the same month
// regardless of server timezone. A zero or negative start time yields
// UnknownPartition.
func MonthPartitionFor(startUnix int64) string {
	if startUnix <= 0 {
		return UnknownPartition
	}
	return time.Unix(startUnix, 0).UTC().Format("2006-01")
}

// StartTime returns the conversation start as a UTC time.
func (c *Conversation) StartTime() time.Time {
	return time.Unix(c.StartTimeUnix, 0).UTC()
}
