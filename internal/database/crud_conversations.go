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
	"strings"
	"time"

	"github.com/tomtom215/callscope/internal/metrics"
	"github.com/tomtom215/callscope/internal/models"
)

// conversationColumns is the canonical column list used by every
// conversation SELECT so scanConversation stays in lockstep.
const conversationColumns = `conversation_id, agent_id, agent_name, status, call_successful,
	start_time_unix, call_duration_secs, message_count, transcript_summary,
	call_summary_title, main_language, direction, rating, tool_names,
	conversation_initiation_source, agent_phone, client_phone, has_audio, cost,
	termination_reason, user_id, evaluation_criteria_results,
	data_collection_results, transcript, fetched_at, details_fetched, month_partition`

// UpsertConversation inserts a conversation summary or, when the
// conversation_id already exists, refreshes the mutable summary fields.
// Detail fields and details_fetched are never touched here, so a
// re-listed conversation keeps its enrichment.
func (db *DB) UpsertConversation(ctx context.Context, c *models.Conversation) error {
	start := time.Now()

	query := `INSERT INTO conversations (
		conversation_id, agent_id, agent_name, status, call_successful,
		start_time_unix, call_duration_secs, message_count, transcript_summary,
		call_summary_title, main_language, direction, rating, tool_names,
		conversation_initiation_source, fetched_at, month_partition
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (conversation_id) DO UPDATE SET
		status = EXCLUDED.status,
		call_successful = EXCLUDED.call_successful,
		call_duration_secs = EXCLUDED.call_duration_secs,
		message_count = EXCLUDED.message_count,
		transcript_summary = COALESCE(EXCLUDED.transcript_summary, conversations.transcript_summary),
		call_summary_title = COALESCE(EXCLUDED.call_summary_title, conversations.call_summary_title),
		main_language = COALESCE(EXCLUDED.main_language, conversations.main_language),
		direction = COALESCE(EXCLUDED.direction, conversations.direction),
		rating = COALESCE(EXCLUDED.rating, conversations.rating),
		tool_names = COALESCE(EXCLUDED.tool_names, conversations.tool_names)`

	fetchedAt := c.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}
	monthPartition := c.MonthPartition
	if monthPartition == "" {
		monthPartition = models.MonthPartitionFor(c.StartTimeUnix)
	}

	_, err := db.conn.ExecContext(ctx, query,
		c.ConversationID, c.AgentID, nullIfEmpty(c.AgentName), nullIfEmpty(c.Status),
		nullIfEmpty(c.CallSuccessful), c.StartTimeUnix, c.CallDurationSecs,
		c.MessageCount, c.TranscriptSummary, c.CallSummaryTitle, c.MainLanguage,
		c.Direction, c.Rating, c.ToolNames, c.InitiationSource, fetchedAt,
		monthPartition,
	)
	metrics.RecordDBQuery("upsert", "conversations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation %s: %w", c.ConversationID, err)
	}
	return nil
}

// ApplyConversationDetail patches a stored conversation with fields
// extracted from its detail document. The patch is monotonic: nil
// pointers leave the stored value untouched, and non-nil values only
// replace NULLs or stale summary data. details_fetched flips to true
// and fetched_at is refreshed.
func (db *DB) ApplyConversationDetail(ctx context.Context, conversationID string, patch *models.DetailPatch) error {
	start := time.Now()

	// month_partition follows the corrected start time when the detail
	// document supplies one.
	var monthPartition interface{}
	if patch.StartTimeUnix != nil {
		monthPartition = models.MonthPartitionFor(*patch.StartTimeUnix)
	}

	query := `UPDATE conversations SET
		agent_phone = COALESCE(?, agent_phone),
		client_phone = COALESCE(?, client_phone),
		has_audio = COALESCE(?, has_audio),
		cost = COALESCE(?, cost),
		termination_reason = COALESCE(?, termination_reason),
		user_id = COALESCE(?, user_id),
		call_successful = COALESCE(?, call_successful),
		transcript_summary = COALESCE(?, transcript_summary),
		evaluation_criteria_results = COALESCE(?, evaluation_criteria_results),
		data_collection_results = COALESCE(?, data_collection_results),
		transcript = COALESCE(?, transcript),
		call_duration_secs = COALESCE(?, call_duration_secs),
		start_time_unix = COALESCE(?, start_time_unix),
		message_count = COALESCE(?, message_count),
		month_partition = COALESCE(?, month_partition),
		details_fetched = TRUE,
		fetched_at = ?
	WHERE conversation_id = ?`

	res, err := db.conn.ExecContext(ctx, query,
		patch.AgentPhone, patch.ClientPhone, patch.HasAudio, patch.Cost,
		patch.TerminationReason, patch.UserID, patch.CallSuccessful,
		patch.TranscriptSummary, patch.EvaluationCriteriaResults,
		patch.DataCollectionResults, patch.Transcript, patch.CallDurationSecs,
		patch.StartTimeUnix, patch.MessageCount, monthPartition,
		time.Now().UTC(), conversationID,
	)
	metrics.RecordDBQuery("detail_patch", "conversations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to apply detail for conversation %s: %w", conversationID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
	}
	return nil
}

// GetConversation fetches a single conversation by id.
func (db *DB) GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE conversation_id = ?`

	row := db.conn.QueryRowContext(ctx, query, conversationID)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get conversation %s: %w", conversationID, err)
	}
	return c, nil
}

// ListUnenrichedIDs returns the ids of conversations for an agent that
// still need detail enrichment, oldest first, optionally bounded to a
// start-time window. A limit of 0 means no limit.
func (db *DB) ListUnenrichedIDs(ctx context.Context, agentID string, from, to *int64, limit int) ([]string, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT conversation_id FROM conversations
		WHERE agent_id = ? AND details_fetched = FALSE`)
	args := []interface{}{agentID}

	if from != nil {
		sb.WriteString(" AND start_time_unix >= ?")
		args = append(args, *from)
	}
	if to != nil {
		sb.WriteString(" AND start_time_unix <= ?")
		args = append(args, *to)
	}
	sb.WriteString(" ORDER BY start_time_unix ASC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unenriched conversations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan conversation id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ConversationFilter narrows ListConversations results. Zero values
// mean "no filter" for string fields; Page is 1-based.
type ConversationFilter struct {
	AgentID        string
	Month          string
	Status         string
	CallSuccessful string
	Direction      string
	Search         string
	Page           int
	PerPage        int
}

// ListConversations returns a page of conversations plus the total
// count matching the filter, newest first.
func (db *DB) ListConversations(ctx context.Context, f ConversationFilter) ([]*models.Conversation, int, error) {
	where, args := buildConversationWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM conversations" + where
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = 50
	}

	query := `SELECT ` + conversationColumns + ` FROM conversations` + where +
		` ORDER BY start_time_unix DESC LIMIT ? OFFSET ?`
	listArgs := append(append([]interface{}{}, args...), perPage, (page-1)*perPage)

	rows, err := db.conn.QueryContext(ctx, query, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations, err := scanConversations(rows)
	if err != nil {
		return nil, 0, err
	}
	return conversations, total, nil
}

// ListConversationsByMonth returns all conversations of an agent in a
// month partition ordered by start time, for CSV archival and export.
func (db *DB) ListConversationsByMonth(ctx context.Context, agentID, month string) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations
		WHERE agent_id = ? AND month_partition = ?
		ORDER BY start_time_unix ASC`

	rows, err := db.conn.QueryContext(ctx, query, agentID, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for month %s: %w", month, err)
	}
	defer rows.Close()

	return scanConversations(rows)
}

// ListConversationsForExport returns every conversation of an agent,
// optionally limited to one month partition, newest first. Exports are
// unpaginated by design.
func (db *DB) ListConversationsForExport(ctx context.Context, agentID, month string) ([]*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE agent_id = ?`
	args := []interface{}{agentID}
	if month != "" {
		query += " AND month_partition = ?"
		args = append(args, month)
	}
	query += " ORDER BY start_time_unix DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for export: %w", err)
	}
	defer rows.Close()

	return scanConversations(rows)
}

// ListAgentsForMonth returns the distinct agent ids that have data in
// a month partition.
func (db *DB) ListAgentsForMonth(ctx context.Context, month string) ([]string, error) {
	query := `SELECT DISTINCT agent_id FROM conversations WHERE month_partition = ? ORDER BY agent_id`

	rows, err := db.conn.QueryContext(ctx, query, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents for month %s: %w", month, err)
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan agent id: %w", err)
		}
		agents = append(agents, id)
	}
	return agents, rows.Err()
}

// MonthInfo is one month partition with its record counts.
type MonthInfo struct {
	Month          string `json:"month"`
	Count          int    `json:"count"`
	DetailsFetched int    `json:"details_fetched"`
}

// ListMonths returns the distinct month partitions stored for an agent,
// newest first.
func (db *DB) ListMonths(ctx context.Context, agentID string) ([]MonthInfo, error) {
	query := `SELECT month_partition, COUNT(*),
		SUM(CASE WHEN details_fetched THEN 1 ELSE 0 END)
	FROM conversations
	WHERE agent_id = ?
	GROUP BY month_partition
	ORDER BY month_partition DESC`

	rows, err := db.conn.QueryContext(ctx, query, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list months: %w", err)
	}
	defer rows.Close()

	var months []MonthInfo
	for rows.Next() {
		var m MonthInfo
		if err := rows.Scan(&m.Month, &m.Count, &m.DetailsFetched); err != nil {
			return nil, fmt.Errorf("failed to scan month row: %w", err)
		}
		months = append(months, m)
	}
	return months, rows.Err()
}

// ResetMissingPhoneDetails clears details_fetched for conversations of
// an agent whose phone numbers are still unresolved, so the next sync
// re-runs enrichment for them. Returns the number of reset rows.
func (db *DB) ResetMissingPhoneDetails(ctx context.Context, agentID string) (int64, error) {
	query := `UPDATE conversations SET details_fetched = FALSE
		WHERE agent_id = ? AND (agent_phone IS NULL OR client_phone IS NULL)`

	res, err := db.conn.ExecContext(ctx, query, agentID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset missing-phone details: %w", err)
	}
	return res.RowsAffected()
}

// buildConversationWhere assembles the WHERE clause for a filter.
func buildConversationWhere(f ConversationFilter) (string, []interface{}) {
	clauses := []string{"agent_id = ?"}
	args := []interface{}{f.AgentID}

	if f.Month != "" {
		clauses = append(clauses, "month_partition = ?")
		args = append(args, f.Month)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.CallSuccessful != "" {
		clauses = append(clauses, "call_successful = ?")
		args = append(args, f.CallSuccessful)
	}
	if f.Direction != "" {
		clauses = append(clauses, "direction = ?")
		args = append(args, f.Direction)
	}
	if f.Search != "" {
		clauses = append(clauses, `(transcript_summary ILIKE ? OR call_summary_title ILIKE ?
			OR agent_phone ILIKE ? OR client_phone ILIKE ?)`)
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern, pattern)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanConversation.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanConversation reads one conversation row in conversationColumns order.
func scanConversation(row rowScanner) (*models.Conversation, error) {
	var c models.Conversation
	var agentName, status, callSuccessful sql.NullString

	err := row.Scan(
		&c.ConversationID, &c.AgentID, &agentName, &status, &callSuccessful,
		&c.StartTimeUnix, &c.CallDurationSecs, &c.MessageCount,
		&c.TranscriptSummary, &c.CallSummaryTitle, &c.MainLanguage,
		&c.Direction, &c.Rating, &c.ToolNames, &c.InitiationSource,
		&c.AgentPhone, &c.ClientPhone, &c.HasAudio, &c.Cost,
		&c.TerminationReason, &c.UserID, &c.EvaluationCriteriaResults,
		&c.DataCollectionResults, &c.Transcript, &c.FetchedAt,
		&c.DetailsFetched, &c.MonthPartition,
	)
	if err != nil {
		return nil, err
	}

	c.AgentName = agentName.String
	c.Status = status.String
	c.CallSuccessful = callSuccessful.String
	return &c, nil
}

// scanConversations drains a result set of conversation rows.
func scanConversations(rows *sql.Rows) ([]*models.Conversation, error) {
	var conversations []*models.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}

// nullIfEmpty maps "" to NULL for optional text columns.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
