// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tomtom215/callscope/internal/models"
)

// archiveColumns is the fixed column set of monthly archive files.
var archiveColumns = []string{
	"conversation_id", "agent_id", "agent_name", "status", "call_successful",
	"start_time_unix", "call_duration_secs", "message_count", "transcript_summary",
	"call_summary_title", "main_language", "direction", "rating", "tool_names",
	"agent_phone", "client_phone",
	"has_audio", "cost", "termination_reason", "user_id",
	"evaluation_criteria_results", "data_collection_results",
	"month_partition", "fetched_at",
}

// exportColumns is the base column set of on-demand exports, before
// the per-criterion columns are appended.
var exportColumns = []string{
	"conversation_id", "agent_id", "agent_name", "status", "call_successful",
	"start_time_unix", "call_duration_secs", "message_count",
	"direction", "conversation_initiation_source", "agent_phone", "client_phone",
	"rating", "cost", "termination_reason",
	"transcript_summary", "call_summary_title",
	"main_language", "tool_names",
	"data_collection_results",
	"month_partition",
}

func archiveRow(c *models.Conversation) []string {
	return []string{
		c.ConversationID, c.AgentID, c.AgentName, c.Status, c.CallSuccessful,
		strconv.FormatInt(c.StartTimeUnix, 10),
		strconv.Itoa(c.CallDurationSecs),
		strconv.Itoa(c.MessageCount),
		strVal(c.TranscriptSummary),
		strVal(c.CallSummaryTitle),
		strVal(c.MainLanguage),
		strVal(c.Direction),
		floatVal(c.Rating),
		strVal(c.ToolNames),
		strVal(c.AgentPhone),
		strVal(c.ClientPhone),
		boolVal(c.HasAudio),
		floatVal(c.Cost),
		strVal(c.TerminationReason),
		strVal(c.UserID),
		strVal(c.EvaluationCriteriaResults),
		strVal(c.DataCollectionResults),
		c.MonthPartition,
		c.FetchedAt.UTC().Format(time.RFC3339),
	}
}

func exportRow(c *models.Conversation) []string {
	return []string{
		c.ConversationID, c.AgentID, c.AgentName, c.Status, c.CallSuccessful,
		strconv.FormatInt(c.StartTimeUnix, 10),
		strconv.Itoa(c.CallDurationSecs),
		strconv.Itoa(c.MessageCount),
		strVal(c.Direction),
		strVal(c.InitiationSource),
		strVal(c.AgentPhone),
		strVal(c.ClientPhone),
		floatVal(c.Rating),
		floatVal(c.Cost),
		strVal(c.TerminationReason),
		strVal(c.TranscriptSummary),
		strVal(c.CallSummaryTitle),
		strVal(c.MainLanguage),
		strVal(c.ToolNames),
		strVal(c.DataCollectionResults),
		c.MonthPartition,
	}
}

// WriteExport streams a semicolon-delimited CSV export for an agent,
// optionally limited to one month. Evaluation criteria get one column
// each, collected across all exported rows. Returns the record count.
func (a *Archiver) WriteExport(ctx context.Context, w io.Writer, agentID, month string) (int, error) {
	conversations, err := a.store.ListConversationsForExport(ctx, agentID, month)
	if err != nil {
		return 0, err
	}
	if len(conversations) == 0 {
		return 0, nil
	}

	criteriaIDs, criteriaByConv := collectCriteria(conversations)

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	header := append([]string{"conversation_date"}, exportColumns...)
	for _, id := range criteriaIDs {
		header = append(header, "criterion_"+id)
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write export header: %w", err)
	}

	for _, c := range conversations {
		date := ""
		if c.StartTimeUnix > 0 {
			date = time.Unix(c.StartTimeUnix, 0).UTC().Format("2006-01-02 15:04:05")
		}

		row := append([]string{date}, exportRow(c)...)
		results := criteriaByConv[c.ConversationID]
		for _, id := range criteriaIDs {
			row = append(row, results[id])
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write export row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush export: %w", err)
	}
	return len(conversations), nil
}

// collectCriteria gathers every evaluation criterion id seen across
// the exported conversations, sorted, plus the per-conversation result
// values.
func collectCriteria(conversations []*models.Conversation) ([]string, map[string]map[string]string) {
	seen := make(map[string]bool)
	byConv := make(map[string]map[string]string)

	for _, c := range conversations {
		if c.EvaluationCriteriaResults == nil {
			continue
		}
		doc := gjson.Parse(*c.EvaluationCriteriaResults)
		if !doc.IsObject() {
			continue
		}

		results := make(map[string]string)
		doc.ForEach(func(key, value gjson.Result) bool {
			seen[key.String()] = true
			if value.IsObject() {
				results[key.String()] = value.Get("result").String()
			}
			return true
		})
		byConv[c.ConversationID] = results
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, byConv
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func floatVal(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func boolVal(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}
