// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"github.com/tidwall/gjson"

	"github.com/tomtom215/callscope/internal/models"
)

// BuildDetailPatch maps a raw conversation detail document to a
// DetailPatch. Fields absent from the document stay nil, so applying
// the patch never erases previously stored values. Returns the patch
// and the phone resolution stage for metrics.
func BuildDetailPatch(raw []byte) (*models.DetailPatch, string) {
	doc := gjson.ParseBytes(raw)
	meta := doc.Get("metadata")
	analysis := doc.Get("analysis")

	patch := &models.DetailPatch{}

	hasAudio := doc.Get("has_audio").Bool()
	patch.HasAudio = &hasAudio

	cost := meta.Get("cost").Float()
	patch.Cost = &cost

	if v := meta.Get("termination_reason"); v.Exists() && v.String() != "" {
		s := v.String()
		patch.TerminationReason = &s
	}
	if v := doc.Get("user_id"); v.Exists() && v.String() != "" {
		s := v.String()
		patch.UserID = &s
	}

	res := ResolvePhones(doc)
	patch.AgentPhone = res.AgentPhone
	patch.ClientPhone = res.ClientPhone

	if v := analysis.Get("call_successful"); v.Exists() && v.String() != "" {
		s := v.String()
		patch.CallSuccessful = &s
	}
	if v := analysis.Get("transcript_summary"); v.Exists() && v.String() != "" {
		s := v.String()
		patch.TranscriptSummary = &s
	}

	// Opaque analysis payloads are stored as raw JSON text. Empty
	// containers are treated as absent.
	if txt := nonEmptyJSON(analysis.Get("evaluation_criteria_results")); txt != nil {
		patch.EvaluationCriteriaResults = txt
	}
	if txt := nonEmptyJSON(analysis.Get("data_collection_results")); txt != nil {
		patch.DataCollectionResults = txt
	}
	if txt := nonEmptyJSON(doc.Get("transcript")); txt != nil {
		patch.Transcript = txt
	}

	// The detail document is authoritative for timing when present.
	if v := meta.Get("call_duration_secs"); v.Int() > 0 {
		d := int(v.Int())
		patch.CallDurationSecs = &d
	}
	if v := meta.Get("start_time_unix_secs"); v.Int() > 0 {
		s := v.Int()
		patch.StartTimeUnix = &s
	}

	return patch, res.Stage
}

// nonEmptyJSON returns the raw JSON text of a node, or nil for missing
// values, nulls and empty containers.
func nonEmptyJSON(node gjson.Result) *string {
	if !node.Exists() || node.Type == gjson.Null {
		return nil
	}
	if node.Raw == "{}" || node.Raw == "[]" || node.Raw == "" {
		return nil
	}
	raw := node.Raw
	return &raw
}
