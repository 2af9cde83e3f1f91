// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/callscope/internal/database"
	"github.com/tomtom215/callscope/internal/logging"
)

// ListConversations returns a page of stored conversations matching
// the query filters, newest first.
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := r.URL.Query()
	req := ConversationsRequest{
		AgentID:        q.Get("agent_id"),
		Month:          q.Get("month"),
		Status:         q.Get("status"),
		CallSuccessful: q.Get("call_successful"),
		Direction:      q.Get("direction"),
		Search:         q.Get("search"),
		Page:           getIntParam(r, "page", 1),
		PerPage:        getIntParam(r, "per_page", h.defaultPageSize()),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}
	if max := h.maxPageSize(); req.PerPage > max {
		req.PerPage = max
	}

	conversations, total, err := h.store.ListConversations(r.Context(), database.ConversationFilter{
		AgentID:        req.AgentID,
		Month:          req.Month,
		Status:         req.Status,
		CallSuccessful: req.CallSuccessful,
		Direction:      req.Direction,
		Search:         req.Search,
		Page:           req.Page,
		PerPage:        req.PerPage,
	})
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(conversations, &PaginationMeta{
		Total:   total,
		Count:   len(conversations),
		Page:    req.Page,
		PerPage: req.PerPage,
		HasMore: req.Page*req.PerPage < total,
	})
}

// ListMonths returns the month partitions of an agent with stored and
// enriched counts, newest first.
func (h *Handler) ListMonths(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	months, err := h.store.ListMonths(r.Context(), r.URL.Query().Get("agent_id"))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"months": months,
		"count":  len(months),
	})
}

// RefetchConversations clears the enrichment flag on every row of an
// agent that has no phone numbers, so the next sync fetches their
// detail documents again.
func (h *Handler) RefetchConversations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RefetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	reset, err := h.store.ResetMissingPhoneDetails(r.Context(), req.AgentID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	logging.Info().
		Str("agent_id", req.AgentID).
		Int64("reset", reset).
		Msg("Reset enrichment for conversations missing phones")

	rw.Success(map[string]interface{}{
		"agent_id": req.AgentID,
		"reset":    reset,
	})
}

// KPIs returns the aggregated KPI report for an agent, optionally
// restricted to one month partition.
func (h *Handler) KPIs(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := KPIRequest{
		AgentID: r.URL.Query().Get("agent_id"),
		Month:   r.URL.Query().Get("month"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	report, err := h.store.ComputeKPIs(r.Context(), req.AgentID, req.Month)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(report)
}

func (h *Handler) defaultPageSize() int {
	if h.config != nil && h.config.API.DefaultPageSize > 0 {
		return h.config.API.DefaultPageSize
	}
	return 50
}

func (h *Handler) maxPageSize() int {
	if h.config != nil && h.config.API.MaxPageSize > 0 {
		return h.config.API.MaxPageSize
	}
	return 500
}
