// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/models"
	syncengine "github.com/tomtom215/callscope/internal/sync"
)

// TriggerSync starts a sync run for one agent and returns immediately.
// The run executes in the background; its progress is visible in the
// sync run ledger (GET /api/v1/sync/runs).
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	syncType := req.SyncType
	if syncType == "" {
		syncType = models.SyncTypeManual
	}

	// Detach from the request lifetime but keep context values so the
	// request id stays in the run's log lines.
	ctx := context.WithoutCancel(r.Context())
	go func() {
		summary, err := h.engine.Sync(ctx, syncengine.Request{
			AgentID:     req.AgentID,
			APIKey:      req.APIKey,
			WindowStart: req.PeriodFrom,
			WindowEnd:   req.PeriodTo,
			SyncType:    syncType,
			SkipDetails: req.SkipDetails,
		})
		if err != nil {
			logging.Warn().Err(err).Str("agent_id", req.AgentID).Msg("Triggered sync failed")
			return
		}
		logging.Info().
			Str("agent_id", req.AgentID).
			Str("run_id", summary.RunID).
			Int("conversations_fetched", summary.ConversationsFetched).
			Msg("Triggered sync completed")
	}()

	rw.Accepted(map[string]interface{}{
		"agent_id":  req.AgentID,
		"sync_type": syncType,
		"status":    "accepted",
	})
}

// ListSyncRuns returns the sync run ledger, newest first, optionally
// filtered by agent.
func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := SyncRunsRequest{
		AgentID: r.URL.Query().Get("agent_id"),
		Limit:   getIntParam(r, "limit", 50),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	runs, err := h.store.ListSyncRuns(r.Context(), req.AgentID, req.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}
