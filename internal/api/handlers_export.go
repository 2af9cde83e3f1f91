// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/callscope/internal/logging"
)

// CreateArchive archives one agent month to a CSV file on disk and
// records it in the archive log.
func (h *Handler) CreateArchive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ArchiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	log, err := h.exporter.ArchiveMonth(r.Context(), req.AgentID, req.Month)
	if err != nil {
		logging.Error().Err(err).
			Str("agent_id", req.AgentID).
			Str("month", req.Month).
			Msg("Archive failed")
		rw.InternalError("archive failed")
		return
	}
	if log == nil {
		rw.Success(map[string]interface{}{
			"archived": false,
			"reason":   "no conversations in month",
		})
		return
	}

	rw.Success(map[string]interface{}{
		"archived": true,
		"log":      log,
	})
}

// ListArchives returns the archive log, optionally filtered by agent.
func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	logs, err := h.store.ListArchiveLogs(r.Context(), r.URL.Query().Get("agent_id"))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"archives": logs,
		"count":    len(logs),
	})
}

// DownloadArchive serves a previously written archive CSV file by its
// archive log id.
func (h *Handler) DownloadArchive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		rw.BadRequest("invalid archive id")
		return
	}

	logs, err := h.store.ListArchiveLogs(r.Context(), "")
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	for _, log := range logs {
		if log.ID != id {
			continue
		}
		if _, err := os.Stat(log.FilePath); err != nil {
			rw.NotFound("archive file no longer on disk")
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("conversations_%s_%s.csv", log.AgentID, log.MonthPartition)))
		http.ServeFile(w, r, log.FilePath)
		return
	}

	rw.NotFound("archive not found")
}

// ExportCSV streams an on-demand CSV export for an agent, optionally
// limited to one month.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ExportRequest{
		AgentID: r.URL.Query().Get("agent_id"),
		Month:   r.URL.Query().Get("month"),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	filename := "export_" + req.AgentID
	if req.Month != "" {
		filename += "_" + req.Month
	}
	filename += ".csv"

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	count, err := h.exporter.WriteExport(r.Context(), w, req.AgentID, req.Month)
	if err != nil {
		// Headers may already be out; log instead of rewriting status.
		logging.Error().Err(err).Str("agent_id", req.AgentID).Msg("CSV export failed")
		return
	}

	logging.Info().
		Str("agent_id", req.AgentID).
		Str("month", req.Month).
		Int("records", count).
		Msg("CSV export served")
}
