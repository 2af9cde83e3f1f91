// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/database"
	"github.com/tomtom215/callscope/internal/models"
	syncengine "github.com/tomtom215/callscope/internal/sync"
	"github.com/tomtom215/callscope/internal/validation"
)

// Store is the persistence surface the handlers depend on.
// Satisfied by *database.DB.
type Store interface {
	Ping(ctx context.Context) error
	ListConversations(ctx context.Context, f database.ConversationFilter) ([]*models.Conversation, int, error)
	ListMonths(ctx context.Context, agentID string) ([]database.MonthInfo, error)
	ComputeKPIs(ctx context.Context, agentID, month string) (*models.KPIReport, error)
	ListSyncRuns(ctx context.Context, agentID string, limit int) ([]*models.SyncRun, error)
	ResetMissingPhoneDetails(ctx context.Context, agentID string) (int64, error)
	ListArchiveLogs(ctx context.Context, agentID string) ([]*models.ArchiveLog, error)
}

// SyncRunner triggers sync runs. Satisfied by *sync.Engine.
type SyncRunner interface {
	Sync(ctx context.Context, req syncengine.Request) (*syncengine.Summary, error)
}

// Exporter writes CSV archives and exports. Satisfied by
// *export.Archiver.
type Exporter interface {
	ArchiveMonth(ctx context.Context, agentID, month string) (*models.ArchiveLog, error)
	WriteExport(ctx context.Context, w io.Writer, agentID, month string) (int, error)
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store     Store
	engine    SyncRunner
	exporter  Exporter
	config    *config.Config
	startTime time.Time
}

// NewHandler creates the shared handler.
func NewHandler(store Store, engine SyncRunner, exporter Exporter, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		engine:    engine,
		exporter:  exporter,
		config:    cfg,
		startTime: time.Now(),
	}
}

// Health returns overall health: process uptime plus database
// connectivity.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	rw.Success(map[string]interface{}{
		"status":             status,
		"database_connected": dbConnected,
		"agents_configured":  len(h.config.ElevenLabs.Agents),
		"uptime_seconds":     time.Since(h.startTime).Seconds(),
	})
}

// HealthLive is the liveness probe: 200 whenever the process runs,
// regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe: 200 only when the database is
// reachable, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil
	if !dbConnected {
		rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "database not reachable")
		return
	}

	rw.Success(map[string]interface{}{
		"ready":              true,
		"database_connected": true,
	})
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil if validation passes.
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}
