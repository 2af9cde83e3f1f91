// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/database"
	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/metrics"
	"github.com/tomtom215/callscope/internal/models"
)

// Request describes one sync run.
type Request struct {
	AgentID string
	// APIKey overrides the configured provider key when set. Manual
	// syncs triggered through the API may carry their own credentials.
	APIKey      string
	WindowStart *int64
	WindowEnd   *int64
	SyncType    string
	// SkipDetails stops after the reconcile phase. Used when only the
	// summary list needs refreshing.
	SkipDetails bool
}

// Summary is the result of a completed sync run.
type Summary struct {
	RunID                string `json:"run_id"`
	AgentID              string `json:"agent_id"`
	ConversationsFetched int    `json:"conversations_fetched"`
	NewStored            int    `json:"new_stored"`
	DetailsFetched       int    `json:"details_fetched"`
	DetailsFailed        int    `json:"details_failed"`
	Status               string `json:"status"`
}

// Engine orchestrates sync runs against the provider API.
//
// A run moves through phases: the run is recorded in the ledger first,
// then the conversation list is drained, reconciled into the store,
// enriched with per-conversation details, and finally the run is
// marked terminal. A list failure fails the whole run; a detail
// failure only skips that conversation.
type Engine struct {
	store Store
	cfg   *config.Config

	// newClient builds a provider client for an API key. Tests swap
	// in a fake.
	newClient func(apiKey string) ProviderClient
}

// NewEngine creates a sync engine backed by the given store.
func NewEngine(store Store, cfg *config.Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		newClient: func(apiKey string) ProviderClient {
			return NewCircuitBreakerClient(&cfg.ElevenLabs, &cfg.Sync, apiKey)
		},
	}
}

// Sync executes one run. The returned error is non-nil when the run
// failed; partial detail failures do not fail a run.
func (e *Engine) Sync(ctx context.Context, req Request) (*Summary, error) {
	if req.AgentID == "" {
		return nil, errors.New("agent_id is required")
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = e.cfg.ElevenLabs.APIKey
	}
	if apiKey == "" {
		return nil, errors.New("no provider API key configured")
	}

	syncType := req.SyncType
	if syncType == "" {
		syncType = models.SyncTypeManual
	}

	run := &models.SyncRun{
		ID:         uuid.New().String(),
		AgentID:    req.AgentID,
		SyncType:   syncType,
		StartedAt:  time.Now().UTC(),
		Status:     models.SyncStatusRunning,
		PeriodFrom: req.WindowStart,
		PeriodTo:   req.WindowEnd,
	}

	// The ledger row is written before any network traffic so an
	// interrupted run still leaves a trace.
	if err := e.store.CreateSyncRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}

	ctx = logging.ContextWithSyncRunID(ctx, run.ID)
	log := logging.Ctx(ctx)
	log.Info().
		Str("agent_id", req.AgentID).
		Str("sync_type", syncType).
		Msg("Sync run started")

	started := time.Now()
	client := e.newClient(apiKey)

	conversations, err := client.FetchAllConversations(ctx, req.AgentID, req.WindowStart, req.WindowEnd)
	if err != nil {
		metrics.SyncErrors.WithLabelValues("list").Inc()
		e.failRun(ctx, run, err)
		metrics.RecordSyncRun(syncType, models.SyncStatusFailed, time.Since(started))
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	run.ConversationsFetched = len(conversations)
	metrics.SyncConversationsFetched.Add(float64(len(conversations)))

	newStored, err := e.reconcile(ctx, req.AgentID, conversations)
	if err != nil {
		metrics.SyncErrors.WithLabelValues("store").Inc()
		e.failRun(ctx, run, err)
		metrics.RecordSyncRun(syncType, models.SyncStatusFailed, time.Since(started))
		return nil, err
	}

	detailsFetched, detailsFailed := 0, 0
	if !req.SkipDetails {
		detailsFetched, detailsFailed, err = e.enrichDetails(ctx, client, req)
		if err != nil {
			run.DetailsFetched = detailsFetched
			metrics.SyncErrors.WithLabelValues("detail").Inc()
			e.failRun(ctx, run, err)
			metrics.RecordSyncRun(syncType, models.SyncStatusFailed, time.Since(started))
			return nil, err
		}
	}

	run.DetailsFetched = detailsFetched
	run.Status = models.SyncStatusCompleted
	finished := time.Now().UTC()
	run.FinishedAt = &finished
	if err := e.store.UpdateSyncRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to finalize sync run: %w", err)
	}

	metrics.RecordSyncRun(syncType, models.SyncStatusCompleted, time.Since(started))
	metrics.RecordSyncSuccess(req.AgentID)

	log.Info().
		Int("conversations_fetched", run.ConversationsFetched).
		Int("new_stored", newStored).
		Int("details_fetched", detailsFetched).
		Int("details_failed", detailsFailed).
		Dur("duration", time.Since(started)).
		Msg("Sync run completed")

	return &Summary{
		RunID:                run.ID,
		AgentID:              req.AgentID,
		ConversationsFetched: run.ConversationsFetched,
		NewStored:            newStored,
		DetailsFetched:       detailsFetched,
		DetailsFailed:        detailsFailed,
		Status:               models.SyncStatusCompleted,
	}, nil
}

// failRun writes the terminal failed state. A best-effort write; the
// original error is what callers see.
func (e *Engine) failRun(ctx context.Context, run *models.SyncRun, cause error) {
	msg := cause.Error()
	run.Status = models.SyncStatusFailed
	run.ErrorMessage = &msg
	finished := time.Now().UTC()
	run.FinishedAt = &finished

	if err := e.store.UpdateSyncRun(ctx, run); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to record sync run failure")
	}
}

// reconcile upserts listed conversations and counts how many were new.
func (e *Engine) reconcile(ctx context.Context, agentID string, conversations []ConversationSummary) (int, error) {
	newStored := 0
	for i := range conversations {
		s := &conversations[i]
		if s.ConversationID == "" {
			continue
		}

		_, err := e.store.GetConversation(ctx, s.ConversationID)
		switch {
		case errors.Is(err, database.ErrNotFound):
			newStored++
		case err != nil:
			return newStored, fmt.Errorf("failed to check conversation %s: %w", s.ConversationID, err)
		}

		if err := e.store.UpsertConversation(ctx, summaryToConversation(s, agentID)); err != nil {
			return newStored, fmt.Errorf("failed to store conversation %s: %w", s.ConversationID, err)
		}
	}
	return newStored, nil
}

// enrichDetails fetches the detail document for every conversation in
// the window that has none yet. Per-conversation failures are logged
// and skipped. Only context cancellation or a store listing failure
// aborts the phase.
func (e *Engine) enrichDetails(ctx context.Context, client ProviderClient, req Request) (fetched, failed int, err error) {
	ids, err := e.store.ListUnenrichedIDs(ctx, req.AgentID, req.WindowStart, req.WindowEnd, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list unenriched conversations: %w", err)
	}

	log := logging.Ctx(ctx)
	limiter := rate.NewLimiter(rate.Every(e.cfg.Sync.DetailPause), 1)

	for _, id := range ids {
		if err := limiter.Wait(ctx); err != nil {
			return fetched, failed, err
		}

		raw, err := client.GetConversationDetail(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return fetched, failed, ctx.Err()
			}
			log.Warn().Err(err).Str("conversation_id", id).Msg("Failed to fetch conversation detail")
			metrics.RecordDetailFetch(false)
			failed++
			continue
		}

		patch, stage := BuildDetailPatch(raw)
		metrics.RecordPhoneResolution(stage)
		if patch.AgentPhone == nil && patch.ClientPhone == nil {
			log.Warn().Str("conversation_id", id).Msg("No phone number found in conversation detail")
		}

		if err := e.store.ApplyConversationDetail(ctx, id, patch); err != nil {
			log.Warn().Err(err).Str("conversation_id", id).Msg("Failed to apply conversation detail")
			metrics.RecordDetailFetch(false)
			failed++
			continue
		}

		metrics.RecordDetailFetch(true)
		fetched++
	}

	return fetched, failed, nil
}

// summaryToConversation maps a provider list entry to the stored
// model. The listed agent id wins over the requested one when present.
func summaryToConversation(s *ConversationSummary, agentID string) *models.Conversation {
	conv := &models.Conversation{
		ConversationID:    s.ConversationID,
		AgentID:           s.AgentID,
		Status:            s.Status,
		CallSuccessful:    s.CallSuccessful,
		StartTimeUnix:     s.StartTimeUnix,
		CallDurationSecs:  s.CallDurationSecs,
		MessageCount:      s.MessageCount,
		TranscriptSummary: s.TranscriptSummary,
		CallSummaryTitle:  s.CallSummaryTitle,
		MainLanguage:      s.MainLanguage,
		Direction:         s.Direction,
		Rating:            s.Rating,
		InitiationSource:  s.InitiationSource,
		MonthPartition:    models.MonthPartitionFor(s.StartTimeUnix),
	}
	if conv.AgentID == "" {
		conv.AgentID = agentID
	}
	if s.AgentName != "" {
		conv.AgentName = s.AgentName
	}
	if s.Status == "" {
		conv.Status = "unknown"
	}
	if s.CallSuccessful == "" {
		conv.CallSuccessful = "unknown"
	}

	// Tool names are stored as a JSON array string, matching the
	// provider payload shape.
	if names, err := json.Marshal(s.ToolNames); err == nil {
		encoded := string(names)
		if encoded == "null" {
			encoded = "[]"
		}
		conv.ToolNames = &encoded
	}

	return conv
}
