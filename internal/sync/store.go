// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"context"

	"github.com/tomtom215/callscope/internal/models"
)

// Store is the persistence surface the sync engine depends on.
// Satisfied by *database.DB; tests substitute an in-memory fake.
type Store interface {
	GetConversation(ctx context.Context, conversationID string) (*models.Conversation, error)
	UpsertConversation(ctx context.Context, conv *models.Conversation) error
	ApplyConversationDetail(ctx context.Context, conversationID string, patch *models.DetailPatch) error
	ListUnenrichedIDs(ctx context.Context, agentID string, from, to *int64, limit int) ([]string, error)
	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	UpdateSyncRun(ctx context.Context, run *models.SyncRun) error
}
