// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

/*
Package database provides the embedded DuckDB persistence layer.

Tables:
  - conversations: one row per provider conversation, keyed by
    conversation_id. Summary fields come from the list endpoint; detail
    fields are filled in by enrichment and guarded by details_fetched.
  - sync_runs: append-only ledger of sync attempts.
  - archive_logs: record of CSV archive files written per month.

Write semantics:
  - Conversation upserts use INSERT ... ON CONFLICT DO UPDATE and are
    atomic at single-record granularity. Re-running a sync over the same
    window converges to the same stored state.
  - Detail patches are monotonic: a patch never erases already-stored
    values (COALESCE against the existing row).

All methods take a context and return wrapped errors; ErrNotFound is
the sentinel for missing rows.
*/
package database
