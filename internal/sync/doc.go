// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

// Package sync implements conversation synchronization from the
// ElevenLabs Conversational AI API into the local DuckDB store.
//
// The package is organized around three pieces:
//
//   - ElevenLabsClient: paginated HTTP client for the provider API
//     with rate limit backoff, wrapped by CircuitBreakerClient for
//     resilience against provider outages.
//   - Phone resolution: a multi-stage cascade that extracts agent and
//     client phone numbers from the opaque conversation detail JSON,
//     since the provider reports them in different places depending on
//     the telephony integration.
//   - Engine: orchestrates a sync run in phases (list, reconcile,
//     enrich, finalize) and records every run in the sync ledger.
//     Individual detail failures are logged and skipped so one bad
//     conversation never aborts a run.
package sync
