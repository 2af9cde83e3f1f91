// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

// Package models defines the core domain types shared across Callscope:
// conversation records pulled from the ElevenLabs Conversational AI API,
// sync-run ledger entries, archive-log entries, and KPI aggregates.
//
// Types in this package are plain data carriers. Optional values use
// pointer fields so that "absent" survives round-trips through the
// database and the JSON API without collapsing into zero values.
package models
