// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

// Package logging provides centralized zerolog-based structured logging
// for Callscope.
//
// The package exposes a process-global logger with JSON output for
// production and console output for development, plus context helpers
// that propagate request ids through HTTP handlers and the sync engine.
//
// # Quick Start
//
//	import "github.com/tomtom215/callscope/internal/logging"
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("agent_id", id).Msg("Sync started")
//	logging.Error().Err(err).Msg("Sync failed")
//
//	// Context-aware logging inside handlers
//	logging.Ctx(ctx).Info().Msg("Processing request")
//
// # Configuration
//
// Environment variables (read via internal/config):
//
//	LOG_LEVEL   - trace, debug, info, warn, error (default: info)
//	LOG_FORMAT  - json, console (default: json)
//	LOG_CALLER  - include caller file:line (default: false)
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Prefer structured fields over string formatting:
//
//	logging.Info().Str("agent_id", id).Int("records", n).Msg("reconciled")
//
// # slog Adapter
//
// NewSlogLogger returns an slog.Logger backed by zerolog for libraries
// that require slog, such as sutureslog:
//
//	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
//
// # Thread Safety
//
// All exported functions are safe for concurrent use; the global logger
// is guarded by a sync.RWMutex during reconfiguration.
package logging
