// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

// Package export writes conversation data to CSV, both as scheduled
// monthly archives on disk and as on-demand exports streamed through
// the API. Archives are recorded in the archive log so a month is
// written at most once.
package export
