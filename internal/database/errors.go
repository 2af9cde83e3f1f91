// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package database

import "errors"

// Sentinel errors returned by data access methods. Callers match with
// errors.Is.
var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrClosed indicates the database handle has been closed.
	ErrClosed = errors.New("database is closed")
)
