// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package database

import "testing"

// Test assertion helpers with "check" prefix.
// Using t.Helper() ensures error messages point to the calling line.

// checkStringEqual checks that got equals want, failing if not
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkFloatEqual checks that got equals want
func checkFloatEqual(t *testing.T, fieldName string, got, want float64) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %v, got %v", fieldName, want, got)
	}
}

// checkBoolEqual checks that got equals want
func checkBoolEqual(t *testing.T, fieldName string, got, want bool) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %v, got %v", fieldName, want, got)
	}
}

// checkStringPtrNil checks that ptr is nil
func checkStringPtrNil(t *testing.T, fieldName string, ptr *string) {
	t.Helper()
	if ptr != nil {
		t.Errorf("%s should be nil, got %q", fieldName, *ptr)
	}
}

// checkStringPtrEqual checks that ptr is not nil and equals want
func checkStringPtrEqual(t *testing.T, fieldName string, ptr *string, want string) {
	t.Helper()
	if ptr == nil {
		t.Errorf("%s should not be nil, expected %q", fieldName, want)
		return
	}
	if *ptr != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, *ptr)
	}
}

// checkNoError fails the test immediately on an unexpected error
func checkNoError(t *testing.T, operation string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s failed: %v", operation, err)
	}
}

// strPtr returns a pointer to s
func strPtr(s string) *string { return &s }

// intPtr returns a pointer to n
func intPtr(n int) *int { return &n }

// int64Ptr returns a pointer to n
func int64Ptr(n int64) *int64 { return &n }

// float64Ptr returns a pointer to f
func float64Ptr(f float64) *float64 { return &f }

// boolPtr returns a pointer to b
func boolPtr(b bool) *bool { return &b }
