// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package models

import (
	"testing"
	"time"
)

func TestMonthPartitionFor(t *testing.T) {
	tests := []struct {
		name  string
		unix  int64
		want  string
	}{
		{"mid month", time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC).Unix(), "2024-03"},
		{"month boundary start", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Unix(), "2026-01"},
		{"month boundary end", time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC).Unix(), "2025-12"},
		{"zero start time", 0, UnknownPartition},
		{"negative start time", -100, UnknownPartition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthPartitionFor(tt.unix); got != tt.want {
				t.Errorf("MonthPartitionFor(%d) = %q, want %q", tt.unix, got, tt.want)
			}
		})
	}
}

func TestMonthPartitionForUsesUTC(t *testing.T) {
	// 2024-03-31 23:30 UTC is already April in timezones east of UTC.
	// The partition must stay in March regardless of server locale.
	ts := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC).Unix()
	if got := MonthPartitionFor(ts); got != "2024-03" {
		t.Errorf("MonthPartitionFor(%d) = %q, want 2024-03", ts, got)
	}
}

func TestSyncRunTerminal(t *testing.T) {
	run := &SyncRun{Status: SyncStatusRunning}
	if run.Terminal() {
		t.Error("running run reported as terminal")
	}
	run.Status = SyncStatusCompleted
	if !run.Terminal() {
		t.Error("completed run not reported as terminal")
	}
	run.Status = SyncStatusFailed
	if !run.Terminal() {
		t.Error("failed run not reported as terminal")
	}
}

func TestConversationStartTime(t *testing.T) {
	c := &Conversation{StartTimeUnix: 1710496800} // 2024-03-15T10:00:00Z
	got := c.StartTime()
	if got.Location() != time.UTC {
		t.Errorf("StartTime location = %v, want UTC", got.Location())
	}
	if got.Format(time.RFC3339) != "2024-03-15T10:00:00Z" {
		t.Errorf("StartTime = %s", got.Format(time.RFC3339))
	}
}
