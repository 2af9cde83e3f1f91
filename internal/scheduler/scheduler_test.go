// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/callscope/internal/config"
)

type fakeArchiver struct {
	calls atomic.Int32
	err   error
}

func (f *fakeArchiver) CheckAndArchive(context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestArchiveSchedulerRunsAtStartup(t *testing.T) {
	archiver := &fakeArchiver{}
	s := NewArchiveScheduler(archiver, &config.ArchiveConfig{CheckInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	// The startup check runs before the first tick.
	deadline := time.After(time.Second)
	for archiver.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("startup archive check never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}
}

func TestArchiveSchedulerSurvivesFailures(t *testing.T) {
	archiver := &fakeArchiver{err: errors.New("disk full")}
	s := NewArchiveScheduler(archiver, &config.ArchiveConfig{CheckInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// A failing archiver must not crash the service; Serve returns
	// only when the context ends.
	err := s.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve returned %v, want context.DeadlineExceeded", err)
	}
	if archiver.calls.Load() < 2 {
		t.Errorf("expected repeated checks despite failures, got %d", archiver.calls.Load())
	}
}

func TestArchiveSchedulerDefaultInterval(t *testing.T) {
	s := NewArchiveScheduler(&fakeArchiver{}, &config.ArchiveConfig{})
	if s.interval != 12*time.Hour {
		t.Errorf("interval = %v, want 12h default", s.interval)
	}
}

func TestSyncSchedulerMonthStart(t *testing.T) {
	s := NewSyncScheduler(nil, &config.Config{})
	s.now = func() time.Time {
		return time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
	}

	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).Unix()
	if got := s.monthStart(); got != want {
		t.Errorf("monthStart = %d, want %d", got, want)
	}
}

func TestSyncSchedulerString(t *testing.T) {
	s := NewSyncScheduler(nil, &config.Config{})
	if s.String() != "sync-scheduler" {
		t.Errorf("String() = %q", s.String())
	}
}
