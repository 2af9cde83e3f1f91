// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/models"
)

type fakeStore struct {
	conversations map[string][]*models.Conversation // key agentID|month
	agentsByMonth map[string][]string
	archived      map[string]bool // key agentID|month
	logs          []*models.ArchiveLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: make(map[string][]*models.Conversation),
		agentsByMonth: make(map[string][]string),
		archived:      make(map[string]bool),
	}
}

func key(agentID, month string) string { return agentID + "|" + month }

func (s *fakeStore) ListConversationsByMonth(_ context.Context, agentID, month string) ([]*models.Conversation, error) {
	return s.conversations[key(agentID, month)], nil
}

func (s *fakeStore) ListConversationsForExport(_ context.Context, agentID, month string) ([]*models.Conversation, error) {
	if month != "" {
		return s.conversations[key(agentID, month)], nil
	}
	var all []*models.Conversation
	for k, convs := range s.conversations {
		if strings.HasPrefix(k, agentID+"|") {
			all = append(all, convs...)
		}
	}
	return all, nil
}

func (s *fakeStore) ListAgentsForMonth(_ context.Context, month string) ([]string, error) {
	return s.agentsByMonth[month], nil
}

func (s *fakeStore) IsMonthArchived(_ context.Context, agentID, month string) (bool, error) {
	return s.archived[key(agentID, month)], nil
}

func (s *fakeStore) InsertArchiveLog(_ context.Context, log *models.ArchiveLog) error {
	s.archived[key(log.AgentID, log.MonthPartition)] = true
	s.logs = append(s.logs, log)
	return nil
}

func strPtr(s string) *string { return &s }

func testConversation(id string) *models.Conversation {
	return &models.Conversation{
		ConversationID:   id,
		AgentID:          "agent_a",
		AgentName:        "Test Agent",
		Status:           "done",
		CallSuccessful:   "success",
		StartTimeUnix:    time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC).Unix(),
		CallDurationSecs: 120,
		MessageCount:     6,
		MonthPartition:   "2026-02",
		FetchedAt:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func testArchiver(t *testing.T, store *fakeStore) *Archiver {
	t.Helper()
	return NewArchiver(store, &config.ArchiveConfig{Dir: t.TempDir()})
}

func TestArchiveMonthWritesFileAndLog(t *testing.T) {
	store := newFakeStore()
	store.conversations[key("agent_a", "2026-02")] = []*models.Conversation{
		testConversation("c1"),
		testConversation("c2"),
	}

	a := testArchiver(t, store)
	log, err := a.ArchiveMonth(context.Background(), "agent_a", "2026-02")
	if err != nil {
		t.Fatalf("ArchiveMonth failed: %v", err)
	}
	if log == nil {
		t.Fatal("expected archive log")
	}
	if log.RecordsCount != 2 {
		t.Errorf("records_count = %d, want 2", log.RecordsCount)
	}
	if !strings.HasSuffix(log.FilePath, "conversations_agent_a_2026-02.csv") {
		t.Errorf("unexpected file path %q", log.FilePath)
	}

	data, err := os.ReadFile(log.FilePath)
	if err != nil {
		t.Fatalf("failed to read archive: %v", err)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse archive CSV: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Fatalf("rows = %d, want 3", len(records))
	}
	if records[0][0] != "conversation_id" {
		t.Errorf("first header column = %q", records[0][0])
	}
	if records[1][0] != "c1" {
		t.Errorf("first row id = %q", records[1][0])
	}
}

func TestArchiveMonthEmptyIsNoop(t *testing.T) {
	a := testArchiver(t, newFakeStore())
	log, err := a.ArchiveMonth(context.Background(), "agent_a", "2026-02")
	if err != nil {
		t.Fatalf("ArchiveMonth failed: %v", err)
	}
	if log != nil {
		t.Error("expected no archive log for empty month")
	}
}

func TestCheckAndArchivePreviousMonth(t *testing.T) {
	store := newFakeStore()
	store.conversations[key("agent_a", "2026-02")] = []*models.Conversation{testConversation("c1")}
	store.agentsByMonth["2026-02"] = []string{"agent_a"}

	a := testArchiver(t, store)
	a.now = func() time.Time { return time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC) }

	if err := a.CheckAndArchive(context.Background()); err != nil {
		t.Fatalf("CheckAndArchive failed: %v", err)
	}
	if !store.archived[key("agent_a", "2026-02")] {
		t.Error("previous month should be archived")
	}

	// Second pass is a no-op.
	logsBefore := len(store.logs)
	if err := a.CheckAndArchive(context.Background()); err != nil {
		t.Fatalf("second CheckAndArchive failed: %v", err)
	}
	if len(store.logs) != logsBefore {
		t.Error("already archived month should not be rewritten")
	}
}

func TestCheckAndArchiveOutsideGraceWindow(t *testing.T) {
	store := newFakeStore()
	store.conversations[key("agent_a", "2026-02")] = []*models.Conversation{testConversation("c1")}
	store.agentsByMonth["2026-02"] = []string{"agent_a"}

	a := testArchiver(t, store)
	a.now = func() time.Time { return time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC) }

	if err := a.CheckAndArchive(context.Background()); err != nil {
		t.Fatalf("CheckAndArchive failed: %v", err)
	}
	if len(store.logs) != 0 {
		t.Error("no archives should be written after the grace window")
	}
}

func TestWriteExportWithCriteriaColumns(t *testing.T) {
	store := newFakeStore()
	c1 := testConversation("c1")
	c1.EvaluationCriteriaResults = strPtr(`{"greeting":{"result":"success"},"closing":{"result":"failure"}}`)
	c2 := testConversation("c2")
	c2.EvaluationCriteriaResults = strPtr(`{"greeting":{"result":"failure"}}`)
	store.conversations[key("agent_a", "2026-02")] = []*models.Conversation{c1, c2}

	a := testArchiver(t, store)
	var buf bytes.Buffer
	count, err := a.WriteExport(context.Background(), &buf, "agent_a", "2026-02")
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	r := csv.NewReader(&buf)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("failed to parse export CSV: %v", err)
	}

	header := records[0]
	if header[0] != "conversation_date" {
		t.Errorf("first column = %q, want conversation_date", header[0])
	}
	// Criteria columns are sorted alphabetically after the base set.
	if header[len(header)-2] != "criterion_closing" || header[len(header)-1] != "criterion_greeting" {
		t.Errorf("criteria columns wrong: %v", header[len(header)-2:])
	}

	row1 := records[1]
	if row1[0] != "2026-02-10 12:00:00" {
		t.Errorf("conversation_date = %q", row1[0])
	}
	if row1[len(row1)-1] != "success" || row1[len(row1)-2] != "failure" {
		t.Errorf("criteria values wrong: %v", row1[len(row1)-2:])
	}
}

func TestWriteExportEmpty(t *testing.T) {
	a := testArchiver(t, newFakeStore())
	var buf bytes.Buffer
	count, err := a.WriteExport(context.Background(), &buf, "agent_a", "")
	if err != nil {
		t.Fatalf("WriteExport failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if buf.Len() != 0 {
		t.Error("no output expected for empty export")
	}
}
