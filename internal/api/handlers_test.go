// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/database"
	"github.com/tomtom215/callscope/internal/models"
	syncengine "github.com/tomtom215/callscope/internal/sync"
)

type fakeStore struct {
	pingErr       error
	conversations []*models.Conversation
	total         int
	lastFilter    database.ConversationFilter
	months        []database.MonthInfo
	kpis          *models.KPIReport
	runs          []*models.SyncRun
	resetCount    int64
	resetAgent    string
	archives      []*models.ArchiveLog
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) ListConversations(_ context.Context, f database.ConversationFilter) ([]*models.Conversation, int, error) {
	s.lastFilter = f
	return s.conversations, s.total, nil
}

func (s *fakeStore) ListMonths(context.Context, string) ([]database.MonthInfo, error) {
	return s.months, nil
}

func (s *fakeStore) ComputeKPIs(_ context.Context, agentID, month string) (*models.KPIReport, error) {
	report := *s.kpis
	report.AgentID = agentID
	if month == "" {
		month = "all"
	}
	report.Month = month
	return &report, nil
}

func (s *fakeStore) ListSyncRuns(_ context.Context, agentID string, limit int) ([]*models.SyncRun, error) {
	if limit < len(s.runs) {
		return s.runs[:limit], nil
	}
	return s.runs, nil
}

func (s *fakeStore) ResetMissingPhoneDetails(_ context.Context, agentID string) (int64, error) {
	s.resetAgent = agentID
	return s.resetCount, nil
}

func (s *fakeStore) ListArchiveLogs(context.Context, string) ([]*models.ArchiveLog, error) {
	return s.archives, nil
}

type fakeEngine struct {
	requests chan syncengine.Request
	err      error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{requests: make(chan syncengine.Request, 8)}
}

func (e *fakeEngine) Sync(_ context.Context, req syncengine.Request) (*syncengine.Summary, error) {
	e.requests <- req
	if e.err != nil {
		return nil, e.err
	}
	return &syncengine.Summary{
		RunID:   "run-1",
		AgentID: req.AgentID,
		Status:  models.SyncStatusCompleted,
	}, nil
}

type fakeExporter struct {
	archiveLog *models.ArchiveLog
	exportRows int
}

func (e *fakeExporter) ArchiveMonth(_ context.Context, agentID, month string) (*models.ArchiveLog, error) {
	if e.archiveLog == nil {
		return nil, nil
	}
	log := *e.archiveLog
	log.AgentID = agentID
	log.MonthPartition = month
	return &log, nil
}

func (e *fakeExporter) WriteExport(_ context.Context, w io.Writer, agentID, month string) (int, error) {
	if e.exportRows == 0 {
		return 0, nil
	}
	if _, err := w.Write([]byte("conversation_date;conversation_id\n2026-02-10 12:00:00;c1\n")); err != nil {
		return 0, err
	}
	return e.exportRows, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ElevenLabs: config.ElevenLabsConfig{
			Agents: []config.AgentConfig{{ID: "agent_a"}},
		},
		Server: config.ServerConfig{RateLimitDisabled: true},
		API:    config.APIConfig{DefaultPageSize: 50, MaxPageSize: 100},
	}
}

func testServer(t *testing.T, store *fakeStore, engine *fakeEngine, exporter *fakeExporter) *httptest.Server {
	t.Helper()
	router := NewRouter(store, engine, exporter, testConfig())
	srv := httptest.NewServer(router.Setup())
	t.Cleanup(srv.Close)
	return srv
}

// decodeResponse unwraps the APIResponse envelope.
func decodeResponse(t *testing.T, resp *http.Response) (APIResponse, map[string]interface{}) {
	t.Helper()
	defer resp.Body.Close()

	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	data, _ := envelope.Data.(map[string]interface{})
	return envelope, data
}

func TestHealthEndpoints(t *testing.T) {
	srv := testServer(t, &fakeStore{}, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	envelope, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", resp.StatusCode)
	}
	if !envelope.Success {
		t.Error("health should report success")
	}
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}

	resp, err = http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("live request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d", resp.StatusCode)
	}
}

func TestHealthReadyDatabaseDown(t *testing.T) {
	store := &fakeStore{pingErr: errors.New("database closed")}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/health/ready")
	if err != nil {
		t.Fatalf("ready request failed: %v", err)
	}
	envelope, _ := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", resp.StatusCode)
	}
	if envelope.Success {
		t.Error("ready should not report success")
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeServiceUnavailable {
		t.Errorf("unexpected error payload: %+v", envelope.Error)
	}
}

func TestTriggerSyncAccepted(t *testing.T) {
	engine := newFakeEngine()
	srv := testServer(t, &fakeStore{}, engine, &fakeExporter{})

	body := `{"agent_id":"agent_a","period_from":1738368000}`
	resp, err := http.Post(srv.URL+"/api/v1/sync", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("sync request failed: %v", err)
	}
	envelope, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("sync status = %d, want 202", resp.StatusCode)
	}
	if !envelope.Success || data["status"] != "accepted" {
		t.Errorf("unexpected payload: %+v", data)
	}
	if data["sync_type"] != models.SyncTypeManual {
		t.Errorf("sync_type = %v, want manual default", data["sync_type"])
	}

	select {
	case req := <-engine.requests:
		if req.AgentID != "agent_a" {
			t.Errorf("engine agent = %q", req.AgentID)
		}
		if req.SyncType != models.SyncTypeManual {
			t.Errorf("engine sync type = %q", req.SyncType)
		}
		if req.WindowStart == nil || *req.WindowStart != 1738368000 {
			t.Errorf("engine window start = %v", req.WindowStart)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("engine was never invoked")
	}
}

func TestTriggerSyncValidation(t *testing.T) {
	engine := newFakeEngine()
	srv := testServer(t, &fakeStore{}, engine, &fakeExporter{})

	resp, err := http.Post(srv.URL+"/api/v1/sync", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("sync request failed: %v", err)
	}
	envelope, _ := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("unexpected error payload: %+v", envelope.Error)
	}

	select {
	case <-engine.requests:
		t.Error("engine must not run for invalid requests")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListSyncRuns(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeStore{runs: []*models.SyncRun{
		{ID: "r2", AgentID: "agent_a", Status: models.SyncStatusRunning, StartedAt: now},
		{ID: "r1", AgentID: "agent_a", Status: models.SyncStatusCompleted, StartedAt: now.Add(-time.Hour)},
	}}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/sync/runs?agent_id=agent_a")
	if err != nil {
		t.Fatalf("runs request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestListConversationsPagination(t *testing.T) {
	store := &fakeStore{
		conversations: []*models.Conversation{
			{ConversationID: "c1", AgentID: "agent_a"},
			{ConversationID: "c2", AgentID: "agent_a"},
		},
		total: 120,
	}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/conversations?agent_id=agent_a&month=2026-02&page=2&per_page=500")
	if err != nil {
		t.Fatalf("conversations request failed: %v", err)
	}
	envelope, _ := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	// per_page above the configured maximum is clamped.
	if store.lastFilter.PerPage != 100 {
		t.Errorf("per_page = %d, want clamped to 100", store.lastFilter.PerPage)
	}
	if store.lastFilter.Month != "2026-02" || store.lastFilter.Page != 2 {
		t.Errorf("unexpected filter: %+v", store.lastFilter)
	}

	p := envelope.Meta.Pagination
	if p == nil {
		t.Fatal("expected pagination metadata")
	}
	if p.Total != 120 || p.Count != 2 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestListConversationsRejectsBadMonth(t *testing.T) {
	srv := testServer(t, &fakeStore{}, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/conversations?month=February")
	if err != nil {
		t.Fatalf("conversations request failed: %v", err)
	}
	envelope, _ := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if envelope.Error == nil || envelope.Error.Code != ErrCodeValidationFailed {
		t.Errorf("unexpected error payload: %+v", envelope.Error)
	}
}

func TestKPIs(t *testing.T) {
	store := &fakeStore{kpis: &models.KPIReport{TotalConversations: 10, ConversionRate: 40}}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/kpis?agent_id=agent_a&month=2026-02")
	if err != nil {
		t.Fatalf("kpis request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["agent_id"] != "agent_a" || data["month"] != "2026-02" {
		t.Errorf("unexpected scope: %v / %v", data["agent_id"], data["month"])
	}
	if data["total_conversations"].(float64) != 10 {
		t.Errorf("total = %v", data["total_conversations"])
	}

	// agent_id is required.
	resp, err = http.Get(srv.URL + "/api/v1/kpis")
	if err != nil {
		t.Fatalf("kpis request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status without agent_id = %d, want 400", resp.StatusCode)
	}
}

func TestListMonths(t *testing.T) {
	store := &fakeStore{months: []database.MonthInfo{
		{Month: "2026-03", Count: 4, DetailsFetched: 4},
		{Month: "2026-02", Count: 9, DetailsFetched: 7},
	}}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/months?agent_id=agent_a")
	if err != nil {
		t.Fatalf("months request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["count"].(float64) != 2 {
		t.Errorf("count = %v, want 2", data["count"])
	}
}

func TestRefetchConversations(t *testing.T) {
	store := &fakeStore{resetCount: 7}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	body := `{"agent_id":"agent_a"}`
	resp, err := http.Post(srv.URL+"/api/v1/conversations/refetch", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("refetch request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["reset"].(float64) != 7 {
		t.Errorf("reset = %v, want 7", data["reset"])
	}
	if store.resetAgent != "agent_a" {
		t.Errorf("reset agent = %q", store.resetAgent)
	}
}

func TestCreateArchive(t *testing.T) {
	exporter := &fakeExporter{archiveLog: &models.ArchiveLog{ID: 1, RecordsCount: 12, FilePath: "/tmp/a.csv"}}
	srv := testServer(t, &fakeStore{}, newFakeEngine(), exporter)

	body := `{"agent_id":"agent_a","month":"2026-02"}`
	resp, err := http.Post(srv.URL+"/api/v1/archives", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("archive request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["archived"] != true {
		t.Errorf("archived = %v, want true", data["archived"])
	}
}

func TestCreateArchiveEmptyMonth(t *testing.T) {
	srv := testServer(t, &fakeStore{}, newFakeEngine(), &fakeExporter{})

	body := `{"agent_id":"agent_a","month":"2026-02"}`
	resp, err := http.Post(srv.URL+"/api/v1/archives", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("archive request failed: %v", err)
	}
	_, data := decodeResponse(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if data["archived"] != false {
		t.Errorf("archived = %v, want false for empty month", data["archived"])
	}
}

func TestDownloadArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conversations_agent_a_2026-02.csv")
	if err := os.WriteFile(path, []byte("conversation_id\nc1\n"), 0o600); err != nil {
		t.Fatalf("failed to write archive fixture: %v", err)
	}

	store := &fakeStore{archives: []*models.ArchiveLog{
		{ID: 3, AgentID: "agent_a", MonthPartition: "2026-02", FilePath: path, RecordsCount: 1},
	}}
	srv := testServer(t, store, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/archives/3/download")
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "conversations_agent_a_2026-02.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	data, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(data, []byte("c1")) {
		t.Errorf("unexpected body %q", data)
	}

	// Unknown id.
	resp, err = http.Get(srv.URL + "/api/v1/archives/99/download")
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown archive status = %d, want 404", resp.StatusCode)
	}
}

func TestExportCSV(t *testing.T) {
	exporter := &fakeExporter{exportRows: 1}
	srv := testServer(t, &fakeStore{}, newFakeEngine(), exporter)

	resp, err := http.Get(srv.URL + "/api/v1/export?agent_id=agent_a&month=2026-02")
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "export_agent_a_2026-02.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "conversation_date;") {
		t.Errorf("unexpected export body %q", body)
	}
}

func TestRequestIDHeader(t *testing.T) {
	srv := testServer(t, &fakeStore{}, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/api/v1/health/live")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, &fakeStore{}, newFakeEngine(), &fakeExporter{})

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("go_goroutines")) {
		t.Error("expected Go runtime metrics in output")
	}
}
