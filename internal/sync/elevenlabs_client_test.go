// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/callscope/internal/config"
)

func testClientConfig(baseURL string) *config.ElevenLabsConfig {
	return &config.ElevenLabsConfig{
		BaseURL:   baseURL,
		PageSize:  100,
		PageDelay: time.Millisecond,
		Timeout:   5 * time.Second,
	}
}

func TestListConversationsSendsAuthAndParams(t *testing.T) {
	var gotHeader, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("xi-api-key")
		gotQuery = r.URL.RawQuery
		checkStringEqual(t, "path", r.URL.Path, "/convai/conversations")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conversations": [], "has_more": false}`))
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "test-key")
	_, err := client.ListConversations(context.Background(), ListParams{
		AgentID:    "agent_a",
		StartAfter: int64Ptr(1700000000),
	})
	checkNoError(t, "ListConversations", err)

	checkStringEqual(t, "xi-api-key", gotHeader, "test-key")
	for _, want := range []string{
		"agent_id=agent_a",
		"page_size=100",
		"summary_mode=include",
		"call_start_after_unix=1700000000",
	} {
		if !containsAny(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetchAllConversationsPaginates(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&requests, 1)
		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			if r.URL.Query().Get("cursor") != "" {
				t.Error("first page should have no cursor")
			}
			_, _ = w.Write([]byte(`{
				"conversations": [{"conversation_id": "c1"}, {"conversation_id": "c2"}],
				"has_more": true,
				"next_cursor": "page2"
			}`))
		default:
			checkStringEqual(t, "cursor", r.URL.Query().Get("cursor"), "page2")
			_, _ = w.Write([]byte(`{
				"conversations": [{"conversation_id": "c3"}],
				"has_more": false
			}`))
		}
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "test-key")
	all, err := client.FetchAllConversations(context.Background(), "agent_a", nil, nil)
	checkNoError(t, "FetchAllConversations", err)

	checkIntEqual(t, "total conversations", len(all), 3)
	checkIntEqual(t, "requests", int(atomic.LoadInt32(&requests)), 2)
	checkStringEqual(t, "last id", all[2].ConversationID, "c3")
}

func TestClientRetriesOnRateLimit(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requests, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"conversations": [{"conversation_id": "c1"}], "has_more": false}`))
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "test-key")
	client.retryBaseDelay = time.Millisecond

	page, err := client.ListConversations(context.Background(), ListParams{AgentID: "agent_a"})
	checkNoError(t, "ListConversations", err)

	checkIntEqual(t, "requests", int(atomic.LoadInt32(&requests)), 2)
	checkIntEqual(t, "conversations", len(page.Conversations), 1)
}

func TestClientRateLimitExhaustion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "test-key")
	client.maxRetries = 1
	client.retryBaseDelay = time.Millisecond

	_, err := client.ListConversations(context.Background(), ListParams{AgentID: "agent_a"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestClientHonorsConfiguredRetryPolicy(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), &config.SyncConfig{
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	}, "test-key")

	_, err := client.ListConversations(context.Background(), ListParams{AgentID: "agent_a"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	// One initial attempt plus exactly the configured retry.
	checkIntEqual(t, "requests", int(atomic.LoadInt32(&requests)), 2)
	checkIntEqual(t, "maxRetries", client.maxRetries, 1)
	if client.retryBaseDelay != time.Millisecond {
		t.Errorf("retryBaseDelay = %v, want 1ms", client.retryBaseDelay)
	}
}

func TestGetConversationDetailReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/convai/conversations/conv_1")
		_, _ = w.Write([]byte(`{"conversation_id": "conv_1", "has_audio": true}`))
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "test-key")
	raw, err := client.GetConversationDetail(context.Background(), "conv_1")
	checkNoError(t, "GetConversationDetail", err)

	if len(raw) == 0 {
		t.Fatal("expected raw detail body")
	}
	checkStringEqual(t, "body", string(raw), `{"conversation_id": "conv_1", "has_audio": true}`)
}

func TestClientErrorStatusIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail": "invalid api key"}`))
	}))
	defer server.Close()

	client := NewElevenLabsClient(testClientConfig(server.URL), nil, "bad-key")
	_, err := client.ListConversations(context.Background(), ListParams{AgentID: "agent_a"})
	if err == nil {
		t.Fatal("expected error on 401")
	}
	if !containsAny(err.Error(), "invalid api key") {
		t.Errorf("error should include response body, got: %v", err)
	}
}
