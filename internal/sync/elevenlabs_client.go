// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/callscope/internal/config"
	"github.com/tomtom215/callscope/internal/logging"
	"github.com/tomtom215/callscope/internal/metrics"
)

// maxErrorBodySize limits how much of an error response body is read
// for diagnostics. Prevents unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// readBodyForError reads the response body for error reporting (max 64KB).
// Returns the body content or a placeholder message if reading fails.
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// ProviderClient is the provider API surface the sync engine depends
// on. Implemented by ElevenLabsClient for production and by mocks in
// tests.
type ProviderClient interface {
	// FetchAllConversations drains every page of the conversation list
	// for an agent, optionally bounded to a start-time window.
	FetchAllConversations(ctx context.Context, agentID string, startAfter, startBefore *int64) ([]ConversationSummary, error)

	// GetConversationDetail returns the raw detail document for one
	// conversation. The payload shape varies by telephony integration,
	// so it is returned as opaque JSON.
	GetConversationDetail(ctx context.Context, conversationID string) ([]byte, error)
}

// ConversationSummary is one entry from the provider's conversation
// list endpoint.
type ConversationSummary struct {
	ConversationID    string   `json:"conversation_id"`
	AgentID           string   `json:"agent_id"`
	AgentName         string   `json:"agent_name"`
	Status            string   `json:"status"`
	CallSuccessful    string   `json:"call_successful"`
	StartTimeUnix     int64    `json:"start_time_unix_secs"`
	CallDurationSecs  int      `json:"call_duration_secs"`
	MessageCount      int      `json:"message_count"`
	TranscriptSummary *string  `json:"transcript_summary"`
	CallSummaryTitle  *string  `json:"call_summary_title"`
	MainLanguage      *string  `json:"main_language"`
	Direction         *string  `json:"direction"`
	Rating            *float64 `json:"rating"`
	ToolNames         []string `json:"tool_names"`
	InitiationSource  *string  `json:"conversation_initiation_source"`
}

// ConversationPage is one page of the conversation list.
type ConversationPage struct {
	Conversations []ConversationSummary `json:"conversations"`
	HasMore       bool                  `json:"has_more"`
	NextCursor    string                `json:"next_cursor"`
}

// ListParams narrows the conversation list request.
type ListParams struct {
	AgentID     string
	StartAfter  *int64
	StartBefore *int64
	Cursor      string
}

// ElevenLabsClient talks to the ElevenLabs Conversational AI API.
//
// All endpoints live under {base_url}/convai and authenticate with the
// xi-api-key header. HTTP 429 responses are retried with exponential
// backoff starting at sync.retry_delay and bounded by
// sync.retry_attempts, honoring a Retry-After header when the provider
// sends one.
//
// Thread safety: safe for concurrent use. Each request builds its own
// http.Request.
type ElevenLabsClient struct {
	baseURL        string
	apiKey         string
	pageSize       int
	pageDelay      time.Duration
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewElevenLabsClient creates a provider client. The API key is passed
// separately from the config because manual sync requests may carry
// their own credentials. A nil syncCfg falls back to the default retry
// policy of 5 attempts starting at 1s.
func NewElevenLabsClient(cfg *config.ElevenLabsConfig, syncCfg *config.SyncConfig, apiKey string) *ElevenLabsClient {
	maxRetries := 5
	retryBaseDelay := 1 * time.Second
	if syncCfg != nil {
		maxRetries = syncCfg.RetryAttempts
		if syncCfg.RetryDelay > 0 {
			retryBaseDelay = syncCfg.RetryDelay
		}
	}

	return &ElevenLabsClient{
		baseURL:   cfg.BaseURL,
		apiKey:    apiKey,
		pageSize:  cfg.PageSize,
		pageDelay: cfg.PageDelay,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
	}
}

// doRequestWithRateLimit performs a GET with automatic HTTP 429
// handling. The context cancels both the request and backoff waits.
func (c *ElevenLabsClient) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("xi-api-key", c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		metrics.ProviderRateLimited.Inc()
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))

		// Retry-After is seconds per RFC 6585.
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		logging.Warn().
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Provider rate limited, backing off")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// get performs a GET against a convai endpoint and decodes the JSON
// response into result when it is non-nil, otherwise returns the raw
// body. The endpoint label keeps metrics cardinality bounded when the
// path contains a conversation id.
func (c *ElevenLabsClient) get(ctx context.Context, endpoint, path string, params url.Values, result interface{}) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/convai%s", c.baseURL, path)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		metrics.RecordProviderRequest(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("failed to request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest(endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	return body, nil
}

// ListConversations fetches one page of the conversation list.
func (c *ElevenLabsClient) ListConversations(ctx context.Context, p ListParams) (*ConversationPage, error) {
	params := url.Values{}
	params.Set("agent_id", p.AgentID)
	params.Set("page_size", strconv.Itoa(c.pageSize))
	params.Set("summary_mode", "include")
	if p.StartAfter != nil && *p.StartAfter > 0 {
		params.Set("call_start_after_unix", strconv.FormatInt(*p.StartAfter, 10))
	}
	if p.StartBefore != nil && *p.StartBefore > 0 {
		params.Set("call_start_before_unix", strconv.FormatInt(*p.StartBefore, 10))
	}
	if p.Cursor != "" {
		params.Set("cursor", p.Cursor)
	}

	page := &ConversationPage{}
	if _, err := c.get(ctx, "/conversations", "/conversations", params, page); err != nil {
		return nil, err
	}
	return page, nil
}

// GetConversationDetail fetches the raw detail document for one
// conversation.
func (c *ElevenLabsClient) GetConversationDetail(ctx context.Context, conversationID string) ([]byte, error) {
	return c.get(ctx, "/conversations/{id}", "/conversations/"+url.PathEscape(conversationID), nil, nil)
}

// FetchAllConversations drains every page for an agent, pausing
// between pages to stay under the provider rate limit.
func (c *ElevenLabsClient) FetchAllConversations(ctx context.Context, agentID string, startAfter, startBefore *int64) ([]ConversationSummary, error) {
	var all []ConversationSummary
	cursor := ""

	for {
		page, err := c.ListConversations(ctx, ListParams{
			AgentID:     agentID,
			StartAfter:  startAfter,
			StartBefore: startBefore,
			Cursor:      cursor,
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page.Conversations...)
		logging.Debug().
			Str("agent_id", agentID).
			Int("page_count", len(page.Conversations)).
			Int("total", len(all)).
			Msg("Fetched conversation page")

		if !page.HasMore || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor

		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return all, nil
}
