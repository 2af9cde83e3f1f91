// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package config

import (
	"strings"
	"time"
)

// Config is the root configuration for Callscope. It is an immutable
// value object: loaded once at startup, validated, and passed by
// reference to the components that need it. Nothing mutates it after
// LoadWithKoanf returns.
type Config struct {
	ElevenLabs ElevenLabsConfig `koanf:"elevenlabs"`
	Database   DatabaseConfig   `koanf:"database"`
	Sync       SyncConfig       `koanf:"sync"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Server     ServerConfig     `koanf:"server"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// AgentConfig identifies one provider agent whose conversations are
// synced. Name is optional display metadata.
type AgentConfig struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
}

// ElevenLabsConfig holds provider API connection settings.
type ElevenLabsConfig struct {
	// BaseURL is the API root, without the /convai suffix.
	BaseURL string `koanf:"base_url"`

	// APIKey is sent in the xi-api-key header on every request.
	APIKey string `koanf:"api_key"`

	// Agents lists the agents to sync. Via environment this is a
	// comma-separated list of "id" or "id:display name" entries.
	Agents []AgentConfig `koanf:"agents"`

	// PageSize is the list-endpoint page size, capped at 100 by the
	// provider.
	PageSize int `koanf:"page_size"`

	// PageDelay is the pause between successive list pages.
	PageDelay time.Duration `koanf:"page_delay"`

	// Timeout bounds each individual HTTP request.
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`

	// Threads limits DuckDB worker threads; 0 uses runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// SyncConfig controls the sync engine and scheduler.
type SyncConfig struct {
	// Interval is the scheduler period for incremental syncs.
	Interval time.Duration `koanf:"interval"`

	// DetailPause is the pacing delay between per-conversation detail
	// fetches during enrichment.
	DetailPause time.Duration `koanf:"detail_pause"`

	// RetryAttempts bounds HTTP 429 retries per request.
	RetryAttempts int `koanf:"retry_attempts"`

	// RetryDelay is the initial backoff delay, doubled per attempt.
	RetryDelay time.Duration `koanf:"retry_delay"`
}

// ArchiveConfig controls monthly CSV archival.
type ArchiveConfig struct {
	Enabled bool `koanf:"enabled"`

	// Dir is the directory archive CSV files are written to.
	Dir string `koanf:"dir"`

	// CheckInterval is how often the scheduler looks for unarchived
	// previous-month partitions.
	CheckInterval time.Duration `koanf:"check_interval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port    int           `koanf:"port"`
	Host    string        `koanf:"host"`
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production".
	Environment string `koanf:"environment"`

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// APIConfig holds pagination bounds for list endpoints.
type APIConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

// LoggingConfig holds logging settings, mapped onto logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Agent returns the configured agent with the given id, or nil.
func (c *Config) Agent(id string) *AgentConfig {
	for i := range c.ElevenLabs.Agents {
		if c.ElevenLabs.Agents[i].ID == id {
			return &c.ElevenLabs.Agents[i]
		}
	}
	return nil
}

// ParseAgentList parses the comma-separated agent list accepted via
// the ELEVENLABS_AGENTS environment variable. Each entry is either an
// agent id or "id:display name". Empty entries are skipped.
func ParseAgentList(raw string) []AgentConfig {
	parts := strings.Split(raw, ",")
	agents := make([]AgentConfig, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, name, found := strings.Cut(p, ":")
		a := AgentConfig{ID: strings.TrimSpace(id)}
		if found {
			a.Name = strings.TrimSpace(name)
		}
		if a.ID != "" {
			agents = append(agents, a)
		}
	}
	return agents
}
