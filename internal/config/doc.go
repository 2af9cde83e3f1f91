// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

/*
Package config provides centralized configuration management for Callscope.

Configuration is loaded once at startup with Koanf v2 from three layered
sources, later layers overriding earlier ones:

 1. Built-in defaults
 2. An optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

# Environment Variables

Provider (ElevenLabsConfig):
  - ELEVENLABS_BASE_URL: API root (default: https://api.elevenlabs.io/v1)
  - ELEVENLABS_API_KEY: API key sent in the xi-api-key header
  - ELEVENLABS_AGENTS: comma-separated agents, "id" or "id:display name"
  - ELEVENLABS_PAGE_SIZE: list page size, 1-100 (default: 100)
  - ELEVENLABS_PAGE_DELAY: delay between list pages (default: 200ms)
  - ELEVENLABS_TIMEOUT: per-request HTTP timeout (default: 30s)

Database (DatabaseConfig):
  - DUCKDB_PATH: database file path (default: /data/callscope.duckdb)
  - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
  - DUCKDB_THREADS: thread count, 0 = CPU count

Sync (SyncConfig):
  - SYNC_INTERVAL: scheduler period for incremental syncs (default: 24h)
  - SYNC_DETAIL_PAUSE: pacing between detail fetches (default: 150ms)
  - SYNC_RETRY_ATTEMPTS: HTTP 429 retry budget (default: 5)
  - SYNC_RETRY_DELAY: initial backoff delay (default: 1s)

Archive (ArchiveConfig):
  - ARCHIVE_ENABLED: enable monthly CSV archival (default: true)
  - ARCHIVE_DIR: archive output directory (default: /data/archives)
  - ARCHIVE_CHECK_INTERVAL: archive check period (default: 12h)

Server (ServerConfig):
  - HTTP_PORT, HTTP_HOST, HTTP_TIMEOUT
  - ENVIRONMENT: development or production
  - CORS_ORIGINS: comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

API pagination (APIConfig):
  - API_DEFAULT_PAGE_SIZE, API_MAX_PAGE_SIZE

Logging (LoggingConfig):
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatalf("failed to load config: %v", err)
	}
	fmt.Printf("listening on %s:%d\n", cfg.Server.Host, cfg.Server.Port)

# Validation

Validate runs automatically inside LoadWithKoanf and rejects invalid
ports, page sizes, durations, duplicate agent ids, and wildcard CORS
origins in production. An empty API key is allowed at startup; the sync
engine rejects sync requests without credentials.

# Thread Safety

The Config struct is immutable after LoadWithKoanf returns, making it
safe for concurrent reads without synchronization.
*/
package config
