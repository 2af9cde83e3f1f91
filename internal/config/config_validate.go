// Callscope - Conversational AI Call Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callscope

package config

import (
	"fmt"
	"strings"
)

// validLogLevels are the accepted values for logging.level.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "warning": true, "error": true,
	"fatal": true, "panic": true, "disabled": true,
}

// Validate checks the configuration for internal consistency. It
// returns the first problem found; startup aborts on any error.
func (c *Config) Validate() error {
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateElevenLabs() error {
	el := &c.ElevenLabs

	if el.BaseURL == "" {
		return fmt.Errorf("elevenlabs.base_url must not be empty")
	}
	if !strings.HasPrefix(el.BaseURL, "http://") && !strings.HasPrefix(el.BaseURL, "https://") {
		return fmt.Errorf("elevenlabs.base_url must start with http:// or https://, got %q", el.BaseURL)
	}
	if el.PageSize < 1 || el.PageSize > 100 {
		return fmt.Errorf("elevenlabs.page_size must be between 1 and 100, got %d", el.PageSize)
	}
	if el.PageDelay < 0 {
		return fmt.Errorf("elevenlabs.page_delay must not be negative")
	}
	if el.Timeout <= 0 {
		return fmt.Errorf("elevenlabs.timeout must be positive")
	}

	seen := make(map[string]bool, len(el.Agents))
	for i, a := range el.Agents {
		if a.ID == "" {
			return fmt.Errorf("elevenlabs.agents[%d].id must not be empty", i)
		}
		if seen[a.ID] {
			return fmt.Errorf("elevenlabs.agents contains duplicate id %q", a.ID)
		}
		seen[a.ID] = true
	}

	// An API key is only required once a sync actually runs, so an
	// empty key is allowed here. The engine rejects sync requests
	// without credentials.
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}
	return nil
}

func (c *Config) validateSync() error {
	s := &c.Sync
	if s.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive")
	}
	if s.DetailPause < 0 {
		return fmt.Errorf("sync.detail_pause must not be negative")
	}
	if s.RetryAttempts < 0 {
		return fmt.Errorf("sync.retry_attempts must not be negative, got %d", s.RetryAttempts)
	}
	if s.RetryDelay <= 0 {
		return fmt.Errorf("sync.retry_delay must be positive")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Dir == "" {
		return fmt.Errorf("archive.dir must not be empty when archiving is enabled")
	}
	if c.Archive.CheckInterval <= 0 {
		return fmt.Errorf("archive.check_interval must be positive")
	}
	return nil
}

func (c *Config) validateServer() error {
	s := &c.Server
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	if s.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("server.rate_limit_reqs must be at least 1, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("server.rate_limit_window must be positive")
		}
	}
	if c.IsProduction() {
		// Wildcard CORS in production is almost always a deployment
		// mistake; fail loudly rather than serve wide open.
		for _, origin := range s.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("server.cors_origins must not contain %q in production", "*")
			}
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	a := &c.API
	if a.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", a.DefaultPageSize)
	}
	if a.MaxPageSize < a.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must be >= api.default_page_size (%d)",
			a.MaxPageSize, a.DefaultPageSize)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level %q is not a valid log level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
