package config

import "github.com/replenix/replenix/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.New("server.port cannot be 0 (omit for default port 8780)")
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	if c.Pipeline.EventBuffer <= 0 {
		return errors.Newf("pipeline.event_buffer must be > 0, got %d", c.Pipeline.EventBuffer)
	}
	if c.Pipeline.RunTimeoutSeconds <= 0 {
		return errors.Newf("pipeline.run_timeout_seconds must be > 0, got %d", c.Pipeline.RunTimeoutSeconds)
	}
	// Safety margin of 0 is valid (no buffer over lead-time demand)
	if c.Pipeline.SafetyMargin < 0 {
		return errors.Newf("pipeline.safety_margin must be >= 0, got %f", c.Pipeline.SafetyMargin)
	}

	if c.Inference.BaseURL == "" {
		return errors.New("inference.base_url cannot be empty")
	}
	if c.Inference.Model == "" {
		return errors.New("inference.model cannot be empty")
	}
	if c.Inference.TimeoutSeconds <= 0 {
		return errors.Newf("inference.timeout_seconds must be > 0, got %d", c.Inference.TimeoutSeconds)
	}

	if c.Retrieval.MaxSnippets < 0 {
		return errors.Newf("retrieval.max_snippets must be >= 0, got %d", c.Retrieval.MaxSnippets)
	}

	return nil
}

// ServerPort returns the configured port, or the default when unset
func (c *Config) ServerPort() int {
	if c.Server.Port != nil {
		return *c.Server.Port
	}
	return DefaultServerPort
}
