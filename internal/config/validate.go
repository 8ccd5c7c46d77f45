package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for invalid combinations. It is called
// by Load after normalization but is exported so tests and tools can verify
// hand-built configurations.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if c.Queue.InboundQueue == c.Queue.OutboundQueue {
		problems = append(problems, fmt.Sprintf("queue.inbound_queue and queue.outbound_queue must differ (both %q)", c.Queue.InboundQueue))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level))
	}
	if c.API.BaseURL != "" && c.API.TokenURL == "" {
		problems = append(problems, "api.token_url is required when api.base_url is set")
	}

	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}
