package config

import (
	"fmt"
	"strings"
)

// Config holds runtime settings loaded from a file or built in code.
// The zero value is valid and leaves every feature disabled.
type Config struct {
	// QueueCapacity pre-allocates the deferred operation queue.
	// 0 grows on demand.
	QueueCapacity int `yaml:"queue_capacity" json:"queue_capacity"`

	// QueueWarnDepth logs a warning when the deferred queue grows beyond
	// this many entries. 0 disables the warning.
	QueueWarnDepth int `yaml:"queue_warn_depth" json:"queue_warn_depth"`

	// LogLevel enables structured logging at the given level
	// (debug, info, warn, error). Empty disables logging.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Metrics enables OpenTelemetry metrics.
	Metrics bool `yaml:"metrics" json:"metrics"`

	// Tracing enables OpenTelemetry tracing of dispatch rounds.
	Tracing bool `yaml:"tracing" json:"tracing"`

	// Diagnostics enables the incident journal.
	Diagnostics bool `yaml:"diagnostics" json:"diagnostics"`

	// JournalPath is the SQLite file backing the incident journal.
	// Empty keeps the journal in memory. Ignored unless Diagnostics is set.
	JournalPath string `yaml:"journal_path" json:"journal_path"`
}

// Default returns a configuration suitable for development: info-level
// logging and an in-memory incident journal, everything else off.
func Default() Config {
	return Config{
		LogLevel:    "info",
		Diagnostics: true,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if c.QueueCapacity < 0 {
		return fmt.Errorf("queue_capacity must be non-negative, got %d", c.QueueCapacity)
	}
	if c.QueueWarnDepth < 0 {
		return fmt.Errorf("queue_warn_depth must be non-negative, got %d", c.QueueWarnDepth)
	}
	if c.LogLevel != "" {
		switch strings.ToLower(c.LogLevel) {
		case "debug", "info", "warn", "warning", "error":
		default:
			return fmt.Errorf("unknown log_level: %q", c.LogLevel)
		}
	}
	if c.JournalPath != "" && !c.Diagnostics {
		return fmt.Errorf("journal_path set but diagnostics disabled")
	}
	return nil
}
