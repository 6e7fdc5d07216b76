/*
Package config loads and validates dispatchkit runtime settings.

# Overview

config defines a typed Config struct covering queue sizing, structured
logging, OpenTelemetry metrics and tracing, and the incident journal. The
zero value is valid and leaves every feature disabled; Default() returns a
development-friendly starting point.

# Basic Usage

Build a Config in code:

	cfg := config.Config{
	    LogLevel:    "debug",
	    Metrics:     true,
	    Diagnostics: true,
	    JournalPath: "./incidents.db",
	}
	if err := cfg.Validate(); err != nil {
	    log.Fatal(err)
	}

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("dispatchkit.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

A YAML file looks like:

	log_level: info
	metrics: true
	tracing: false
	diagnostics: true
	journal_path: ./incidents.db
	queue_warn_depth: 1024

# Validation

Validate rejects negative queue sizes, unknown log levels, and a journal
path without diagnostics enabled. Loading does not validate; call Validate
(or hand the Config to dispatchkit.FromConfig, which does) before use.
*/
package config
