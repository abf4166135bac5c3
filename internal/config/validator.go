package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid wraps every error returned by Validate.
var ErrInvalid = errors.New("config validation errors")

// Validate checks the config for:
//   - Required fields
//   - Positive engine limits, and a node limit the label alphabet can reach
//   - Known log level and format
func Validate(cfg *Config) error {
	if cfg.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalid)
	}
	var errs []string

	e := cfg.Engine
	if e.RunWorkers < 1 {
		errs = append(errs, fmt.Sprintf("engine.run_workers must be at least 1, got %d", e.RunWorkers))
	}
	if e.QueueDepth < 1 {
		errs = append(errs, fmt.Sprintf("engine.queue_depth must be at least 1, got %d", e.QueueDepth))
	}
	if e.RunTimeoutMs < 1 {
		errs = append(errs, fmt.Sprintf("engine.run_timeout_ms must be positive, got %d", e.RunTimeoutMs))
	}
	if e.ResultCapacity < 1 {
		errs = append(errs, fmt.Sprintf("engine.result_capacity must be at least 1, got %d", e.ResultCapacity))
	}
	if e.MaxNodes < 1 || e.MaxNodes > MaxLabels {
		errs = append(errs, fmt.Sprintf("engine.max_nodes must be between 1 and %d, got %d", MaxLabels, e.MaxNodes))
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level))
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is not one of text, json", cfg.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}
