package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWorkers(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	return c.validateEligibility()
}

func (c *Config) validateWorkers() error {
	if c.Workers.Count < 1 {
		return errors.New("workers.count must be positive")
	}
	if c.Workers.TimeoutSeconds < 1 {
		return errors.New("workers.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateConvert() error {
	switch c.Convert.Metadata {
	case "retain", "drop", "drop-only":
	default:
		return fmt.Errorf("convert.metadata: unsupported value %q (want retain, drop, or drop-only)", c.Convert.Metadata)
	}
	switch c.Convert.Placement {
	case "keep", "replace":
	default:
		return fmt.Errorf("convert.placement: unsupported value %q (want keep or replace)", c.Convert.Placement)
	}
	switch c.Convert.OnConflict {
	case "", "skip", "convert", "prompt":
	default:
		return fmt.Errorf("convert.on_conflict: unsupported value %q (want skip, convert, or prompt)", c.Convert.OnConflict)
	}
	return nil
}

func (c *Config) validateEligibility() error {
	for _, pattern := range c.Eligibility.ExcludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("eligibility.exclude_patterns: invalid glob %q", pattern)
		}
	}
	return nil
}
