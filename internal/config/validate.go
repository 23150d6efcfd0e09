package config

import (
	"errors"
	"fmt"
	"time"
)

// Counter names become CSV headers and database columns, so the accepted
// charset stays conservative.
func validCounterName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return false
		}
	}
	return true
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCollect(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.Counters) == 0 {
		return errors.New("pipeline.counters must include at least one counter")
	}
	seen := make(map[string]struct{}, len(c.Pipeline.Counters))
	for _, counter := range c.Pipeline.Counters {
		if !validCounterName(counter) {
			return fmt.Errorf("pipeline.counters: %q must contain only lowercase letters, digits, and underscores", counter)
		}
		if _, dup := seen[counter]; dup {
			return fmt.Errorf("pipeline.counters: %q listed more than once", counter)
		}
		seen[counter] = struct{}{}
	}
	return nil
}

func (c *Config) validateCollect() error {
	if _, err := time.LoadLocation(c.Collect.Timezone); err != nil {
		return fmt.Errorf("collect.timezone: unknown timezone %q", c.Collect.Timezone)
	}
	if c.Collect.TimeoutSeconds <= 0 {
		return errors.New("collect.timeout_seconds must be positive")
	}
	if c.Collect.Retries < 0 {
		return errors.New("collect.retries must be >= 0")
	}
	if c.Collect.RetryBackoffSeconds <= 0 {
		return errors.New("collect.retry_backoff_seconds must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
