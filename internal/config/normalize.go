package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizePipeline()
	c.normalizeCollect()
	c.normalizeStore()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.Catalog) == "" {
		c.Paths.Catalog = defaultCatalog
	}
	if c.Paths.Catalog, err = expandPath(c.Paths.Catalog); err != nil {
		return fmt.Errorf("paths.catalog: %w", err)
	}
	return nil
}

func (c *Config) normalizePipeline() {
	counters := make([]string, 0, len(c.Pipeline.Counters))
	for _, counter := range c.Pipeline.Counters {
		trimmed := strings.ToLower(strings.TrimSpace(counter))
		if trimmed == "" {
			continue
		}
		counters = append(counters, trimmed)
	}
	if len(counters) == 0 {
		counters = defaultCounters()
	}
	c.Pipeline.Counters = counters
}

func (c *Config) normalizeCollect() {
	c.Collect.Timezone = strings.TrimSpace(c.Collect.Timezone)
	if c.Collect.Timezone == "" {
		c.Collect.Timezone = defaultTimezone
	}
	c.Collect.UserAgent = strings.TrimSpace(c.Collect.UserAgent)
	if c.Collect.UserAgent == "" {
		c.Collect.UserAgent = defaultUserAgent
	}
	if c.Collect.TimeoutSeconds <= 0 {
		c.Collect.TimeoutSeconds = defaultCollectTimeout
	}
	if c.Collect.Retries < 0 {
		c.Collect.Retries = 0
	}
	if c.Collect.RetryBackoffSeconds <= 0 {
		c.Collect.RetryBackoffSeconds = defaultCollectRetryBackoff
	}
	c.Collect.Schedule = strings.TrimSpace(c.Collect.Schedule)
	if c.Collect.Schedule == "" {
		c.Collect.Schedule = defaultSchedule
	}
}

func (c *Config) normalizeStore() {
	if c.Store.HistoryLimit < 0 {
		c.Store.HistoryLimit = 0
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("TEMPO_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = value
		}
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Notifications.NtfyServer = strings.TrimSpace(c.Notifications.NtfyServer)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
