package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tempo/internal/config"
	"tempo/internal/logging"
)

type commandContext struct {
	configPath string
	logLevel   string

	configOnce   sync.Once
	config       *config.Config
	configFile   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

func (c *commandContext) ensureConfig() error {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if level := strings.TrimSpace(c.logLevel); level != "" {
			cfg.Logging.Level = level
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configFile = path
		c.configExists = exists
	})
	return c.configErr
}

func (c *commandContext) configValue() (*config.Config, error) {
	if err := c.ensureConfig(); err != nil {
		return nil, err
	}
	return c.config, nil
}

// loggerValue lazily builds the logger so commands that only print tables
// never touch the log directory.
func (c *commandContext) loggerValue() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.configValue()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	if c.loggerErr != nil {
		return nil, c.loggerErr
	}
	return c.logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
