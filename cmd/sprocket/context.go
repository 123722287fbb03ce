package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sprocket/internal/assetdb"
	"sprocket/internal/config"
	"sprocket/internal/logging"
)

type commandContext struct {
	configFlag *string
	indexFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, indexFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, indexFlag: indexFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		logger, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "sprocket.log")},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// openIndex loads the project index the ingest commands resolve entities
// against.
func (c *commandContext) openIndex() (assetdb.Reader, error) {
	if c.indexFlag == nil || strings.TrimSpace(*c.indexFlag) == "" {
		return nil, fmt.Errorf("a project index is required; pass --index <file.toml>")
	}
	return assetdb.LoadFile(strings.TrimSpace(*c.indexFlag))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
