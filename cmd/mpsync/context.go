package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"mpsync/internal/config"
	"mpsync/internal/logging"
	"mpsync/internal/reconcile"
	"mpsync/internal/services/fpcalc"
	"mpsync/internal/services/ytdlp"
)

// collaboratorFactory builds the external tool adapters for a run.
type collaboratorFactory func(cfg *config.Config) (reconcile.Collaborators, error)

type commandContext struct {
	configFlag    *string
	collaborators collaboratorFactory

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, factory collaboratorFactory) *commandContext {
	if factory == nil {
		factory = defaultCollaborators
	}
	return &commandContext{
		configFlag:    configFlag,
		collaborators: factory,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configFlagValue() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// newCommandLogger builds a logger that writes to the command's stderr and the
// rotating log file. trace forces debug level.
func newCommandLogger(cmd *cobra.Command, cfg *config.Config, trace bool) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if trace {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:      level,
		Format:     cfg.Logging.Format,
		Console:    cmd.ErrOrStderr(),
		FilePath:   cfg.LogPath(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.RetentionDays,
	})
}

func defaultCollaborators(cfg *config.Config) (reconcile.Collaborators, error) {
	fingerprinter, err := fpcalc.New(cfg.Tools.FpcalcBinary, cfg.FingerprintTimeout())
	if err != nil {
		return reconcile.Collaborators{}, err
	}
	client, err := ytdlp.New(ytdlp.SettingsFromConfig(cfg))
	if err != nil {
		return reconcile.Collaborators{}, err
	}
	return reconcile.Collaborators{
		Fingerprinter: fingerprinter,
		Downloader:    client,
		Resolver:      client,
	}, nil
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
