package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"catalogd/internal/config"
	"catalogd/internal/daemon"
	"catalogd/internal/extraction"
	"catalogd/internal/fuse"
	"catalogd/internal/logging"
	"catalogd/internal/match"
	"catalogd/internal/notifications"
	"catalogd/internal/pipeline"
	"catalogd/internal/review"
	"catalogd/internal/services/llm"
	"catalogd/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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

// stack bundles the wired pipeline for command execution.
type stack struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	queue    *review.Queue
	manager  *pipeline.Manager
	notifier notifications.Service
	daemon   *daemon.Daemon
}

// openStack builds the full pipeline from configuration. Callers own Close.
func (c *commandContext) openStack() (*stack, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
	})

	queue := review.NewQueue(st, logger)
	notifier := notifications.NewService(cfg)
	manager := pipeline.NewManager(
		st,
		extraction.NewCollaborators(client),
		match.NewEngine(st, cfg, logger),
		fuse.NewEngine(st, logger),
		queue,
		notifier,
		logger,
	)

	d, err := daemon.New(cfg, manager, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &stack{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		queue:    queue,
		manager:  manager,
		notifier: notifier,
		daemon:   d,
	}, nil
}

func (s *stack) Close() {
	if s == nil {
		return
	}
	s.manager.Wait()
	_ = s.store.Close()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
