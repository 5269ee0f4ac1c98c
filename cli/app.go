package cli

import (
	"fmt"

	"go.uber.org/zap"

	"predictdemo/config"
	"predictdemo/logging"
	"predictdemo/workflow"
)

// app holds the components shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	catalogue *workflow.Catalogue
	cache     *workflow.ModelCache
	service   *workflow.Service
}

func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	catalogue, err := cfg.Catalogue()
	if err != nil {
		return nil, err
	}
	cache, err := workflow.NewModelCache(cfg.Cache.Size, logger.Named("cache"))
	if err != nil {
		return nil, fmt.Errorf("failed to create model cache: %w", err)
	}
	return &app{
		cfg:       cfg,
		logger:    logger,
		catalogue: catalogue,
		cache:     cache,
		service:   workflow.NewService(cache, cfg.DataDir, logger.Named("workflow")),
	}, nil
}

func (a *app) Close() error {
	err := a.cache.Close()
	_ = a.logger.Sync()
	return err
}
