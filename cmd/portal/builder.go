package main

import (
	"fmt"
	"os"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/interfaces/cli"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

func build(configPath string) (*cli.App, error) {
	if configPath == "" {
		configPath = os.Getenv("PORTAL_CONFIG")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)

	app, err := cli.NewApp(cfg, log)
	if err != nil {
		return nil, err
	}

	closeApp := app.Close
	app.Close = func() error {
		err := closeApp()
		_ = log.Sync()
		return err
	}
	return app, nil
}

// initLogger writes to stderr so logs never mix with command output.
func initLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
		Output:      os.Stderr,
	})
}
