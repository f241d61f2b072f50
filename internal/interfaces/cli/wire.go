package cli

import (
	"context"
	"fmt"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/internal/domain/token"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/cache/redis"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/httpclient"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/persistence/tokenstore"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

const renderWidth = 72

// NewApp wires the session stack from configuration.
func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	store, err := OpenTokenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	var session *services.SessionService
	client := httpclient.New(httpclient.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, httpclient.TokenSourceFunc(func(ctx context.Context) (string, error) {
		return session.AccessToken(ctx)
	}), log)
	api := httpclient.NewAuthAPI(client)

	session = services.NewSessionService(api, store, log,
		services.WithRefreshLeeway(cfg.Session.RefreshLeeway),
	)
	notifications := services.NewNotificationService(services.RealClock,
		cfg.Notifications.DefaultDuration,
		cfg.Notifications.ErrorDuration,
		log,
	)

	return &App{
		Session:       session,
		Notifications: notifications,
		Health:        api,
		Renderer:      NewRenderer(renderWidth),
		Close: func() error {
			session.Invalidate()
			notifications.Close()
			return store.Close()
		},
	}, nil
}

// OpenTokenStore opens the store named by storage.driver.
func OpenTokenStore(cfg *config.Config, log logger.Logger) (token.Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		return tokenstore.NewMemory(), nil
	case "sqlite":
		store, err := tokenstore.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open token store: %w", err)
		}
		log.Debug("token store opened",
			logger.Component("storage"),
			logger.String("driver", "sqlite"),
			logger.String("path", cfg.Storage.SQLitePath),
		)
		return store, nil
	case "redis":
		client, err := redis.NewClient(&cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Debug("token store opened",
			logger.Component("storage"),
			logger.String("driver", "redis"),
			logger.String("addr", cfg.Redis.RedisAddr()),
		)
		return redis.NewTokenStore(client, cfg.Storage.Namespace), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
