package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application"
	"github.com/dipanjanswapna/ongonbd/internal/application/dto"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/cache/redis"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/persistence"
	apphttp "github.com/dipanjanswapna/ongonbd/internal/interfaces/http"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

func run() error {
	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "config file")
	useRedis := flag.Bool("redis", false, "keep revoked tokens in Redis")
	seedAdmin := flag.String("seed-admin", "", "create a verified admin with this email (password from SEED_ADMIN_PASSWORD)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting dev auth API...", logger.Component("main"))

	var redisClient *redis.Client
	if *useRedis {
		redisClient, err = redis.NewClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		defer redisClient.Close()
		log.Info("Connected to Redis",
			logger.Component("infrastructure"),
			logger.String("addr", cfg.Redis.RedisAddr()),
		)
	}

	repos := persistence.NewRepositories(redisClient)
	deps := application.NewDependencies(cfg, log)
	svcs := application.NewServices(repos, deps, cfg, log)

	if *seedAdmin != "" {
		if err := seed(ctx, svcs.Accounts, *seedAdmin, os.Getenv("SEED_ADMIN_PASSWORD")); err != nil {
			return err
		}
		log.Info("Admin account seeded", logger.Component("main"), logger.String("email", *seedAdmin))
	}

	server, router := newServer(cfg, svcs, redisClient, log)
	defer router.Close()
	return startServer(server, log)
}

func initLogger(cfg *config.Config) (logger.Logger, error) {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: cfg.Logging.Environment,
	})
}

func seed(ctx context.Context, accounts *services.AccountService, email, password string) error {
	if password == "" {
		return fmt.Errorf("SEED_ADMIN_PASSWORD is required with -seed-admin")
	}
	_, err := accounts.Seed(ctx, dto.RegisterRequest{
		FirstName:       "Admin",
		LastName:        "User",
		Email:           email,
		Phone:           "0000000000",
		Password:        password,
		ConfirmPassword: password,
	}, services.RoleAdmin, services.RoleUser)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}

func newServer(
	cfg *config.Config,
	svcs *application.Services,
	redisClient *redis.Client,
	log logger.Logger,
) (*http.Server, *apphttp.Router) {
	routerDeps := &apphttp.RouterDeps{
		Accounts: svcs.Accounts,
		Logger:   log,
	}
	if redisClient != nil {
		routerDeps.RedisHealther = redisClient
	}

	router := apphttp.NewRouter(cfg, routerDeps)

	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, router
}

func startServer(server *http.Server, log logger.Logger) error {
	errChan := make(chan error, 1)
	go func() {
		log.Info("Server listening",
			logger.Component("server"),
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		log.Info("Shutting down server...",
			logger.Component("server"),
			logger.String("signal", sig.String()),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited", logger.Component("server"))
	return nil
}
