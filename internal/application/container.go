package application

import (
	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/crypto"
	"github.com/dipanjanswapna/ongonbd/internal/infrastructure/persistence"
	"github.com/dipanjanswapna/ongonbd/pkg/jwt"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// Services holds the dev auth API services.
type Services struct {
	Accounts *services.AccountService
}

// Dependencies holds shared dependencies for services.
type Dependencies struct {
	Hasher     *crypto.Argon2Hasher
	TokenGen   *crypto.TokenGenerator
	JWTManager *jwt.Manager
	Mailer     services.Mailer
}

// NewDependencies creates shared dependencies from config.
func NewDependencies(cfg *config.Config, log logger.Logger) *Dependencies {
	return &Dependencies{
		Hasher: crypto.NewArgon2Hasher(crypto.Argon2Params{
			Memory:      cfg.Auth.Argon2Memory,
			Iterations:  cfg.Auth.Argon2Iterations,
			Parallelism: cfg.Auth.Argon2Parallelism,
			SaltLength:  cfg.Auth.Argon2SaltLength,
			KeyLength:   cfg.Auth.Argon2KeyLength,
		}),
		TokenGen:   crypto.NewTokenGenerator(),
		JWTManager: jwt.NewManager(cfg.JWT.Issuer, []byte(cfg.JWT.Secret)),
		Mailer:     services.LogMailer{Logger: log.With(logger.Component("mailer"))},
	}
}

// NewServices creates all application services.
func NewServices(repos *persistence.Repositories, deps *Dependencies, cfg *config.Config, log logger.Logger) *Services {
	return &Services{
		Accounts: services.NewAccountService(
			repos.Accounts,
			repos.Revocations,
			deps.Hasher,
			deps.TokenGen,
			deps.JWTManager,
			deps.Mailer,
			cfg,
			log,
		),
	}
}
