package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dipanjanswapna/ongonbd/config"
	"github.com/dipanjanswapna/ongonbd/internal/application/services"
	"github.com/dipanjanswapna/ongonbd/internal/interfaces/http/handlers"
	"github.com/dipanjanswapna/ongonbd/internal/interfaces/http/middleware"
	"github.com/dipanjanswapna/ongonbd/pkg/logger"
)

// Router wraps the Gin engine with application dependencies.
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	limiters []*middleware.RateLimiter
}

// RouterDeps contains dependencies needed by the router.
type RouterDeps struct {
	Accounts      *services.AccountService
	Logger        logger.Logger
	RedisHealther handlers.HealthChecker
}

// NewRouter creates and configures the HTTP router. Every endpoint lives
// under /api, mirroring the base URL the portal client is configured with.
func NewRouter(cfg *config.Config, deps *RouterDeps) *Router {
	gin.SetMode(gin.ReleaseMode)

	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.NewRequestLogger(log).Handler())

	authHandler := handlers.NewAuthHandler(deps.Accounts)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthChecker{
		"redis": deps.RedisHealther,
	})
	authMiddleware := middleware.NewAuthMiddleware(deps.Accounts)

	r := &Router{engine: engine, cfg: cfg}

	// Health endpoints (no rate limiting)
	engine.GET("/health", healthHandler.Health)
	engine.GET("/live", healthHandler.Live)

	if cfg.Security.RateLimitEnabled {
		global := middleware.NewRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
		r.limiters = append(r.limiters, global)
		engine.Use(global.Middleware())
	}

	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Health)

	// Auth endpoints with stricter rate limiting
	auth := api.Group("/auth")
	if cfg.Security.RateLimitEnabled {
		strict := middleware.NewAuthRateLimiter()
		r.limiters = append(r.limiters, strict)
		auth.Use(strict.Middleware())
	}
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-verification", authHandler.ResendVerification)
		auth.POST("/logout", authMiddleware.OptionalAuth(), authHandler.Logout)
	}

	// Protected endpoints (require authentication)
	protected := auth.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/me", authHandler.Me)
		protected.PUT("/profile", authHandler.UpdateProfile)
		protected.PUT("/change-password", authHandler.ChangePassword)
	}

	return r
}

// Engine returns the underlying Gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Close stops the rate limiter cleanup goroutines.
func (r *Router) Close() {
	for _, l := range r.limiters {
		l.Stop()
	}
}

// corsMiddleware creates a CORS middleware.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, o := range allowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
