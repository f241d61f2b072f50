package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the portal client and the dev auth API.
type Config struct {
	API           APIConfig          `yaml:"api"`
	Storage       StorageConfig      `yaml:"storage"`
	Redis         RedisConfig        `yaml:"redis"`
	Session       SessionConfig      `yaml:"session"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Server        ServerConfig       `yaml:"server"`
	JWT           JWTConfig          `yaml:"jwt"`
	Auth          AuthConfig         `yaml:"auth"`
	Security      SecurityConfig     `yaml:"security"`
}

// APIConfig holds REST client configuration.
type APIConfig struct {
	// BaseURL is the API root, e.g. "http://localhost:5000/api"
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// StorageConfig selects where credential tokens are persisted.
type StorageConfig struct {
	// Driver is one of memory, sqlite, redis
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	// Namespace prefixes redis keys so several profiles can share a server
	Namespace string `yaml:"namespace"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	PoolSize     int    `yaml:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns"`
}

// SessionConfig holds session manager tuning.
type SessionConfig struct {
	// RefreshLeeway is how close to expiry an access token may get before
	// EnsureFreshToken refreshes it.
	RefreshLeeway time.Duration `yaml:"refresh_leeway"`
}

// NotificationConfig holds notification queue defaults.
type NotificationConfig struct {
	DefaultDuration time.Duration `yaml:"default_duration"`
	ErrorDuration   time.Duration `yaml:"error_duration"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Environment string `yaml:"environment"`
}

// ServerConfig holds HTTP server configuration for the dev auth API.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// JWTConfig holds JWT-related configuration for the dev auth API.
type JWTConfig struct {
	Secret          string        `yaml:"secret"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
}

// AuthConfig holds password hashing configuration.
type AuthConfig struct {
	// Argon2 parameters
	Argon2Memory      uint32 `yaml:"argon2_memory"`
	Argon2Iterations  uint32 `yaml:"argon2_iterations"`
	Argon2Parallelism uint8  `yaml:"argon2_parallelism"`
	Argon2SaltLength  uint32 `yaml:"argon2_salt_length"`
	Argon2KeyLength   uint32 `yaml:"argon2_key_length"`

	// AutoLoginOnRegister makes /auth/register return tokens
	AutoLoginOnRegister bool `yaml:"auto_login_on_register"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	RateLimitEnabled bool     `yaml:"rate_limit_enabled"`
	RateLimitRPS     int      `yaml:"rate_limit_rps"`
	RateLimitBurst   int      `yaml:"rate_limit_burst"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   "http://localhost:5000/api",
			Timeout:   30 * time.Second,
			UserAgent: "ongonbd-portal",
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: defaultSQLitePath(),
			Namespace:  "ongonbd",
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			PoolSize:     10,
			MinIdleConns: 2,
		},
		Session: SessionConfig{
			RefreshLeeway: 30 * time.Second,
		},
		Notifications: NotificationConfig{
			DefaultDuration: 5 * time.Second,
			ErrorDuration:   7 * time.Second,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		JWT: JWTConfig{
			Secret:          "jwt-secret-string",
			Issuer:          "ongonbd-devauth",
			AccessTokenTTL:  1 * time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
		},
		Auth: AuthConfig{
			// Argon2id recommended parameters (OWASP)
			Argon2Memory:        64 * 1024, // 64 MB
			Argon2Iterations:    3,
			Argon2Parallelism:   4,
			Argon2SaltLength:    16,
			Argon2KeyLength:     32,
			AutoLoginOnRegister: true,
		},
		Security: SecurityConfig{
			AllowedOrigins:   []string{"http://localhost:3000", "http://127.0.0.1:3000"},
			RateLimitEnabled: true,
			RateLimitRPS:     100,
			RateLimitBurst:   200,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and finally environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	switch c.Storage.Driver {
	case "memory", "redis":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Notifications.DefaultDuration < 0 || c.Notifications.ErrorDuration < 0 {
		return fmt.Errorf("notification durations must not be negative")
	}
	return nil
}

// RedisAddr returns host:port for the Redis client.
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the dev auth API listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Config) applyEnv() {
	c.API.BaseURL = getEnv("PORTAL_API_URL", c.API.BaseURL)
	c.API.Timeout = getEnvDuration("PORTAL_API_TIMEOUT", c.API.Timeout)

	c.Storage.Driver = getEnv("PORTAL_STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.SQLitePath = getEnv("PORTAL_SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.Namespace = getEnv("PORTAL_STORAGE_NAMESPACE", c.Storage.Namespace)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("REDIS_DB", c.Redis.DB)

	c.Session.RefreshLeeway = getEnvDuration("PORTAL_REFRESH_LEEWAY", c.Session.RefreshLeeway)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Environment = getEnv("LOG_ENVIRONMENT", c.Logging.Environment)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)

	c.JWT.Secret = getEnv("JWT_SECRET_KEY", c.JWT.Secret)
	c.JWT.Issuer = getEnv("JWT_ISSUER", c.JWT.Issuer)
	c.JWT.AccessTokenTTL = getEnvDuration("JWT_ACCESS_TOKEN_TTL", c.JWT.AccessTokenTTL)
	c.JWT.RefreshTokenTTL = getEnvDuration("JWT_REFRESH_TOKEN_TTL", c.JWT.RefreshTokenTTL)

	c.Auth.Argon2Memory = getEnvUint32("ARGON2_MEMORY", c.Auth.Argon2Memory)
	c.Auth.Argon2Iterations = getEnvUint32("ARGON2_ITERATIONS", c.Auth.Argon2Iterations)
	c.Auth.AutoLoginOnRegister = getEnvBool("AUTO_LOGIN_ON_REGISTER", c.Auth.AutoLoginOnRegister)

	c.Security.AllowedOrigins = getEnvSlice("ALLOWED_ORIGINS", c.Security.AllowedOrigins)
	c.Security.RateLimitEnabled = getEnvBool("RATE_LIMIT_ENABLED", c.Security.RateLimitEnabled)
	c.Security.RateLimitRPS = getEnvInt("RATE_LIMIT_RPS", c.Security.RateLimitRPS)
	c.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", c.Security.RateLimitBurst)
}

func defaultSQLitePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return filepath.Join(".ongonbd", "session.db")
	}
	return filepath.Join(dir, "ongonbd", "session.db")
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUint32(key string, defaultValue uint32) uint32 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint32(intValue)
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
