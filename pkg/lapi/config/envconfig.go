package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/quatton/libra/pkg/db"
	"github.com/quatton/libra/pkg/kv"
	"github.com/quatton/libra/pkg/lapi/utils"
)

type EnvConfig struct {
	Port            string `envconfig:"PORT" default:"8000"`
	BaseURL         string `envconfig:"BASE_URL" default:"http://localhost:8000"`
	AuthSecret      string `envconfig:"AUTH_SECRET" required:"true"`
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	AccessTokenTTL  int    `envconfig:"ACCESS_TOKEN_TTL" default:"1800"`     // 30 minutes
	RefreshTokenTTL int    `envconfig:"REFRESH_TOKEN_TTL" default:"604800"` // 7 days
	DBHost          string `envconfig:"DB_HOST" default:"localhost"`
	DBPort          int    `envconfig:"DB_PORT" default:"5432"`
	DBUser          string `envconfig:"DB_USER" default:"libra"`
	DBPassword      string `envconfig:"DB_PASSWORD" default:"password"`
	DBName          string `envconfig:"DB_NAME" default:"libra"`
	DBSSLMode       string `envconfig:"DB_SSLMODE" default:"disable"`
	InMemory        bool   `envconfig:"IN_MEMORY" default:"false"`

	// An empty REDIS_ADDR keeps the revocation list in process memory.
	RedisURL      string `envconfig:"REDIS_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	LoginRatePerMinute int `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	LoginBurst         int `envconfig:"LOGIN_BURST" default:"5"`

	BootstrapLibrarianUsername string `envconfig:"BOOTSTRAP_LIBRARIAN_USERNAME"`
	BootstrapLibrarianPassword string `envconfig:"BOOTSTRAP_LIBRARIAN_PASSWORD"`
	BootstrapLibrarianEmail    string `envconfig:"BOOTSTRAP_LIBRARIAN_EMAIL"`
}

func ValidateEnv() (*EnvConfig, error) {
	if utils.IsDev() {
		if err := godotenv.Load(); err != nil {
			log.Println("ℹ No .env file found")
		} else {
			log.Println("✓ Loaded .env file")
		}
	}

	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once rather than the first one.
func (c *EnvConfig) Validate() error {
	var errors []string

	if len(c.AuthSecret) < 32 {
		errors = append(errors, "  ❌ AUTH_SECRET must be at least 32 characters")
	}

	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		errors = append(errors, "  ❌ BASE_URL must be a valid URL")
	}

	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		errors = append(errors, "  ❌ ACCESS_TOKEN_TTL and REFRESH_TOKEN_TTL must be positive")
	} else if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errors = append(errors, "  ❌ REFRESH_TOKEN_TTL must be longer than ACCESS_TOKEN_TTL")
	}

	if c.BootstrapLibrarianUsername != "" && (c.BootstrapLibrarianPassword == "" || c.BootstrapLibrarianEmail == "") {
		errors = append(errors, "  ❌ BOOTSTRAP_LIBRARIAN_PASSWORD and BOOTSTRAP_LIBRARIAN_EMAIL are required when BOOTSTRAP_LIBRARIAN_USERNAME is set")
	}

	if len(errors) > 0 {
		return fmt.Errorf("environment validation failed:\n%s", strings.Join(errors, "\n"))
	}
	return nil
}

func (c *EnvConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessTokenTTL) * time.Second
}

func (c *EnvConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTL) * time.Second
}

func (c *EnvConfig) DB() db.Config {
	return db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
		SSLMode:  c.DBSSLMode,
	}
}

// Store selects the backend for the revocation list.
func (c *EnvConfig) Store() kv.Options {
	if c.RedisAddr == "" && c.RedisURL == "" {
		return kv.Options{Backend: kv.BackendMemory, Namespace: "libra"}
	}
	return kv.Options{
		Backend: kv.BackendRedis,
		Valkey: kv.ValkeyConfig{
			URL:      c.RedisURL,
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		},
		Namespace: "libra",
	}
}

func MaskSecret(secret string) string {
	if secret == "" {
		return "<not set>"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

func (c *EnvConfig) Print(fmtr func(string, ...interface{})) {
	fmtr("📋 Configuration:\n")
	fmtr("  Environment: %s\n", c.Environment)
	fmtr("  Port: %s\n", c.Port)
	fmtr("  Base URL: %s\n", c.BaseURL)
	fmtr("  Auth Secret: %s\n", MaskSecret(c.AuthSecret))
	if c.InMemory {
		fmtr("  Database: in-memory\n")
	} else {
		fmtr("  Database: %s@%s:%d/%s (sslmode=%s)\n", c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
	}
	fmtr("  Access TTL: %ds\n", c.AccessTokenTTL)
	fmtr("  Refresh TTL: %ds\n", c.RefreshTokenTTL)

	if c.RedisURL != "" {
		fmtr("  Revocation store: redis url %s\n", MaskSecret(c.RedisURL))
	} else if c.RedisAddr != "" {
		fmtr("  Revocation store: redis %s (db %d, password %s)\n", c.RedisAddr, c.RedisDB, MaskSecret(c.RedisPassword))
	} else {
		fmtr("  Revocation store: in-memory\n")
	}

	if c.LoginRatePerMinute > 0 {
		fmtr("  Login throttle: %d/min (burst %d)\n", c.LoginRatePerMinute, c.LoginBurst)
	} else {
		fmtr("  Login throttle: ✗ Disabled\n")
	}

	if c.BootstrapLibrarianUsername != "" {
		fmtr("  Bootstrap librarian: ✓ %s\n", c.BootstrapLibrarianUsername)
	}
}
