package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultPort           = 8080
	defaultCookieName     = "token"
	defaultViewCookieName = "dashboard_view"
	defaultRotatedHeader  = "X-Refreshed-Token"
	defaultLoginPath      = "/login"
	defaultRegisterPath   = "/register"
	defaultViewTTL        = 30 * time.Minute
	defaultRequestTimeout = 15 * time.Second
	defaultAllowedOrigin  = "*"
)

// Config holds environment-driven settings for the dashboard service.
type Config struct {
	Env                string
	Port               int
	BackendURL         string
	DatabaseURL        string
	CookieName         string
	ViewCookieName     string
	RotatedTokenHeader string
	LoginPath          string
	RegisterPath       string
	RedirectOnError    bool
	ViewTTL            time.Duration
	RequestTimeout     time.Duration
	AllowedOrigin      string
	LogLevel           string
	LogFormat          string
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Env:                envOr("APP_ENV", "development"),
		Port:               defaultPort,
		CookieName:         envOr("SESSION_COOKIE", defaultCookieName),
		ViewCookieName:     envOr("VIEW_COOKIE", defaultViewCookieName),
		RotatedTokenHeader: envOr("ROTATED_TOKEN_HEADER", defaultRotatedHeader),
		LoginPath:          envOr("LOGIN_PATH", defaultLoginPath),
		RegisterPath:       envOr("REGISTER_PATH", defaultRegisterPath),
		RedirectOnError:    true,
		ViewTTL:            defaultViewTTL,
		RequestTimeout:     defaultRequestTimeout,
		AllowedOrigin:      envOr("ALLOWED_ORIGIN", defaultAllowedOrigin),
		LogLevel:           envOr("LOG_LEVEL", "info"),
		LogFormat:          envOr("LOG_FORMAT", "json"),
	}

	cfg.BackendURL = strings.TrimSpace(os.Getenv("BACKEND_URL"))
	if cfg.BackendURL == "" {
		return cfg, eris.New("BACKEND_URL is required")
	}

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	if portStr := os.Getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	}

	if v := strings.TrimSpace(os.Getenv("REDIRECT_ON_ERROR")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid REDIRECT_ON_ERROR: %s", v)
		}
		cfg.RedirectOnError = b
	}

	if v := strings.TrimSpace(os.Getenv("VIEW_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid VIEW_TTL: %w", err)
		}
		cfg.ViewTTL = d
	}

	if v := strings.TrimSpace(os.Getenv("REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid REQUEST_TIMEOUT: %s", v)
		}
		cfg.RequestTimeout = d
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Production reports whether cookies must be Secure and SameSite=Strict.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// InitLogger initializes the global zap logger.
func InitLogger(level, format string) error {
	var zapCfg zap.Config
	if format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(lvl)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
