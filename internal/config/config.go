package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

// Session store names accepted by SESSION_STORE.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port    string
	Backend string

	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration

	SupabaseURL     string
	SupabaseAnonKey string

	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	CookieSecure bool
	CORSOrigins  []string

	LogLevel       string
	LogDevelopment bool
}

// Load reads configuration from the environment. Keys of a backend are only required when it is selected.
func Load() (Config, error) {
	cfg := Config{
		Port:            fallback(os.Getenv("PORT"), "8080"),
		Backend:         strings.ToLower(fallback(os.Getenv("BACKEND"), BackendPostgres)),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:       strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:       fallback(os.Getenv("JWT_ISSUER"), "agrilink"),
		JWTTTL:          minutes(os.Getenv("JWT_TTL_MINUTES"), 60),
		SupabaseURL:     strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseAnonKey: strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		SessionStore:    strings.ToLower(fallback(os.Getenv("SESSION_STORE"), SessionStoreMemory)),
		RedisAddr:       strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		SessionTTL:      minutes(os.Getenv("SESSION_TTL_MINUTES"), 60*24),
		CookieSecure:    parseBool(os.Getenv("COOKIE_SECURE"), false),
		CORSOrigins:     parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:        fallback(os.Getenv("LOG_LEVEL"), "info"),
		LogDevelopment:  parseBool(os.Getenv("LOG_DEVELOPMENT"), false),
	}

	if raw := strings.TrimSpace(os.Getenv("REDIS_DB")); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			return Config{}, fmt.Errorf("invalid REDIS_DB value %q", raw)
		}
		cfg.RedisDB = db
	}

	switch cfg.Backend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required")
		}
		if cfg.JWTSecret == "" {
			return Config{}, errors.New("JWT_SECRET is required")
		}
	case BackendSupabase:
		if cfg.SupabaseURL == "" {
			return Config{}, errors.New("SUPABASE_URL is required")
		}
		if cfg.SupabaseAnonKey == "" {
			return Config{}, errors.New("SUPABASE_ANON_KEY is required")
		}
	case BackendMemory:
	default:
		return Config{}, fmt.Errorf("unknown BACKEND %q", cfg.Backend)
	}

	switch cfg.SessionStore {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.RedisAddr == "" {
			return Config{}, errors.New("REDIS_ADDR is required")
		}
	default:
		return Config{}, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func minutes(value string, def int) time.Duration {
	if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
		return time.Duration(n) * time.Minute
	}
	return time.Duration(def) * time.Minute
}

func parseBool(value string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return b
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
