package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQL    = "sql"
)

// DefaultEnvFile is loaded when ENV_FILE is unset
const DefaultEnvFile = ".env"

// Config is the server configuration read from the environment
type Config struct {
	Env            string  `validate:"-"`
	Port           int     `validate:"min=1,max=65535"`
	TickHz         int     `validate:"min=1,max=1000"`
	TokenSecret    string  `validate:"required"`
	RequireKidAuth bool    `validate:"-"`
	MaxClients     int     `validate:"min=1"`
	StorageType    string  `validate:"oneof=memory redis sql"`
	RedisURL       string  `validate:"required_if=StorageType redis"`
	DatabaseURL    string  `validate:"required_if=StorageType sql"`
	DatabaseDriver string  `validate:"oneof=pgx sqlite3"`
	CatalogPath    string  `validate:"-"`
	InputRateLimit float64 `validate:"min=0"`
	LogLevel       slog.Level
}

// LookupFunc reads a single environment variable
type LookupFunc func(key string) (string, bool)

// Load reads an optional .env file into the process environment and then
// parses the environment. Variables already set are never overridden.
func Load() (Config, error) {
	path := os.Getenv("ENV_FILE")
	if path == "" {
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds and validates a Config from lookup
func FromEnv(lookup LookupFunc) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var errs []error
	getInt := func(key string, def int) int {
		raw := get(key, "")
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			return def
		}
		return n
	}

	cfg := Config{
		Env:            get("APP_ENV", "development"),
		Port:           getInt("PORT", 2567),
		TickHz:         getInt("TICK_HZ", 60),
		TokenSecret:    get("TOKEN_SECRET", ""),
		RequireKidAuth: parseFlag(get("REQUIRE_KID_AUTH", "")),
		MaxClients:     getInt("MAX_CLIENTS", 100),
		StorageType:    get("STORAGE_TYPE", ""),
		RedisURL:       get("REDIS_URL", ""),
		DatabaseURL:    get("DATABASE_URL", ""),
		DatabaseDriver: get("DATABASE_DRIVER", "pgx"),
		CatalogPath:    get("CATALOG_PATH", ""),
	}

	if cfg.StorageType == "" {
		cfg.StorageType = StorageMemory
		if cfg.DatabaseURL != "" {
			cfg.StorageType = StorageSQL
		}
	}

	if raw := get("INPUT_RATE_LIMIT", ""); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("INPUT_RATE_LIMIT: %w", err))
		}
		cfg.InputRateLimit = v
	}

	if raw := get("LOG_LEVEL", ""); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks required fields and value ranges
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// parseFlag accepts "1" and the usual boolean spellings
func parseFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
