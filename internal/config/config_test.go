package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/testutil"
)

func lookupFrom(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{"TOKEN_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 2567, cfg.Port)
	assert.Equal(t, 60, cfg.TickHz)
	assert.Equal(t, 100, cfg.MaxClients)
	assert.False(t, cfg.RequireKidAuth)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Zero(t, cfg.InputRateLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"TOKEN_SECRET":     "s3cret",
		"PORT":             "9000",
		"TICK_HZ":          "30",
		"REQUIRE_KID_AUTH": "1",
		"MAX_CLIENTS":      "8",
		"STORAGE_TYPE":     "redis",
		"REDIS_URL":        "redis://cache:6379/0",
		"INPUT_RATE_LIMIT": "20.5",
		"LOG_LEVEL":        "debug",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 30, cfg.TickHz)
	assert.True(t, cfg.RequireKidAuth)
	assert.Equal(t, 8, cfg.MaxClients)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, 20.5, cfg.InputRateLimit)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestFromEnvInfersSQLFromDatabaseURL(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(map[string]string{
		"TOKEN_SECRET": "s3cret",
		"DATABASE_URL": "postgres://u:p@db:5432/app",
	}))
	require.NoError(t, err)
	assert.Equal(t, StorageSQL, cfg.StorageType)
}

func TestRequireKidAuthFlag(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"0", false},
		{"yes", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg, err := FromEnv(lookupFrom(map[string]string{
				"TOKEN_SECRET":     "s3cret",
				"REQUIRE_KID_AUTH": tt.value,
			}))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.RequireKidAuth)
		})
	}
}

func TestFromEnvErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "TokenSecret"},
		{"bad port", map[string]string{"TOKEN_SECRET": "x", "PORT": "abc"}, "PORT"},
		{"port out of range", map[string]string{"TOKEN_SECRET": "x", "PORT": "70000"}, "Port"},
		{"zero tick rate", map[string]string{"TOKEN_SECRET": "x", "TICK_HZ": "0"}, "TickHz"},
		{"unknown storage", map[string]string{"TOKEN_SECRET": "x", "STORAGE_TYPE": "etcd"}, "StorageType"},
		{"redis without url", map[string]string{"TOKEN_SECRET": "x", "STORAGE_TYPE": "redis"}, "RedisURL"},
		{"sql without url", map[string]string{"TOKEN_SECRET": "x", "STORAGE_TYPE": "sql"}, "DatabaseURL"},
		{"unknown driver", map[string]string{"TOKEN_SECRET": "x", "DATABASE_DRIVER": "mysql"}, "DatabaseDriver"},
		{"bad rate", map[string]string{"TOKEN_SECRET": "x", "INPUT_RATE_LIMIT": "fast"}, "INPUT_RATE_LIMIT"},
		{"bad log level", map[string]string{"TOKEN_SECRET": "x", "LOG_LEVEL": "loud"}, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(lookupFrom(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadReadsEnvFileWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TOKEN_SECRET=from-file\nTICK_HZ=20\n"), 0o600))

	t.Setenv("ENV_FILE", path)
	t.Setenv("TICK_HZ", "45")
	// godotenv sets TOKEN_SECRET directly; unset it again afterwards
	t.Cleanup(func() { os.Unsetenv("TOKEN_SECRET") })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TokenSecret)
	assert.Equal(t, 45, cfg.TickHz)
}

func TestLoadIgnoresMissingEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.TokenSecret)
}

func TestPreflightLogsFingerprintsOnly(t *testing.T) {
	logger, buf := testutil.BufferLogger()
	cfg := Config{
		Env:            "test",
		Port:           2567,
		TickHz:         60,
		TokenSecret:    "super-secret-value",
		StorageType:    StorageSQL,
		DatabaseURL:    "postgres://user:pw@db.internal:5432/kids",
		DatabaseDriver: "pgx",
	}

	cfg.Preflight(logger)
	out := buf.String()

	assert.Contains(t, out, diagnostics.Fingerprint("super-secret-value"))
	assert.NotContains(t, out, "super-secret-value")
	assert.NotContains(t, out, "pw@")
	assert.Contains(t, out, `"host":"db.internal:5432"`)
	assert.Contains(t, out, `"db":"kids"`)
	assert.Contains(t, out, "preflight: redis missing")
}

func TestDescribeURL(t *testing.T) {
	host, name := describeURL("redis://cache:6379/0")
	assert.Equal(t, "cache:6379", host)
	assert.Equal(t, "0", name)

	host, name = describeURL("file:dev.db")
	assert.Equal(t, "?", host)
	assert.Equal(t, "dev.db", name)

	host, name = describeURL("::not a url")
	assert.Equal(t, "?", host)
	assert.Equal(t, "?", name)
}
