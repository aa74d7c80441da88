package config

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/mcoot/openworld/internal/diagnostics"
)

// Preflight logs a summary of the effective configuration. Secrets and
// connection strings are reduced to short fingerprints.
func (c Config) Preflight(logger *slog.Logger) {
	logger = logger.With(slog.String("component", "preflight"))

	logger.Info("preflight",
		slog.String("env", c.Env),
		slog.Bool("require_kid_auth", c.RequireKidAuth),
		slog.Int("port", c.Port),
		slog.Int("tick_hz", c.TickHz),
		slog.Int("max_clients", c.MaxClients),
		slog.String("storage", c.StorageType),
	)
	logger.Info("preflight: auth", slog.String("secret_fp", diagnostics.Fingerprint(c.TokenSecret)))

	if c.DatabaseURL == "" {
		logger.Info("preflight: db missing")
	} else {
		host, name := describeURL(c.DatabaseURL)
		logger.Info("preflight: db",
			slog.String("driver", c.DatabaseDriver),
			slog.String("host", host),
			slog.String("db", name),
			slog.String("url_fp", diagnostics.Fingerprint(c.DatabaseURL)),
		)
	}

	if c.RedisURL == "" {
		logger.Info("preflight: redis missing")
	} else {
		host, _ := describeURL(c.RedisURL)
		logger.Info("preflight: redis",
			slog.String("host", host),
			slog.String("url_fp", diagnostics.Fingerprint(c.RedisURL)),
		)
	}
}

// describeURL returns the host and path name of a connection string, or
// "?" for parts that cannot be parsed
func describeURL(raw string) (host, name string) {
	u, err := url.Parse(raw)
	if err != nil {
		return "?", "?"
	}
	host = u.Host
	if host == "" {
		host = "?"
	}
	name = strings.TrimPrefix(u.Path, "/")
	if name == "" {
		name = u.Opaque
	}
	if name == "" {
		name = "?"
	}
	return host, name
}
