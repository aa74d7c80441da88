package factory

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mcoot/openworld/internal/config"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/services/auth"
	"github.com/mcoot/openworld/internal/services/room"
	redisstorage "github.com/mcoot/openworld/internal/storage/redis"
	"github.com/mcoot/openworld/internal/storage/sqlstore"
	"github.com/mcoot/openworld/internal/web/ws"
)

// ConfigFromEnv translates environment configuration into a factory Config,
// reading the upgrade catalog from disk when a path is set
func ConfigFromEnv(env config.Config, logger *slog.Logger) (Config, error) {
	roomCfg := room.DefaultConfig()
	roomCfg.TickHz = env.TickHz
	roomCfg.MaxClients = env.MaxClients

	cfg := Config{
		Auth: auth.Config{
			Secret:         env.TokenSecret,
			RequireKidAuth: env.RequireKidAuth,
		},
		Room:        roomCfg,
		Transport:   ws.Config{InputRateLimit: env.InputRateLimit},
		Logger:      logger,
		StorageType: env.StorageType,
	}

	switch env.StorageType {
	case StorageTypeRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = env.RedisURL
		cfg.RedisConfig = &redisCfg
	case StorageTypeSQL:
		sqlCfg := sqlstore.DefaultConfig()
		sqlCfg.Driver = env.DatabaseDriver
		sqlCfg.DSN = env.DatabaseURL
		// sqlite databases are local dev files; create tables on first use
		sqlCfg.EnsureSchema = env.DatabaseDriver == sqlstore.DriverSQLite
		cfg.SQLConfig = &sqlCfg
	}

	if env.CatalogPath != "" {
		data, err := os.ReadFile(env.CatalogPath)
		if err != nil {
			return Config{}, fmt.Errorf("read catalog: %w", err)
		}
		catalog, err := model.ParseCatalog(data)
		if err != nil {
			return Config{}, fmt.Errorf("parse catalog %s: %w", env.CatalogPath, err)
		}
		cfg.Catalog = catalog
	}

	return cfg, nil
}
