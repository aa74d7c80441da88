package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/mcoot/openworld/internal/api"
	"github.com/mcoot/openworld/internal/dependencies/async"
	"github.com/mcoot/openworld/internal/dependencies/clock"
	"github.com/mcoot/openworld/internal/dependencies/random"
	"github.com/mcoot/openworld/internal/diagnostics"
	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/services/auth"
	"github.com/mcoot/openworld/internal/services/room"
	"github.com/mcoot/openworld/internal/storage"
	"github.com/mcoot/openworld/internal/storage/memory"
	redisstorage "github.com/mcoot/openworld/internal/storage/redis"
	"github.com/mcoot/openworld/internal/storage/sqlstore"
	"github.com/mcoot/openworld/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQL    = "sql"
)

// App contains all wired application components
type App struct {
	// Storage
	Store storage.AccountStore

	// External dependencies
	Clock   clock.Clock
	Random  random.Random
	Spawner async.Spawner

	// Services
	Catalog     *model.Catalog
	Diagnostics *diagnostics.Diagnostics
	Verifier    *auth.Verifier
	Rooms       *room.Manager
	Realtime    *ws.Handler

	Logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Auth holds the token secret and kid-auth requirement
	Auth auth.Config
	// Room holds tick rate, capacity and flush interval.
	// If zero value, defaults to room.DefaultConfig()
	Room room.Config
	// Transport holds websocket settings (optional)
	Transport ws.Config
	// Catalog is the upgrade catalog (optional)
	// If nil, model.DefaultCatalog() is used
	Catalog *model.Catalog
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sql")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLConfig holds database settings (required if StorageType is "sql")
	SQLConfig *sqlstore.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	if cfg.Auth.Secret == "" {
		return nil, errors.New("auth secret required")
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	return newWithDependencies(store, clock.New(), random.New(), async.New(), cfg), nil
}

func newStore(cfg Config) (storage.AccountStore, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case StorageTypeSQL:
		if cfg.SQLConfig == nil {
			return nil, errors.New("SQLConfig required when StorageType is sql")
		}
		return sqlstore.New(*cfg.SQLConfig)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sql'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.AccountStore, clk clock.Clock, rnd random.Random, spawner async.Spawner, cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = model.DefaultCatalog()
	}

	roomCfg := cfg.Room
	if roomCfg == (room.Config{}) {
		roomCfg = room.DefaultConfig()
	}

	diag := diagnostics.New(clk, cfg.Auth.Secret, cfg.Auth.RequireKidAuth)
	verifier := auth.New(store, clk, diag, logger, cfg.Auth)
	rooms := room.NewManager(roomCfg, room.Dependencies{
		Store:   store,
		Catalog: catalog,
		Clock:   clk,
		Random:  rnd,
		Spawner: spawner,
		Logger:  logger,
	})
	realtime := ws.NewHandler(verifier, rooms, cfg.Transport, logger)

	return &App{
		Store:       store,
		Clock:       clk,
		Random:      rnd,
		Spawner:     spawner,
		Catalog:     catalog,
		Diagnostics: diag,
		Verifier:    verifier,
		Rooms:       rooms,
		Realtime:    realtime,
		Logger:      logger,
	}
}

// Router builds the HTTP router serving the API and websocket routes
func (a *App) Router() http.Handler {
	return api.NewRouter(api.RouterConfig{
		Logger:      a.Logger,
		Diagnostics: a.Diagnostics,
		Rooms:       a.Rooms,
		Clock:       a.Clock,
		Realtime:    a.Realtime,
	})
}

// Shutdown stops every room, waits for pending budget writes and closes the store
func (a *App) Shutdown(ctx context.Context) error {
	roomsErr := a.Rooms.Shutdown(ctx)
	a.Spawner.Wait()
	return errors.Join(roomsErr, a.Store.Close())
}
