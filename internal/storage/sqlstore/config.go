package sqlstore

import "time"

// Supported database/sql driver names
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Config holds SQL connection settings
type Config struct {
	// Driver is the database/sql driver name ("pgx" or "sqlite3")
	Driver string
	// DSN is the driver-specific connection string
	DSN string

	MaxOpenConns int
	PingTimeout  time.Duration

	// EnsureSchema creates the account tables if they are missing.
	// Production schemas are owned by the dashboard's migrations; this is for dev and tests.
	EnsureSchema bool
}

// DefaultConfig returns sensible defaults for a Postgres connection
func DefaultConfig() Config {
	return Config{
		Driver:       DriverPostgres,
		MaxOpenConns: 5,
		PingTimeout:  5 * time.Second,
	}
}
