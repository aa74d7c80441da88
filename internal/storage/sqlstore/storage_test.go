package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/openworld/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.AccountStoreSuite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	cfg := DefaultConfig()
	cfg.Driver = DriverSQLite
	cfg.DSN = filepath.Join(s.T().TempDir(), "accounts.db")
	cfg.EnsureSchema = true

	store, err := New(cfg)
	s.Require().NoError(err)

	s.storage = store
	s.Store = store
	s.Ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func TestRebind(t *testing.T) {
	pg := &Storage{driver: DriverPostgres}
	lite := &Storage{driver: DriverSQLite}

	query := "UPDATE child_profiles SET time_left_day = ? WHERE id = ?"

	assert.Equal(t, "UPDATE child_profiles SET time_left_day = $1 WHERE id = $2", pg.rebind(query))
	assert.Equal(t, query, lite.rebind(query))
}

func TestRebindSkipsQuotedText(t *testing.T) {
	pg := &Storage{driver: DriverPostgres}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"string literal", "SELECT id FROM t WHERE note = '?' AND id = ?", "SELECT id FROM t WHERE note = '?' AND id = $1"},
		{"escaped quote", "SELECT 'it''s ?' FROM t WHERE a = ? AND b = ?", "SELECT 'it''s ?' FROM t WHERE a = $1 AND b = $2"},
		{"quoted identifier", `SELECT "odd?col" FROM t WHERE id = ?`, `SELECT "odd?col" FROM t WHERE id = $1`},
		{"no placeholders", "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pg.rebind(tt.query))
		})
	}
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(Config{Driver: "oracle"})
	assert.Error(t, err)
}
