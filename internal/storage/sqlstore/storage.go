package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/openworld/internal/model"
	"github.com/mcoot/openworld/internal/storage"
)

// Storage is a database/sql implementation of the account store.
// Queries are written with ? placeholders and rebound for Postgres.
type Storage struct {
	db     *sql.DB
	driver string
}

// New opens a database and verifies the connection
func New(cfg Config) (*Storage, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Storage{db: db, driver: cfg.Driver}

	if cfg.EnsureSchema {
		if err := s.ensureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.AccountStore = (*Storage)(nil)

func (s *Storage) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for Postgres.
// A ? inside a quoted literal or identifier is left alone.
func (s *Storage) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			// a doubled quote toggles out and straight back in
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Family operations

func (s *Storage) SaveFamily(ctx context.Context, family *model.Family) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO families (id, parent_user_id, parent_code, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			parent_user_id = excluded.parent_user_id,
			parent_code = excluded.parent_code,
			status = excluded.status`),
		family.ID, family.ParentUserID, family.ParentCode, string(family.Status))
	return err
}

func (s *Storage) GetFamily(ctx context.Context, id string) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, parent_user_id, parent_code, status FROM families WHERE id = ? LIMIT 1`), id)
	return scanFamily(row)
}

func (s *Storage) GetFamilyByParent(ctx context.Context, parentUserID string) (*model.Family, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, parent_user_id, parent_code, status FROM families WHERE parent_user_id = ? LIMIT 1`), parentUserID)
	return scanFamily(row)
}

func scanFamily(row *sql.Row) (*model.Family, error) {
	var family model.Family
	var status string
	if err := row.Scan(&family.ID, &family.ParentUserID, &family.ParentCode, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrFamilyNotFound
		}
		return nil, err
	}
	family.Status = model.AccountStatus(status)
	return &family, nil
}

// Child operations

func (s *Storage) SaveChild(ctx context.Context, child *model.Child) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO child_profiles (id, family_id, display_name, status, time_budget_day, time_left_day)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			family_id = excluded.family_id,
			display_name = excluded.display_name,
			status = excluded.status,
			time_budget_day = excluded.time_budget_day,
			time_left_day = excluded.time_left_day`),
		child.ID, child.FamilyID, child.DisplayName, string(child.Status), child.TimeBudgetDay, child.TimeLeftDay)
	return err
}

func (s *Storage) GetChild(ctx context.Context, id string) (*model.Child, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, family_id, display_name, status, time_budget_day, time_left_day
		FROM child_profiles WHERE id = ? LIMIT 1`), id)

	var child model.Child
	var status string
	err := row.Scan(&child.ID, &child.FamilyID, &child.DisplayName, &status, &child.TimeBudgetDay, &child.TimeLeftDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrChildNotFound
		}
		return nil, err
	}
	child.Status = model.AccountStatus(status)
	return &child, nil
}

func (s *Storage) UpdateChildTimeLeft(ctx context.Context, id string, seconds int) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE child_profiles SET time_left_day = ? WHERE id = ?`), seconds, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrChildNotFound
	}
	return nil
}
