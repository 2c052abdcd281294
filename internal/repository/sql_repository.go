package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type sqlQueries struct {
	get    string
	upsert string
	clear  string
}

func queriesFor(d Dialect) sqlQueries {
	if d == DialectPostgres {
		return sqlQueries{
			get: `SELECT payload FROM collections WHERE owner_id = $1 AND name = $2`,
			upsert: `INSERT INTO collections (owner_id, name, payload, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $4)
				ON CONFLICT (owner_id, name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
			clear: `DELETE FROM collections WHERE owner_id = $1 AND name = $2`,
		}
	}
	return sqlQueries{
		get: `SELECT payload FROM collections WHERE owner_id = ? AND name = ?`,
		upsert: `INSERT INTO collections (owner_id, name, payload, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (owner_id, name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		clear: `DELETE FROM collections WHERE owner_id = ? AND name = ?`,
	}
}

// SQLRepository keeps collections in a single table on Postgres or SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
	q       sqlQueries
}

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, q: queriesFor(dialect)}
}

func (r *SQLRepository) Get(ctx context.Context, name, ownerID string) ([]byte, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, r.q.get, ownerID, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", name, err)
	}
	return []byte(payload), nil
}

func (r *SQLRepository) Set(ctx context.Context, name, ownerID string, payload []byte) error {
	now := time.Now().UTC()

	var err error
	if r.dialect == DialectPostgres {
		_, err = r.db.ExecContext(ctx, r.q.upsert, ownerID, name, string(payload), now)
	} else {
		_, err = r.db.ExecContext(ctx, r.q.upsert, ownerID, name, string(payload), now, now)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", name, err)
	}
	return nil
}

func (r *SQLRepository) Clear(ctx context.Context, name, ownerID string) error {
	if _, err := r.db.ExecContext(ctx, r.q.clear, ownerID, name); err != nil {
		return fmt.Errorf("failed to clear %s: %w", name, err)
	}
	return nil
}

func (r *SQLRepository) RunMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations/"+string(r.dialect))
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	var driver database.Driver
	switch r.dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	default:
		return fmt.Errorf("unsupported dialect %q", r.dialect)
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, string(r.dialect), driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
