// Package userstore is a small SQL-backed UserService handler used to
// exercise the batch scenario where repeated creates are followed by a
// count: two interface functions, create and countUsers, backed by either
// Postgres (via pgx's database/sql driver) or SQLite (via mattn's), since
// both speak the same database/sql surface.
package userstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/coopernurse/barrister/internal/rpc/server"
)

// dialect captures the handful of SQL differences between the two
// supported drivers: placeholder syntax, auto-increment DDL, and how an
// inserted row's id is recovered (Postgres has no LastInsertId support in
// database/sql, so it needs a RETURNING clause instead).
type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store persists users in a single table and counts them. It is safe for
// concurrent use; callers share one *sql.DB across goroutines the way
// database/sql intends.
type Store struct {
	db      *sql.DB
	dialect dialect
}

// OpenPostgres opens a Store against a Postgres DSN via pgx's stdlib driver.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &Store{db: db, dialect: dialectPostgres}, nil
}

// OpenSQLite opens a Store against a SQLite file (or ":memory:").
func OpenSQLite(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &Store{db: db, dialect: dialectSQLite}, nil
}

// New wraps an already-open *sql.DB. It does not create the users table;
// Migrate does.
// Callers supplying a sqlmock-backed db should skip migration and pass a
// db with ExpectExec already primed for the calls they intend to exercise.
// sqlmock doesn't validate dialect-specific syntax, so it is driven through
// the SQLite statement forms.
func New(db *sql.DB) (*Store, error) {
	return &Store{db: db, dialect: dialectSQLite}, nil
}

// Migrate creates the users table. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	var ddl string
	switch s.dialect {
	case dialectPostgres:
		ddl = `
			CREATE TABLE IF NOT EXISTS users (
				id    SERIAL PRIMARY KEY,
				email TEXT NOT NULL,
				name  TEXT NOT NULL
			)`
	default:
		ddl = `
			CREATE TABLE IF NOT EXISTS users (
				id    INTEGER PRIMARY KEY AUTOINCREMENT,
				email TEXT NOT NULL,
				name  TEXT NOT NULL
			)`
	}
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a user and returns its assigned id as a string.
func (s *Store) Create(ctx context.Context, email, name string) (string, error) {
	if s.dialect == dialectPostgres {
		var id int64
		err := s.db.QueryRowContext(ctx,
			`INSERT INTO users (email, name) VALUES ($1, $2) RETURNING id`, email, name).Scan(&id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d", id), nil
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO users (email, name) VALUES (?, ?)`, email, name)
	if err != nil {
		return "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", id), nil
}

// Count returns the number of rows in the users table.
func (s *Store) Count(ctx context.Context) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Handlers returns the InterfaceHandler for UserService: create and
// countUsers, matching the contract declared in internal/demo/conform.
func (s *Store) Handlers() server.InterfaceHandler {
	return server.InterfaceHandler{
		"create":     s.handleCreate,
		"countUsers": s.handleCount,
	}
}

func (s *Store) handleCreate(params []any) (any, error) {
	user, ok := params[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("create: expected a User object")
	}
	email, _ := user["email"].(string)
	name, _ := user["name"].(string)

	id, err := s.Create(context.Background(), email, name)
	if err != nil {
		return map[string]any{"status": "error"}, nil
	}
	return map[string]any{"status": "ok", "userId": id}, nil
}

func (s *Store) handleCount(params []any) (any, error) {
	n, err := s.Count(context.Background())
	if err != nil {
		return map[string]any{"status": "error", "count": 0}, nil
	}
	return map[string]any{"status": "ok", "count": n}, nil
}
