package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Register sqlite as database/sql driver

	"trigger-settings/internal/config"
)

var ErrNotFound = errors.New("not found")
var ErrUniqueViolation = errors.New("unique constraint violation")

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store wraps a database connection and dialect.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// New creates a Store from config.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	dialect := NewDialect(driver)

	db, err := sql.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	switch driver {
	case "postgres":
		if cfg.PoolSize > 0 {
			db.SetMaxOpenConns(cfg.PoolSize)
		}
	case "sqlite":
		// SQLite: single writer, WAL mode for concurrent reads
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "enable WAL")
		}
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "enable foreign keys")
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping")
	}

	return &Store{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.DB.Close()
}

// BeginTx starts a new transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.DB.BeginTx(ctx, nil)
}

// GenerateUUID returns a new random UUID for dialects without a UUID default.
func GenerateUUID() string {
	return uuid.New().String()
}

// QueryRows executes a query and returns results as []map[string]any.
func QueryRows(ctx context.Context, q Querier, sqlStr string, args ...any) ([]map[string]any, error) {
	rows, err := q.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "get columns")
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, "scan")
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeValue(values[i])
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows iteration")
	}
	return results, nil
}

// QueryRow executes a query and returns a single row as map[string]any.
func QueryRow(ctx context.Context, q Querier, sqlStr string, args ...any) (map[string]any, error) {
	rows, err := QueryRows(ctx, q, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// Exec executes a statement and returns the number of rows affected.
func Exec(ctx context.Context, q Querier, sqlStr string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, errors.Wrap(err, "exec")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

// normalizeValue converts database-specific types to JSON-serializable Go types.
// Timestamps stored as TEXT (SQLite) stay strings here; AsTime parses them.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		// database/sql often returns []byte for TEXT columns
		return string(b)
	}
	return v
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsString returns a column value as a string, tolerating []byte and nil.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// AsBool returns a column value as a bool. SQLite stores booleans as INTEGER.
func AsBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

// AsTime returns a pointer to a timestamp column, or nil.
func AsTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		if parsed, ok := parseTimestamp(t); ok {
			return &parsed
		}
	}
	return nil
}
