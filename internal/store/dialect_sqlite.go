package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }

func (d *SQLiteDialect) Placeholder(index int) string {
	return fmt.Sprintf("?%d", index)
}

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &sqliteParamBuilder{}
}

func (d *SQLiteDialect) NowExpr() string     { return "datetime('now')" }
func (d *SQLiteDialect) UUIDDefault() string { return "" }

func (d *SQLiteDialect) SystemTablesSQL() string {
	return sqliteSystemTablesSQL
}

func (d *SQLiteDialect) IntervalDeleteExpr(createdAtCol string, pb ParamBuilder, days string) string {
	ph := pb.Add(days)
	return fmt.Sprintf("%s < datetime('now', '-' || %s || ' days')", createdAtCol, ph)
}

func (d *SQLiteDialect) ArrayParam(values []string) any {
	if values == nil {
		return "[]"
	}
	b, _ := json.Marshal(values)
	return string(b)
}

func (d *SQLiteDialect) ScanArray(src any) ([]string, error) {
	if src == nil {
		return []string{}, nil
	}
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return []string{}, nil
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "[]" {
		return []string{}, nil
	}
	var result []string
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		return []string{}, fmt.Errorf("scan array: %w", err)
	}
	return result, nil
}

func (d *SQLiteDialect) SyncCommitOff() string { return "" }

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	if strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "constraint failed: UNIQUE") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

// --- SQLite DDL ---

const sqliteSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _users (
    id            TEXT PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT DEFAULT '[]',
    workspace_id  TEXT NOT NULL,
    active        INTEGER DEFAULT 1,
    created_at    TEXT DEFAULT (datetime('now')),
    updated_at    TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL REFERENCES _users(id) ON DELETE CASCADE,
    token      TEXT NOT NULL UNIQUE,
    expires_at TEXT NOT NULL,
    created_at TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON _refresh_tokens(expires_at);

CREATE TABLE IF NOT EXISTS _workflows (
    id             TEXT PRIMARY KEY,
    workspace_id   TEXT NOT NULL,
    name           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'draft',
    trigger_name   TEXT,
    http_method    TEXT NOT NULL DEFAULT 'GET',
    authentication TEXT NOT NULL DEFAULT 'none',
    expected_body  TEXT,
    output_schema  TEXT,
    created_at     TEXT DEFAULT (datetime('now')),
    updated_at     TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_workflows_workspace ON _workflows(workspace_id);

CREATE TABLE IF NOT EXISTS _sso_identity_providers (
    id            TEXT PRIMARY KEY,
    workspace_id  TEXT NOT NULL,
    name          TEXT NOT NULL,
    type          TEXT NOT NULL DEFAULT 'OIDC',
    client_id     TEXT NOT NULL,
    client_secret TEXT NOT NULL,
    issuer        TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'Active',
    created_at    TEXT DEFAULT (datetime('now')),
    updated_at    TEXT DEFAULT (datetime('now')),
    UNIQUE (workspace_id, issuer)
);

CREATE TABLE IF NOT EXISTS _events (
    id           TEXT PRIMARY KEY,
    action       TEXT NOT NULL,
    entity       TEXT,
    record_id    TEXT,
    user_id      TEXT,
    workspace_id TEXT,
    metadata     TEXT,
    created_at   TEXT DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_events_created ON _events(created_at);
`

var _ Dialect = (*SQLiteDialect)(nil)
