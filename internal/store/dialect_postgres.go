package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &pgParamBuilder{}
}

func (d *PostgresDialect) NowExpr() string     { return "NOW()" }
func (d *PostgresDialect) UUIDDefault() string { return "DEFAULT gen_random_uuid()" }

func (d *PostgresDialect) SystemTablesSQL() string {
	return pgSystemTablesSQL
}

func (d *PostgresDialect) IntervalDeleteExpr(createdAtCol string, pb ParamBuilder, days string) string {
	ph := pb.Add(days)
	return fmt.Sprintf("%s < now() - (%s || ' days')::interval", createdAtCol, ph)
}

func (d *PostgresDialect) ArrayParam(values []string) any {
	if values == nil {
		return []string{}
	}
	return values
}

func (d *PostgresDialect) ScanArray(src any) ([]string, error) {
	if src == nil {
		return []string{}, nil
	}
	switch v := src.(type) {
	case []string:
		return v, nil
	case []any:
		result := make([]string, len(v))
		for i, item := range v {
			result[i] = fmt.Sprintf("%v", item)
		}
		return result, nil
	case []byte:
		// pgx/stdlib may return TEXT[] as a string like {admin,user}
		return parsePgArray(string(v))
	case string:
		return parsePgArray(v)
	default:
		return []string{}, nil
	}
}

// parsePgArray parses a PostgreSQL array literal like {admin,user} into []string.
func parsePgArray(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "{}" {
		return []string{}, nil
	}
	if strings.HasPrefix(s, "[") {
		var result []string
		if err := json.Unmarshal([]byte(s), &result); err == nil {
			return result, nil
		}
	}
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		inner := s[1 : len(s)-1]
		if inner == "" {
			return []string{}, nil
		}
		parts := strings.Split(inner, ",")
		result := make([]string, len(parts))
		for i, p := range parts {
			result[i] = strings.Trim(strings.TrimSpace(p), `"`)
		}
		return result, nil
	}
	return []string{s}, nil
}

func (d *PostgresDialect) SyncCommitOff() string {
	return "SET LOCAL synchronous_commit = off"
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	// With pgx/stdlib, the underlying error message includes the PG code
	errStr := err.Error()
	if strings.Contains(errStr, "23505") || strings.Contains(errStr, "unique constraint") || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

const pgSystemTablesSQL = `
CREATE TABLE IF NOT EXISTS _users (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    roles         TEXT[] DEFAULT '{}',
    workspace_id  UUID NOT NULL,
    active        BOOLEAN DEFAULT true,
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS _refresh_tokens (
    id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id    UUID NOT NULL REFERENCES _users(id) ON DELETE CASCADE,
    token      UUID NOT NULL UNIQUE DEFAULT gen_random_uuid(),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires ON _refresh_tokens(expires_at);

CREATE TABLE IF NOT EXISTS _workflows (
    id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    workspace_id   UUID NOT NULL,
    name           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'draft',
    trigger_name   TEXT,
    http_method    TEXT NOT NULL DEFAULT 'GET',
    authentication TEXT NOT NULL DEFAULT 'none',
    expected_body  TEXT,
    output_schema  JSONB,
    created_at     TIMESTAMPTZ DEFAULT NOW(),
    updated_at     TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_workflows_workspace ON _workflows(workspace_id);

CREATE TABLE IF NOT EXISTS _sso_identity_providers (
    id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    workspace_id  UUID NOT NULL,
    name          TEXT NOT NULL,
    type          TEXT NOT NULL DEFAULT 'OIDC',
    client_id     TEXT NOT NULL,
    client_secret TEXT NOT NULL,
    issuer        TEXT NOT NULL,
    status        TEXT NOT NULL DEFAULT 'Active',
    created_at    TIMESTAMPTZ DEFAULT NOW(),
    updated_at    TIMESTAMPTZ DEFAULT NOW(),
    UNIQUE (workspace_id, issuer)
);

CREATE TABLE IF NOT EXISTS _events (
    id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    action       TEXT NOT NULL,
    entity       TEXT,
    record_id    TEXT,
    user_id      TEXT,
    workspace_id TEXT,
    metadata     JSONB,
    created_at   TIMESTAMPTZ DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_events_created ON _events(created_at);
`

var _ Dialect = (*PostgresDialect)(nil)
