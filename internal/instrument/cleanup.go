package instrument

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/store"
)

// CleanupOldEvents deletes events older than retentionDays from the _events table.
func CleanupOldEvents(ctx context.Context, db *sql.DB, dialect store.Dialect, retentionDays int) {
	pb := dialect.NewParamBuilder()
	whereExpr := dialect.IntervalDeleteExpr("created_at", pb, fmt.Sprintf("%d", retentionDays))
	sqlStr := fmt.Sprintf("DELETE FROM _events WHERE %s", whereExpr)
	result, err := db.ExecContext(ctx, sqlStr, pb.Params()...)
	if err != nil {
		log.WithError(err).Error("event cleanup")
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.WithError(err).Error("event cleanup rows affected")
		return
	}
	if rowsAffected > 0 {
		log.WithField("deleted", rowsAffected).Info("event cleanup: deleted old events")
	}
}

// RunCleanup calls CleanupOldEvents once immediately and then every interval
// until ctx is cancelled.
func RunCleanup(ctx context.Context, db *sql.DB, dialect store.Dialect, retentionDays int, interval time.Duration) {
	if retentionDays <= 0 {
		return
	}
	CleanupOldEvents(ctx, db, dialect, retentionDays)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CleanupOldEvents(ctx, db, dialect, retentionDays)
		}
	}
}
