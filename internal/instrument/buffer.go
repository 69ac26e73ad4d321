package instrument

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"trigger-settings/internal/store"
)

// EventWriter persists a batch of events.
type EventWriter interface {
	WriteEvents(ctx context.Context, batch []Event) error
}

// EventBuffer collects events in memory and periodically flushes them
// through an EventWriter in one batch.
type EventBuffer struct {
	mu      sync.Mutex
	events  []Event
	writer  EventWriter
	maxSize int
	ticker  *time.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewEventBuffer creates a buffer that flushes on a timer or when full.
func NewEventBuffer(writer EventWriter, maxSize int, flushIntervalMs int) *EventBuffer {
	if maxSize <= 0 {
		maxSize = 500
	}
	if flushIntervalMs <= 0 {
		flushIntervalMs = 100
	}
	eb := &EventBuffer{
		writer:  writer,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	eb.ticker = time.NewTicker(time.Duration(flushIntervalMs) * time.Millisecond)
	eb.wg.Add(1)
	go eb.run()
	return eb
}

func (eb *EventBuffer) run() {
	defer eb.wg.Done()
	for {
		select {
		case <-eb.done:
			return
		case <-eb.ticker.C:
			eb.Flush()
		}
	}
}

// Record adds an event to the buffer. If the buffer is full, a flush
// is triggered asynchronously.
func (eb *EventBuffer) Record(_ context.Context, e Event) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	eb.mu.Lock()
	eb.events = append(eb.events, e)
	shouldFlush := len(eb.events) >= eb.maxSize
	eb.mu.Unlock()
	if shouldFlush {
		go eb.Flush()
	}
}

// Pending returns the number of events not yet flushed.
func (eb *EventBuffer) Pending() int {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	return len(eb.events)
}

// Flush writes all buffered events in a single batch.
func (eb *EventBuffer) Flush() {
	eb.mu.Lock()
	if len(eb.events) == 0 {
		eb.mu.Unlock()
		return
	}
	batch := eb.events
	eb.events = nil
	eb.mu.Unlock()

	if err := eb.writer.WriteEvents(context.Background(), batch); err != nil {
		log.WithError(err).WithField("events", len(batch)).Error("event buffer flush failed")
	}
}

// Stop halts the background ticker and flushes remaining events.
func (eb *EventBuffer) Stop() {
	eb.ticker.Stop()
	close(eb.done)
	eb.wg.Wait()
	eb.Flush()
}

// SQLEventWriter inserts events into _events.
type SQLEventWriter struct {
	DB      *sql.DB
	Dialect store.Dialect
}

var eventColumns = []string{"action", "entity", "record_id", "user_id", "workspace_id", "metadata", "created_at"}

func (w *SQLEventWriter) WriteEvents(ctx context.Context, batch []Event) error {
	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	if stmt := w.Dialect.SyncCommitOff(); stmt != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "set sync commit")
		}
	}

	cols := eventColumns
	genID := w.Dialect.UUIDDefault() == ""
	if genID {
		cols = append([]string{"id"}, eventColumns...)
	}

	pb := w.Dialect.NewParamBuilder()
	placeholders := make([]string, 0, len(batch))
	for _, e := range batch {
		var metaJSON any
		if e.Metadata != nil {
			b, _ := json.Marshal(e.Metadata)
			metaJSON = string(b)
		}
		ph := make([]string, 0, len(cols))
		if genID {
			ph = append(ph, pb.Add(store.GenerateUUID()))
		}
		ph = append(ph,
			pb.Add(e.Action), pb.Add(e.Entity), pb.Add(e.RecordID), pb.Add(e.UserID),
			pb.Add(e.WorkspaceID), pb.Add(metaJSON), pb.Add(e.CreatedAt.UTC().Format("2006-01-02 15:04:05")))
		placeholders = append(placeholders, "("+strings.Join(ph, ",")+")")
	}

	sqlStr := "INSERT INTO _events (" + strings.Join(cols, ",") + ") VALUES " + strings.Join(placeholders, ",")
	if _, err := tx.ExecContext(ctx, sqlStr, pb.Params()...); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "insert events")
	}

	return errors.Wrap(tx.Commit(), "commit events")
}
