package instrument

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeWriter struct {
	mu      sync.Mutex
	batches [][]Event
}

func (w *fakeWriter) WriteEvents(_ context.Context, batch []Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.batches = append(w.batches, batch)
	return nil
}

func (w *fakeWriter) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, b := range w.batches {
		n += len(b)
	}
	return n
}

func TestEventBuffer_FlushBatches(t *testing.T) {
	w := &fakeWriter{}
	// long interval so only explicit flushes run
	eb := NewEventBuffer(w, 100, 60_000)
	defer eb.Stop()

	for i := 0; i < 3; i++ {
		eb.Record(context.Background(), Event{Action: ActionTriggerNameChanged, RecordID: "wf"})
	}
	if eb.Pending() != 3 {
		t.Fatalf("pending = %d", eb.Pending())
	}

	eb.Flush()
	if eb.Pending() != 0 {
		t.Fatal("buffer not drained")
	}
	if len(w.batches) != 1 || len(w.batches[0]) != 3 {
		t.Fatalf("unexpected batches %v", w.batches)
	}
	if w.batches[0][0].CreatedAt.IsZero() {
		t.Fatal("created_at not stamped")
	}
}

func TestEventBuffer_StopFlushes(t *testing.T) {
	w := &fakeWriter{}
	eb := NewEventBuffer(w, 100, 60_000)
	eb.Record(context.Background(), Event{Action: ActionWorkflowCreated})
	eb.Stop()
	if w.total() != 1 {
		t.Fatalf("expected 1 written event, got %d", w.total())
	}
}

func TestEventBuffer_FlushesWhenFull(t *testing.T) {
	w := &fakeWriter{}
	eb := NewEventBuffer(w, 2, 60_000)
	defer eb.Stop()

	eb.Record(context.Background(), Event{Action: ActionWorkflowCreated})
	eb.Record(context.Background(), Event{Action: ActionWorkflowActivated})

	deadline := time.Now().Add(2 * time.Second)
	for w.total() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("full buffer was not flushed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.Record(context.Background(), Event{Action: ActionWorkflowCreated})
}
