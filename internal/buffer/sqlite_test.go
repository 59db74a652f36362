package buffer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/speedwagon-io/sensord/internal/lib/logger/sl"
	"github.com/speedwagon-io/sensord/internal/model"
)

func newBuffer(t *testing.T) *SQLiteBuffer {
	t.Helper()
	buf, err := NewSQLiteBuffer(sl.Discard(), filepath.Join(t.TempDir(), "nested", "buffer.db"))
	if err != nil {
		t.Fatalf("new buffer: %v", err)
	}
	t.Cleanup(func() { buf.Close() })
	return buf
}

func TestStoreGetPendingMarkSent(t *testing.T) {
	ctx := context.Background()
	buf := newBuffer(t)

	r1 := model.Assemble(model.NewThermalProbe("28-0001", 22625))
	r2 := model.Assemble(model.NewEnvironmental(22.625, 101325, 35))

	for _, r := range []model.Record{r1, r2, r1} {
		if err := buf.Store(ctx, r); err != nil {
			t.Fatalf("store: %v", err)
		}
	}

	count, err := buf.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected duplicate store to be ignored, count=%d", count)
	}

	pending, err := buf.GetPending(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID() != r1.ID() || pending[1].ID() != r2.ID() {
		t.Fatalf("expected insertion order, got %s, %s", pending[0].ID(), pending[1].ID())
	}
	if pending[1].Reading() != r2.Reading() || !pending[1].Timestamp().Equal(r2.Timestamp()) {
		t.Fatalf("record not restored faithfully: %v", pending[1])
	}

	if err := buf.MarkSent(ctx, []uuid.UUID{r1.ID()}); err != nil {
		t.Fatalf("mark sent: %v", err)
	}

	pending, err = buf.GetPending(ctx, 1)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID() != r2.ID() {
		t.Fatalf("expected only r2 pending, got %v", pending)
	}
}

func TestMarkSentEmpty(t *testing.T) {
	if err := newBuffer(t).MarkSent(context.Background(), nil); err != nil {
		t.Fatalf("mark sent nil: %v", err)
	}
}

func TestCleanupDropsOldRecords(t *testing.T) {
	ctx := context.Background()
	buf := newBuffer(t)

	if err := buf.Store(ctx, model.Assemble(model.NewThermalProbe("28-0001", 1))); err != nil {
		t.Fatalf("store: %v", err)
	}

	if err := buf.Cleanup(ctx, time.Hour); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n, _ := buf.Count(ctx); n != 1 {
		t.Fatalf("fresh record should survive cleanup, count=%d", n)
	}

	// A negative age puts the cutoff in the future.
	if err := buf.Cleanup(ctx, -time.Hour); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if n, _ := buf.Count(ctx); n != 0 {
		t.Fatalf("expected all records dropped, count=%d", n)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "buffer.db")

	buf, err := NewSQLiteBuffer(sl.Discard(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	rec := model.Assemble(model.NewThermalProbe("28-0001", -500))
	if err := buf.Store(ctx, rec); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	buf, err = NewSQLiteBuffer(sl.Discard(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer buf.Close()

	pending, err := buf.GetPending(ctx, 10)
	if err != nil {
		t.Fatalf("get pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID() != rec.ID() {
		t.Fatalf("expected record to survive reopen, got %v", pending)
	}
}
