package worker

import (
	"context"
	"errors"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/memory"
)

type fakeExporter struct {
	upserts []core.Transaction
	deletes []string
	fail    bool
}

func (f *fakeExporter) UpsertRecord(_ context.Context, t core.Transaction) error {
	if f.fail {
		return errors.New("sheet unavailable")
	}
	f.upserts = append(f.upserts, t)
	return nil
}

func (f *fakeExporter) DeleteRecord(_ context.Context, id string) error {
	if f.fail {
		return errors.New("sheet unavailable")
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func TestHandleUpsertFetchesFullRecord(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	created, err := store.CreateRecord(ctx, "owner-1", core.Expense, core.RecordFields{
		Title:    "Groceries",
		Amount:   core.Money{Cents: 4500},
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	exp := &fakeExporter{}
	w := NewExportWorker(store, exp)

	msg := amqp.NewExportMessage("owner-1", string(core.Expense), created.ID, amqp.OpUpsert)
	if err := w.HandleMessage(ctx, msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}

	if len(exp.upserts) != 1 {
		t.Fatalf("exporter saw %d upserts, want 1", len(exp.upserts))
	}
	got := exp.upserts[0]
	if got.ID != created.ID || got.Title != "Groceries" || got.Amount.Cents != 4500 {
		t.Errorf("exported record mismatch: %+v", got)
	}
}

func TestHandleUpsertForGoneRecordDeletesRow(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(memory.New(), exp)

	msg := amqp.NewExportMessage("owner-1", string(core.Expense), "vanished", amqp.OpUpsert)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if len(exp.deletes) != 1 || exp.deletes[0] != "vanished" {
		t.Errorf("expected stale row delete, got %v", exp.deletes)
	}
}

func TestHandleDelete(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(memory.New(), exp)

	msg := amqp.NewExportMessage("owner-1", string(core.Expense), "rec-1", amqp.OpDelete)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage failed: %v", err)
	}
	if len(exp.deletes) != 1 || exp.deletes[0] != "rec-1" {
		t.Errorf("deletes = %v, want [rec-1]", exp.deletes)
	}
}

func TestHandleMalformedMessagesDropped(t *testing.T) {
	exp := &fakeExporter{}
	w := NewExportWorker(memory.New(), exp)
	ctx := context.Background()

	if err := w.HandleMessage(ctx, amqp.NewExportMessage("o", "Loan", "x", amqp.OpUpsert)); err != nil {
		t.Fatalf("unknown kind should be dropped, got %v", err)
	}
	if err := w.HandleMessage(ctx, amqp.NewExportMessage("o", string(core.Income), "x", "replay")); err != nil {
		t.Fatalf("unknown op should be dropped, got %v", err)
	}
	if len(exp.upserts) != 0 || len(exp.deletes) != 0 {
		t.Errorf("exporter should not be touched for malformed messages")
	}
}

func TestHandleExporterFailurePropagates(t *testing.T) {
	w := NewExportWorker(memory.New(), &fakeExporter{fail: true})
	msg := amqp.NewExportMessage("owner-1", string(core.Expense), "rec-1", amqp.OpDelete)
	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}
