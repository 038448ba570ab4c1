package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/memory"
)

type capturingPublisher struct {
	mu       sync.Mutex
	messages []*amqp.ExportMessage
	fail     bool
}

func (p *capturingPublisher) PublishExport(_ context.Context, msg *amqp.ExportMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker down")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func fields(title, category string, cents int64) core.RecordFields {
	return core.RecordFields{
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
	}
}

func TestListAllMergesBothKinds(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "owner-1", core.Income, fields("Salary", "Salary", 500000)); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if _, err := svc.Create(ctx, "owner-1", core.Expense, fields("Groceries", "Food", 4500)); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if _, err := svc.Create(ctx, "owner-2", core.Expense, fields("Taxi", "Transport", 1200)); err != nil {
		t.Fatalf("create other owner expense: %v", err)
	}

	all, err := svc.ListAll(ctx, "owner-1")
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll returned %d records, want 2", len(all))
	}
	for _, r := range all {
		if r.OwnerID != "owner-1" {
			t.Errorf("ListAll leaked record of owner %q", r.OwnerID)
		}
	}
}

func TestMutationsPublishExportMessages(t *testing.T) {
	store := memory.New()
	pub := &capturingPublisher{}
	svc := NewTransactionService(store, pub)
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", core.Expense, fields("Groceries", "Food", 4500))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Update(ctx, "owner-1", core.Expense, created.ID, fields("Groceries", "Food", 5000)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := svc.Delete(ctx, "owner-1", core.Expense, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if len(pub.messages) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.messages))
	}
	wantOps := []string{amqp.OpUpsert, amqp.OpUpsert, amqp.OpDelete}
	for i, msg := range pub.messages {
		if msg.Op != wantOps[i] {
			t.Errorf("message %d op = %q, want %q", i, msg.Op, wantOps[i])
		}
		if msg.ID != created.ID || msg.OwnerID != "owner-1" || msg.Kind != string(core.Expense) {
			t.Errorf("message %d identifiers wrong: %+v", i, msg)
		}
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	store := memory.New()
	svc := NewTransactionService(store, &capturingPublisher{fail: true})
	ctx := context.Background()

	created, err := svc.Create(ctx, "owner-1", core.Expense, fields("Groceries", "Food", 4500))
	if err != nil {
		t.Fatalf("Create failed despite record being persisted: %v", err)
	}

	got, err := store.GetRecord(ctx, "owner-1", core.Expense, created.ID)
	if err != nil {
		t.Fatalf("record missing from store: %v", err)
	}
	if got.Title != "Groceries" {
		t.Errorf("stored title = %q, want Groceries", got.Title)
	}
}

func TestDeleteUnknownRecord(t *testing.T) {
	svc := NewTransactionService(memory.New(), nil)
	err := svc.Delete(context.Background(), "owner-1", core.Expense, "missing")
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
