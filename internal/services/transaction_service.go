// Package services orchestrates record operations across the store and
// the export queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/ledger"
)

// ExportPublisher publishes record change messages for the export worker.
type ExportPublisher interface {
	PublishExport(ctx context.Context, msg *amqp.ExportMessage) error
}

// TransactionService wraps a record store with export publishing.
// The publisher is optional, a nil publisher disables exporting.
type TransactionService struct {
	store     ledger.RecordStore
	publisher ExportPublisher
}

func NewTransactionService(store ledger.RecordStore, publisher ExportPublisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
	}
}

// ListAll fetches the owner's incomes and expenses concurrently and
// returns them merged, most recently updated first.
func (s *TransactionService) ListAll(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	var incomes, expenses []core.Transaction

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incomes, err = s.store.ListRecords(ctx, ownerID, core.Income)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.ListRecords(ctx, ownerID, core.Expense)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	return core.MergeByUpdated(incomes, expenses), nil
}

// List fetches the owner's records of one kind.
func (s *TransactionService) List(ctx context.Context, ownerID string, kind core.Kind) ([]core.Transaction, error) {
	return s.store.ListRecords(ctx, ownerID, kind)
}

// Create saves a record and publishes an export message for it.
func (s *TransactionService) Create(ctx context.Context, ownerID string, kind core.Kind, fields core.RecordFields) (core.Transaction, error) {
	t, err := s.store.CreateRecord(ctx, ownerID, kind, fields)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, t, amqp.OpUpsert)
	return t, nil
}

// Update rewrites a record's editable fields and publishes an export
// message for it.
func (s *TransactionService) Update(ctx context.Context, ownerID string, kind core.Kind, id string, fields core.RecordFields) (core.Transaction, error) {
	t, err := s.store.UpdateRecord(ctx, ownerID, kind, id, fields)
	if err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, t, amqp.OpUpsert)
	return t, nil
}

// Delete removes a record and publishes a delete export message.
func (s *TransactionService) Delete(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	if err := s.store.DeleteRecord(ctx, ownerID, kind, id); err != nil {
		return err
	}
	s.publish(ctx, core.Transaction{ID: id, OwnerID: ownerID, Kind: kind}, amqp.OpDelete)
	return nil
}

// publish is best effort. The record is already persisted, a failed
// publish only delays the export.
func (s *TransactionService) publish(ctx context.Context, t core.Transaction, op string) {
	if s.publisher == nil {
		return
	}
	msg := amqp.NewExportMessage(t.OwnerID, string(t.Kind), t.ID, op)
	if err := s.publisher.PublishExport(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"transaction_id", t.ID,
			"op", op,
			"error", err)
	}
}
