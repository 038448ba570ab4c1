// Package worker mirrors record changes from the store to an external
// exporter as messages arrive on the export queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/export"
	"tally/internal/ledger"
)

// Store is what the worker needs from the backend to resolve messages.
type Store interface {
	ledger.RecordGetter
}

type ExportWorker struct {
	store    Store
	exporter export.RecordExporter
}

func NewExportWorker(store Store, exporter export.RecordExporter) *ExportWorker {
	return &ExportWorker{
		store:    store,
		exporter: exporter,
	}
}

// HandleMessage processes one export message. Upserts fetch the full
// record from the store first, deletes go straight to the exporter.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"transaction_id", msg.ID,
		"kind", msg.Kind,
		"op", msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		if err := w.exporter.DeleteRecord(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete record from exporter: %w", err)
		}
		return nil

	case amqp.OpUpsert:
		kind := core.Kind(msg.Kind)
		if err := kind.Validate(); err != nil {
			// Malformed message, retrying will not help.
			slog.ErrorContext(ctx, "Dropping message with unknown kind",
				"transaction_id", msg.ID,
				"kind", msg.Kind)
			return nil
		}

		t, err := w.store.GetRecord(ctx, msg.OwnerID, kind, msg.ID)
		if errors.Is(err, ledger.ErrNotFound) {
			// The record was deleted before the upsert was handled.
			// Remove any stale row and move on.
			slog.WarnContext(ctx, "Record gone before export, removing any exported row",
				"transaction_id", msg.ID)
			return w.exporter.DeleteRecord(ctx, msg.ID)
		}
		if err != nil {
			return fmt.Errorf("get record from store: %w", err)
		}

		if err := w.exporter.UpsertRecord(ctx, t); err != nil {
			return fmt.Errorf("upsert record to exporter: %w", err)
		}
		return nil

	default:
		slog.ErrorContext(ctx, "Dropping message with unknown op",
			"transaction_id", msg.ID,
			"op", msg.Op)
		return nil
	}
}

// Run consumes the export queue until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeExports(ctx, func(msg *amqp.ExportMessage) error {
		return w.HandleMessage(ctx, msg)
	})
}
