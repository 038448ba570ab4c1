// Package export defines the contract the export worker writes through.
package export

import (
	"context"

	"tally/internal/core"
)

// RecordExporter mirrors record changes to an external sink.
type RecordExporter interface {
	// UpsertRecord writes or rewrites one record's row in the sink.
	UpsertRecord(ctx context.Context, t core.Transaction) error

	// DeleteRecord removes the record's row from the sink. Deleting a
	// record that was never exported is not an error.
	DeleteRecord(ctx context.Context, id string) error
}
