// Package ledger defines the ports between the application and its
// storage collaborators, plus the shared error taxonomy.
package ledger

import (
	"context"

	"tally/internal/core"
)

// RecordStore is the narrow contract every storage backend implements.
// Every operation is scoped to one owner; a backend must never return or
// touch another owner's rows.
type RecordStore interface {
	// ListRecords returns all of the owner's records of one kind,
	// tagged with that kind.
	ListRecords(ctx context.Context, ownerID string, kind core.Kind) ([]core.Transaction, error)

	// CreateRecord inserts a new record and returns it with the
	// storage-assigned ID and timestamps.
	CreateRecord(ctx context.Context, ownerID string, kind core.Kind, fields core.RecordFields) (core.Transaction, error)

	// UpdateRecord rewrites the editable fields of the owner's record
	// and refreshes UpdatedAt. ID, Kind, OwnerID and CreatedAt never
	// change.
	UpdateRecord(ctx context.Context, ownerID string, kind core.Kind, id string, fields core.RecordFields) (core.Transaction, error)

	// DeleteRecord removes the owner's record.
	DeleteRecord(ctx context.Context, ownerID string, kind core.Kind, id string) error
}

// RecordGetter is the extra lookup the export worker needs. All bundled
// backends implement it alongside RecordStore.
type RecordGetter interface {
	GetRecord(ctx context.Context, ownerID string, kind core.Kind, id string) (core.Transaction, error)
}

// UserStore persists accounts for the auth collaborator.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName string) (User, error)
	UserByEmail(ctx context.Context, email string) (User, error)
}

// User is an account row as stored by the auth collaborator.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	FullName     string
}
