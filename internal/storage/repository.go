// Package storage implements the SQLite-backed record and user stores.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"tally/internal/core"
	"tally/internal/ledger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ ledger.RecordStore = (*SQLiteRepository)(nil)
	_ ledger.UserStore   = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// migrateSchema brings the open database up to the latest embedded
// migration, reusing the repository's own connection.
func migrateSchema(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// tableFor routes a kind to its source collection. The kind is never a
// column; it is implied by the table.
func tableFor(kind core.Kind) (string, error) {
	switch kind {
	case core.Income:
		return "incomes", nil
	case core.Expense:
		return "expenses", nil
	default:
		return "", core.ErrInvalidKind
	}
}

const timeLayout = time.RFC3339Nano

func (r *SQLiteRepository) ListRecords(ctx context.Context, ownerID string, kind core.Kind) ([]core.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT id, owner_id, title, amount_cents, category, created_at, updated_at
		FROM %s WHERE owner_id = ?`, table)
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, ledger.Storagef("list "+table, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows, kind)
		if err != nil {
			return nil, ledger.Storagef("scan "+table, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("iterate "+table, err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, ownerID string, kind core.Kind, fields core.RecordFields) (core.Transaction, error) {
	if err := fields.Validate(kind); err != nil {
		return core.Transaction{}, err
	}
	table, err := tableFor(kind)
	if err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	t := core.Transaction{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     fields.Title,
		Amount:    fields.Amount,
		Category:  fields.Category,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	q := fmt.Sprintf(`INSERT INTO %s (id, owner_id, title, amount_cents, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, table)
	_, err = r.db.ExecContext(ctx, q,
		t.ID, t.OwnerID, t.Title, t.Amount.Cents, t.Category,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return core.Transaction{}, ledger.Storagef("insert "+table, err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"kind", string(kind),
		"title", t.Title,
		"amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, ownerID string, kind core.Kind, id string, fields core.RecordFields) (core.Transaction, error) {
	if err := fields.Validate(kind); err != nil {
		return core.Transaction{}, err
	}
	table, err := tableFor(kind)
	if err != nil {
		return core.Transaction{}, err
	}

	now := time.Now().UTC()
	q := fmt.Sprintf(`UPDATE %s SET title = ?, amount_cents = ?, category = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?`, table)
	res, err := r.db.ExecContext(ctx, q,
		fields.Title, fields.Amount.Cents, fields.Category, now.Format(timeLayout),
		id, ownerID)
	if err != nil {
		return core.Transaction{}, ledger.Storagef("update "+table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}

	return r.getRecord(ctx, table, kind, ownerID, id)
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND owner_id = ?`, table)
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return ledger.Storagef("delete "+table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ledger.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "kind", string(kind))
	return nil
}

func (r *SQLiteRepository) getRecord(ctx context.Context, table string, kind core.Kind, ownerID, id string) (core.Transaction, error) {
	q := fmt.Sprintf(`SELECT id, owner_id, title, amount_cents, category, created_at, updated_at
		FROM %s WHERE id = ? AND owner_id = ?`, table)
	row := r.db.QueryRowContext(ctx, q, id, ownerID)
	t, err := scanTransaction(row, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, ledger.Storagef("get "+table, err)
	}
	return t, nil
}

// GetRecord fetches one record by id; used by the export worker.
func (r *SQLiteRepository) GetRecord(ctx context.Context, ownerID string, kind core.Kind, id string) (core.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return core.Transaction{}, err
	}
	return r.getRecord(ctx, table, kind, ownerID, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner, kind core.Kind) (core.Transaction, error) {
	var (
		t                core.Transaction
		created, updated string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Amount.Cents, &t.Category, &created, &updated); err != nil {
		return core.Transaction{}, err
	}
	t.Kind = kind
	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return core.Transaction{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash, fullName string) (ledger.User, error) {
	u := ledger.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		FullName:     fullName,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, time.Now().UTC().Format(timeLayout))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ledger.User{}, ledger.ErrEmailTaken
		}
		return ledger.User{}, ledger.Storagef("insert users", err)
	}
	return u, nil
}

func (r *SQLiteRepository) UserByEmail(ctx context.Context, email string) (ledger.User, error) {
	var u ledger.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name FROM users WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, ledger.Storagef("get user", err)
	}
	return u, nil
}
