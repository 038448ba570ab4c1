// Package postgres implements the record and user stores on PostgreSQL.
// Schema mirrors the sqlite backend: one table per kind plus users.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"tally/internal/core"
	"tally/internal/ledger"
)

type Repository struct {
	pool *pgxpool.Pool
}

var (
	_ ledger.RecordStore = (*Repository)(nil)
	_ ledger.UserStore   = (*Repository)(nil)
)

func New(ctx context.Context, url string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := &Repository{pool: pool}
	if err := r.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			full_name     TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL REFERENCES users(id),
			title        TEXT NOT NULL,
			amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
			category     TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS incomes (
			id           TEXT PRIMARY KEY,
			owner_id     TEXT NOT NULL REFERENCES users(id),
			title        TEXT NOT NULL,
			amount_cents BIGINT NOT NULL CHECK (amount_cents >= 0),
			category     TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			updated_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_owner ON expenses(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_incomes_owner ON incomes(owner_id)`,
	}
	for _, s := range stmts {
		if _, err := r.pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

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

func (r *Repository) ListRecords(ctx context.Context, ownerID string, kind core.Kind) ([]core.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	q := fmt.Sprintf(`SELECT id, owner_id, title, amount_cents, category, created_at, updated_at
		FROM %s WHERE owner_id = $1`, table)
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, ledger.Storagef("list "+table, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Amount.Cents, &t.Category, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, ledger.Storagef("scan "+table, err)
		}
		t.Kind = kind
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, ledger.Storagef("iterate "+table, err)
	}
	return out, nil
}

func (r *Repository) CreateRecord(ctx context.Context, ownerID string, kind core.Kind, fields core.RecordFields) (core.Transaction, error) {
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)`, table)
	if _, err := r.pool.Exec(ctx, q, t.ID, t.OwnerID, t.Title, t.Amount.Cents, t.Category, t.CreatedAt, t.UpdatedAt); err != nil {
		return core.Transaction{}, ledger.Storagef("insert "+table, err)
	}
	return t, nil
}

func (r *Repository) UpdateRecord(ctx context.Context, ownerID string, kind core.Kind, id string, fields core.RecordFields) (core.Transaction, error) {
	if err := fields.Validate(kind); err != nil {
		return core.Transaction{}, err
	}
	table, err := tableFor(kind)
	if err != nil {
		return core.Transaction{}, err
	}

	q := fmt.Sprintf(`UPDATE %s SET title = $1, amount_cents = $2, category = $3, updated_at = $4
		WHERE id = $5 AND owner_id = $6
		RETURNING id, owner_id, title, amount_cents, category, created_at, updated_at`, table)
	var t core.Transaction
	err = r.pool.QueryRow(ctx, q,
		fields.Title, fields.Amount.Cents, fields.Category, time.Now().UTC(), id, ownerID).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Amount.Cents, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, ledger.Storagef("update "+table, err)
	}
	t.Kind = kind
	return t, nil
}

func (r *Repository) DeleteRecord(ctx context.Context, ownerID string, kind core.Kind, id string) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND owner_id = $2`, table), id, ownerID)
	if err != nil {
		return ledger.Storagef("delete "+table, err)
	}
	if tag.RowsAffected() == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// GetRecord fetches one record by id; used by the export worker.
func (r *Repository) GetRecord(ctx context.Context, ownerID string, kind core.Kind, id string) (core.Transaction, error) {
	table, err := tableFor(kind)
	if err != nil {
		return core.Transaction{}, err
	}

	q := fmt.Sprintf(`SELECT id, owner_id, title, amount_cents, category, created_at, updated_at
		FROM %s WHERE id = $1 AND owner_id = $2`, table)
	var t core.Transaction
	err = r.pool.QueryRow(ctx, q, id, ownerID).
		Scan(&t.ID, &t.OwnerID, &t.Title, &t.Amount.Cents, &t.Category, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, ledger.Storagef("get "+table, err)
	}
	t.Kind = kind
	return t, nil
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash, fullName string) (ledger.User, error) {
	u := ledger.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		FullName:     fullName,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.PasswordHash, u.FullName, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return ledger.User{}, ledger.ErrEmailTaken
		}
		return ledger.User{}, ledger.Storagef("insert users", err)
	}
	return u, nil
}

func (r *Repository) UserByEmail(ctx context.Context, email string) (ledger.User, error) {
	var u ledger.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, full_name FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName)
	if errors.Is(err, pgx.ErrNoRows) {
		return ledger.User{}, ledger.ErrNotFound
	}
	if err != nil {
		return ledger.User{}, ledger.Storagef("get user", err)
	}
	return u, nil
}
