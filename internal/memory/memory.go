// Package memory provides an in-process store used by tests and the
// default development configuration.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/ledger"
)

type Store struct {
	mu    sync.Mutex
	rows  map[core.Kind][]core.Transaction
	users map[string]ledger.User // keyed by lowercased email

	// now is swappable so tests can pin timestamps.
	now func() time.Time
}

func New() *Store {
	return &Store{
		rows: map[core.Kind][]core.Transaction{
			core.Income:  nil,
			core.Expense: nil,
		},
		users: make(map[string]ledger.User),
		now:   time.Now,
	}
}

// SetClock replaces the timestamp source. Test helper.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

var (
	_ ledger.RecordStore = (*Store)(nil)
	_ ledger.UserStore   = (*Store)(nil)
)

func (s *Store) ListRecords(_ context.Context, ownerID string, kind core.Kind) ([]core.Transaction, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.rows[kind] {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) CreateRecord(_ context.Context, ownerID string, kind core.Kind, fields core.RecordFields) (core.Transaction, error) {
	if err := fields.Validate(kind); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
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
	s.rows[kind] = append(s.rows[kind], t)
	return t, nil
}

func (s *Store) UpdateRecord(_ context.Context, ownerID string, kind core.Kind, id string, fields core.RecordFields) (core.Transaction, error) {
	if err := fields.Validate(kind); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[kind]
	for i := range rows {
		if rows[i].ID == id && rows[i].OwnerID == ownerID {
			rows[i].Title = fields.Title
			rows[i].Amount = fields.Amount
			rows[i].Category = fields.Category
			rows[i].UpdatedAt = s.now()
			return rows[i], nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) DeleteRecord(_ context.Context, ownerID string, kind core.Kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[kind]
	for i := range rows {
		if rows[i].ID == id && rows[i].OwnerID == ownerID {
			s.rows[kind] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

// GetRecord fetches one record by id; used by the export worker.
func (s *Store) GetRecord(_ context.Context, ownerID string, kind core.Kind, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.rows[kind] {
		if t.ID == id && t.OwnerID == ownerID {
			return t, nil
		}
	}
	return core.Transaction{}, ledger.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, email, passwordHash, fullName string) (ledger.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return ledger.User{}, ledger.ErrEmailTaken
	}
	u := ledger.User{
		ID:           uuid.NewString(),
		Email:        key,
		PasswordHash: passwordHash,
		FullName:     fullName,
	}
	s.users[key] = u
	return u, nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (ledger.User, error) {
	key := strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[key]
	if !ok {
		return ledger.User{}, ledger.ErrNotFound
	}
	return u, nil
}
