package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "Income"
	Expense Kind = "Expense"
)

type (
	// Kind tells which ledger a transaction belongs to. It is never stored
	// on the row itself; it is derived from the source collection and must
	// travel with the record so that updates and deletes route to the
	// right place.
	Kind string

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense entry scoped to one owner.
	Transaction struct {
		ID        string
		OwnerID   string
		Title     string
		Amount    Money
		Category  string
		Kind      Kind
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// RecordFields carries the user-editable portion of a transaction.
	// ID, OwnerID, Kind and CreatedAt are fixed at creation.
	RecordFields struct {
		Title    string
		Amount   Money
		Category string
	}
)

var (
	ErrInvalidKind     = errors.New("invalid kind")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrTitleTooLong    = errors.New("title too long (max 200 characters)")
	ErrInvalidCategory = errors.New("invalid category")
)

// IncomeCategories and ExpenseCategories are the fixed, non-extensible
// category sets. Order matters only for presentation.
var (
	IncomeCategories  = []string{"Salary", "Freelance", "Investments", "Gifts", "Other"}
	ExpenseCategories = []string{"Food", "Transport", "Entertainment", "Shopping", "Health", "Utilities", "Travel", "Education", "Rent"}
)

func (k Kind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

// Categories returns the valid category set for the kind.
func (k Kind) Categories() []string {
	if k == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (f RecordFields) Validate(kind Kind) error {
	if err := kind.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(f.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(f.Title) > 200 {
		return ErrTitleTooLong
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	for _, c := range kind.Categories() {
		if c == f.Category {
			return nil
		}
	}
	return ErrInvalidCategory
}

// Fields extracts the editable portion of a transaction.
func (t Transaction) Fields() RecordFields {
	return RecordFields{Title: t.Title, Amount: t.Amount, Category: t.Category}
}
