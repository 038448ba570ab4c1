package core

import (
	"strings"
	"testing"
)

func TestKindValidate(t *testing.T) {
	if err := Income.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Expense.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := Kind("Transfer").Validate(); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestRecordFieldsValidate(t *testing.T) {
	good := RecordFields{Title: "Monthly Salary", Amount: Money{Cents: 100}, Category: "Salary"}
	if err := good.Validate(Income); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		kind   Kind
		fields RecordFields
	}{
		{"empty title", Income, RecordFields{Title: "  ", Amount: Money{Cents: 1}, Category: "Salary"}},
		{"title over 200 chars", Income, RecordFields{Title: strings.Repeat("x", 201), Amount: Money{Cents: 1}, Category: "Salary"}},
		{"zero amount", Income, RecordFields{Title: "a", Amount: Money{Cents: 0}, Category: "Salary"}},
		{"category from wrong kind", Income, RecordFields{Title: "a", Amount: Money{Cents: 1}, Category: "Food"}},
		{"unknown category", Expense, RecordFields{Title: "a", Amount: Money{Cents: 1}, Category: "Bribes"}},
		{"invalid kind", Kind("Transfer"), RecordFields{Title: "a", Amount: Money{Cents: 1}, Category: "Food"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.fields.Validate(tc.kind); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestKindCategories(t *testing.T) {
	if len(Income.Categories()) != 5 {
		t.Fatalf("expected 5 income categories, got %d", len(Income.Categories()))
	}
	if len(Expense.Categories()) != 9 {
		t.Fatalf("expected 9 expense categories, got %d", len(Expense.Categories()))
	}
}
