package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), expected: true},
		{name: "connection closed", err: errors.New("connection closed"), expected: true},
		{name: "EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "broker closed delivery channel", err: errDeliveryChannelClosed, expected: true},
		{name: "wrapped delivery channel close", err: fmt.Errorf("consume exports: %w", errDeliveryChannelClosed), expected: true},
		{name: "handler error", err: errors.New("record not found"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestExportMessageRoundTrip(t *testing.T) {
	msg := NewExportMessage("owner-1", "Expense", "rec-1", OpUpsert)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	got, err := ExportMessageFromJSON(body)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if got.OwnerID != "owner-1" || got.Kind != "Expense" || got.ID != "rec-1" || got.Op != OpUpsert {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestExportMessageFromJSONRejectsGarbage(t *testing.T) {
	if _, err := ExportMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed body")
	}
}
