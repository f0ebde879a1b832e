package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "simple error", err: errors.New("something went wrong"), expected: "Error: something went wrong"},
		{name: "store error", err: Store("get user", sql.ErrConnDone), expected: "Error: store get user: " + sql.ErrConnDone.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.err); got != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestStoreWrapping(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if Store("op", nil) != nil {
			t.Error("Store(op, nil) should be nil")
		}
	})

	t.Run("not found is not wrapped", func(t *testing.T) {
		err := Store("get user", fmt.Errorf("user 7: %w", ErrNotFound))
		if IsStore(err) {
			t.Error("ErrNotFound must not become a StoreError")
		}
		if !IsNotFound(err) {
			t.Error("IsNotFound() = false, want true")
		}
	})

	t.Run("io failure is wrapped once", func(t *testing.T) {
		inner := errors.New("disk full")
		err := Store("append", Store("insert", inner))
		var se *StoreError
		if !errors.As(err, &se) {
			t.Fatal("expected StoreError")
		}
		if se.Op != "insert" {
			t.Errorf("Op = %q, want insert", se.Op)
		}
		if !errors.Is(err, inner) {
			t.Error("StoreError should unwrap to the cause")
		}
	})
}

func TestValidation(t *testing.T) {
	err := Validation("not a number: %q", "abc")
	if !IsValidation(err) {
		t.Fatal("IsValidation() = false, want true")
	}
	if IsStore(err) || IsNotFound(err) {
		t.Error("validation error matched another kind")
	}
}
