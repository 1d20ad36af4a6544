package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundWrapsSentinel(t *testing.T) {
	err := NotFound("bug", "BUG-00042")

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("NotFound() should wrap ErrNotFound, got %v", err)
	}
	if err.Message == "" {
		t.Error("NotFound() should carry a human-readable message")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	// Services wrap repository errors with fmt.Errorf("%w", ...);
	// errors.Is must still find the sentinel through the chain.
	inner := ValidationFailed("title", "must not be empty")
	wrapped := fmt.Errorf("creating bug: %w", inner)

	if !errors.Is(wrapped, ErrValidation) {
		t.Errorf("wrapped error lost ErrValidation: %v", wrapped)
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatalf("errors.As failed to extract *AppError from %v", wrapped)
	}
	if appErr.Field != "title" {
		t.Errorf("Field = %q, want %q", appErr.Field, "title")
	}
}

func TestDuplicateIsConflict(t *testing.T) {
	err := Duplicate("username", "admin")
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Duplicate() should wrap ErrConflict, got %v", err)
	}
}

func TestInvalidEnumIsDistinctFromValidation(t *testing.T) {
	err := InvalidEnum("status", "BANANA")
	if !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("InvalidEnum() should wrap ErrInvalidEnum, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("InvalidEnum() must not match ErrNotFound")
	}
}

func TestStorageCarriesCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("saving bugs", cause)

	if !errors.Is(err, ErrStorage) {
		t.Errorf("Storage() should wrap ErrStorage, got %v", err)
	}
	if got := err.Error(); got == "" {
		t.Error("Storage() error string should not be empty")
	}
}
