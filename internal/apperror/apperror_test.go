package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("product", "42"), ErrNotFound},
		{"validation", ValidationFailed("precio", "price is required"), ErrValidation},
		{"conflict", Conflict("user", "ana@example.com"), ErrConflict},
		{"unauthorized", Unauthorized("wrong password"), ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
		})
	}
}

func TestMatchingThroughWrapping(t *testing.T) {
	// Services wrap repository errors with %w; matching must survive the
	// whole chain.
	err := fmt.Errorf("service/auth: registering: %w", Conflict("user", "ana@example.com"))

	if !errors.Is(err, ErrConflict) {
		t.Error("errors.Is should find ErrConflict through a wrapped chain")
	}
	if !IsConflict(err) {
		t.Error("IsConflict should find ErrConflict through a wrapped chain")
	}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As should extract the *AppError")
	}
	if appErr.Message != "user already exists: ana@example.com" {
		t.Errorf("Message = %q", appErr.Message)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("user", "x")) {
		t.Error("IsNotFound(NotFound(...)) = false")
	}
	if IsNotFound(errors.New("boom")) {
		t.Error("IsNotFound(random error) = true")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) = true")
	}
}

func TestErrorAndField(t *testing.T) {
	err := ValidationFailed("email", "email is required")
	if err.Error() != "email is required" {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Field != "email" {
		t.Errorf("Field = %q", err.Field)
	}
}
