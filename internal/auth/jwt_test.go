package auth

import (
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestGenerate_Validate_Roundtrip(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123", "ana@example.com")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Errorf("Generate() = %q, want three dot-separated JWT parts", token)
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Validate() userID = %q, want %q", userID, "user-123")
	}
}

func TestGenerate_EmptyEmailStillValid(t *testing.T) {
	ts := newTestTokenService(t)

	// Email is an optional claim — a token without it must validate the
	// same way as one with it.
	token, err := ts.Generate("user-456", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	userID, err := ts.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if userID != "user-456" {
		t.Errorf("Validate() userID = %q, want %q", userID, "user-456")
	}
}

func TestValidate_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateWithDuration("user-123", "", -time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should reject an expired token")
	}
}

func TestValidate_NearExpiryToken(t *testing.T) {
	ts := newTestTokenService(t)

	// A token one step short of its expiry window is still good.
	token, err := ts.GenerateWithDuration("user-123", "", 2*time.Second)
	if err != nil {
		t.Fatalf("GenerateWithDuration() error = %v", err)
	}

	if _, err := ts.Validate(token); err != nil {
		t.Fatalf("Validate() error = %v, want nil for unexpired token", err)
	}
}

func TestValidate_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Generate("user-123", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// Flip a character in the payload segment — the signature no longer
	// matches.
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := ts.Validate(tampered); err == nil {
		t.Fatal("Validate() should reject a tampered token")
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)

	other, err := NewTokenService("another-secret-16-chars-long!!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := other.Generate("user-123", "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := ts.Validate(token); err == nil {
		t.Fatal("Validate() should reject a token signed with a different secret")
	}
}

func TestValidate_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, input := range []string{"", "not-a-token", "a.b.c", "....."} {
		if _, err := ts.Validate(input); err == nil {
			t.Errorf("Validate(%q) should fail", input)
		}
	}
}
