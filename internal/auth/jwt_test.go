package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "a@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if token == "" {
		t.Fatal("Generate returned an empty token")
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("UserID = %s, want %s", claims.UserID, userID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-one", 1).Generate(uuid.New(), "a@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := NewJWTService("secret-two", 1).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("want ErrInvalidToken, got %v", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", -1)
	token, err := svc.Generate(uuid.New(), "a@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("want ErrInvalidToken for expired token, got %v", err)
	}
}

func TestValidateGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	for _, token := range []string{"", "not.a.token", "a.b.c"} {
		if _, err := svc.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Validate(%q): want ErrInvalidToken, got %v", token, err)
		}
	}
}
