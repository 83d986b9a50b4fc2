package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "github.com/calltrack/api/internal/errors"
)

func TestJWTService_GenerateAndVerify(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(42)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty token")
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if userID != 42 {
		t.Errorf("Expected user ID 42, got %d", userID)
	}
}

func TestJWTService_Expired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)

	token, err := svc.GenerateToken(7)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = svc.VerifyToken(token)
	if !errors.Is(err, apperrors.ErrTokenExpired) {
		t.Errorf("Expected ErrTokenExpired, got %v", err)
	}
}

func TestJWTService_TamperedSignature(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, err := svc.GenerateToken(7)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	// Flip one byte of the signature segment
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("Expected 3 token segments, got %d", len(parts))
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	_, err = svc.VerifyToken(tampered)
	if !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid for tampered token, got %v", err)
	}
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("right-secret", time.Hour).GenerateToken(7)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	_, err = NewJWTService("wrong-secret", time.Hour).VerifyToken(token)
	if !errors.Is(err, apperrors.ErrTokenInvalid) {
		t.Errorf("Expected ErrTokenInvalid for wrong secret, got %v", err)
	}
}

func TestJWTService_Garbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.VerifyToken(token); !errors.Is(err, apperrors.ErrTokenInvalid) {
			t.Errorf("VerifyToken(%q): expected ErrTokenInvalid, got %v", token, err)
		}
	}
}
