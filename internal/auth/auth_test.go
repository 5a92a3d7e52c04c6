package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)

	token, err := manager.Generate("trip-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := manager.Validate(token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.TripID != "trip-1" {
		t.Errorf("TripID = %s, want trip-1", claims.TripID)
	}
	if claims.ParticipantID != "alice" {
		t.Errorf("ParticipantID = %s, want alice", claims.ParticipantID)
	}
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", time.Hour).Generate("trip-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = NewJWTManager("secret-b", time.Hour).Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -time.Minute)
	token, err := manager.Generate("trip-1", "alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := manager.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTRejectsGarbage(t *testing.T) {
	manager := NewJWTManager("test-secret", time.Hour)
	if _, err := manager.Validate("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Expected ErrInvalidToken, got %v", err)
	}
}

func TestPIN(t *testing.T) {
	t.Run("hash and check", func(t *testing.T) {
		hash, err := HashPIN("4321")
		if err != nil {
			t.Fatalf("HashPIN failed: %v", err)
		}
		if err := CheckPIN(hash, "4321"); err != nil {
			t.Errorf("CheckPIN failed: %v", err)
		}
		if err := CheckPIN(hash, "0000"); !errors.Is(err, ErrInvalidPIN) {
			t.Errorf("Expected ErrInvalidPIN, got %v", err)
		}
	})

	t.Run("rejects short PINs", func(t *testing.T) {
		if _, err := HashPIN("12"); !errors.Is(err, ErrWeakPIN) {
			t.Errorf("Expected ErrWeakPIN, got %v", err)
		}
	})
}
