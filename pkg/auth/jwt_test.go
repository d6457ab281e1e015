package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestMintAndParse(t *testing.T) {
	token, err := Mint("user_123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	claims, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if claims.UserID != "user_123" {
		t.Fatalf("Expected user_123, got %s", claims.UserID)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := Mint("user_123", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	_, err = Parse(token, "another-secret")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Expected ErrInvalidSignature, got %v", err)
	}
}

func TestParse_Expired(t *testing.T) {
	token, err := Mint("user_123", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	_, err = Parse(token, testSecret)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("Expected ErrExpired, got %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	_, err := Parse("not-a-token", testSecret)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Expected ErrInvalidSignature, got %v", err)
	}
}
