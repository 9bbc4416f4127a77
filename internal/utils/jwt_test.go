package utils

import (
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("user-1", "a@example.com", "session-42", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user-1, got %q", claims.UserID)
	}
	if claims.Email != "a@example.com" {
		t.Errorf("expected email claim, got %q", claims.Email)
	}
	if claims.ID != "session-42" {
		t.Errorf("expected session id in jti, got %q", claims.ID)
	}
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT("user-1", "a@example.com", "s", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	SetJWTSecret("first-secret")
	token, err := GenerateJWT("user-1", "a@example.com", "s", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	SetJWTSecret("second-secret")
	if _, err := ValidateJWT(token); err == nil {
		t.Fatal("expected token signed with a different secret to be rejected")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	SetJWTSecret("test-secret")
	if _, err := ValidateJWT("not.a.token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}
