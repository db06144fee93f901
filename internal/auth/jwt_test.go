package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestJWTService(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("session-secret", 24)
	userID := uuid.New()

	token, err := svc.Generate(userID, "buyer@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "buyer@example.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}

	if _, err := NewJWTService("other-secret", 24).Validate(token); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
	if _, err := svc.Validate("not-a-token"); err == nil {
		t.Fatalf("expected validation failure for garbage")
	}
}
