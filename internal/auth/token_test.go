package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &User{ID: uuid.New(), Role: RoleDoctor}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, role, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != user.ID {
		t.Errorf("expected subject %s, got %s", user.ID, userID)
	}
	if role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", role)
	}
}

func TestTokenVerify_WrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, err := issuer.Issue(&User{ID: uuid.New(), Role: RolePatient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenVerify_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(&User{ID: uuid.New(), Role: RolePatient})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := issuer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenVerify_Garbage(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	if _, _, err := issuer.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
