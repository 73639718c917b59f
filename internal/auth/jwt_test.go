package auth

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer("secret", time.Hour, "apicoin")
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, exp, err := iss.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if exp.Before(time.Now()) {
		t.Fatalf("expiry in the past: %s", exp)
	}
	claims, err := iss.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	iss, _ := NewIssuer("secret", time.Minute, "apicoin")
	other, _ := NewIssuer("other-secret", time.Minute, "apicoin")

	token, _, _ := other.Issue("mallory")
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for foreign signature, got %v", err)
	}

	token, _, _ = iss.Issue("bob")
	iss.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := iss.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestIssuerValidation(t *testing.T) {
	if _, err := NewIssuer("", time.Minute, ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected missing secret, got %v", err)
	}
	iss, _ := NewIssuer("s", 0, "")
	if iss.ttl != defaultTTL {
		t.Fatalf("expected default ttl")
	}
	if _, _, err := iss.Issue(""); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject, got %v", err)
	}
}
