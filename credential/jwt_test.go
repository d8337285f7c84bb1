package credential

import (
	"testing"
	"time"
)

func TestJWTSignerRoundTrip(t *testing.T) {
	signer := NewJWTSigner("test-secret", "kid-1", "iamkernel")

	token, err := signer.Sign("user-123", "jti-1", []string{"openid", "profile"}, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.ID != "jti-1" {
		t.Errorf("ID = %q, want %q", claims.ID, "jti-1")
	}
	if len(claims.Scope) != 2 || claims.Scope[0] != "openid" || claims.Scope[1] != "profile" {
		t.Errorf("Scope = %v, want [openid profile]", claims.Scope)
	}
}

func TestJWTSignerRejectsExpiredToken(t *testing.T) {
	signer := NewJWTSigner("test-secret", "", "iamkernel")

	token, err := signer.Sign("user-123", "jti-1", nil, -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signer.Verify(token); err == nil {
		t.Errorf("Verify of an expired token unexpectedly succeeded")
	}
}

func TestJWTSignerRejectsWrongSecret(t *testing.T) {
	signer := NewJWTSigner("test-secret", "", "iamkernel")
	other := NewJWTSigner("other-secret", "", "iamkernel")

	token, err := signer.Sign("user-123", "jti-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := other.Verify(token); err == nil {
		t.Errorf("Verify with the wrong secret unexpectedly succeeded")
	}
}

func TestJWTSignerRejectsGarbage(t *testing.T) {
	signer := NewJWTSigner("test-secret", "", "iamkernel")
	if _, err := signer.Verify("not.a.jwt"); err == nil {
		t.Errorf("Verify of a malformed token unexpectedly succeeded")
	}
}
