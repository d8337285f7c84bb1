package credential

import (
	"strings"
	"testing"
)

func TestValidatePasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid strong password", "Str0ng!Pass", false},
		{"too short", "Ab1!abc", true},
		{"too long", "Ab1!" + strings.Repeat("a", 61), true},
		{"no uppercase", "str0ng!pass", true},
		{"no lowercase", "STR0NG!PASS", true},
		{"no digit", "Strong!Pass", true},
		{"no symbol", "Str0ngPass1", true},
		{"non-ascii rejected", "Str0ng!Pässw0rd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordPolicy(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePasswordPolicy(%q) err = %v, wantErr %v", tt.password, err, tt.wantErr)
			}
		})
	}
}

func TestHashAndVerifyPasswordRoundTrip(t *testing.T) {
	const password = "Str0ng!Pass"

	hashed, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == password {
		t.Fatalf("HashPassword returned the plaintext unchanged")
	}

	if err := VerifyPassword(hashed, password); err != nil {
		t.Errorf("VerifyPassword of the correct password failed: %v", err)
	}
	if err := VerifyPassword(hashed, "wrong-password"); err == nil {
		t.Errorf("VerifyPassword of a wrong password unexpectedly succeeded")
	}
	if err := VerifyPassword("", password); err == nil {
		t.Errorf("VerifyPassword against an empty stored hash unexpectedly succeeded")
	}
	if err := VerifyPassword("not-a-bcrypt-hash", password); err == nil {
		t.Errorf("VerifyPassword against a malformed hash unexpectedly succeeded")
	}
}
