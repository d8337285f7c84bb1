package credential

import "testing"

func TestGenerateAPIKeyRoundTrip(t *testing.T) {
	key, err := GenerateAPIKey("aa")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}

	decorator, secret, ok := ParseAPIKey(key.Plaintext)
	if !ok {
		t.Fatalf("ParseAPIKey(%q) failed to parse a freshly generated key", key.Plaintext)
	}
	if decorator != "aa" {
		t.Errorf("decorator = %q, want %q", decorator, "aa")
	}
	if secret != key.Secret {
		t.Errorf("secret = %q, want %q", secret, key.Secret)
	}
	if Prefix(secret) != key.Prefix {
		t.Errorf("Prefix(secret) = %q, want %q", Prefix(secret), key.Prefix)
	}

	if err := VerifyAPIKeySecret(secret, key.Salt, key.SecretHash); err != nil {
		t.Errorf("VerifyAPIKeySecret of the correct secret failed: %v", err)
	}
	if err := VerifyAPIKeySecret("wrong-secret", key.Salt, key.SecretHash); err == nil {
		t.Errorf("VerifyAPIKeySecret of a wrong secret unexpectedly succeeded")
	}
}

func TestGenerateAPIKeyUniqueness(t *testing.T) {
	a, err := GenerateAPIKey("aa")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	b, err := GenerateAPIKey("aa")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if a.Secret == b.Secret {
		t.Errorf("two generated keys shared the same secret")
	}
	if a.Salt == b.Salt {
		t.Errorf("two generated keys shared the same salt")
	}
}

func TestParseAPIKeyRejectsMalformedInput(t *testing.T) {
	tests := []struct {
		name      string
		presented string
	}{
		{"no separator", "nodashhere"},
		{"empty secret", "aa-"},
		{"leading separator", "-secretvalue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := ParseAPIKey(tt.presented); ok {
				t.Errorf("ParseAPIKey(%q) unexpectedly succeeded", tt.presented)
			}
		})
	}
}

func TestVerifyAPIKeySecretWrongSalt(t *testing.T) {
	key, err := GenerateAPIKey("aa")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	other, err := GenerateAPIKey("aa")
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	if err := VerifyAPIKeySecret(key.Secret, other.Salt, key.SecretHash); err == nil {
		t.Errorf("VerifyAPIKeySecret with a mismatched salt unexpectedly succeeded")
	}
}
