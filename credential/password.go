// Package credential implements C1: password hashing/verification, API-key
// generation/hashing, and local JWT signing/verification. Every verification
// failure here collapses to apperror.Unauthenticated() — callers must never
// be able to distinguish "wrong password" from "account not found" from
// "malformed hash". Password-policy violations are reported as
// KindValidation, and hashing or key-generation failures as KindInternal.
package credential

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"iamkernel/apperror"
)

// PasswordCost mirrors the teacher's BCryptCost configuration knob; 12 is a
// reasonable modern default absent an explicit override.
const PasswordCost = 12

// ValidatePasswordPolicy enforces spec §1.4: 8-64 chars, all four character
// classes present, printable ASCII only.
func ValidatePasswordPolicy(password string) error {
	if len(password) < 8 || len(password) > 64 {
		return apperror.New(apperror.KindValidation, "password must be 8-64 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		if r < 0x20 || r > 0x7e {
			return apperror.New(apperror.KindValidation, "password must contain only printable ASCII characters")
		}
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		return apperror.New(apperror.KindValidation, "password must contain upper, lower, digit, and symbol characters")
	}
	return nil
}

// HashPassword hashes a verified-policy-compliant password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to hash password", err)
	}
	return string(hashed), nil
}

// VerifyPassword performs a constant-time comparison of password against
// the stored bcrypt hash. Any failure - mismatch, malformed hash - returns
// the same generic unauthenticated error.
func VerifyPassword(hashedPassword, password string) error {
	if hashedPassword == "" {
		return apperror.Unauthenticated()
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return apperror.Unauthenticated()
	}
	return nil
}
