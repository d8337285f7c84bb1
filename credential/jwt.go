package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"iamkernel/apperror"
)

// Claims is the local (non-fosite) JWT claim set used by C4 and C8 for the
// console's own access/refresh token pair. It is intentionally distinct
// from the claims fosite manages internally for the OAuth2/OIDC surface in
// package oauth2 — the two token families are never interchangeable.
type Claims struct {
	jwt.RegisteredClaims
	Scope []string `json:"scope,omitempty"`
}

// JWTSigner signs and verifies local JWTs with a single HMAC secret.
// RS256/ES256 are optional per spec §1.4; this kernel wires HS256, the
// mandatory algorithm, and leaves the asymmetric path to package oauth2's
// OIDC ID-token issuance, which already carries its own RSA key.
type JWTSigner struct {
	secret []byte
	kid    string
	issuer string
}

func NewJWTSigner(secret, kid, issuer string) *JWTSigner {
	return &JWTSigner{secret: []byte(secret), kid: kid, issuer: issuer}
}

// Sign mints a token for subject with the given scopes and lifetime.
func (s *JWTSigner) Sign(subject, jti string, scope []string, lifetime time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
		Scope: scope,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		token.Header["kid"] = s.kid
	}

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperror.Wrap(apperror.KindInternal, "failed to sign token", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims. Any failure -
// bad signature, expired, malformed - collapses to apperror.Unauthenticated().
func (s *JWTSigner) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperror.Unauthenticated()
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperror.Unauthenticated()
	}
	return claims, nil
}
