// Package oauth2 integrates github.com/ory/fosite to provide OAuth2/OIDC
// functionality (authorize, token, introspect, revoke) per spec §1.6/§4.6.
package oauth2

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/fosite"
	"github.com/ory/fosite/compose"
	"github.com/ory/fosite/handler/openid"
	_ "github.com/ory/fosite/storage"
	"github.com/ory/fosite/token/jwt"

	"iamkernel/config"
)

// Provider wraps fosite configured with storage, signing strategies, and
// helpers for OIDC session creation and JWKS exposure.
type Provider struct {
	OAuth2Provider fosite.OAuth2Provider
	Store          *Store
	Config         *fosite.Config
	PrivateKey     *rsa.PrivateKey
	Kid            string
}

// NewProvider constructs a fosite OAuth2 provider backed by Postgres store
// and configured lifespans. It also generates or loads an RSA private key,
// used only to sign OIDC ID Tokens - access/refresh tokens stay on fosite's
// HMAC strategy, keyed from Security.JWTSecret.
func NewProvider(cfg *config.Config, pool *pgxpool.Pool) (*Provider, error) {
	privateKey, err := generateOrLoadRSAKey(cfg.OAuth2.JWTSigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create RSA key: %w", err)
	}

	fositeConfig := &fosite.Config{
		AccessTokenLifespan:   cfg.OAuth2.AccessTokenLifespan,
		RefreshTokenLifespan:  cfg.OAuth2.RefreshTokenLifespan,
		AuthorizeCodeLifespan: cfg.OAuth2.AuthorizeCodeLifespan,
		IDTokenLifespan:       cfg.OAuth2.IDTokenLifespan,

		ScopeStrategy:            fosite.HierarchicScopeStrategy,
		AudienceMatchingStrategy: fosite.DefaultAudienceMatchingStrategy,

		DisableRefreshTokenValidation: false,
		SendDebugMessagesToClients:    cfg.Server.Environment != "production",

		EnforcePKCE:                    true,
		EnforcePKCEForPublicClients:    true,
		EnablePKCEPlainChallengeMethod: false,

		AccessTokenIssuer: cfg.OAuth2.Issuer,
		IDTokenIssuer:     cfg.OAuth2.Issuer,
	}

	if cfg.Security.JWTSecret != "" {
		fositeConfig.GlobalSecret = []byte(cfg.Security.JWTSecret)
	}

	oidcStrategy := compose.NewOpenIDConnectStrategy(
		func(_ context.Context) (interface{}, error) { return privateKey, nil },
		fositeConfig,
	)
	strategy := compose.CommonStrategy{
		CoreStrategy:               compose.NewOAuth2HMACStrategy(fositeConfig),
		OpenIDConnectTokenStrategy: oidcStrategy,
	}

	store := NewStore(pool, fositeConfig.AccessTokenLifespan)

	oauth2Provider := compose.Compose(
		fositeConfig,
		store,
		strategy,

		compose.OAuth2AuthorizeExplicitFactory,
		compose.OAuth2AuthorizeImplicitFactory,
		compose.OAuth2ClientCredentialsGrantFactory,
		compose.OAuth2RefreshTokenGrantFactory,

		compose.OAuth2PKCEFactory,

		compose.OpenIDConnectExplicitFactory,
		compose.OpenIDConnectImplicitFactory,
		compose.OpenIDConnectHybridFactory,
		compose.OpenIDConnectRefreshFactory,

		compose.OAuth2TokenIntrospectionFactory,
		compose.OAuth2TokenRevocationFactory,
	)

	kid, err := computeKID(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to compute KID: %w", err)
	}
	if cfg.OAuth2.JWTKid != "" {
		kid = cfg.OAuth2.JWTKid
	}

	return &Provider{
		OAuth2Provider: oauth2Provider,
		Store:          store,
		Config:         fositeConfig,
		PrivateKey:     privateKey,
		Kid:            kid,
	}, nil
}

// generateOrLoadRSAKey parses keyString as a PEM-encoded PKCS1 or PKCS8 RSA
// private key, falling back to generating a fresh one when keyString is
// empty or unparseable (development convenience; production deployments
// should always supply a real key so restarts don't rotate the JWKS).
func generateOrLoadRSAKey(keyString string) (*rsa.PrivateKey, error) {
	if block, _ := pem.Decode([]byte(keyString)); block != nil {
		if privateKey, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
			return privateKey, nil
		}
		if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
			if rsaKey, ok := key.(*rsa.PrivateKey); ok {
				return rsaKey, nil
			}
		}
	}
	return rsa.GenerateKey(rand.Reader, 2048)
}

// GetJWKS returns the JSON Web Key Set for this provider's ID Token signing
// key. The key ID (kid) is derived from a hash of the public key unless
// overridden by JWT_KID.
func (p *Provider) GetJWKS() (map[string]interface{}, error) {
	publicKey := &p.PrivateKey.PublicKey

	nB64, eB64 := rsaKeyToJWKComponents(publicKey)

	jwk := map[string]interface{}{
		"kty": "RSA",
		"use": "sig",
		"alg": "RS256",
		"kid": p.Kid,
		"n":   nB64,
		"e":   eB64,
	}

	return map[string]interface{}{"keys": []interface{}{jwk}}, nil
}

// CreateCustomSession creates a session embedding basic user info as OIDC
// claims for the ID Token issued alongside an access token.
func (p *Provider) CreateCustomSession(userID, username, email string) *openid.DefaultSession {
	session := &openid.DefaultSession{
		Claims: &jwt.IDTokenClaims{
			Issuer:      p.Config.IDTokenIssuer,
			Subject:     userID,
			Audience:    []string{},
			ExpiresAt:   time.Now().Add(p.Config.IDTokenLifespan),
			IssuedAt:    time.Now(),
			RequestedAt: time.Now(),
			AuthTime:    time.Now(),
		},
		Headers: &jwt.Headers{
			Extra: map[string]interface{}{
				"kid": p.Kid,
			},
		},
		Subject:  userID,
		Username: username,
	}

	session.Claims.Extra = map[string]interface{}{
		"email":              email,
		"email_verified":     email != "",
		"preferred_username": username,
		"name":               username,
	}

	return session
}

// computeKID creates a deterministic KID from the RSA public key.
func computeKID(pub *rsa.PublicKey) (string, error) {
	keyBytes, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", err
	}
	hash := sha256.Sum256(keyBytes)
	return fmt.Sprintf("%x", hash[:8]), nil
}

// rsaKeyToJWKComponents encodes an RSA public key's modulus and exponent as
// base64url, per RFC 7518 §6.3.1.
func rsaKeyToJWKComponents(pub *rsa.PublicKey) (n, e string) {
	n = base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e = base64.RawURLEncoding.EncodeToString(intToBytes(pub.E))
	return n, e
}

func intToBytes(i int) []byte {
	if i == 0 {
		return []byte{0}
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte(i & 0xff)}, b...)
		i >>= 8
	}
	return b
}
