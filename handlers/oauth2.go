package handlers

import (
	"github.com/gin-gonic/gin"
)

// OIDCDiscovery serves the standard OIDC discovery document (spec §1.13's
// /oauth2/.well-known/openid-configuration), built from the issuer this
// kernel was configured with rather than hardcoded.
func (h *Handlers) OIDCDiscovery(c *gin.Context) {
	issuer := h.Config.OAuth2.Issuer
	c.JSON(200, gin.H{
		"issuer":                                 issuer,
		"authorization_endpoint":                 issuer + "/oauth2/authorize",
		"token_endpoint":                         issuer + "/oauth2/token",
		"userinfo_endpoint":                      issuer + "/oauth2/userinfo",
		"revocation_endpoint":                    issuer + "/oauth2/revoke",
		"introspection_endpoint":                 issuer + "/oauth2/introspect",
		"jwks_uri":                               issuer + "/oauth2/.well-known/jwks.json",
		"response_types_supported":               []string{"code", "token", "id_token"},
		"subject_types_supported":                []string{"public"},
		"id_token_signing_alg_values_supported":  []string{"RS256"},
		"grant_types_supported":                  []string{"authorization_code", "refresh_token", "password"},
		"scopes_supported":                       []string{"openid", "profile", "email", "offline"},
		"token_endpoint_auth_methods_supported":  []string{"client_secret_basic", "client_secret_post", "none"},
		"code_challenge_methods_supported":       []string{"S256"},
	})
}
