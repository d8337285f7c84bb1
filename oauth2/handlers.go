package oauth2

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ory/fosite"
	"github.com/ory/fosite/handler/openid"

	"iamkernel/credential"
	"iamkernel/session"
	"iamkernel/store"
)

// Handlers adapts the composed fosite provider to Gin HTTP endpoints for
// the OAuth2/OIDC surface (spec §1.9/§4.6).
type Handlers struct {
	provider *Provider
	users    *store.UserRepository
	sess     *session.Manager
	devMode  bool
}

func NewHandlers(provider *Provider, users *store.UserRepository, sess *session.Manager, devMode bool) *Handlers {
	return &Handlers{provider: provider, users: users, sess: sess, devMode: devMode}
}

// AuthorizeHandler implements GET /authorize. fosite itself validates the
// client, redirect_uri, response_type and scope before this ever runs;
// everything here is about resolving which user the browser's session
// cookie belongs to and getting their consent.
func (h *Handlers) AuthorizeHandler(c *gin.Context) {
	ctx := c.Request.Context()

	if err := rewritePKCEChallengeToBase64URL(c.Request); err != nil {
		h.provider.OAuth2Provider.WriteAuthorizeError(ctx, c.Writer, nil, err)
		return
	}

	ar, err := h.provider.OAuth2Provider.NewAuthorizeRequest(ctx, c.Request)
	if err != nil {
		h.provider.OAuth2Provider.WriteAuthorizeError(ctx, c.Writer, ar, err)
		return
	}

	userIDStr, err := h.sess.Get(c)
	if err != nil || userIDStr == "" {
		loginURL := "/login?redirect_uri=" + url.QueryEscape(c.Request.URL.String())
		c.Redirect(http.StatusFound, loginURL)
		return
	}

	userID, convErr := uuid.Parse(userIDStr)
	if convErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_session"})
		return
	}

	user, err := h.users.GetByID(ctx, userID)
	if err != nil || user.Disabled {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_user_session"})
		return
	}

	if !h.devMode && c.Query("consent") != "approve" {
		h.provider.OAuth2Provider.WriteAuthorizeError(ctx, c.Writer, ar, fosite.ErrAccessDenied.WithHint("consent_required"))
		return
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	oidcSession := h.provider.CreateCustomSession(userID.String(), user.Username, email)
	if oidcSession.Claims != nil {
		oidcSession.Claims.Audience = []string{ar.GetClient().GetID()}
	}

	for _, s := range ar.GetRequestedScopes() {
		ar.GrantScope(s)
	}
	for _, a := range ar.GetRequestedAudience() {
		ar.GrantAudience(a)
	}

	response, err := h.provider.OAuth2Provider.NewAuthorizeResponse(ctx, ar, oidcSession)
	if err != nil {
		h.provider.OAuth2Provider.WriteAuthorizeError(ctx, c.Writer, ar, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	h.provider.OAuth2Provider.WriteAuthorizeResponse(ctx, c.Writer, ar, response)
}

// rewritePKCEChallengeToBase64URL translates an incoming S256 code_challenge
// from this kernel's wire encoding - lowercase hex, per spec.md's
// pkce.S256(v) = hex(sha256(v)) - into the base64url encoding fosite's PKCE
// handler compares against internally, by re-encoding the same underlying
// digest bytes. code_verifier is never touched: at /token, fosite recomputes
// base64url(sha256(verifier)) and compares it against whatever we stored for
// code_challenge, so storing the transcoded value here is what makes that
// comparison line up with a verifier submitted against a hex challenge.
func rewritePKCEChallengeToBase64URL(r *http.Request) error {
	query := r.URL.Query()
	challenge := query.Get("code_challenge")
	method := query.Get("code_challenge_method")
	if challenge == "" || !strings.EqualFold(method, "S256") {
		return nil
	}

	digest, err := hex.DecodeString(challenge)
	if err != nil {
		return fosite.ErrInvalidRequest.WithHint("code_challenge must be lowercase hex for the S256 method")
	}

	query.Set("code_challenge", base64.RawURLEncoding.EncodeToString(digest))
	r.URL.RawQuery = query.Encode()
	return nil
}

// TokenHandler implements POST /token, dispatching on grant_type per spec
// §1.9: authorization_code and refresh_token are fully wired through
// fosite; password is wired through C8's user store; client_credentials
// stays unsupported since no service-account profile is defined.
func (h *Handlers) TokenHandler(c *gin.Context) {
	ctx := c.Request.Context()
	oidcSession := &openid.DefaultSession{}

	ar, err := h.provider.OAuth2Provider.NewAccessRequest(ctx, c.Request, oidcSession)
	if err != nil {
		h.provider.OAuth2Provider.WriteAccessError(ctx, c.Writer, ar, err)
		return
	}

	grantTypes := ar.GetGrantTypes()
	if len(grantTypes) == 0 {
		h.provider.OAuth2Provider.WriteAccessError(ctx, c.Writer, ar, fosite.ErrInvalidRequest.WithDescription("grant_type is required"))
		return
	}

	switch grantTypes[0] {
	case "authorization_code", "refresh_token":
		// Fully handled by fosite's composed handlers; nothing left to do.
	case "password":
		err = h.handlePasswordGrant(ctx, ar)
	default:
		err = fosite.ErrUnsupportedGrantType
	}
	if err != nil {
		h.provider.OAuth2Provider.WriteAccessError(ctx, c.Writer, ar, err)
		return
	}

	response, err := h.provider.OAuth2Provider.NewAccessResponse(ctx, ar)
	if err != nil {
		h.provider.OAuth2Provider.WriteAccessError(ctx, c.Writer, ar, err)
		return
	}
	h.provider.OAuth2Provider.WriteAccessResponse(ctx, c.Writer, ar, response)
}

// handlePasswordGrant authenticates the presented username/password against
// the same store and hasher C8's console login uses, then attaches a
// session carrying the resolved user as subject.
func (h *Handlers) handlePasswordGrant(ctx context.Context, ar fosite.AccessRequester) error {
	identifier := ar.GetRequestForm().Get("username")
	password := ar.GetRequestForm().Get("password")
	if identifier == "" || password == "" {
		return fosite.ErrInvalidRequest.WithDescription("username and password are required")
	}

	user, err := h.users.GetByNaturalKey(ctx, identifier)
	if err != nil || user.Disabled {
		return fosite.ErrInvalidGrant.WithDescription("invalid username or password")
	}
	if err := credential.VerifyPassword(user.HashedPassword, password); err != nil {
		return fosite.ErrInvalidGrant.WithDescription("invalid username or password")
	}

	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	ar.SetSession(h.provider.CreateCustomSession(user.ID.String(), user.Username, email))
	return nil
}

// IntrospectHandler implements POST /introspect (RFC 7662).
func (h *Handlers) IntrospectHandler(c *gin.Context) {
	ctx := c.Request.Context()
	ir, err := h.provider.OAuth2Provider.NewIntrospectionRequest(ctx, c.Request, &openid.DefaultSession{})
	if err != nil {
		h.provider.OAuth2Provider.WriteIntrospectionError(ctx, c.Writer, err)
		return
	}
	h.provider.OAuth2Provider.WriteIntrospectionResponse(ctx, c.Writer, ir)
}

// RevokeHandler implements POST /revoke (RFC 7009). An unknown token is
// reported as success, per the RFC.
func (h *Handlers) RevokeHandler(c *gin.Context) {
	ctx := c.Request.Context()
	err := h.provider.OAuth2Provider.NewRevocationRequest(ctx, c.Request)
	h.provider.OAuth2Provider.WriteRevocationResponse(ctx, c.Writer, err)
}

// JWKSHandler implements GET /.well-known/jwks.json.
func (h *Handlers) JWKSHandler(c *gin.Context) {
	jwks, err := h.provider.GetJWKS()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, jwks)
}

// UserInfoHandler implements GET /userinfo. Requires a valid access token
// carrying the openid scope.
func (h *Handlers) UserInfoHandler(c *gin.Context) {
	ctx := c.Request.Context()

	token := fosite.AccessTokenFromRequest(c.Request)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no access token provided"})
		return
	}

	_, ar, err := h.provider.OAuth2Provider.IntrospectToken(ctx, token, fosite.AccessToken, &openid.DefaultSession{})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
		return
	}
	if !ar.GetGrantedScopes().Has("openid") {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not carry the openid scope"})
		return
	}

	oidcSession, ok := ar.GetSession().(*openid.DefaultSession)
	if !ok || oidcSession.Claims == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	userInfo := map[string]interface{}{"sub": oidcSession.GetSubject()}
	if ar.GetGrantedScopes().Has("profile") {
		userInfo["preferred_username"] = oidcSession.Claims.Extra["preferred_username"]
		userInfo["name"] = oidcSession.Claims.Extra["name"]
		userInfo["updated_at"] = oidcSession.Claims.IssuedAt.Unix()
	}
	if ar.GetGrantedScopes().Has("email") {
		userInfo["email"] = oidcSession.Claims.Extra["email"]
		userInfo["email_verified"] = oidcSession.Claims.Extra["email_verified"]
	}

	c.JSON(http.StatusOK, userInfo)
}

// GetConsent implements GET /oauth2/consent?redirect=<encoded_authorize_url>,
// resolving the client metadata referenced by the pending authorize request
// so the console can render a consent screen before replaying it.
func (h *Handlers) GetConsent(c *gin.Context) {
	if _, err := h.sess.Get(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}
	red := c.Query("redirect")
	if red == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "redirect missing"})
		return
	}
	u, err := url.Parse(red)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "redirect invalid"})
		return
	}
	q := u.Query()
	clientID := q.Get("client_id")
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "client_id missing"})
		return
	}

	client, err := h.provider.Store.GetClient(c.Request.Context(), clientID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "client_not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_id": client.GetID(),
		"public":    client.IsPublic(),
		"scopes":    splitScope(q.Get("scope")),
		"redirect":  red,
	})
}

// PostConsent implements POST /oauth2/consent { redirect, decision },
// replaying the caller's decision back onto the pending authorize URL.
func (h *Handlers) PostConsent(c *gin.Context) {
	if _, err := h.sess.Get(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login_required"})
		return
	}
	var body struct {
		Redirect string `json:"redirect"`
		Decision string `json:"decision"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Redirect == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	red, err := url.Parse(body.Redirect)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	q := red.Query()
	if body.Decision == "approve" {
		q.Set("consent", "approve")
	} else {
		q.Set("error", "access_denied")
	}
	red.RawQuery = q.Encode()
	c.Redirect(http.StatusFound, red.String())
}

func splitScope(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ' ' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
