package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iamkernel/apperror"
	"iamkernel/credential"
	"iamkernel/model"
	"iamkernel/response"
)

// RegisterRequest is the public registration DTO.
type RegisterRequest struct {
	model.RegisterUserRequest
}

// Register creates a new platform user. Every account starts with no role
// assignments; the platform operator (or an invite) grants the first one.
func (h *Handlers) Register(c *gin.Context) {
	var req model.RegisterUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := credential.ValidatePasswordPolicy(req.Password); err != nil {
		response.FromError(c, err)
		return
	}
	hashed, err := credential.HashPassword(req.Password)
	if err != nil {
		response.FromError(c, err)
		return
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		FullName:       req.FullName,
		HashedPassword: hashed,
	}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, user)
}

// LoginRequest carries the username-or-email identifier and password.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// TokenPair is the console's own access/refresh token response shape.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login authenticates against the local password, gated by LoginGuard's
// sliding-window lockout, then issues a local access/refresh JWT pair and
// sets the console session cookie.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	if h.Guard.Locked(req.Identifier) {
		response.Error(c, http.StatusTooManyRequests, "locked_out", "too many failed login attempts, try again later")
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByNaturalKey(ctx, req.Identifier)
	if err != nil || user.Disabled {
		h.Guard.RecordFailure(req.Identifier)
		response.FromError(c, apperror.Unauthenticated())
		return
	}
	if err := credential.VerifyPassword(user.HashedPassword, req.Password); err != nil {
		h.Guard.RecordFailure(req.Identifier)
		response.FromError(c, err)
		return
	}
	h.Guard.RecordSuccess(req.Identifier)

	pair, err := h.issueTokenPair(user.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	if err := h.Session.Set(c, user.ID.String()); err != nil {
		response.FromError(c, apperror.Wrap(apperror.KindInternal, "failed to set session cookie", err))
		return
	}
	response.OK(c, pair)
}

// issueTokenPair mints the local access/refresh token pair for userID,
// reusing the OAuth2 lifespans configured for the kernel's own tokens.
func (h *Handlers) issueTokenPair(userID uuid.UUID) (*TokenPair, error) {
	accessTTL := h.Config.OAuth2.AccessTokenLifespan
	refreshTTL := h.Config.OAuth2.RefreshTokenLifespan

	accessJTI := uuid.NewString()
	access, err := h.JWT.Sign(userID.String(), accessJTI, nil, accessTTL)
	if err != nil {
		return nil, err
	}
	refreshJTI := uuid.NewString()
	refresh, err := h.JWT.Sign(userID.String(), refreshJTI, []string{"refresh"}, refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(accessTTL.Seconds()),
	}, nil
}

// RefreshRequest carries the refresh token to exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a still-valid refresh token for a new access/refresh
// pair, blacklisting the presented refresh token's jti so it cannot be
// replayed: refresh tokens are single-use on this surface.
func (h *Handlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}
	claims, err := h.JWT.Verify(req.RefreshToken)
	if err != nil {
		response.FromError(c, err)
		return
	}
	isRefresh := false
	for _, s := range claims.Scope {
		if s == "refresh" {
			isRefresh = true
		}
	}
	if !isRefresh {
		response.FromError(c, apperror.Unauthenticated())
		return
	}

	ctx := c.Request.Context()
	if h.Blacklist != nil {
		blacklisted, err := h.Blacklist.Contains(ctx, claims.ID)
		if err != nil {
			response.FromError(c, apperror.Wrap(apperror.KindUnavailable, "failed to check token blacklist", err))
			return
		}
		if blacklisted {
			response.FromError(c, apperror.Unauthenticated())
			return
		}
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		response.FromError(c, apperror.Unauthenticated())
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil || user.Disabled {
		response.FromError(c, apperror.Unauthenticated())
		return
	}

	if h.Blacklist != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := h.Blacklist.Add(ctx, claims.ID, ttl); err != nil {
				response.FromError(c, apperror.Wrap(apperror.KindUnavailable, "failed to revoke refresh token", err))
				return
			}
		}
	}

	pair, err := h.issueTokenPair(user.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, pair)
}

// Logout blacklists the bearer access token's jti and clears the console
// session cookie.
func (h *Handlers) Logout(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	_ = p

	ctx := c.Request.Context()
	token := extractBearer(c)
	if token != "" {
		if claims, err := h.JWT.Verify(token); err == nil && h.Blacklist != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 {
				_ = h.Blacklist.Add(ctx, claims.ID, ttl)
			}
		}
	}

	h.Session.Clear(c)
	response.NoContent(c)
}

func extractBearer(c *gin.Context) string {
	const prefix = "Bearer "
	h := c.GetHeader("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
