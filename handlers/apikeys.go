package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"iamkernel/apperror"
	"iamkernel/credential"
	"iamkernel/model"
	"iamkernel/response"
)

// createAPIKeyRequest is the request body for minting a new API key.
type createAPIKeyRequest struct {
	ResourceKind model.ResourceKind `json:"resource_kind" validate:"required"`
	ResourceID   string             `json:"resource_id" validate:"required"`
	Decorator    string             `json:"decorator" validate:"required,alphanum_dash"`
	Name         string             `json:"name" validate:"required"`
	ExpiresIn    *int64             `json:"expires_in_seconds,omitempty"`
}

// CreateAPIKey mints a new API key pinned to a resource, returning the
// plaintext credential exactly once.
func (h *Handlers) CreateAPIKey(c *gin.Context) {
	var req createAPIKeyRequest
	if !bindJSON(c, &req) {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if p.Kind != "user" {
		response.FromError(c, apperror.New(apperror.KindForbidden, "only users may create API keys"))
		return
	}

	ctx := c.Request.Context()
	decision, err := h.Evaluator.Evaluate(ctx, p, req.ResourceKind, req.ResourceID, []string{model.PermAPIKeyCreate})
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !decision.Allowed {
		response.FromError(c, apperror.New(apperror.KindForbidden, "missing apikey.create at this resource"))
		return
	}

	generated, err := credential.GenerateAPIKey(req.Decorator)
	if err != nil {
		response.FromError(c, err)
		return
	}

	key := &model.APIKey{
		UserID:       p.User.ID,
		ResourceKind: req.ResourceKind,
		ResourceID:   req.ResourceID,
		Decorator:    generated.Decorator,
		Prefix:       generated.Prefix,
		SecretHash:   generated.SecretHash,
		Salt:         generated.Salt,
		Name:         req.Name,
	}
	if req.ExpiresIn != nil {
		exp := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		key.ExpiresAt = &exp
	}

	if err := h.APIKeys.Create(ctx, key); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"api_key": key, "plaintext": generated.Plaintext})
}

// ListAPIKeysForResource lists every API key pinned to resourceID. The
// caller must hold apikey.create there - the registry has no dedicated
// read permission for keys, so creation rights double as visibility rights.
func (h *Handlers) ListAPIKeysForResource(c *gin.Context) {
	resourceID := c.Query("resource_id")
	resourceKind := model.ResourceKind(c.Query("resource_kind"))
	if resourceID == "" || resourceKind == "" {
		response.Error(c, 400, string(apperror.KindValidation), "resource_id and resource_kind are required")
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	decision, err := h.Evaluator.Evaluate(ctx, p, resourceKind, resourceID, []string{model.PermAPIKeyCreate})
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !decision.Allowed {
		response.FromError(c, apperror.New(apperror.KindForbidden, "missing apikey.create at this resource"))
		return
	}

	keys, err := h.APIKeys.ListByResource(ctx, resourceID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, keys)
}

// RevokeAPIKey disables an API key so it can no longer authenticate. The
// caller must hold apikey.revoke at the key's own pinned resource, looked up
// from the key row itself rather than trusted from the request.
func (h *Handlers) RevokeAPIKey(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	key, err := h.APIKeys.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	decision, err := h.Evaluator.Evaluate(ctx, p, key.ResourceKind, key.ResourceID, []string{model.PermAPIKeyRevoke})
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !decision.Allowed {
		response.FromError(c, apperror.New(apperror.KindForbidden, "missing apikey.revoke at this resource"))
		return
	}

	if err := h.APIKeys.SetDisabled(ctx, id, true); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
