package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iamkernel/apperror"
	"iamkernel/model"
	"iamkernel/response"
)

// Me returns the caller's own principal.
func (h *Handlers) Me(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	if p.Kind == "user" {
		response.OK(c, p.User)
		return
	}
	response.OK(c, p.APIKey)
}

// permissionsRequest is the body for /me/permissions and
// /me/permissions/evaluate.
type permissionsRequest struct {
	ResourceKind model.ResourceKind `json:"resource_kind" validate:"required"`
	ResourceID   string             `json:"resource_id" validate:"required"`
}

// evaluateRequest additionally carries the permissions to check.
type evaluateRequest struct {
	permissionsRequest
	Permissions []string `json:"permissions" validate:"required,min=1"`
}

// MePermissions returns every permission the caller holds at a resource, by
// evaluating against the full closed registry.
func (h *Handlers) MePermissions(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req permissionsRequest
	if !bindJSON(c, &req) {
		return
	}

	all := model.AllPermissions()
	keys := make([]string, 0, len(all))
	for _, perm := range all {
		keys = append(keys, perm.Key)
	}

	decision, err := h.Evaluator.Evaluate(c.Request.Context(), p, req.ResourceKind, req.ResourceID, keys)
	if err != nil {
		response.FromError(c, err)
		return
	}
	missing := make(map[string]struct{}, len(decision.Missing))
	for _, m := range decision.Missing {
		missing[m] = struct{}{}
	}
	var granted []string
	for _, key := range keys {
		if _, isMissing := missing[key]; !isMissing {
			granted = append(granted, key)
		}
	}
	response.OK(c, gin.H{"permissions": granted})
}

// MeEvaluate checks whether the caller holds a specific set of permissions
// at a resource, returning the pass/fail decision directly.
func (h *Handlers) MeEvaluate(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	var req evaluateRequest
	if !bindJSON(c, &req) {
		return
	}

	decision, err := h.Evaluator.Evaluate(c.Request.Context(), p, req.ResourceKind, req.ResourceID, req.Permissions)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, gin.H{"allowed": decision.Allowed, "missing": decision.Missing})
}

// Verify is a lightweight liveness check of the bearer credential, used by
// callers that only need to know "is this still valid" without resolving
// full permission state.
func (h *Handlers) Verify(c *gin.Context) {
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	response.OK(c, gin.H{"valid": true, "subject": p.ID().String()})
}

// Health probes the store's connectivity and reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	if err := h.Store.Health(c.Request.Context()); err != nil {
		response.Error(c, http.StatusServiceUnavailable, string(apperror.KindUnavailable), "database unavailable")
		return
	}
	response.OK(c, gin.H{"status": "ok"})
}
