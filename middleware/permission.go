package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"iamkernel/model"
	"iamkernel/principal"
	"iamkernel/rbac"
	"iamkernel/response"
)

// PermissionMiddleware enforces rbac.Evaluate decisions in front of a
// route, replacing the teacher's TenantMiddleware membership/role checks -
// this kernel has no tenant-membership concept, only the permission walk.
type PermissionMiddleware struct {
	evaluator *rbac.Evaluator
}

func NewPermissionMiddleware(evaluator *rbac.Evaluator) *PermissionMiddleware {
	return &PermissionMiddleware{evaluator: evaluator}
}

// RequirePermission resolves resourceParam (a URL path parameter, e.g.
// "organization_id" or "project_id") and rejects the request unless the
// authenticated principal holds every permission in required there.
func (pm *PermissionMiddleware) RequirePermission(kind model.ResourceKind, resourceParam string, required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			c.Abort()
			return
		}
		resourceID := c.Param(resourceParam)
		if resourceID == "" {
			response.Error(c, http.StatusBadRequest, "invalid_request", "missing "+resourceParam)
			c.Abort()
			return
		}
		pm.check(c, p, kind, resourceID, required)
	}
}

// RequirePlatformPermission checks permissions at the synthetic platform
// root, for operations with no narrower resource to check against (e.g.
// creating a top-level organization).
func (pm *PermissionMiddleware) RequirePlatformPermission(required ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			c.Abort()
			return
		}
		pm.check(c, p, model.ResourceKindPlatform, model.PlatformID, required)
	}
}

// check evaluates the permission decision and either aborts the request
// with the right status or lets it continue.
func (pm *PermissionMiddleware) check(c *gin.Context, p principal.Principal, kind model.ResourceKind, resourceID string, required []string) {
	decision, err := pm.evaluator.Evaluate(c.Request.Context(), p, kind, resourceID, required)
	if err != nil {
		response.FromError(c, err)
		c.Abort()
		return
	}
	if !decision.Allowed {
		response.Error(c, http.StatusForbidden, "forbidden", "missing required permission")
		c.Abort()
		return
	}
	c.Next()
}
