package handlers

import (
	"github.com/gin-gonic/gin"

	"iamkernel/apperror"
	"iamkernel/model"
	"iamkernel/response"
)

// ListRoles returns the full role catalog (roles are few; no pagination).
func (h *Handlers) ListRoles(c *gin.Context) {
	roles, err := h.Roles.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, roles)
}

// roleRequest is the create/update DTO for roles.
type roleRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description,omitempty"`
	ParentID    *string  `json:"parent_id,omitempty"`
	Permissions []string `json:"permissions" validate:"required"`
	Disabled    bool     `json:"disabled"`
}

// validatePermissions rejects any key outside the closed registry.
func validatePermissions(keys []string) error {
	valid := make(map[string]struct{}, len(model.AllPermissions()))
	for _, p := range model.AllPermissions() {
		valid[p.Key] = struct{}{}
	}
	for _, k := range keys {
		if _, ok := valid[k]; !ok {
			return apperror.New(apperror.KindValidation, "unknown permission key: "+k)
		}
	}
	return nil
}

// CreateRole creates a role, rejecting unknown permission keys and any
// parent_id that would close a cycle in the role DAG.
func (h *Handlers) CreateRole(c *gin.Context) {
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validatePermissions(req.Permissions); err != nil {
		response.FromError(c, err)
		return
	}

	role := &model.Role{
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Disabled:    req.Disabled,
	}
	if req.ParentID != nil {
		parentID, ok := parseUUIDOrError(c, *req.ParentID)
		if !ok {
			return
		}
		role.ParentID = &parentID
	}

	ctx := c.Request.Context()
	// A brand new role cannot yet be anyone's ancestor, so there is nothing
	// for CheckNoCycle to find here; cycle detection only matters when an
	// existing role's parent_id is changed (UpdateRole).
	if err := h.Roles.Create(ctx, role); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, role)
}

// GetRole returns a single role by id.
func (h *Handlers) GetRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	role, err := h.Roles.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, role)
}

// UpdateRole updates a role, re-running cycle detection whenever parent_id
// changes.
func (h *Handlers) UpdateRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req roleRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := validatePermissions(req.Permissions); err != nil {
		response.FromError(c, err)
		return
	}

	role := &model.Role{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Permissions: req.Permissions,
		Disabled:    req.Disabled,
	}
	if req.ParentID != nil {
		parentID, ok := parseUUIDOrError(c, *req.ParentID)
		if !ok {
			return
		}
		role.ParentID = &parentID
	}

	ctx := c.Request.Context()

	// The cycle check and the write must see the same snapshot of the role
	// table, so both run inside one transaction: otherwise two concurrent
	// UpdateRole calls could each pass CheckNoCycle against a pre-update
	// graph before either commits, and together close a loop that neither
	// one alone would have created.
	tx, err := h.Store.BeginTx(ctx)
	if err != nil {
		response.FromError(c, apperror.New(apperror.KindInternal, "failed to begin transaction"))
		return
	}
	defer tx.Rollback(ctx)

	if role.ParentID != nil {
		if err := h.Graph.CheckNoCycleTx(ctx, tx, id, role.ParentID); err != nil {
			response.FromError(c, err)
			return
		}
	}

	if err := h.Roles.UpdateTx(ctx, tx, role); err != nil {
		response.FromError(c, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		response.FromError(c, apperror.New(apperror.KindInternal, "failed to commit role update"))
		return
	}
	response.OK(c, role)
}

// DeleteRole removes a role.
func (h *Handlers) DeleteRole(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Roles.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// createAssignmentRequest is the body for POST /v1/role-assignments.
type createAssignmentRequest struct {
	TargetID     string             `json:"target_id" validate:"required"`
	RoleID       string             `json:"role_id" validate:"required"`
	ResourceKind model.ResourceKind `json:"resource_kind" validate:"required"`
	ResourceID   string             `json:"resource_id" validate:"required"`
}

// CreateRoleAssignment grants a role to a target at a resource, enforcing
// CanAssign's anti-privilege-escalation rule: the caller may only grant a
// role descended from (or equal to) one they already hold at that scope.
func (h *Handlers) CreateRoleAssignment(c *gin.Context) {
	var req createAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	targetID, ok := parseUUIDOrError(c, req.TargetID)
	if !ok {
		return
	}
	roleID, ok := parseUUIDOrError(c, req.RoleID)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	allowed, err := h.Evaluator.CanAssign(ctx, p, req.ResourceKind, req.ResourceID, roleID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !allowed {
		response.FromError(c, apperror.New(apperror.KindForbidden, "cannot grant a role broader than one you hold"))
		return
	}

	assignment := &model.RoleAssignment{TargetID: targetID, RoleID: roleID, ResourceID: req.ResourceID}
	if err := h.Assignments.Create(ctx, assignment); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, assignment)
}

// deleteAssignmentRequest carries the resource context DeleteRoleAssignment
// needs for its own permission check - RoleAssignment has no reverse lookup
// from assignment id back to resource, so the caller supplies it directly.
type deleteAssignmentRequest struct {
	ResourceKind model.ResourceKind `form:"resource_kind" validate:"required"`
	ResourceID   string             `form:"resource_id" validate:"required"`
}

// DeleteRoleAssignment revokes a role assignment. The caller must hold
// role.revoke at the resource_kind/resource_id supplied as query
// parameters, since a bare assignment id carries no resource of its own to
// evaluate against.
func (h *Handlers) DeleteRoleAssignment(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var q deleteAssignmentRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, 400, string(apperror.KindValidation), err.Error())
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	decision, err := h.Evaluator.Evaluate(ctx, p, q.ResourceKind, q.ResourceID, []string{model.PermRoleRevoke})
	if err != nil {
		response.FromError(c, err)
		return
	}
	if !decision.Allowed {
		response.FromError(c, apperror.New(apperror.KindForbidden, "missing role.revoke at this resource"))
		return
	}

	if err := h.Assignments.Delete(ctx, id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
