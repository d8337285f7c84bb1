package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iamkernel/model"
	"iamkernel/response"
)

// ListOrganizations returns a cursor page of organizations.
func (h *Handlers) ListOrganizations(c *gin.Context) {
	page, err := h.Organizations.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	renderPage(c, page.Data, page.HasMore, func(o *model.Organization) (uuid.UUID, time.Time) {
		return o.ID, o.CreatedAt
	})
}

// CreateOrganization creates a new organization. The permission registry has
// no dedicated organization.create key, so this is gated on iam.setPolicy
// held at the platform root - the same permission that governs granting
// access to anything else platform-wide.
func (h *Handlers) CreateOrganization(c *gin.Context) {
	var req model.Organization
	if !bindJSON(c, &req) {
		return
	}
	org := &model.Organization{Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.Organizations.Create(c.Request.Context(), org); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, org)
}

// GetOrganization returns a single organization by id.
func (h *Handlers) GetOrganization(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	org, err := h.Organizations.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, org)
}

// UpdateOrganization updates name/slug/description/disabled.
func (h *Handlers) UpdateOrganization(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req model.Organization
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	if err := h.Organizations.Update(c.Request.Context(), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, req)
}

// DeleteOrganization removes an organization.
func (h *Handlers) DeleteOrganization(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Organizations.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListOrganizationMembers lists the direct members of an organization.
func (h *Handlers) ListOrganizationMembers(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	members, err := h.OrgMembers.ListByOrganization(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, members)
}

type inviteRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// InviteOrganizationMember creates a time-bounded invite for email to join
// the organization, granting OrganizationViewer on acceptance.
func (h *Handlers) InviteOrganizationMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req inviteRequest
	if !bindJSON(c, &req) {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	inv, err := h.Invites.Create(c.Request.Context(), req.Email, model.ResourceKindOrganization, id.String(), p.ID())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"invite_token": inv.TemporaryToken, "expires_at": inv.ExpiresAt})
}

type acceptInviteRequest struct {
	Token string `json:"token" validate:"required"`
}

// AcceptInvite redeems an invite token for the calling user, granting
// membership plus the baseline role for the invite's resource kind.
func (h *Handlers) AcceptInvite(c *gin.Context) {
	var req acceptInviteRequest
	if !bindJSON(c, &req) {
		return
	}
	p, ok := currentPrincipal(c)
	if !ok {
		return
	}
	inv, err := h.Invites.Accept(c.Request.Context(), req.Token, p.ID())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, inv)
}
