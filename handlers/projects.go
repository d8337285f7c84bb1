package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iamkernel/model"
	"iamkernel/response"
)

// ListProjects returns a cursor page of projects within an organization.
func (h *Handlers) ListProjects(c *gin.Context) {
	orgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	page, err := h.Projects.List(c.Request.Context(), orgID, listParams(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	renderPage(c, page.Data, page.HasMore, func(p *model.Project) (uuid.UUID, time.Time) {
		return p.ID, p.CreatedAt
	})
}

// CreateProject creates a project within an organization.
func (h *Handlers) CreateProject(c *gin.Context) {
	orgID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req model.Project
	if !bindJSON(c, &req) {
		return
	}
	project := &model.Project{OrganizationID: orgID, Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.Projects.Create(c.Request.Context(), project); err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, project)
}

// GetProject returns a single project by id.
func (h *Handlers) GetProject(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	project, err := h.Projects.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, project)
}

// UpdateProject updates name/slug/description/disabled.
func (h *Handlers) UpdateProject(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	var req model.Project
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id
	if err := h.Projects.Update(c.Request.Context(), &req); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, req)
}

// DeleteProject removes a project.
func (h *Handlers) DeleteProject(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// ListProjectMembers lists the direct members of a project.
func (h *Handlers) ListProjectMembers(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
	if !ok {
		return
	}
	members, err := h.ProjectMembers.ListByProject(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, members)
}

// InviteProjectMember creates a time-bounded invite for email to join the
// project, granting ProjectViewer on acceptance. The permission registry has
// no dedicated project.members.invite key, so this reuses project.members.list -
// the same permission that governs seeing who is already a member.
func (h *Handlers) InviteProjectMember(c *gin.Context) {
	id, ok := pathUUID(c, "projectID")
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
	inv, err := h.Invites.Create(c.Request.Context(), req.Email, model.ResourceKindProject, id.String(), p.ID())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, gin.H{"invite_token": inv.TemporaryToken, "expires_at": inv.ExpiresAt})
}
