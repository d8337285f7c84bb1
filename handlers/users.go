package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"iamkernel/credential"
	"iamkernel/model"
	"iamkernel/response"
)

// ListUsers returns a cursor page of platform users.
func (h *Handlers) ListUsers(c *gin.Context) {
	page, err := h.Users.List(c.Request.Context(), listParams(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	renderPage(c, page.Data, page.HasMore, func(u *model.User) (uuid.UUID, time.Time) {
		return u.ID, u.CreatedAt
	})
}

// GetUser returns a single user by id.
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	user, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, user)
}

// updateUserRequest is the admin-facing user update DTO. Password is
// optional: present only when the caller wants to reset it.
type updateUserRequest struct {
	Username string  `json:"username" validate:"required,min=4,max=32,alphanum_dash"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateUser updates a user's profile fields and, optionally, their password.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	user.Username = req.Username
	user.Email = req.Email
	user.FullName = req.FullName
	user.Phone = req.Phone

	if req.Password != nil {
		if err := credential.ValidatePasswordPolicy(*req.Password); err != nil {
			response.FromError(c, err)
			return
		}
		hashed, err := credential.HashPassword(*req.Password)
		if err != nil {
			response.FromError(c, err)
			return
		}
		user.HashedPassword = hashed
	}

	if err := h.Users.Update(ctx, user); err != nil {
		response.FromError(c, err)
		return
	}
	response.OK(c, user)
}

// DisableUser disables a user account, which also shuts it out of the
// principal resolver - it immediately stops accepting the user's existing
// JWTs regardless of expiry.
func (h *Handlers) DisableUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Users.SetDisabled(c.Request.Context(), id, true); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}

// DeleteUser permanently removes a user.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.NoContent(c)
}
