package routes

import (
	"github.com/gin-gonic/gin"

	"iamkernel/model"
)

// setupV1Routes mounts the versioned REST API: users, organizations,
// projects, API keys, roles, role assignments, and the caller's own
// identity/permission endpoints.
func setupV1Routes(router *gin.Engine, deps *Dependencies) {
	h := deps.Handlers
	m := deps.Middleware

	v1 := router.Group("/v1")
	v1.Use(m.SetupProtectedAPIMiddleware()...)

	me := v1.Group("")
	{
		me.GET("/me", h.Me)
		me.POST("/me/permissions", h.MePermissions)
		me.POST("/me/permissions/evaluate", h.MeEvaluate)
		me.GET("/verify", h.Verify)
		me.POST("/auth/logout", h.Logout)
	}

	users := v1.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.POST("/:id/disable", h.DisableUser)
	}

	orgs := v1.Group("/organizations")
	{
		orgs.GET("", h.ListOrganizations)
		orgs.POST("", chain(m.RequireAuthAndPlatformPermission(model.PermIAMSetPolicy), h.CreateOrganization)...)
		orgs.GET("/:id", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermOrgGet), h.GetOrganization)...)
		orgs.PUT("/:id", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermOrgUpdate), h.UpdateOrganization)...)
		orgs.DELETE("/:id", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermOrgDelete), h.DeleteOrganization)...)
		orgs.GET("/:id/members", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermOrgMembersList), h.ListOrganizationMembers)...)
		orgs.POST("/:id/members/invite", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermOrgMembersInvite), h.InviteOrganizationMember)...)

		orgs.GET("/:id/projects", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermProjectGet), h.ListProjects)...)
		orgs.POST("/:id/projects", chain(m.RequireAuthAndPermission(model.ResourceKindOrganization, "id", model.PermProjectCreate), h.CreateProject)...)
	}

	projects := v1.Group("/projects")
	{
		projects.GET("/:projectID", chain(m.RequireAuthAndPermission(model.ResourceKindProject, "projectID", model.PermProjectGet), h.GetProject)...)
		projects.PUT("/:projectID", chain(m.RequireAuthAndPermission(model.ResourceKindProject, "projectID", model.PermProjectUpdate), h.UpdateProject)...)
		projects.DELETE("/:projectID", chain(m.RequireAuthAndPermission(model.ResourceKindProject, "projectID", model.PermProjectDelete), h.DeleteProject)...)
		projects.GET("/:projectID/members", chain(m.RequireAuthAndPermission(model.ResourceKindProject, "projectID", model.PermProjectMembers), h.ListProjectMembers)...)
		projects.POST("/:projectID/members/invite", chain(m.RequireAuthAndPermission(model.ResourceKindProject, "projectID", model.PermProjectMembers), h.InviteProjectMember)...)
	}

	apiKeys := v1.Group("/api-keys")
	{
		apiKeys.POST("", h.CreateAPIKey)
		apiKeys.GET("", h.ListAPIKeysForResource)
		apiKeys.DELETE("/:id", h.RevokeAPIKey)
	}

	roles := v1.Group("/roles")
	{
		roles.GET("", h.ListRoles)
		roles.GET("/:id", h.GetRole)
		roles.POST("", chain(m.RequireAuthAndPlatformPermission(model.PermIAMSetPolicy), h.CreateRole)...)
		roles.PUT("/:id", chain(m.RequireAuthAndPlatformPermission(model.PermIAMSetPolicy), h.UpdateRole)...)
		roles.DELETE("/:id", chain(m.RequireAuthAndPlatformPermission(model.PermIAMSetPolicy), h.DeleteRole)...)
	}

	assignments := v1.Group("/role-assignments")
	{
		assignments.POST("", h.CreateRoleAssignment)
		assignments.DELETE("/:id", h.DeleteRoleAssignment)
	}
}

// chain appends handler to a slice of middleware, the shape gin.Group's
// verb methods expect for variadic route registration.
func chain(mw []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	return append(mw, handler)
}
