package routes

import (
	"github.com/gin-gonic/gin"
)

// setupOAuth2Routes mounts the OAuth2/OIDC surface (spec §1.13): the
// authorize/token/revoke/introspect/userinfo endpoints plus the two
// well-known discovery documents and the consent screen.
func setupOAuth2Routes(router *gin.Engine, deps *Dependencies) {
	h := deps.Handlers
	m := deps.Middleware

	oauth2Group := router.Group("/oauth2")
	oauth2Group.Use(m.SetupOAuth2Middleware()...)
	{
		oauth2Group.GET("/authorize", h.OAuth2.AuthorizeHandler)
		oauth2Group.POST("/authorize", h.OAuth2.AuthorizeHandler)
		oauth2Group.POST("/token", h.OAuth2.TokenHandler)
		oauth2Group.POST("/revoke", h.OAuth2.RevokeHandler)
		oauth2Group.POST("/introspect", h.OAuth2.IntrospectHandler)
		oauth2Group.GET("/userinfo", h.OAuth2.UserInfoHandler)
		oauth2Group.GET("/.well-known/jwks.json", h.OAuth2.JWKSHandler)
		oauth2Group.GET("/.well-known/openid-configuration", h.OIDCDiscovery)

		consent := oauth2Group.Group("/consent")
		consent.Use(m.Auth.RequireAuth())
		{
			consent.GET("", h.OAuth2.GetConsent)
			consent.POST("", h.OAuth2.PostConsent)
		}
	}
}
