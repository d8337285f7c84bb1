// Package routes wires the HTTP surface: public routes, the versioned /v1
// REST API, and the OAuth2/OIDC endpoints, grounded on the teacher's
// routes/router.go SetupRouter/Dependencies shape.
package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"iamkernel/config"
	"iamkernel/handlers"
	"iamkernel/middleware"
)

// Dependencies holds everything SetupRouter needs to wire routes.
type Dependencies struct {
	Config     *config.Config
	Handlers   *handlers.Handlers
	Middleware *middleware.Manager
}

// SetupRouter builds the full gin.Engine: common middleware, public routes,
// the versioned REST API, and the OAuth2/OIDC surface.
func SetupRouter(deps *Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.Security.CORS.AllowOrigins,
		AllowMethods:     deps.Config.Security.CORS.AllowMethods,
		AllowHeaders:     deps.Config.Security.CORS.AllowHeaders,
		ExposeHeaders:    deps.Config.Security.CORS.ExposeHeaders,
		AllowCredentials: deps.Config.Security.CORS.AllowCredentials,
		MaxAge:           time.Duration(deps.Config.Security.CORS.MaxAge) * time.Second,
	}))

	deps.Middleware.SetupCommonMiddleware(router)

	setupPublicRoutes(router, deps)
	setupOAuth2Routes(router, deps)
	setupV1Routes(router, deps)

	return router
}
