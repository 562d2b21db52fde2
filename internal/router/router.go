package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stickerverse/internal/handler"
	"github.com/iliyamo/stickerverse/internal/middleware"
)

// RegisterRoutes registers the unauthenticated operational routes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers sign-up, sign-in and sign-out under /v1/auth and
// the protected /v1/me.  Sign-out reads the bearer assertion itself so it
// can revoke a session that is about to expire.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, v middleware.Verifier) {
	g := e.Group("/v1/auth")
	g.POST("/sign-up", a.SignUp)
	g.POST("/sign-in", a.SignIn)
	g.POST("/sign-out", a.SignOut)

	e.GET("/v1/me", a.Me, middleware.Authenticate(v))
}

// RegisterPublic registers the catalog browse endpoints.  cache wraps only
// these reads; admin writes purge it.
func RegisterPublic(e *echo.Echo, p *handler.CatalogHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/products", cache)
	g.GET("", p.ListProducts)
	g.GET("/:id", p.GetProduct)
}

// RegisterAI registers the model-backed helpers.  They are open to guests:
// the resolution check runs before an upload is attached to an order.
func RegisterAI(e *echo.Echo, h *handler.AIHandler) {
	g := e.Group("/v1/ai")
	g.POST("/resolution-check", h.CheckResolution)
	g.POST("/recommendations", h.Recommendations)
}
