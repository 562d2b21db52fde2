package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stickerverse/internal/handler"
	"github.com/iliyamo/stickerverse/internal/middleware"
)

// RegisterAdmin registers the admin panel API under /v1/admin.
//
// Mutations carry no middleware: admin.Service runs the role check on the
// raw assertion for every call, so a route registered here by mistake
// cannot skip it.  The read-only listings are gated by RequireAdmin.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, rc middleware.RoleChecker) {
	g := e.Group("/v1/admin")
	g.POST("/products", h.CreateProduct)
	g.PUT("/products/:id", h.ReplaceProduct)
	g.PATCH("/products/:id", h.PatchProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
	g.PUT("/users/:id/role", h.ChangeRole)

	admin := middleware.RequireAdmin(rc, h.Log)
	g.GET("/users", h.ListUsers, admin)
	g.GET("/orders", h.ListOrders, admin)
}
