package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stickerverse/internal/handler"
	"github.com/iliyamo/stickerverse/internal/middleware"
)

// RegisterCart registers the cart endpoints.  Guests and signed-in
// shoppers share them; OptionalAuth attaches the session when a bearer
// token is present.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, v middleware.Verifier) {
	g := e.Group("/v1/cart", middleware.OptionalAuth(v))
	g.GET("", h.GetCart)
	g.POST("/items", h.AddItem)
	g.PATCH("/items/:product_id", h.SetQuantity)
	g.DELETE("/items/:product_id", h.RemoveItem)
	g.GET("/recommendations", h.Recommendations)
}

// RegisterAccount registers the signed-in shopper's own endpoints.  The
// handlers use the user tier of the store, whose rules enforce ownership.
func RegisterAccount(e *echo.Echo, h *handler.AccountHandler, v middleware.Verifier) {
	g := e.Group("/v1/account", middleware.Authenticate(v))
	g.GET("/address", h.GetAddress)
	g.PUT("/address", h.PutAddress)
	g.GET("/orders", h.ListOrders)
}
