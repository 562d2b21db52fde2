package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/repository"
)

// CatalogHandler serves the public product listing.  Responses are
// sanitized Product values; anyone may read them.
type CatalogHandler struct {
	Products *repository.ProductRepo
	Log      *zap.Logger
}

func NewCatalogHandler(products *repository.ProductRepo, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{Products: products, Log: logging.OrNop(log)}
}

// ListProducts returns every product, newest first, optionally narrowed
// with ?category=.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	items, err := h.Products.List(ctx, strings.TrimSpace(c.QueryParam("category")))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// GetProduct returns one product by id.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return badRequest(c, "product id is required")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	p, err := h.Products.Get(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, p)
}
