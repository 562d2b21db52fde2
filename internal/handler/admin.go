package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/middleware"
	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/repository"
)

// AdminService runs the privileged mutations.  *admin.Service implements
// it; every method performs its own role check on the raw assertion.
type AdminService interface {
	CreateItem(ctx context.Context, assertion string, in model.Product) (string, error)
	UpdateItem(ctx context.Context, assertion, id string, patch model.ProductPatch) error
	DeleteItem(ctx context.Context, assertion, id string) error
	ChangeRole(ctx context.Context, assertion, targetID, role string) error
}

// AdminHandler exposes the admin panel API.  Writes go through Service;
// the two read-only listings rely on middleware.RequireAdmin and read with
// the service tier.
type AdminHandler struct {
	Service AdminService
	Users   *repository.UserRepo
	Orders  *repository.OrderRepo
	// Purge drops cached catalog responses after a successful write.  Nil
	// when caching is off.
	Purge func(ctx context.Context) error
	Log   *zap.Logger
}

func NewAdminHandler(svc AdminService, users *repository.UserRepo, orders *repository.OrderRepo, purge func(context.Context) error, log *zap.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Users: users, Orders: orders, Purge: purge, Log: logging.OrNop(log)}
}

type roleReq struct {
	Role string `json:"role"`
}

// CreateProduct: POST /v1/admin/products
func (h *AdminHandler) CreateProduct(c echo.Context) error {
	var in model.Product
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	in.ID = ""
	ctx, cancel := storeCtx(c)
	defer cancel()

	id, err := h.Service.CreateItem(ctx, middleware.BearerToken(c), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// ReplaceProduct: PUT /v1/admin/products/:id.  Every field is written;
// omitted slices become empty and a missing materials list is rejected.
func (h *AdminHandler) ReplaceProduct(c echo.Context) error {
	var in model.Product
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	tags, images, materials := nonNilSlice(in.Tags), nonNilSlice(in.Images), nonNilSlice(in.Materials)
	patch := model.ProductPatch{
		Name:        &in.Name,
		Description: &in.Description,
		PriceCents:  &in.PriceCents,
		Stock:       &in.Stock,
		Category:    &in.Category,
		Tags:        &tags,
		Images:      &images,
		Materials:   &materials,
	}
	return h.update(c, patch)
}

// PatchProduct: PATCH /v1/admin/products/:id.  Absent fields are kept.
func (h *AdminHandler) PatchProduct(c echo.Context) error {
	var patch model.ProductPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}
	return h.update(c, patch)
}

func (h *AdminHandler) update(c echo.Context, patch model.ProductPatch) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Service.UpdateItem(ctx, middleware.BearerToken(c), c.Param("id"), patch); err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}

// DeleteProduct: DELETE /v1/admin/products/:id
func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Service.DeleteItem(ctx, middleware.BearerToken(c), c.Param("id")); err != nil {
		return respondError(c, h.Log, err)
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole: PUT /v1/admin/users/:id/role {"role": "admin"|"user"}
func (h *AdminHandler) ChangeRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	if err := h.Service.ChangeRole(ctx, middleware.BearerToken(c), strings.TrimSpace(c.Param("id")), req.Role); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUsers: GET /v1/admin/users
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": users, "count": len(users)})
}

// ListOrders: GET /v1/admin/orders
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders, "count": len(orders)})
}

func (h *AdminHandler) purge(ctx context.Context) {
	if h.Purge == nil {
		return
	}
	if err := h.Purge(context.WithoutCancel(ctx)); err != nil {
		h.Log.Warn("catalog cache purge failed", zap.Error(err))
	}
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
