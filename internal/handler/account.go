package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/identity"
	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/middleware"
	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/repository"
)

// UserTier hands out store clients bound to one principal's credentials.
// *docstore.SQLStore implements it.
type UserTier interface {
	AsUser(principalID string) docstore.Client
}

// AccountHandler serves the signed-in shopper's own data.  Every read and
// write runs on the user tier, so the store rules, not this handler,
// decide what the caller may touch.
type AccountHandler struct {
	Store UserTier
	Log   *zap.Logger
}

func NewAccountHandler(store UserTier, log *zap.Logger) *AccountHandler {
	return &AccountHandler{Store: store, Log: logging.OrNop(log)}
}

// principal returns the provider principal id of the caller.  The local
// admin has no documents of its own.
func (h *AccountHandler) principal(c echo.Context) (string, error) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return "", identity.ErrMissingToken
	}
	if _, local := s.Identity.(identity.LocalAdminIdentity); local {
		return "", authz.ErrLocalPrincipal
	}
	return s.PrincipalID(), nil
}

// GetAddress: GET /v1/account/address
func (h *AccountHandler) GetAddress(c echo.Context) error {
	pid, err := h.principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	a, err := repository.NewAddressRepo(h.Store.AsUser(pid)).Get(ctx, pid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, a)
}

// PutAddress: PUT /v1/account/address.  The stored address is replaced.
func (h *AccountHandler) PutAddress(c echo.Context) error {
	pid, err := h.principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var a model.Address
	if err := c.Bind(&a); err != nil {
		return badRequest(c, "invalid body")
	}
	if msg := validateAddress(&a); msg != "" {
		return badRequest(c, msg)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	repo := repository.NewAddressRepo(h.Store.AsUser(pid))
	if err := repo.Save(ctx, pid, a); err != nil {
		return respondError(c, h.Log, err)
	}
	saved, err := repo.Get(ctx, pid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// ListOrders: GET /v1/account/orders
func (h *AccountHandler) ListOrders(c echo.Context) error {
	pid, err := h.principal(c)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	orders, err := repository.NewOrderRepo(h.Store.AsUser(pid)).ListByOwner(ctx, pid)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": orders, "count": len(orders)})
}

// validateAddress trims a and returns a message for the first missing
// required field.
func validateAddress(a *model.Address) string {
	for _, f := range []*string{&a.FullName, &a.Line1, &a.Line2, &a.City, &a.State, &a.PostalCode, &a.Country, &a.Phone} {
		*f = strings.TrimSpace(*f)
	}
	switch {
	case a.FullName == "":
		return "full_name is required"
	case a.Line1 == "":
		return "line1 is required"
	case a.City == "":
		return "city is required"
	case a.PostalCode == "":
		return "postal_code is required"
	case a.Country == "":
		return "country is required"
	}
	return ""
}
