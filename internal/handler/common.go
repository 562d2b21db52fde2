package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/admin"
	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/cart"
	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/identity"
)

// storeTimeout bounds every document store call made on behalf of a request.
const storeTimeout = 5 * time.Second

func storeCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), storeTimeout)
}

// errorBody is the JSON shape of every failed response.  Clients show
// Error verbatim and branch on Reason.
type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func fail(c echo.Context, status int, msg, reason string) error {
	return c.JSON(status, errorBody{Error: msg, Reason: reason})
}

func badRequest(c echo.Context, msg string) error {
	return fail(c, http.StatusBadRequest, msg, "invalid_input")
}

// respondError maps a service error onto a status code.  Authorization
// rejections keep their own reason code; store failures keep the store's
// message.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	if authz.IsAuthentication(err) {
		return fail(c, http.StatusUnauthorized, err.Error(), authz.Reason(err))
	}
	if reason := authz.Reason(err); reason != "" {
		return fail(c, http.StatusForbidden, err.Error(), reason)
	}
	switch {
	case errors.Is(err, identity.ErrBadCredentials):
		return fail(c, http.StatusUnauthorized, err.Error(), "bad_credentials")
	case errors.Is(err, identity.ErrEmailTaken):
		return fail(c, http.StatusConflict, err.Error(), "email_taken")
	case errors.Is(err, admin.ErrInvalidInput),
		errors.Is(err, identity.ErrInvalidInput),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrQuantityLimit):
		return fail(c, http.StatusBadRequest, err.Error(), "invalid_input")
	case errors.Is(err, cart.ErrInsufficientStock):
		return fail(c, http.StatusConflict, err.Error(), "insufficient_stock")
	case errors.Is(err, cart.ErrLineNotFound):
		return fail(c, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", zap.String("path", c.Path()), zap.Error(err))
		return fail(c, http.StatusGatewayTimeout, "the request timed out", "timeout")
	}

	switch docstore.CodeOf(err) {
	case docstore.CodeNotFound:
		return fail(c, http.StatusNotFound, err.Error(), "not_found")
	case docstore.CodePermissionDenied:
		return fail(c, http.StatusForbidden, err.Error(), "permission_denied")
	case docstore.CodeInvalidArgument:
		return fail(c, http.StatusBadRequest, err.Error(), "invalid_input")
	}
	log.Error("request failed", zap.String("method", c.Request().Method), zap.String("path", c.Path()), zap.Error(err))
	return fail(c, http.StatusInternalServerError, err.Error(), "internal")
}
