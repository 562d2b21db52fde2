package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/logging"
)

// RoleChecker is the admin gate for reads.  *authz.Authorizer implements
// it.
type RoleChecker interface {
	AuthorizeRead(ctx context.Context, assertion, op string) (authz.Actor, error)
}

// RequireAdmin runs the role check for read-only admin routes and stores
// the admitted actor in the context.  Mutations do not rely on it: the
// admin service repeats the check itself.
func RequireAdmin(rc RoleChecker, log *zap.Logger) echo.MiddlewareFunc {
	log = logging.OrNop(log)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			op := c.Request().Method + " " + c.Path()
			actor, err := rc.AuthorizeRead(c.Request().Context(), BearerToken(c), op)
			if err != nil {
				reason := authz.Reason(err)
				switch {
				case authz.IsAuthentication(err):
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error(), "reason": reason})
				case reason != "":
					return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error(), "reason": reason})
				}
				log.Error("role check failed", zap.String("op", op), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not check permissions"})
			}
			c.Set(actorKey, actor)
			return next(c)
		}
	}
}
