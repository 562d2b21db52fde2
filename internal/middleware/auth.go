package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stickerverse/internal/identity"
)

// Verifier checks bearer assertions.  *identity.Provider implements it.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Session, error)
}

// Authenticate returns an Echo middleware that requires a valid bearer
// assertion and places the verified identity.Session on the context.
// Handlers read it with SessionFrom.
func Authenticate(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := v.Verify(c.Request().Context(), BearerToken(c))
			if err != nil {
				return rejectToken(c, err)
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

// OptionalAuth is Authenticate for routes guests may also use.  Without
// an Authorization header the request continues anonymously; a header
// that does not verify is still rejected so clients drop stale tokens.
func OptionalAuth(v Verifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := BearerToken(c)
			if tok == "" {
				return next(c)
			}
			s, err := v.Verify(c.Request().Context(), tok)
			if err != nil {
				return rejectToken(c, err)
			}
			c.Set(sessionKey, s)
			return next(c)
		}
	}
}

func rejectToken(c echo.Context, err error) error {
	switch {
	case errors.Is(err, identity.ErrMissingToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token", "reason": "missing_token"})
	case errors.Is(err, identity.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token", "reason": "invalid_token"})
	}
	c.Logger().Errorf("verify token: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify token"})
}
