package middleware

// identity.go holds the context helpers shared by the middleware and the
// handlers: reading the bearer token and the verified session.

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stickerverse/internal/authz"
	"github.com/iliyamo/stickerverse/internal/identity"
)

const (
	sessionKey = "session"
	actorKey   = "actor"
)

// BearerToken returns the raw assertion from the Authorization header, or
// "" when there is none.
func BearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(auth[7:])
}

// SessionFrom returns the session placed by Authenticate or OptionalAuth.
func SessionFrom(c echo.Context) (identity.Session, bool) {
	s, ok := c.Get(sessionKey).(identity.Session)
	return s, ok
}

// ActorFrom returns the actor admitted by RequireAdmin.
func ActorFrom(c echo.Context) (authz.Actor, bool) {
	a, ok := c.Get(actorKey).(authz.Actor)
	return a, ok
}

// SubjectReader extracts the subject of a signed assertion without a
// session lookup.  *identity.Provider implements it.
type SubjectReader interface {
	TokenSubject(token string) (string, bool)
}

// currentUserID identifies the caller for rate limiting.  Global
// middleware runs before Authenticate, so without a session the bearer
// assertion is read through subjects.  It returns "anon" otherwise.
func currentUserID(c echo.Context, subjects SubjectReader) string {
	if s, ok := SessionFrom(c); ok && s.Identity != nil {
		return s.Identity.Subject()
	}
	if subjects != nil {
		if sub, ok := subjects.TokenSubject(BearerToken(c)); ok {
			return sub
		}
	}
	return "anon"
}
