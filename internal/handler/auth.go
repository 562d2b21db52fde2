package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/cart"
	"github.com/iliyamo/stickerverse/internal/identity"
	"github.com/iliyamo/stickerverse/internal/logging"
	"github.com/iliyamo/stickerverse/internal/middleware"
	"github.com/iliyamo/stickerverse/internal/model"
	"github.com/iliyamo/stickerverse/internal/repository"
)

// IdentityService is the identity provider as seen by the HTTP layer.
// *identity.Provider implements it.
type IdentityService interface {
	SignUp(ctx context.Context, email, password string) (identity.Session, error)
	SignIn(ctx context.Context, email, password string) (identity.Session, error)
	SignOut(ctx context.Context, token string) (identity.Session, error)
}

// AuthHandler bundles dependencies for auth endpoints.  Users must be the
// service tier: the principal document is created on the caller's behalf.
type AuthHandler struct {
	Identity IdentityService
	Users    *repository.UserRepo
	Carts    *cart.Registry
	Log      *zap.Logger
}

func NewAuthHandler(id IdentityService, users *repository.UserRepo, carts *cart.Registry, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Identity: id, Users: users, Carts: carts, Log: logging.OrNop(log)}
}

// ----- DTOs -----

type signUpReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

type signInReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionPart struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type meResp struct {
	Kind      string           `json:"kind"` // provider | local
	Email     string           `json:"email"`
	Principal *model.Principal `json:"principal,omitempty"`
}

type authResp struct {
	Session sessionPart `json:"session"`
	User    meResp      `json:"user"`
}

// SignUp creates the account, the principal document (role user) and a
// session in one request.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	s, err := h.Identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	p := model.Principal{
		ID:          s.PrincipalID(),
		Email:       req.Email,
		DisplayName: displayName(req.DisplayName, req.Email),
		AvatarURL:   strings.TrimSpace(req.AvatarURL),
		Role:        model.RoleUser,
	}
	if err := h.Users.Create(ctx, p); err != nil {
		// the account exists; the next sign-in recreates the principal
		return respondError(c, h.Log, err)
	}
	h.Log.Info("principal signed up", zap.String("principal_id", p.ID))
	return c.JSON(http.StatusCreated, authResp{
		Session: sessionPart{Token: s.Token, ExpiresAt: s.ExpiresAt},
		User:    meResp{Kind: "provider", Email: p.Email, Principal: &p},
	})
}

// SignIn verifies credentials and opens a new session.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return badRequest(c, "email and password are required")
	}

	ctx, cancel := storeCtx(c)
	defer cancel()

	s, err := h.Identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	me, err := h.describe(ctx, s, true)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Session: sessionPart{Token: s.Token, ExpiresAt: s.ExpiresAt},
		User:    me,
	})
}

// SignOut revokes the presented session and discards its cart.
func (h *AuthHandler) SignOut(c echo.Context) error {
	ctx, cancel := storeCtx(c)
	defer cancel()

	s, err := h.Identity.SignOut(ctx, middleware.BearerToken(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if h.Carts != nil {
		h.Carts.Drop(s.ID)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the signed-in principal.  Requires Authenticate.
func (h *AuthHandler) Me(c echo.Context) error {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "missing bearer token", "missing_token")
	}
	ctx, cancel := storeCtx(c)
	defer cancel()

	me, err := h.describe(ctx, s, false)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, me)
}

// describe loads the principal behind s.  With repair set, a provider
// principal whose document is missing (a sign-up interrupted between the
// two writes) gets one with role user.
func (h *AuthHandler) describe(ctx context.Context, s identity.Session, repair bool) (meResp, error) {
	switch id := s.Identity.(type) {
	case identity.LocalAdminIdentity:
		return meResp{Kind: "local", Email: id.Email}, nil
	case identity.ProviderIdentity:
		p, err := h.Users.GetByID(ctx, id.ID)
		if repository.IsNotFound(err) && repair {
			p = model.Principal{ID: id.ID, Email: id.Email, DisplayName: displayName("", id.Email), Role: model.RoleUser}
			err = h.Users.Create(ctx, p)
		}
		if err != nil {
			return meResp{}, err
		}
		return meResp{Kind: "provider", Email: p.Email, Principal: &p}, nil
	}
	return meResp{}, identity.ErrInvalidToken
}

// displayName falls back to the local part of the email.
func displayName(name, email string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
