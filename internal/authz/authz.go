// Package authz gates every privileged operation.  An Authorizer
// verifies the caller's assertion, reads the caller's Role Record through
// the service tier and admits only principals whose role is "admin".
// It never writes.
package authz

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/stickerverse/internal/docstore"
	"github.com/iliyamo/stickerverse/internal/identity"
	"github.com/iliyamo/stickerverse/internal/model"
)

// Rejections.  Each one is distinct so the caller can tell the user what
// went wrong.
var (
	ErrMissingToken      = identity.ErrMissingToken
	ErrInvalidToken      = identity.ErrInvalidToken
	ErrRoleRecordMissing = errors.New("no role record for this account")
	ErrInsufficientRole  = errors.New("administrator role required")
	ErrSelfDemotion      = errors.New("administrators cannot remove their own admin role")
	ErrLocalPrincipal    = errors.New("the local admin account cannot perform store writes")
)

// Reason returns a stable machine code for a rejection, or "" if err is
// not one.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrRoleRecordMissing):
		return "role_record_missing"
	case errors.Is(err, ErrInsufficientRole):
		return "insufficient_role"
	case errors.Is(err, ErrSelfDemotion):
		return "self_demotion"
	case errors.Is(err, ErrLocalPrincipal):
		return "local_principal"
	}
	return ""
}

// IsAuthentication reports whether err means the caller is not signed in.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrMissingToken) || errors.Is(err, ErrInvalidToken)
}

// Verifier checks an assertion.  *identity.Provider implements it.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Session, error)
}

// RoleReader reads the Role Record.  *repository.UserRepo over the
// service tier implements it.
type RoleReader interface {
	Role(ctx context.Context, principalID string) (model.Role, error)
}

// Authorizer runs the role check.
type Authorizer struct {
	verifier         Verifier
	roles            RoleReader
	allowLocalWrites bool
	log              *zap.Logger
}

// New builds an Authorizer.  allowLocalWrites admits the local admin
// principal; without it every privileged call from that principal fails
// with ErrLocalPrincipal.
func New(v Verifier, roles RoleReader, allowLocalWrites bool, log *zap.Logger) *Authorizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Authorizer{verifier: v, roles: roles, allowLocalWrites: allowLocalWrites, log: log}
}

// Actor is the result of a successful check.  PrincipalID is empty for
// the local admin.
type Actor struct {
	PrincipalID string
	Identity    identity.Identity
}

// Authorize admits the holder of assertion to op if their Role Record
// says admin.  op is only used in logs.
func (a *Authorizer) Authorize(ctx context.Context, assertion, op string) (Actor, error) {
	s, err := a.authenticate(ctx, assertion, op)
	if err != nil {
		return Actor{}, err
	}
	return a.checkRole(ctx, s, op, true)
}

// AuthorizeRead is Authorize for read-only admin views.  The local admin
// is admitted whether or not it may write.
func (a *Authorizer) AuthorizeRead(ctx context.Context, assertion, op string) (Actor, error) {
	s, err := a.authenticate(ctx, assertion, op)
	if err != nil {
		return Actor{}, err
	}
	return a.checkRole(ctx, s, op, false)
}

// AuthorizeRoleChange is Authorize for setting targetID's role to
// newRole.  An actor demoting themself is rejected before the role
// record is read.
func (a *Authorizer) AuthorizeRoleChange(ctx context.Context, assertion, targetID string, newRole model.Role) (Actor, error) {
	const op = "change-role"
	s, err := a.authenticate(ctx, assertion, op)
	if err != nil {
		return Actor{}, err
	}
	if pid := s.PrincipalID(); pid != "" && pid == targetID && newRole == model.RoleUser {
		a.log.Warn("authz rejected", zap.String("op", op), zap.String("principal_id", pid), zap.String("reason", "self_demotion"))
		return Actor{}, ErrSelfDemotion
	}
	return a.checkRole(ctx, s, op, true)
}

func (a *Authorizer) authenticate(ctx context.Context, assertion, op string) (identity.Session, error) {
	if assertion == "" {
		return identity.Session{}, ErrMissingToken
	}
	s, err := a.verifier.Verify(ctx, assertion)
	if err != nil {
		if !IsAuthentication(err) {
			return identity.Session{}, fmt.Errorf("verify assertion: %w", err)
		}
		a.log.Info("authz rejected", zap.String("op", op), zap.String("reason", Reason(err)))
		return identity.Session{}, err
	}
	return s, nil
}

func (a *Authorizer) checkRole(ctx context.Context, s identity.Session, op string, write bool) (Actor, error) {
	switch id := s.Identity.(type) {
	case identity.LocalAdminIdentity:
		if write && !a.allowLocalWrites {
			a.log.Warn("authz rejected", zap.String("op", op), zap.String("reason", "local_principal"))
			return Actor{}, ErrLocalPrincipal
		}
		return Actor{Identity: id}, nil
	case identity.ProviderIdentity:
		role, err := a.roles.Role(ctx, id.ID)
		if errors.Is(err, docstore.ErrNotFound) {
			a.log.Info("authz rejected", zap.String("op", op), zap.String("principal_id", id.ID), zap.String("reason", "role_record_missing"))
			return Actor{}, ErrRoleRecordMissing
		}
		if err != nil {
			return Actor{}, fmt.Errorf("read role record: %w", err)
		}
		if role != model.RoleAdmin {
			a.log.Info("authz rejected", zap.String("op", op), zap.String("principal_id", id.ID), zap.String("reason", "insufficient_role"))
			return Actor{}, ErrInsufficientRole
		}
		return Actor{PrincipalID: id.ID, Identity: id}, nil
	}
	return Actor{}, fmt.Errorf("%w: unsupported principal kind", ErrInvalidToken)
}
