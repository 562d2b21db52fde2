// Package identity is the storefront's identity provider.  It owns the
// account records, issues signed HS256 assertions at sign-in, verifies
// them on every request and revokes them at sign-out.
//
// Two kinds of principal can hold a session.  ProviderIdentity is an
// account created through sign-up; LocalAdminIdentity is the operator
// account configured through LOCAL_ADMIN_EMAIL and
// LOCAL_ADMIN_PASSWORD_HASH, which has no users/{id} document of its own.
// Callers switch on the concrete type instead of guessing from the id.
package identity

import (
	"strings"
	"time"
)

// Identity is a verified principal.  The set of implementations is
// closed.
type Identity interface {
	// Subject is the value carried in the assertion's sub claim.
	Subject() string
	// EmailAddress is the normalized sign-in email.
	EmailAddress() string
	isIdentity()
}

// ProviderIdentity is a principal created by sign-up.  ID is the key of
// its users/{id} document.
type ProviderIdentity struct {
	ID    string
	Email string
}

func (p ProviderIdentity) Subject() string      { return p.ID }
func (p ProviderIdentity) EmailAddress() string { return p.Email }
func (ProviderIdentity) isIdentity()            {}

// LocalAdminIdentity is the configured operator account.
type LocalAdminIdentity struct {
	Email string
}

const localSubjectPrefix = "local:"

func (l LocalAdminIdentity) Subject() string      { return localSubjectPrefix + l.Email }
func (l LocalAdminIdentity) EmailAddress() string { return l.Email }
func (LocalAdminIdentity) isIdentity()            {}

const (
	kindProvider = "provider"
	kindLocal    = "local"
)

func kindOf(id Identity) string {
	if _, ok := id.(LocalAdminIdentity); ok {
		return kindLocal
	}
	return kindProvider
}

func identityFor(kind, subject, email string) (Identity, bool) {
	switch kind {
	case kindProvider:
		if subject == "" || strings.HasPrefix(subject, localSubjectPrefix) {
			return nil, false
		}
		return ProviderIdentity{ID: subject, Email: email}, true
	case kindLocal:
		if subject != localSubjectPrefix+email {
			return nil, false
		}
		return LocalAdminIdentity{Email: email}, true
	}
	return nil, false
}

// Session is created at sign-in and invalidated at sign-out.  Token is the
// assertion the client presents as a bearer token.
type Session struct {
	ID        string    `json:"session_id"`
	Identity  Identity  `json:"-"`
	Token     string    `json:"access_token"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PrincipalID returns the users/{id} key for provider principals and ""
// for the local admin.
func (s Session) PrincipalID() string {
	if p, ok := s.Identity.(ProviderIdentity); ok {
		return p.ID
	}
	return ""
}
