package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single field consulted for authorization.  Anything other
// than RoleAdmin, including an absent value, grants no administrative
// capability.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes and validates a role name from user input.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleUser, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("invalid role %q (must be 'user' or 'admin')", s)
}

// Principal represents a signed-up shopper or administrator as stored in
// the users collection, keyed by the identity provider's principal id.
// The same document doubles as the principal's Role Record.
//
// Fields:
//
//	ID          – principal id issued at sign-up (document id).
//	Email       – normalized sign-in email.
//	DisplayName – name shown in the storefront header.
//	AvatarURL   – optional avatar image reference.
//	Role        – user or admin.
//	CreatedAt   – stamped by the store on first write.
//	UpdatedAt   – stamped by the store on every write.
type Principal struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAdmin reports whether the role record grants administrative capability.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }
