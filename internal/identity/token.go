package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "stickerverse"

// claims is the payload of an access assertion.  The registered ID (jti)
// is the session id, so revoking the session revokes the token.
type claims struct {
	Email string `json:"email"`
	Kind  string `json:"kind"`
	jwt.RegisteredClaims
}

// signAccessToken builds and signs an HS256 JWT for a session.
func signAccessToken(secret []byte, s Session) (string, error) {
	c := claims{
		Email: s.Identity.EmailAddress(),
		Kind:  kindOf(s.Identity),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   s.Identity.Subject(),
			ID:        s.ID,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

// parseAccessToken verifies signature, issuer and expiry against now and
// returns the claims.  Only HS256 is accepted.
func parseAccessToken(secret []byte, raw string, now func() time.Time) (*claims, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, fmt.Errorf("token has no session id")
	}
	return &c, nil
}
