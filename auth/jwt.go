/*
Package auth turns verified credentials into portable identities.

Login issues an HMAC-signed JWT carrying the user id and role set; the
HTTP middleware verifies it and hands the core a fuelup.Identity. The
core itself never sees a token — authentication mechanics stay out here
at the edge.
*/
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

// ErrInvalidToken is returned for expired, malformed, or badly signed
// tokens.
var ErrInvalidToken = errors.New("invalid token")

// Claims carries the registered claims plus the identity fields the core
// consumes.
type Claims struct {
	jwt.RegisteredClaims
	UserID string   `json:"uid"`
	Roles  []string `json:"roles,omitempty"`
}

// TokenIssuer signs and verifies identity tokens with a shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates an issuer. ttl bounds how long issued tokens
// remain valid.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl}
}

// Issue creates a signed token for the user.
func (ti *TokenIssuer) Issue(u fuelup.User) (string, error) {
	roles := []string{"user"}
	if u.Admin {
		roles = append(roles, fuelup.RoleAdmin)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
		UserID: u.ID,
		Roles:  roles,
	})

	return token.SignedString(ti.secret)
}

// Verify parses and validates a token, returning the identity it carries.
func (ti *TokenIssuer) Verify(tokenString string) (fuelup.Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil || !token.Valid {
		return fuelup.Identity{}, ErrInvalidToken
	}

	return fuelup.Identity{UserID: claims.UserID, Roles: claims.Roles}, nil
}
