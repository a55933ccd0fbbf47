package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the claim set carried by access tokens: the registered
// subject, issue and expiration times plus the display name.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// Identifier returns the subject claim
func (c *Claims) Identifier() string {
	return c.RegisteredClaims.Subject
}

// DisplayName returns the name claim
func (c *Claims) DisplayName() string {
	return c.Name
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

var _ Identity = (*Claims)(nil)
