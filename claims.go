package ledgerauth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token kinds embedded in every minted JWT. The discriminator prevents
// an access token being replayed as a refresh token or vice versa.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
	TokenKindEmail   = "email"
)

// TokenClaims is the claim set for every token this package mints: the
// registered claims plus a kind discriminator.
type TokenClaims struct {
	jwt.RegisteredClaims
	TokenKind string `json:"kind,omitempty"`
}

// Subject returns the subject claim, which carries the user's email.
func (c *TokenClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Kind returns the embedded token kind discriminator.
func (c *TokenClaims) Kind() string {
	return c.TokenKind
}

// Expires returns the expiration time
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *TokenClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
