package ledgerauth

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// User is the credential store record. Email is the only natural key;
// every lookup in this package resolves users by email.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           int64    `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username     string   `bun:"username,notnull" json:"username,omitempty"`
	Email        string   `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash string   `bun:"password_hash,notnull" json:"-"`
	Avatar       string   `bun:"avatar" json:"avatar,omitempty"`
	Role         UserRole `bun:"user_role,notnull" json:"user_role,omitempty"`

	// RefreshToken mirrors the most recently issued refresh token.
	// Nil means no active refresh session; any presented token that
	// differs from the stored value is treated as stolen and revokes
	// the session.
	RefreshToken *string `bun:"refresh_token" json:"-"`

	// PasswordResetToken is set by a reset confirmation and cleared
	// once consumed by a password change.
	PasswordResetToken *string `bun:"password_reset_token" json:"-"`

	// Confirmed starts false and flips true exactly once.
	Confirmed bool `bun:"confirmed" json:"confirmed"`

	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GravatarURL derives the avatar URL assigned to new accounts.
func GravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x", sum)
}
