package ledgerauth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/ledgerline/ledgerauth/middleware/jwtware"
)

const (
	// ClaimsContextKey is the Locals key the validated claims live under.
	ClaimsContextKey = "claims"
	// UserContextKey is the Locals key the resolved user lives under.
	UserContextKey = "current_user"
)

// accessTokenValidator adapts TokenService to the middleware validator
// contract, restricting it to access tokens.
type accessTokenValidator struct {
	tokens *TokenService
}

func (v accessTokenValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := v.tokens.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Protected returns a middleware that rejects requests without a valid
// access token and stores the claims in the request Locals.
func Protected(tokens *TokenService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		TokenValidator: accessTokenValidator{tokens: tokens},
		ContextKey:     ClaimsContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return renderError(c, ErrTokenMalformed)
			}
			return renderError(c, err)
		},
	})
}

// RequireRoles resolves the authenticated user and rejects the request
// unless the user's role is in the allowed set. It must run after
// Protected.
func RequireRoles(users Users, allowed ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(ClaimsContextKey).(jwtware.AuthClaims)
		if !ok {
			return renderError(c, ErrTokenMalformed)
		}

		user, err := users.GetByEmail(c.UserContext(), claims.Subject())
		if err != nil {
			if IsRecordNotFound(err) {
				return renderError(c, ErrTokenMalformed)
			}
			return renderError(c, errors.Wrap(err, errors.CategoryInternal, "failed to resolve user"))
		}

		if !IsAllowed(user.Role, allowed) {
			return renderError(c, ErrForbidden)
		}

		c.Locals(UserContextKey, user)

		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireRoles, or nil.
func CurrentUser(c *fiber.Ctx) *User {
	user, _ := c.Locals(UserContextKey).(*User)
	return user
}
