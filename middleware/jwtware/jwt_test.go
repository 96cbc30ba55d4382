package jwtware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerauth/middleware/jwtware"
)

type stubClaims struct {
	subject string
	kind    string
}

func (c stubClaims) Subject() string { return c.subject }
func (c stubClaims) Kind() string    { return c.kind }

type stubValidator struct {
	accept string
	claims jwtware.AuthClaims
}

func (v stubValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	if tokenString != v.accept {
		return nil, errors.New("invalid token")
	}
	return v.claims, nil
}

func newTestApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Get("/protected", jwtware.New(cfg), func(c *fiber.Ctx) error {
		claims, _ := c.Locals("user").(jwtware.AuthClaims)
		if claims == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.Subject())
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, mutate func(*http.Request)) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, "/protected", nil)
	if mutate != nil {
		mutate(req)
	}

	res, err := app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func TestMiddleware(t *testing.T) {
	validator := stubValidator{
		accept: "good-token",
		claims: stubClaims{subject: "janet@example.com", kind: "access"},
	}

	t.Run("valid bearer token passes", func(t *testing.T) {
		app := newTestApp(jwtware.Config{TokenValidator: validator})

		res := doRequest(t, app, func(r *http.Request) {
			r.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")
		})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("missing header is a 400", func(t *testing.T) {
		app := newTestApp(jwtware.Config{TokenValidator: validator})

		res := doRequest(t, app, nil)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	})

	t.Run("rejected token is a 401", func(t *testing.T) {
		app := newTestApp(jwtware.Config{TokenValidator: validator})

		res := doRequest(t, app, func(r *http.Request) {
			r.Header.Set(fiber.HeaderAuthorization, "Bearer bad-token")
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("filter skips the middleware", func(t *testing.T) {
		app := fiber.New()
		app.Get("/protected", jwtware.New(jwtware.Config{
			TokenValidator: validator,
			Filter:         func(c *fiber.Ctx) bool { return true },
		}), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		res := doRequest(t, app, nil)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("custom token lookup from query", func(t *testing.T) {
		app := fiber.New()
		app.Get("/protected", jwtware.New(jwtware.Config{
			TokenValidator: validator,
			TokenLookup:    "query:auth_token",
		}), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		req := httptest.NewRequest(fiber.MethodGet, "/protected?auth_token=good-token", nil)
		res, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("cookie lookup", func(t *testing.T) {
		app := fiber.New()
		app.Get("/protected", jwtware.New(jwtware.Config{
			TokenValidator: validator,
			TokenLookup:    "cookie:jwt",
		}), func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})

		res := doRequest(t, app, func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "jwt", Value: "good-token"})
		})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)
	})

	t.Run("missing validator panics", func(t *testing.T) {
		assert.Panics(t, func() {
			jwtware.GetDefaultConfig(jwtware.Config{})
		})
	})
}

func TestGetExtractors(t *testing.T) {
	tests := []struct {
		name   string
		lookup string
		want   int
	}{
		{name: "single header source", lookup: "header:Authorization", want: 1},
		{name: "multiple sources", lookup: "header:Authorization,cookie:jwt,query:auth_token", want: 3},
		{name: "unknown source ignored", lookup: "body:token", want: 0},
		{name: "malformed entry ignored", lookup: "header", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, jwtware.GetExtractors(tt.lookup), tt.want)
		})
	}
}
