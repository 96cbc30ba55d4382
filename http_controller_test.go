package ledgerauth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerauth"
)

type apiFixture struct {
	*serviceFixture
	app *fiber.App
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := newServiceFixture(t)

	app := fiber.New()
	controller := ledgerauth.NewAuthController(f.svc, f.tokens, f.repo)
	controller.RegisterRoutes(app)

	return &apiFixture{serviceFixture: f, app: app}
}

func (f *apiFixture) postJSON(t *testing.T, path string, payload any) *http.Response {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	res, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func (f *apiFixture) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	res, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func (f *apiFixture) get(t *testing.T, path, bearer string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}

	res, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return res
}

func decodeBody(t *testing.T, res *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)

	return out
}

func TestSignupEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("creates the account", func(t *testing.T) {
		res := f.postJSON(t, "/api/auth/signup", fiber.Map{
			"username": "janet",
			"email":    "janet@example.com",
			"password": "securePassword123!",
		})
		assert.Equal(t, fiber.StatusCreated, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.MsgCheckEmail, body["message"])

		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "janet@example.com", user["email"])
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, false, user["confirmed"])
		assert.NotContains(t, user, "password_hash")

		f.mailer.waitForMail(t)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		res := f.postJSON(t, "/api/auth/signup", fiber.Map{
			"username": "impostor",
			"email":    "janet@example.com",
			"password": "anotherPassword",
		})
		assert.Equal(t, fiber.StatusConflict, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeAccountExists, body["code"])
	})

	t.Run("invalid payload", func(t *testing.T) {
		res := f.postJSON(t, "/api/auth/signup", fiber.Map{
			"username": "janet",
			"email":    "not-an-email",
			"password": "securePassword123!",
		})
		assert.Equal(t, fiber.StatusUnprocessableEntity, res.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	f.confirmedUser(t, "janet@example.com")

	t.Run("issues a pair", func(t *testing.T) {
		res := f.postForm(t, "/api/auth/login", url.Values{
			"username": {"janet@example.com"},
			"password": {"securePassword123!"},
		})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, "bearer", body["token_type"])
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["refresh_token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		res := f.postForm(t, "/api/auth/login", url.Values{
			"username": {"janet@example.com"},
			"password": {"wrongPassword"},
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeInvalidPassword, body["code"])
	})

	t.Run("unknown email", func(t *testing.T) {
		res := f.postForm(t, "/api/auth/login", url.Values{
			"username": {"nobody@example.com"},
			"password": {"securePassword123!"},
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeInvalidEmail, body["code"])
	})

	t.Run("unconfirmed account", func(t *testing.T) {
		f.signup(t, "pending@example.com")

		res := f.postForm(t, "/api/auth/login", url.Values{
			"username": {"pending@example.com"},
			"password": {"securePassword123!"},
		})
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeEmailNotConfirmed, body["code"])
	})
}

func TestRefreshTokenEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.confirmedUser(t, "janet@example.com")

	pair, err := f.svc.Login(ctx, "janet@example.com", "securePassword123!")
	require.NoError(t, err)

	t.Run("rotates the pair", func(t *testing.T) {
		res := f.get(t, "/api/auth/refresh_token", pair.RefreshToken)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.NotEmpty(t, body["access_token"])
		assert.NotEqual(t, pair.RefreshToken, body["refresh_token"])
	})

	t.Run("missing header", func(t *testing.T) {
		res := f.get(t, "/api/auth/refresh_token", "")
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeInvalidRefreshToken, body["code"])
	})

	t.Run("access token is not accepted", func(t *testing.T) {
		res := f.get(t, "/api/auth/refresh_token", pair.AccessToken)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})
}

func TestEmailEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	f.signup(t, "janet@example.com")
	token := f.mailer.lastConfirmation(t)

	t.Run("confirmed_email", func(t *testing.T) {
		res := f.get(t, "/api/auth/confirmed_email/"+token, "")
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.MsgEmailConfirmed, body["message"])
	})

	t.Run("confirmed_email is idempotent", func(t *testing.T) {
		res := f.get(t, "/api/auth/confirmed_email/"+token, "")
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.MsgEmailAlreadyConfirmed, body["message"])
	})

	t.Run("confirmed_email with bad token", func(t *testing.T) {
		res := f.get(t, "/api/auth/confirmed_email/garbage", "")
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.TextCodeVerificationError, body["code"])
	})

	t.Run("request_email does not leak accounts", func(t *testing.T) {
		res := f.postJSON(t, "/api/auth/request_email", fiber.Map{"email": "nobody@example.com"})
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, ledgerauth.MsgCheckEmail, body["message"])
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	f.confirmedUser(t, "janet@example.com")

	res := f.postJSON(t, "/api/auth/reset_password", fiber.Map{"email": "janet@example.com"})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body := decodeBody(t, res)
	assert.Equal(t, ledgerauth.MsgCheckEmailNextStep, body["message"])
	f.mailer.waitForMail(t)

	linkToken := f.mailer.lastReset(t)

	res = f.get(t, "/api/auth/password_reset_confirm/"+linkToken, "")
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body = decodeBody(t, res)
	resetToken, _ := body["reset_password_token"].(string)
	require.NotEmpty(t, resetToken)

	res = f.postJSON(t, "/api/auth/set_new_password", fiber.Map{
		"reset_password_token": resetToken,
		"new_password":         "brandNewPassword1",
		"confirm_password":     "brandNewPassword1",
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	body = decodeBody(t, res)
	assert.Equal(t, ledgerauth.MsgPasswordUpdated, body["message"])

	res = f.postForm(t, "/api/auth/login", url.Values{
		"username": {"janet@example.com"},
		"password": {"brandNewPassword1"},
	})
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestMeEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	f.confirmedUser(t, "janet@example.com")

	pair, err := f.svc.Login(ctx, "janet@example.com", "securePassword123!")
	require.NoError(t, err)

	t.Run("returns the profile", func(t *testing.T) {
		res := f.get(t, "/api/users/me", pair.AccessToken)
		assert.Equal(t, fiber.StatusOK, res.StatusCode)

		body := decodeBody(t, res)
		assert.Equal(t, "janet@example.com", body["email"])
		assert.Equal(t, "janet", body["username"])
		assert.Equal(t, "user", body["role"])
	})

	t.Run("missing token", func(t *testing.T) {
		res := f.get(t, "/api/users/me", "")
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		res := f.get(t, "/api/users/me", pair.RefreshToken)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})

	t.Run("token for a deleted user", func(t *testing.T) {
		token, err := f.tokens.CreateAccessToken(fmt.Sprintf("ghost-%d@example.com", 1))
		require.NoError(t, err)

		res := f.get(t, "/api/users/me", token)
		assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
	})
}
