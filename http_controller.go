package ledgerauth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/ledgerline/ledgerauth/middleware/jwtware"
)

// AuthController exposes the authentication flows over HTTP.
type AuthController struct {
	auth   *AuthService
	tokens *TokenService
	repo   RepositoryManager
	logger Logger
}

type AuthControllerOption func(*AuthController)

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAuthController wires the HTTP layer. The service, token codec and
// repository manager are required.
func NewAuthController(auth *AuthService, tokens *TokenService, repo RepositoryManager, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		auth:   auth,
		tokens: tokens,
		repo:   repo,
		logger: defLogger{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.auth == nil {
		panic("AUTH: AuthController needs an AuthService")
	}

	if c.tokens == nil {
		panic("AUTH: AuthController needs a TokenService")
	}

	if c.repo == nil {
		panic("AUTH: AuthController needs a RepositoryManager")
	}

	return c
}

// RegisterRoutes mounts the auth and user endpoints on the app.
func (c *AuthController) RegisterRoutes(app *fiber.App) {
	grp := app.Group("/api/auth")
	grp.Post("/signup", c.Signup)
	grp.Post("/login", c.Login)
	grp.Get("/refresh_token", c.RefreshToken)
	grp.Get("/confirmed_email/:token", c.ConfirmedEmail)
	grp.Post("/request_email", c.RequestEmail)
	grp.Post("/reset_password", c.ResetPassword)
	grp.Get("/password_reset_confirm/:token", c.PasswordResetConfirm)
	grp.Post("/set_new_password", c.SetNewPassword)

	users := app.Group("/api/users", Protected(c.tokens))
	users.Get("/me", RequireRoles(c.repo.Users(), RoleAdmin, RoleUser), c.Me)
}

// UserResponse is the public projection of a user record.
type UserResponse struct {
	ID        int64    `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Avatar    string   `json:"avatar"`
	Role      UserRole `json:"role"`
	Confirmed bool     `json:"confirmed"`
}

func newUserResponse(user *User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Avatar:    user.Avatar,
		Role:      user.Role,
		Confirmed: user.Confirmed,
	}
}

type SignupPayload struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (p SignupPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(3, 150)),
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(6, 72)),
	)
}

type LoginPayload struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (p LoginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

type EmailPayload struct {
	Email string `json:"email" form:"email"`
}

func (p EmailPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

type SetNewPasswordPayload struct {
	ResetToken      string `json:"reset_password_token" form:"reset_password_token"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

func (p SetNewPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ResetToken, validation.Required),
		validation.Field(&p.NewPassword, validation.Required, validation.Length(6, 72)),
		validation.Field(&p.ConfirmPassword, validation.Required),
	)
}

// Signup registers a new account and reports the confirmation step.
func (c *AuthController) Signup(ctx *fiber.Ctx) error {
	var payload SignupPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid signup payload"))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	user, err := c.auth.Signup(ctx.UserContext(), SignupInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user":    newUserResponse(user),
		"message": MsgCheckEmail,
	})
}

// Login exchanges credentials for a token pair. The email travels in
// the username form field.
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var payload LoginPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid login payload"))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	pair, err := c.auth.Login(ctx.UserContext(), payload.Username, payload.Password)
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.JSON(pair)
}

// RefreshToken rotates the bearer refresh token into a new pair.
func (c *AuthController) RefreshToken(ctx *fiber.Ctx) error {
	raw, err := jwtware.ExtractRawToken(ctx, jwtware.GetExtractors("header:"+fiber.HeaderAuthorization, "Bearer"))
	if err != nil {
		return renderError(ctx, ErrInvalidRefreshToken)
	}

	pair, err := c.auth.Refresh(ctx.UserContext(), raw)
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.JSON(pair)
}

// ConfirmedEmail completes the email confirmation link.
func (c *AuthController) ConfirmedEmail(ctx *fiber.Ctx) error {
	msg, err := c.auth.ConfirmEmail(ctx.UserContext(), ctx.Params("token"))
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": msg})
}

// RequestEmail re-sends the confirmation email.
func (c *AuthController) RequestEmail(ctx *fiber.Ctx) error {
	var payload EmailPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid payload"))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	msg := c.auth.RequestEmailConfirmation(ctx.UserContext(), payload.Email)

	return ctx.JSON(fiber.Map{"message": msg})
}

// ResetPassword starts the password reset flow.
func (c *AuthController) ResetPassword(ctx *fiber.Ctx) error {
	var payload EmailPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid payload"))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	msg := c.auth.RequestPasswordReset(ctx.UserContext(), payload.Email)

	return ctx.JSON(fiber.Map{"message": msg})
}

// PasswordResetConfirm trades the emailed link token for a one-shot
// reset token.
func (c *AuthController) PasswordResetConfirm(ctx *fiber.Ctx) error {
	token, err := c.auth.ConfirmPasswordReset(ctx.UserContext(), ctx.Params("token"))
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"reset_password_token": token})
}

// SetNewPassword finalizes the password reset flow.
func (c *AuthController) SetNewPassword(ctx *fiber.Ctx) error {
	var payload SetNewPasswordPayload
	if err := ctx.BodyParser(&payload); err != nil {
		return renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "invalid payload"))
	}

	if err := payload.Validate(); err != nil {
		return renderValidationError(ctx, err)
	}

	msg, err := c.auth.SetNewPassword(ctx.UserContext(), SetNewPasswordInput{
		ResetToken:      payload.ResetToken,
		NewPassword:     payload.NewPassword,
		ConfirmPassword: payload.ConfirmPassword,
	})
	if err != nil {
		return renderError(ctx, err)
	}

	return ctx.JSON(fiber.Map{"message": msg})
}

// Me returns the authenticated user's profile.
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	user := CurrentUser(ctx)
	if user == nil {
		return renderError(ctx, ErrTokenMalformed)
	}

	return ctx.JSON(newUserResponse(user))
}

func renderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"detail": "internal server error",
		})
	}

	status := richErr.Code
	if status == 0 {
		switch richErr.Category {
		case errors.CategoryAuth:
			status = fiber.StatusUnauthorized
		case errors.CategoryAuthz:
			status = fiber.StatusForbidden
		case errors.CategoryConflict:
			status = fiber.StatusConflict
		case errors.CategoryBadInput, errors.CategoryValidation:
			status = fiber.StatusBadRequest
		case errors.CategoryNotFound:
			status = fiber.StatusNotFound
		default:
			status = fiber.StatusInternalServerError
		}
	}

	body := fiber.Map{"detail": richErr.Message}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	return c.Status(status).JSON(body)
}

func renderValidationError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"detail": err.Error(),
	})
}
