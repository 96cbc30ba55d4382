package ledgerauth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// TokenPair is the credential pair issued on login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SignupInput carries the fields required to register a new account.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// SetNewPasswordInput carries a password change request. ResetToken
// must equal the token stored on the resolved user.
type SetNewPasswordInput struct {
	ResetToken      string
	NewPassword     string
	ConfirmPassword string
}

// AuthService orchestrates signup, login, token refresh, email
// confirmation and password reset over the credential store, the token
// codec and the password hasher.
type AuthService struct {
	repo   RepositoryManager
	tokens *TokenService
	mailer Mailer
	logger Logger
}

// NewAuthService creates an AuthService with sane defaults.
func NewAuthService(repo RepositoryManager, tokens *TokenService) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		mailer: noopMailer{},
		logger: defLogger{},
	}
}

// WithMailer sets the dispatcher used for confirmation and reset mail.
func (s *AuthService) WithMailer(mailer Mailer) *AuthService {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

// WithLogger overrides the logger used by the service.
func (s *AuthService) WithLogger(logger Logger) *AuthService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Signup registers a new unconfirmed user and dispatches the
// confirmation email. A registered email fails with a conflict.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*User, error) {
	if _, err := s.repo.Users().GetByEmail(ctx, input.Email); err == nil {
		return nil, ErrAccountExists
	} else if !IsRecordNotFound(err) {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to check existing account")
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid password provided")
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Avatar:       GravatarURL(input.Email),
		Role:         RoleUser,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "user registration transaction failed")
	}

	s.dispatchConfirmation(user)

	return user, nil
}

// Login authenticates an email/password pair and issues a fresh token
// pair. Each precondition fails with its own reason: unknown email,
// unconfirmed account, wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrInvalidEmail
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if !user.Confirmed {
		return nil, ErrEmailNotConfirmed
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to verify password")
	}

	return s.issueTokens(ctx, user)
}

// Refresh exchanges a valid refresh token for a new pair and rotates
// the stored token. A presented token that differs from the stored one
// revokes the stored token before failing, so a stolen or stale token
// cannot be retried.
func (s *AuthService) Refresh(ctx context.Context, token string) (*TokenPair, error) {
	email, err := s.tokens.DecodeRefreshToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during refresh")
	}

	if user.RefreshToken == nil || *user.RefreshToken != token {
		if err := s.repo.Users().UpdateRefreshToken(ctx, user, nil); err != nil {
			s.logger.Error("failed to revoke refresh token: %v", err)
		}
		return nil, ErrInvalidRefreshToken
	}

	return s.issueTokens(ctx, user)
}

// ConfirmEmail flips the confirmed flag for the user the email-action
// token resolves to. Confirming an already confirmed account is a
// no-op that reports the existing state.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.GetEmailFromToken(token)
	if err != nil {
		return "", err
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return "", ErrVerificationFailed
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during confirmation")
	}

	if user.Confirmed {
		return MsgEmailAlreadyConfirmed, nil
	}

	if err := s.repo.Users().ConfirmEmail(ctx, email); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to confirm email")
	}

	return MsgEmailConfirmed, nil
}

// RequestEmailConfirmation re-sends the confirmation email when the
// account exists and is still unconfirmed. The response is identical
// either way so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestEmailConfirmation(ctx context.Context, email string) string {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if !IsRecordNotFound(err) {
			s.logger.Error("failed to look up account for confirmation request: %v", err)
		}
		return MsgCheckEmail
	}

	if !user.Confirmed {
		s.dispatchConfirmation(user)
	}

	return MsgCheckEmail
}

// RequestPasswordReset dispatches a reset email when the account
// exists. The response is identical either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) string {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if !IsRecordNotFound(err) {
			s.logger.Error("failed to look up account for reset request: %v", err)
		}
		return MsgCheckEmailNextStep
	}

	s.dispatchPasswordReset(user)

	return MsgCheckEmailNextStep
}

// ConfirmPasswordReset verifies the emailed token, mints a fresh reset
// token, persists it on the user and returns it to the caller.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token string) (string, error) {
	email, err := s.tokens.GetEmailFromToken(token)
	if err != nil {
		return "", err
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return "", ErrVerificationFailed
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during reset confirmation")
	}

	resetToken, err := s.tokens.CreateEmailToken(user.Email)
	if err != nil {
		return "", err
	}

	if err := s.repo.Users().UpdateResetToken(ctx, user, &resetToken); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to persist reset token")
	}

	return resetToken, nil
}

// SetNewPassword changes the password when the presented reset token
// equals the stored one and the confirmation field matches. Any
// mismatch fails without mutating the stored password.
func (s *AuthService) SetNewPassword(ctx context.Context, input SetNewPasswordInput) (string, error) {
	email, err := s.tokens.GetEmailFromToken(input.ResetToken)
	if err != nil {
		return "", err
	}

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if IsRecordNotFound(err) {
			return "", ErrVerificationFailed
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during password change")
	}

	if user.PasswordResetToken == nil || *user.PasswordResetToken != input.ResetToken {
		return "", ErrInvalidResetToken
	}

	if input.NewPassword != input.ConfirmPassword {
		return "", ErrInvalidPassword
	}

	hash, err := HashPassword(input.NewPassword)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryValidation, "invalid new password provided")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().UpdatePasswordTx(ctx, tx, user, hash); err != nil {
			return err
		}
		return s.repo.Users().UpdateResetTokenTx(ctx, tx, user, nil)
	})
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) {
			return "", richErr
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to finalize password change")
	}

	return MsgPasswordUpdated, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *User) (*TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(user.Email)
	if err != nil {
		return nil, err
	}

	refresh, err := s.tokens.CreateRefreshToken(user.Email)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Users().UpdateRefreshToken(ctx, user, &refresh); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist refresh token")
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

func (s *AuthService) dispatchConfirmation(user *User) {
	token, err := s.tokens.CreateEmailToken(user.Email)
	if err != nil {
		s.logger.Error("failed to mint confirmation token: %v", err)
		return
	}

	// mail is off the critical path: deliver in the background and
	// swallow failures
	go func() {
		if err := s.mailer.SendConfirmation(context.Background(), user.Email, user.Username, token); err != nil {
			s.logger.Error("failed to send confirmation email: %v", err)
		}
	}()
}

func (s *AuthService) dispatchPasswordReset(user *User) {
	token, err := s.tokens.CreateEmailToken(user.Email)
	if err != nil {
		s.logger.Error("failed to mint reset token: %v", err)
		return
	}

	go func() {
		if err := s.mailer.SendPasswordReset(context.Background(), user.Email, user.Username, token); err != nil {
			s.logger.Error("failed to send reset email: %v", err)
		}
	}()
}
