package ledgerauth

import (
	"github.com/goliatone/go-errors"
)

// Stable reason codes surfaced to API clients.
const (
	TextCodeAccountExists       = "ACCOUNT_EXISTS"
	TextCodeInvalidEmail        = "INVALID_EMAIL"
	TextCodeEmailNotConfirmed   = "EMAIL_NOT_CONFIRMED"
	TextCodeInvalidPassword     = "INVALID_PASSWORD"
	TextCodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	TextCodeInvalidResetToken   = "INVALID_RESET_TOKEN"
	TextCodeVerificationError   = "VERIFICATION_ERROR"
	TextCodeForbidden           = "FORBIDDEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodeTokenMalformed      = "TOKEN_MALFORMED"
)

// ErrAccountExists is returned when a signup email is already registered.
var ErrAccountExists = errors.New("account already exists", errors.CategoryConflict).
	WithCode(errors.CodeConflict).
	WithTextCode(TextCodeAccountExists)

// ErrInvalidEmail is the login failure for an unknown email.
var ErrInvalidEmail = errors.New("invalid email", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidEmail)

// ErrEmailNotConfirmed blocks login until the confirmation link is used.
var ErrEmailNotConfirmed = errors.New("email not confirmed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeEmailNotConfirmed)

// ErrInvalidPassword is the login failure for a wrong password. It is
// also returned when a new password and its confirmation differ.
var ErrInvalidPassword = errors.New("invalid password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidPassword)

// ErrInvalidRefreshToken covers every refresh failure: bad signature,
// expiry, wrong token kind, and a stored-token mismatch.
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidRefreshToken)

// ErrInvalidResetToken is returned when the presented reset token does
// not equal the one stored on the user.
var ErrInvalidResetToken = errors.New("invalid reset token", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidResetToken)

// ErrVerificationFailed is the generic failure for email-action tokens
// that do not verify or resolve to no user.
var ErrVerificationFailed = errors.New("verification error", errors.CategoryBadInput).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeVerificationError)

// ErrForbidden is returned by the role guard when the caller's role is
// not in the route's allow set.
var ErrForbidden = errors.New("operation forbidden", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrTokenExpired is the codec level expiry failure.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is the codec level signature/shape failure.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrMismatchedHashAndPassword is the hasher's verification failure.
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeInvalidPassword)

// ErrNoEmptyString rejects empty input where a value is required.
var ErrNoEmptyString = errors.New("value should not be an empty string", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest)

// GetTextCode extracts the stable reason code from an error, or ""
// when the error carries none.
func GetTextCode(err error) string {
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}
