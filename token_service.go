package ledgerauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenService mints and verifies the three token kinds this backend
// uses. All kinds share one signing secret and algorithm (HS256); they
// differ only in TTL and the embedded kind discriminator.
type TokenService struct {
	signingKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, accessTTL, refreshTTL, emailTTL time.Duration) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		emailTTL:   emailTTL,
		logger:     defLogger{},
	}
}

func (ts *TokenService) WithLogger(logger Logger) *TokenService {
	if logger != nil {
		ts.logger = logger
	}
	return ts
}

// CreateAccessToken mints a short lived token authorizing API calls.
func (ts *TokenService) CreateAccessToken(email string) (string, error) {
	return ts.sign(email, TokenKindAccess, ts.accessTTL)
}

// CreateRefreshToken mints the long lived token exchanged for a new
// access/refresh pair.
func (ts *TokenService) CreateRefreshToken(email string) (string, error) {
	return ts.sign(email, TokenKindRefresh, ts.refreshTTL)
}

// CreateEmailToken mints the medium lived token embedded in
// confirmation and password reset links. The two uses are
// distinguished by the endpoint that accepts the token, not by the
// token itself.
func (ts *TokenService) CreateEmailToken(email string) (string, error) {
	return ts.sign(email, TokenKindEmail, ts.emailTTL)
}

// DecodeRefreshToken verifies signature, expiry and kind, and returns
// the subject email. Every failure collapses into the invalid refresh
// token reason so callers cannot probe which check tripped.
func (ts *TokenService) DecodeRefreshToken(token string) (string, error) {
	claims, err := ts.parse(token, TokenKindRefresh)
	if err != nil {
		ts.logger.Debug("refresh token rejected: %v", err)
		return "", errors.Wrap(err, ErrInvalidRefreshToken.Category, ErrInvalidRefreshToken.Message).
			WithCode(ErrInvalidRefreshToken.Code).
			WithTextCode(ErrInvalidRefreshToken.TextCode)
	}
	return claims.Subject(), nil
}

// GetEmailFromToken verifies an email-action token and returns the
// subject email. Failures surface as a verification error.
func (ts *TokenService) GetEmailFromToken(token string) (string, error) {
	claims, err := ts.parse(token, TokenKindEmail)
	if err != nil {
		ts.logger.Debug("email token rejected: %v", err)
		return "", errors.Wrap(err, ErrVerificationFailed.Category, ErrVerificationFailed.Message).
			WithCode(ErrVerificationFailed.Code).
			WithTextCode(ErrVerificationFailed.TextCode)
	}
	return claims.Subject(), nil
}

// ValidateAccessToken verifies an access token and returns its claims.
func (ts *TokenService) ValidateAccessToken(token string) (*TokenClaims, error) {
	return ts.parse(token, TokenKindAccess)
}

func (ts *TokenService) sign(subject, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenKind: kind,
	}

	ensureTokenID(&claims.RegisteredClaims)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

func (ts *TokenService) parse(tokenString, wantKind string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("token service encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode or validate claims")
		return nil, errors.New("unable to map token claims", errors.CategoryAuth).
			WithTextCode(TextCodeTokenMalformed)
	}

	if claims.Kind() != wantKind {
		return nil, errors.New(
			fmt.Sprintf("unexpected token kind %q", claims.Kind()),
			errors.CategoryAuth,
		).WithTextCode(TextCodeTokenMalformed)
	}

	return claims, nil
}
