package ledgerauth

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
)

// Config holds every knob the process needs. It is constructed once at
// startup and passed by reference; there is no ambient global state.
type Config struct {
	Address     string
	BaseURL     string
	DatabaseURL string

	SigningSecret   string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	EmailTokenTTL   time.Duration

	Mail MailConfig
}

// MailConfig holds the SMTP relay credentials.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoadConfig reads configuration from the environment, honoring a
// local .env file when present.
func LoadConfig() (*Config, error) {
	// missing .env is fine, the environment may be fully populated
	_ = godotenv.Load()

	cfg := &Config{
		Address:     getEnv("LEDGERAUTH_ADDRESS", ":8080"),
		BaseURL:     getEnv("LEDGERAUTH_BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		SigningSecret:   getEnv("SECRET_KEY", ""),
		Issuer:          getEnv("LEDGERAUTH_ISSUER", "ledgerauth"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		EmailTokenTTL:   getDuration("EMAIL_TOKEN_TTL", 72*time.Hour),

		Mail: MailConfig{
			Host:     getEnv("MAIL_SERVER", ""),
			Port:     getInt("MAIL_PORT", 465),
			Username: getEnv("MAIL_USERNAME", ""),
			Password: getEnv("MAIL_PASSWORD", ""),
			From:     getEnv("MAIL_FROM", ""),
		},
	}

	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.Username
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Address, validation.Required),
		validation.Field(&c.DatabaseURL, validation.Required),
		validation.Field(&c.SigningSecret, validation.Required, validation.Length(16, 0)),
		validation.Field(&c.AccessTokenTTL, validation.Required),
		validation.Field(&c.RefreshTokenTTL, validation.Required),
		validation.Field(&c.EmailTokenTTL, validation.Required),
	)
}

// TokenService builds the token codec from the configured secret and
// lifetimes.
func (c Config) TokenService() *TokenService {
	return NewTokenService(
		[]byte(c.SigningSecret),
		c.Issuer,
		c.AccessTokenTTL,
		c.RefreshTokenTTL,
		c.EmailTokenTTL,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
