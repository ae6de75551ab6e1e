package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecretKey is used when JWT_SECRET_KEY is unset. It only exists so
// that a local run works out of the box; main logs a warning when it is active.
const DefaultJWTSecretKey = "your-default-secret-key"

var supportedAlgorithms = map[string]bool{
	"HS256": true,
	"HS384": true,
	"HS512": true,
}

type Config struct {
	Addr     string
	LogLevel string

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string

	ServiceAccountUsername string
	ServiceAccountPassword string

	JWTSecretKey   string
	JWTAlgorithm   string
	AccessTokenTTL time.Duration

	SecretsManagerSecretID string
	SNSTopicARN            string
	OTLPEndpoint           string

	// CORSAllowedOrigins enables CORS for browser clients when non-empty.
	CORSAllowedOrigins []string

	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	expireMinutes, err := getIntEnv("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:                   net.JoinHostPort(getEnv("HOST", "127.0.0.1"), getEnv("PORT", "8000")),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		ServiceAccountUsername: getEnv("SERVICE_ACCOUNT_USERNAME", ""),
		ServiceAccountPassword: getEnv("SERVICE_ACCOUNT_PASSWORD", ""),
		JWTSecretKey:           getEnv("JWT_SECRET_KEY", DefaultJWTSecretKey),
		JWTAlgorithm:           getEnv("JWT_ALGORITHM", "HS256"),
		AccessTokenTTL:         time.Duration(expireMinutes) * time.Minute,
		SecretsManagerSecretID: getEnv("SECRETS_MANAGER_SECRET_ID", ""),
		SNSTopicARN:            getEnv("SNS_TOPIC_ARN", ""),
		OTLPEndpoint:           getEnv("OTLP_ENDPOINT", ""),
		CORSAllowedOrigins:     getListEnv("CORS_ALLOWED_ORIGINS"),
		ShutdownTimeout:        getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),
	}

	if !supportedAlgorithms[cfg.JWTAlgorithm] {
		return nil, fmt.Errorf("unsupported JWT_ALGORITHM %q: expected HS256, HS384 or HS512", cfg.JWTAlgorithm)
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", expireMinutes)
	}

	return cfg, nil
}

// Validate checks the values that may come from either the environment or
// the Secrets Manager overlay, so it runs after ApplySecrets.
func (c *Config) Validate() error {
	var errs []error
	if c.ServiceAccountUsername == "" {
		errs = append(errs, errors.New("SERVICE_ACCOUNT_USERNAME is required"))
	}
	if c.ServiceAccountPassword == "" {
		errs = append(errs, errors.New("SERVICE_ACCOUNT_PASSWORD is required"))
	}
	if c.JWTSecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is required"))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether tokens are signed with the built-in key.
func (c *Config) UsesDefaultSecret() bool {
	return c.JWTSecretKey == DefaultJWTSecretKey
}

// SecretGetter is the subset of secrets.SecretStore used by ApplySecrets.
type SecretGetter interface {
	GetSecretJSON(ctx context.Context, name string, v any) error
}

type secretOverlay struct {
	JWTSecretKey           string `json:"jwt_secret_key"`
	ServiceAccountUsername string `json:"service_account_username"`
	ServiceAccountPassword string `json:"service_account_password"`
}

// ApplySecrets overlays non-empty values of the JSON secret id onto c.
func (c *Config) ApplySecrets(ctx context.Context, store SecretGetter, id string) error {
	var overlay secretOverlay
	if err := store.GetSecretJSON(ctx, id, &overlay); err != nil {
		return fmt.Errorf("load secret overlay: %w", err)
	}

	if overlay.JWTSecretKey != "" {
		c.JWTSecretKey = overlay.JWTSecretKey
	}
	if overlay.ServiceAccountUsername != "" {
		c.ServiceAccountUsername = overlay.ServiceAccountUsername
	}
	if overlay.ServiceAccountPassword != "" {
		c.ServiceAccountPassword = overlay.ServiceAccountPassword
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getListEnv splits a comma-separated variable, dropping empty items.
func getListEnv(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
