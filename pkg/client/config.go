package client

import (
	"os"
	"strings"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/ratelimit"
)

// DefaultBaseURL is the App Store Connect API host.
const DefaultBaseURL = "https://api.appstoreconnect.apple.com"

// Key types accepted by App Store Connect.
const (
	KeyTypeTeam       = "team"
	KeyTypeIndividual = "individual"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvKeyID          = "APP_STORE_KEY_ID"
	EnvIssuerID       = "APP_STORE_ISSUER_ID"
	EnvPrivateKeyPath = "APP_STORE_PRIVATE_KEY_PATH"
	EnvAppID          = "APP_STORE_APP_ID"
	EnvKeyType        = "APP_STORE_KEY_TYPE"
	EnvScope          = "APP_STORE_SCOPE"
	EnvSubject        = "APP_STORE_SUBJECT"
)

// Config holds the client configuration.
type Config struct {
	// API key credentials
	KeyID          string
	IssuerID       string
	PrivateKeyPath string
	PrivateKey     []byte // PEM contents; takes precedence over PrivateKeyPath

	// KeyType is "team" (default) or "individual".
	KeyType string
	// Scope optionally restricts the token to specific operations, e.g. "GET /v1/apps".
	Scope []string
	// Subject is the sub claim for individual keys (default "user").
	Subject string

	// DefaultAppID is used when a tool call omits app_id.
	DefaultAppID string

	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// RateLimitStore shares quota state; nil keeps it in memory.
	RateLimitStore ratelimit.Store
}

// DefaultConfig returns a configuration with the non-credential defaults set.
func DefaultConfig() Config {
	return Config{
		KeyType:        KeyTypeTeam,
		BaseURL:        DefaultBaseURL,
		UserAgent:      "appstore-connect-mcp",
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// ConfigFromEnv builds a configuration from APP_STORE_* environment variables.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.KeyID = getEnv(EnvKeyID, "")
	cfg.IssuerID = getEnv(EnvIssuerID, "")
	cfg.PrivateKeyPath = getEnv(EnvPrivateKeyPath, "")
	cfg.DefaultAppID = getEnv(EnvAppID, "")
	cfg.KeyType = strings.ToLower(getEnv(EnvKeyType, KeyTypeTeam))
	cfg.Subject = getEnv(EnvSubject, "")
	cfg.Scope = splitList(getEnv(EnvScope, ""))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the credentials needed to sign requests are present.
func (c Config) Validate() error {
	var missing []string
	if c.KeyID == "" {
		missing = append(missing, EnvKeyID)
	}
	if c.IssuerID == "" {
		missing = append(missing, EnvIssuerID)
	}
	if c.PrivateKeyPath == "" && len(c.PrivateKey) == 0 {
		missing = append(missing, EnvPrivateKeyPath)
	}
	if len(missing) > 0 {
		return apperr.Configuration(
			"Missing required environment variables: "+strings.Join(missing, ", "),
			map[string]any{"missing_variables": missing},
		)
	}

	switch c.KeyType {
	case "", KeyTypeTeam, KeyTypeIndividual:
	default:
		return apperr.Configuration(
			"APP_STORE_KEY_TYPE must be 'team' or 'individual'",
			map[string]any{EnvKeyType: c.KeyType},
		)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
