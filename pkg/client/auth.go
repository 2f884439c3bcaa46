package client

import (
	"crypto/ecdsa"
	"os"
	"sync"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Token lifetime constants. App Store Connect rejects tokens valid for more than 20 minutes.
const (
	TokenTTL          = 20 * time.Minute
	TokenEarlyRenewal = 60 * time.Second
	TokenAudience     = "appstoreconnect-v1"
)

// tokenSource signs and caches ES256 bearer tokens.
type tokenSource struct {
	mu     sync.Mutex
	config Config
	key    *ecdsa.PrivateKey
	token  string
	expiry time.Time
	now    func() time.Time
}

func newTokenSource(cfg Config) *tokenSource {
	return &tokenSource{config: cfg, now: time.Now}
}

// Token returns a cached token, signing a new one when the cached token is
// within TokenEarlyRenewal of expiring.
func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.expiry.Add(-TokenEarlyRenewal)) {
		return s.token, nil
	}

	key, err := s.privateKey()
	if err != nil {
		return "", err
	}

	issuedAt := now.Unix()
	expiresAt := now.Add(TokenTTL)

	claims := jwt.MapClaims{
		"iat": issuedAt,
		"exp": expiresAt.Unix(),
		"aud": TokenAudience,
	}
	if s.config.KeyType == KeyTypeIndividual {
		subject := s.config.Subject
		if subject == "" {
			subject = "user"
		}
		claims["sub"] = subject
	} else {
		claims["iss"] = s.config.IssuerID
	}
	if len(s.config.Scope) > 0 {
		claims["scope"] = s.config.Scope
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.config.KeyID

	signed, err := token.SignedString(key)
	if err != nil {
		return "", apperr.Authentication("Failed to generate JWT for App Store Connect API", err)
	}

	s.token = signed
	s.expiry = time.Unix(expiresAt.Unix(), 0)
	return signed, nil
}

func (s *tokenSource) privateKey() (*ecdsa.PrivateKey, error) {
	if s.key != nil {
		return s.key, nil
	}

	pem := s.config.PrivateKey
	if len(pem) == 0 {
		data, err := os.ReadFile(s.config.PrivateKeyPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, apperr.Configuration(
					"Private key file not found at path: "+s.config.PrivateKeyPath,
					map[string]any{"path": s.config.PrivateKeyPath},
				)
			}
			return nil, apperr.Configuration(
				"Failed to read private key file",
				map[string]any{"path": s.config.PrivateKeyPath, "error": err.Error()},
			)
		}
		pem = data
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, apperr.Configuration(
			"Failed to parse private key",
			map[string]any{"path": s.config.PrivateKeyPath, "error": err.Error()},
		)
	}
	s.key = key
	return key, nil
}
