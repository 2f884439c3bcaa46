package client

import (
	"reflect"
	"testing"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.KeyType != KeyTypeTeam {
		t.Errorf("KeyType = %q, want %q", cfg.KeyType, KeyTypeTeam)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(EnvKeyID, "KEY123")
	t.Setenv(EnvIssuerID, "issuer-uuid")
	t.Setenv(EnvPrivateKeyPath, "/keys/AuthKey.p8")
	t.Setenv(EnvAppID, "123456789")
	t.Setenv(EnvKeyType, "Individual")
	t.Setenv(EnvScope, "GET /v1/apps, GET /v1/customerReviews,")
	t.Setenv(EnvSubject, "user-42")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}

	if cfg.KeyID != "KEY123" || cfg.IssuerID != "issuer-uuid" || cfg.PrivateKeyPath != "/keys/AuthKey.p8" {
		t.Errorf("credentials not read from env: %+v", cfg)
	}
	if cfg.DefaultAppID != "123456789" {
		t.Errorf("DefaultAppID = %q, want 123456789", cfg.DefaultAppID)
	}
	if cfg.KeyType != KeyTypeIndividual {
		t.Errorf("KeyType = %q, want %q", cfg.KeyType, KeyTypeIndividual)
	}
	if want := []string{"GET /v1/apps", "GET /v1/customerReviews"}; !reflect.DeepEqual(cfg.Scope, want) {
		t.Errorf("Scope = %v, want %v", cfg.Scope, want)
	}
	if cfg.Subject != "user-42" {
		t.Errorf("Subject = %q, want user-42", cfg.Subject)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestConfigFromEnv_MissingVariables(t *testing.T) {
	t.Setenv(EnvKeyID, "")
	t.Setenv(EnvIssuerID, "issuer-uuid")
	t.Setenv(EnvPrivateKeyPath, "")

	_, err := ConfigFromEnv()

	e, ok := apperr.As(err)
	if !ok {
		t.Fatalf("ConfigFromEnv() error = %v, want *apperr.Error", err)
	}
	if e.Kind != apperr.KindConfiguration {
		t.Errorf("Kind = %q, want %q", e.Kind, apperr.KindConfiguration)
	}
	want := []string{EnvKeyID, EnvPrivateKeyPath}
	if got := e.Details["missing_variables"]; !reflect.DeepEqual(got, want) {
		t.Errorf("missing_variables = %v, want %v", got, want)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{KeyID: "K", IssuerID: "I", PrivateKeyPath: "/k.p8"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid team key", mutate: func(c *Config) {}},
		{name: "inline key instead of path", mutate: func(c *Config) { c.PrivateKeyPath = ""; c.PrivateKey = []byte("pem") }},
		{name: "individual key", mutate: func(c *Config) { c.KeyType = KeyTypeIndividual }},
		{name: "unknown key type", mutate: func(c *Config) { c.KeyType = "admin" }, wantErr: true},
		{name: "missing key id", mutate: func(c *Config) { c.KeyID = "" }, wantErr: true},
		{name: "missing key material", mutate: func(c *Config) { c.PrivateKeyPath = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() expected error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}
