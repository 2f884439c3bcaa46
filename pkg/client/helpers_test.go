package client

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/internal/testutil"
)

// testKey generates a P-256 key and its PKCS#8 PEM encoding, the format of
// App Store Connect .p8 files.
func testKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
}

func testConfig(t *testing.T, baseURL string) Config {
	t.Helper()

	_, keyPEM := testKey(t)
	cfg := DefaultConfig()
	cfg.KeyID = "KEY123"
	cfg.IssuerID = "issuer-uuid"
	cfg.PrivateKey = keyPEM
	cfg.DefaultAppID = "app-1"
	cfg.BaseURL = baseURL
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func newTestClient(t *testing.T) (*Client, *testutil.MockASC) {
	t.Helper()

	mock := testutil.NewMockASC()
	t.Cleanup(mock.Close)

	c, err := New(testConfig(t, mock.URL()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, mock
}
