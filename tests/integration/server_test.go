//go:build integration

package integration

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/internal/testutil"
	"github.com/Sternrassler/appstore-connect-mcp/internal/tools"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/client"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis starts a Redis container shared by the clients under test.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err, "start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: endpoint})
	require.NoError(t, rdb.Ping(ctx).Err())

	t.Cleanup(func() {
		rdb.Close()
		_ = container.Terminate(ctx)
	})
	return rdb
}

func newClient(t *testing.T, baseURL string, store ratelimit.Store) *client.Client {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	cfg := client.DefaultConfig()
	cfg.KeyID = "KEY123"
	cfg.IssuerID = "issuer-uuid"
	cfg.PrivateKey = pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	cfg.DefaultAppID = "app-1"
	cfg.BaseURL = baseURL
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	cfg.RateLimitStore = store

	c, err := client.New(cfg)
	require.NoError(t, err)
	return c
}

type toolResult struct {
	IsError bool
	Body    map[string]any
}

// callTool sends a tools/call request through the MCP message handler.
func callTool(t *testing.T, s *tools.Server, name string, args map[string]any) toolResult {
	t.Helper()

	req, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	raw, err := json.Marshal(s.MCP().HandleMessage(context.Background(), req))
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &resp), string(raw))
	require.Len(t, resp.Result.Content, 1, string(raw))

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), &body), resp.Result.Content[0].Text)
	return toolResult{IsError: resp.Result.IsError, Body: body}
}

func review(id string, rating int, territory, created string) map[string]any {
	return map[string]any{
		"type": "customerReviews",
		"id":   id,
		"attributes": map[string]any{
			"rating":      rating,
			"title":       "Title " + id,
			"body":        "Body " + id,
			"territory":   territory,
			"createdDate": created,
		},
	}
}

func TestServer_ReviewsSearchAcrossPages(t *testing.T) {
	mock := testutil.NewMockASC()
	defer mock.Close()

	path := "/v1/apps/app-1/customerReviews"
	mock.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		var doc map[string]any
		if r.URL.Query().Get("cursor") == "" {
			doc = map[string]any{
				"data": []any{
					review("r1", 5, "USA", "2024-06-01T10:00:00Z"),
					review("r2", 2, "USA", "2024-06-02T10:00:00Z"),
				},
				"links": map[string]any{"next": fmt.Sprintf("%s%s?cursor=2", mock.URL(), path)},
			}
		} else {
			doc = map[string]any{
				"data": []any{
					review("r3", 4, "DEU", "2024-06-03T10:00:00Z"),
				},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	})

	s := tools.New(newClient(t, mock.URL(), nil), "test")
	res := callTool(t, s, "reviews_search", map[string]any{"min_rating": 4})

	require.False(t, res.IsError, res.Body)
	data, ok := res.Body["data"].([]any)
	require.True(t, ok)
	var ids []string
	for _, item := range data {
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"r1", "r3"}, ids)
	assert.Equal(t, path, res.Body["links"].(map[string]any)["self"])
	assert.Equal(t, 2, mock.RequestCount())

	first := mock.Requests()[0]
	assert.Equal(t, "-createdDate", first.Query["sort"])
	assert.Contains(t, first.Header.Get("Authorization"), "Bearer ")
}

func TestServer_APIErrorBecomesToolError(t *testing.T) {
	mock := testutil.NewMockASC()
	defer mock.Close()

	s := tools.New(newClient(t, mock.URL(), nil), "test")
	res := callTool(t, s, "builds_get", map[string]any{"build_id": "missing"})

	assert.True(t, res.IsError)
	assert.Equal(t, "api", res.Body["kind"])
	assert.EqualValues(t, http.StatusNotFound, res.Body["status_code"])
}

func TestSharedQuota_BlocksSecondClient(t *testing.T) {
	rdb := setupRedis(t)
	ctx := context.Background()

	mock := testutil.NewMockASC()
	defer mock.Close()
	mock.SetResponse("/v1/apps", testutil.MockResponse{
		Body:    `{"data":[]}`,
		Headers: map[string]string{"X-Rate-Limit": "user-hour-lim:3600;user-hour-rem:5;"},
	})

	first := newClient(t, mock.URL(), ratelimit.NewRedisStore(rdb))
	second := newClient(t, mock.URL(), ratelimit.NewRedisStore(rdb))

	_, err := first.Get(ctx, "/v1/apps", nil)
	require.NoError(t, err)

	_, err = second.Get(ctx, "/v1/apps", nil)
	assert.True(t, errors.Is(err, client.ErrRateLimited), "second client error = %v", err)
	assert.Equal(t, 1, mock.RequestCount())
}
