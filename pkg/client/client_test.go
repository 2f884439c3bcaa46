package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Sternrassler/appstore-connect-mcp/internal/testutil"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
)

const reviewsBody = `{"data":[{"type":"customerReviews","id":"r1","attributes":{"rating":5}}],"links":{"self":"x"}}`

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{})
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindConfiguration {
		t.Fatalf("New() error = %v, want configuration error", err)
	}
}

func TestNew_InvalidBaseURL(t *testing.T) {
	cfg := testConfig(t, "not a url")
	if _, err := New(cfg); err == nil {
		t.Fatal("New() expected error for base url without host")
	}
}

func TestClient_Get(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/apps/app-1/customerReviews", testutil.MockResponse{Body: reviewsBody})

	doc, err := c.Get(context.Background(), "/v1/apps/app-1/customerReviews", map[string]string{
		"limit": "50",
		"sort":  "-createdDate",
	})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := len(doc.Data()); got != 1 {
		t.Errorf("len(data) = %d, want 1", got)
	}

	reqs := mock.Requests()
	if len(reqs) != 1 {
		t.Fatalf("request count = %d, want 1", len(reqs))
	}
	req := reqs[0]
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.Query["limit"] != "50" || req.Query["sort"] != "-createdDate" {
		t.Errorf("query = %v", req.Query)
	}
	if auth := req.Header.Get("Authorization"); !strings.HasPrefix(auth, "Bearer ") {
		t.Errorf("Authorization = %q, want Bearer token", auth)
	}
	if ua := req.Header.Get("User-Agent"); ua != "appstore-connect-mcp" {
		t.Errorf("User-Agent = %q", ua)
	}
	if accept := req.Header.Get("Accept"); accept != "application/json" {
		t.Errorf("Accept = %q", accept)
	}
}

func TestClient_GetURL(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/apps/app-1/customerReviews", testutil.MockResponse{Body: reviewsBody})

	_, err := c.GetURL(context.Background(), mock.URL()+"/v1/apps/app-1/customerReviews?cursor=abc&limit=50")
	if err != nil {
		t.Fatalf("GetURL() error = %v", err)
	}

	req := mock.Requests()[0]
	if req.Query["cursor"] != "abc" {
		t.Errorf("cursor = %q, want abc", req.Query["cursor"])
	}
}

func TestClient_GetURL_ForeignHost(t *testing.T) {
	c, mock := newTestClient(t)

	_, err := c.GetURL(context.Background(), "https://attacker.example.com/v1/apps?cursor=abc")
	if !errors.Is(err, ErrForeignHost) {
		t.Fatalf("GetURL() error = %v, want ErrForeignHost", err)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("request count = %d, want 0", mock.RequestCount())
	}
}

func TestClient_Post(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/ciBuildRuns", testutil.MockResponse{
		StatusCode: http.StatusCreated,
		Body:       `{"data":{"type":"ciBuildRuns","id":"run-1","attributes":{"number":42}}}`,
	})

	req := models.NewCiBuildRunCreateRequest("wf-1", "ref-1", "")
	doc, err := c.Post(context.Background(), "/v1/ciBuildRuns", req)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if got := doc.Data(); len(got) != 1 || got[0].ID() != "run-1" {
		t.Errorf("data = %v, want run-1", got)
	}

	recorded := mock.Requests()[0]
	if recorded.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", recorded.Method)
	}
	if ct := recorded.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]any
	if err := json.Unmarshal(recorded.Body, &body); err != nil {
		t.Fatalf("request body is not JSON: %v", err)
	}
	data, _ := body["data"].(map[string]any)
	if data["type"] != "ciBuildRuns" {
		t.Errorf("body data.type = %v, want ciBuildRuns", data["type"])
	}
}

func TestClient_PostNotRetriedOnServerError(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "bad gateway", status: http.StatusBadGateway},
		{name: "internal server error", status: http.StatusInternalServerError},
		{name: "service unavailable", status: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestClient(t)
			mock.SetResponse("/v1/ciBuildRuns", testutil.MockResponse{StatusCode: tt.status})

			_, err := c.Post(context.Background(), "/v1/ciBuildRuns", models.NewCiBuildRunCreateRequest("wf-1", "", ""))

			if mock.RequestCount() != 1 {
				t.Errorf("POST count = %d, want 1", mock.RequestCount())
			}
			if errors.Is(err, ErrRetryExhausted) {
				t.Errorf("Post() error = %v, want the first failure without retries", err)
			}
			if e, ok := apperr.As(err); !ok || e.StatusCode != tt.status {
				t.Errorf("Post() error = %v, want api error with status %d", err, tt.status)
			}
		})
	}
}

func TestClient_PostRetriedOnTooManyRequests(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetSequence("/v1/ciBuildRuns",
		testutil.MockResponse{StatusCode: http.StatusTooManyRequests},
		testutil.MockResponse{StatusCode: http.StatusCreated, Body: `{"data":{"type":"ciBuildRuns","id":"run-1"}}`},
	)

	if _, err := c.Post(context.Background(), "/v1/ciBuildRuns", models.NewCiBuildRunCreateRequest("wf-1", "", "")); err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("POST count = %d, want 2", mock.RequestCount())
	}
}

func TestClient_Delete(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/analyticsReportRequests/req-1", testutil.MockResponse{StatusCode: http.StatusNoContent})

	if err := c.Delete(context.Background(), "/v1/analyticsReportRequests/req-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := mock.Requests()[0].Method; got != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", got)
	}
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRequests int
		wantMessage  string
		wantUserMsg  bool
	}{
		{
			name:         "not found",
			status:       http.StatusNotFound,
			body:         `{"errors":[{"status":"404","code":"NOT_FOUND","title":"Not found","detail":"There is no resource of type 'apps' with id 'x'"}]}`,
			wantRequests: 1,
			wantMessage:  "There is no resource of type 'apps' with id 'x'",
			wantUserMsg:  true,
		},
		{
			name:         "bad request not retried",
			status:       http.StatusBadRequest,
			body:         `{"errors":[{"status":"400","title":"A parameter has an invalid value"}]}`,
			wantRequests: 1,
			wantMessage:  "A parameter has an invalid value",
		},
		{
			name:         "unauthorized",
			status:       http.StatusUnauthorized,
			body:         `not json`,
			wantRequests: 1,
			wantMessage:  "401",
			wantUserMsg:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestClient(t)
			mock.SetResponse("/v1/apps/x", testutil.MockResponse{StatusCode: tt.status, Body: tt.body})

			_, err := c.Get(context.Background(), "/v1/apps/x", nil)

			e, ok := apperr.As(err)
			if !ok {
				t.Fatalf("Get() error = %v, want *apperr.Error", err)
			}
			if e.Kind != apperr.KindAPI {
				t.Errorf("Kind = %q, want api", e.Kind)
			}
			if e.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", e.StatusCode, tt.status)
			}
			if !strings.Contains(e.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want to contain %q", e.Message, tt.wantMessage)
			}
			if tt.wantUserMsg && e.UserMessage == "" {
				t.Error("UserMessage is empty")
			}
			if mock.RequestCount() != tt.wantRequests {
				t.Errorf("request count = %d, want %d", mock.RequestCount(), tt.wantRequests)
			}
		})
	}
}

func TestClient_ErrorDetails(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/apps/x", testutil.MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"errors":[{"status":"404","code":"NOT_FOUND","title":"Not found"}]}`,
	})

	_, err := c.Get(context.Background(), "/v1/apps/x", nil)
	e, _ := apperr.As(err)
	if e == nil {
		t.Fatalf("Get() error = %v", err)
	}

	errs, ok := e.Details["errors"].([]map[string]any)
	if !ok || len(errs) != 1 || errs[0]["code"] != "NOT_FOUND" {
		t.Errorf("details[errors] = %v", e.Details["errors"])
	}
	if e.Details["endpoint"] != "/v1/apps/x" {
		t.Errorf("details[endpoint] = %v", e.Details["endpoint"])
	}
	if e.Details["error_class"] != string(ErrorClassClient) {
		t.Errorf("details[error_class] = %v", e.Details["error_class"])
	}
}

func TestClient_RetryOnServerError(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetSequence("/v1/apps",
		testutil.MockResponse{StatusCode: http.StatusInternalServerError, Body: `{"errors":[]}`},
		testutil.MockResponse{StatusCode: http.StatusBadGateway},
		testutil.MockResponse{Body: `{"data":[]}`},
	)

	if _, err := c.Get(context.Background(), "/v1/apps", nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", mock.RequestCount())
	}
}

func TestClient_RetryExhausted(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/apps", testutil.MockResponse{StatusCode: http.StatusInternalServerError})

	_, err := c.Get(context.Background(), "/v1/apps", nil)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("Get() error = %v, want ErrRetryExhausted", err)
	}
	e, ok := apperr.As(err)
	if !ok || e.StatusCode != http.StatusInternalServerError {
		t.Errorf("wrapped error = %v, want api error with status 500", err)
	}
	if mock.RequestCount() != 3 {
		t.Errorf("request count = %d, want 3", mock.RequestCount())
	}
}

func TestClient_RetryOnTooManyRequests(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetSequence("/v1/apps",
		testutil.MockResponse{StatusCode: http.StatusTooManyRequests},
		testutil.MockResponse{Body: `{"data":[]}`},
	)

	if _, err := c.Get(context.Background(), "/v1/apps", nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if mock.RequestCount() != 2 {
		t.Errorf("request count = %d, want 2", mock.RequestCount())
	}
}

func TestClient_RateLimitHeaderBlocksWhenCritical(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetResponse("/v1/apps", testutil.MockResponse{
		Body:    `{"data":[]}`,
		Headers: map[string]string{"X-Rate-Limit": "user-hour-lim:3600;user-hour-rem:5;"},
	})
	ctx := context.Background()

	if _, err := c.Get(ctx, "/v1/apps", nil); err != nil {
		t.Fatalf("first Get() error = %v", err)
	}

	state, err := c.RateLimiter().GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Limit != 3600 || state.Remaining != 5 {
		t.Errorf("state = %d/%d, want 5/3600", state.Remaining, state.Limit)
	}

	_, err = c.Get(ctx, "/v1/apps", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second Get() error = %v, want ErrRateLimited", err)
	}
	if e, ok := apperr.As(err); !ok || e.StatusCode != http.StatusTooManyRequests {
		t.Errorf("error = %v, want api error with status 429", err)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("request count = %d, want 1", mock.RequestCount())
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	c, _ := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "/v1/apps", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}

func TestClient_GetAllPages(t *testing.T) {
	c, mock := newTestClient(t)
	mock.SetHandler("/v1/apps/app-1/customerReviews", func(w http.ResponseWriter, r *http.Request) {
		var body string
		switch r.URL.Query().Get("cursor") {
		case "":
			body = fmt.Sprintf(`{"data":[{"type":"customerReviews","id":"r1"},{"type":"customerReviews","id":"r2"}],
				"included":[{"type":"apps","id":"app-1"}],
				"links":{"next":"%s/v1/apps/app-1/customerReviews?cursor=2"}}`, mock.URL())
		case "2":
			body = `{"data":[{"type":"customerReviews","id":"r3"}],"links":{}}`
		}
		w.Header().Set("X-Rate-Limit", testutil.DefaultRateLimitHeader)
		_, _ = w.Write([]byte(body))
	})

	doc, err := c.GetAllPages(context.Background(), "/v1/apps/app-1/customerReviews", map[string]string{"sort": "-createdDate"}, 2, 0)
	if err != nil {
		t.Fatalf("GetAllPages() error = %v", err)
	}

	data := doc.Data()
	if len(data) != 3 || data[2].ID() != "r3" {
		t.Errorf("data = %v, want r1, r2, r3", data)
	}
	if len(doc.Included()) != 1 {
		t.Errorf("included = %v, want one record", doc.Included())
	}

	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("request count = %d, want 2", len(reqs))
	}
	if reqs[0].Query["limit"] != "2" || reqs[0].Query["sort"] != "-createdDate" {
		t.Errorf("first page query = %v", reqs[0].Query)
	}
	if _, ok := reqs[1].Query["limit"]; ok {
		t.Error("limit re-sent on next link request")
	}
}

func TestClient_EnsureAppID(t *testing.T) {
	c, _ := newTestClient(t)

	if got, _ := c.EnsureAppID("explicit"); got != "explicit" {
		t.Errorf("EnsureAppID(explicit) = %q", got)
	}
	if got, _ := c.EnsureAppID(""); got != "app-1" {
		t.Errorf("EnsureAppID(\"\") = %q, want default app-1", got)
	}

	c.config.DefaultAppID = ""
	_, err := c.EnsureAppID("")
	e, ok := apperr.As(err)
	if !ok || e.Kind != apperr.KindValidation {
		t.Errorf("EnsureAppID() error = %v, want validation error", err)
	}
}
