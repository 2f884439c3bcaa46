// Package client provides the App Store Connect HTTP client: ES256 token
// authentication, quota tracking, retries and JSON:API decoding.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/pagination"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for App Store Connect client operations.
var (
	ascRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asc_requests_total",
		Help: "Total App Store Connect requests by endpoint and status",
	}, []string{"endpoint", "status"})

	ascRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "asc_request_duration_seconds",
		Help:    "App Store Connect request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	ascErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "asc_errors_total",
		Help: "Total App Store Connect errors by class",
	}, []string{"class"})
)

// Client is the App Store Connect API client.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	tokens      *tokenSource
	rateLimiter *ratelimit.Tracker
	retry       RetryConfig
	config      Config
	logger      zerolog.Logger
}

// New creates a new App Store Connect client.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if cfg.KeyType == "" {
		cfg.KeyType = defaults.KeyType
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaults.MaxBackoff
	}

	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || baseURL.Host == "" {
		return nil, apperr.Configuration("invalid base url", map[string]any{"base_url": cfg.BaseURL})
	}

	logger := log.With().Str("component", "asc-client").Logger()

	retry := DefaultRetryConfig()
	retry.MaxAttempts = cfg.MaxRetries
	retry.InitialBackoff = cfg.InitialBackoff
	retry.MaxBackoff = cfg.MaxBackoff

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     baseURL,
		tokens:      newTokenSource(cfg),
		rateLimiter: ratelimit.NewTracker(cfg.RateLimitStore, logger),
		retry:       retry,
		config:      cfg,
		logger:      logger,
	}, nil
}

// DefaultAppID returns the configured default app id, or "".
func (c *Client) DefaultAppID() string {
	return c.config.DefaultAppID
}

// EnsureAppID returns appID, falling back to the default app id.
func (c *Client) EnsureAppID(appID string) (string, error) {
	if appID != "" {
		return appID, nil
	}
	if c.config.DefaultAppID != "" {
		return c.config.DefaultAppID, nil
	}
	return "", apperr.Validation("app_id is required",
		"Please provide an app_id or set APP_STORE_APP_ID environment variable",
		map[string]any{"missing_field": "app_id"})
}

// Get performs a GET against endpoint (relative to the base URL) with query params.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (jsonapi.Document, error) {
	return c.do(ctx, http.MethodGet, c.endpointURL(endpoint, params), nil)
}

// GetURL performs a GET against an absolute URL, typically a links.next value.
// The URL must be on the API host so the bearer token is never sent elsewhere.
func (c *Client) GetURL(ctx context.Context, rawURL string) (jsonapi.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.Validation("invalid url", "", map[string]any{"url": rawURL, "error": err.Error()})
	}
	if !strings.EqualFold(u.Host, c.baseURL.Host) {
		return nil, apperr.API(0, ErrForeignHost.Error(), map[string]any{"url": rawURL}, ErrForeignHost)
	}
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

// Post sends body as JSON to endpoint.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (jsonapi.Document, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperr.Validation("encode request body", "", map[string]any{"error": err.Error()})
	}
	return c.do(ctx, http.MethodPost, c.endpointURL(endpoint, nil), payload)
}

// Delete deletes the resource at endpoint.
func (c *Client) Delete(ctx context.Context, endpoint string) error {
	_, err := c.do(ctx, http.MethodDelete, c.endpointURL(endpoint, nil), nil)
	return err
}

// GetAllPages follows links.next from endpoint and returns the combined collection.
// pageSize is clamped to pagination.MaxPageSize; maxTotal <= 0 is unlimited.
func (c *Client) GetAllPages(ctx context.Context, endpoint string, params map[string]string, pageSize, maxTotal int) (jsonapi.Document, error) {
	result, err := pagination.NewAggregator(c, pagination.DefaultConfig()).
		FetchAllPages(ctx, endpoint, params, pageSize, maxTotal)
	if err != nil {
		return nil, err
	}
	return result.Document(), nil
}

func (c *Client) endpointURL(endpoint string, params map[string]string) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// do performs a request with quota gating, authentication and retries.
func (c *Client) do(ctx context.Context, method, rawURL string, body []byte) (jsonapi.Document, error) {
	endpoint := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		endpoint = u.Path
	}

	startTime := time.Now()
	defer func() {
		ascRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Warn().
			Str("endpoint", endpoint).
			Msg("Request blocked by rate limiter")
		ascRequestsTotal.WithLabelValues(endpoint, "rate_limited").Inc()
		return nil, apperr.API(http.StatusTooManyRequests, ErrRateLimited.Error(),
			map[string]any{"endpoint": endpoint}, ErrRateLimited)
	}

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("method", method).
		Msg("Executing App Store Connect request")

	retry := c.retry
	if method == http.MethodPost {
		// POST is not idempotent: only requests rejected with 429 are sent again.
		retry.Retryable = retryRejectedOnly
	}

	var doc jsonapi.Document

	err = retryWithBackoff(ctx, retry, c.logger, func() (ErrorClass, error) {
		token, err := c.tokens.Token()
		if err != nil {
			return "", err
		}

		var reqBody io.Reader = http.NoBody
		if body != nil {
			reqBody = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.config.UserAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			ascErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			ascRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, apperr.API(0, "request failed", map[string]any{
				"method":   method,
				"endpoint": endpoint,
			}, err)
		}
		defer resp.Body.Close()

		if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
		}

		ascRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

		if resp.StatusCode >= 400 {
			errClass := classifyStatus(resp.StatusCode)
			ascErrorsTotal.WithLabelValues(string(errClass)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("App Store Connect request error")

			return errClass, apiError(method, endpoint, resp)
		}

		doc, err = decodeDocument(resp.Body)
		if err != nil {
			return "", apperr.API(resp.StatusCode, "decode response", map[string]any{
				"method":   method,
				"endpoint": endpoint,
			}, err)
		}
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeDocument(r io.Reader) (jsonapi.Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var doc jsonapi.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// errorResponse is the JSON:API error envelope.
type errorResponse struct {
	Errors []map[string]any `json:"errors"`
}

// apiError builds an API error from a non-2xx response, carrying the
// JSON:API errors array when the body has one.
func apiError(method, endpoint string, resp *http.Response) error {
	details := map[string]any{
		"method":      method,
		"endpoint":    endpoint,
		"error_class": string(classifyStatus(resp.StatusCode)),
	}

	message := fmt.Sprintf("App Store Connect API error: %s", resp.Status)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		details["errors"] = body.Errors
		first := body.Errors[0]
		if detail, _ := first["detail"].(string); detail != "" {
			message = fmt.Sprintf("App Store Connect API error (%d): %s", resp.StatusCode, detail)
		} else if title, _ := first["title"].(string); title != "" {
			message = fmt.Sprintf("App Store Connect API error (%d): %s", resp.StatusCode, title)
		}
	} else if len(raw) > 0 {
		details["body"] = string(raw)
	}

	var userMessage string
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		userMessage = "Authentication failed. Check APP_STORE_KEY_ID, APP_STORE_ISSUER_ID and the private key."
	case http.StatusForbidden:
		userMessage = "The API key does not have access to this resource."
	case http.StatusNotFound:
		userMessage = "The requested resource was not found."
	case http.StatusTooManyRequests:
		userMessage = "App Store Connect rate limit reached. Try again later."
	}

	e := apperr.API(resp.StatusCode, message, details, nil)
	e.UserMessage = userMessage
	return e
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// RateLimiter returns the quota tracker (for testing).
func (c *Client) RateLimiter() *ratelimit.Tracker {
	return c.rateLimiter
}
