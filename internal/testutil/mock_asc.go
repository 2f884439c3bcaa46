// Package testutil provides test doubles for the App Store Connect API:
// an httptest server speaking JSON:API (MockASC) and an in-memory page
// fetcher (FakeAPI).
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// DefaultRateLimitHeader is sent on every mock response unless overridden.
const DefaultRateLimitHeader = "user-hour-lim:3600;user-hour-rem:3599;"

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by MockASC.
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// MockASC is a configurable mock App Store Connect server for testing.
type MockASC struct {
	server    *httptest.Server
	mu        sync.RWMutex
	handlers  map[string]http.HandlerFunc
	sequences map[string][]MockResponse
	requests  []RecordedRequest
}

// NewMockASC creates and starts a new mock server.
func NewMockASC() *MockASC {
	mock := &MockASC{
		handlers:  make(map[string]http.HandlerFunc),
		sequences: make(map[string][]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				query[k] = v[0]
			}
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  query,
			Header: r.Header.Clone(),
			Body:   body,
		})
		var next *MockResponse
		if seq := mock.sequences[r.URL.Path]; len(seq) > 0 {
			next = &seq[0]
			if len(seq) > 1 {
				mock.sequences[r.URL.Path] = seq[1:]
			}
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		switch {
		case next != nil:
			writeResponse(w, *next)
		case exists:
			handler(w, r)
		default:
			mock.defaultHandler(w, r)
		}
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockASC) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockASC) Close() {
	m.server.Close()
}

// SetHandler sets a custom handler for a specific path.
func (m *MockASC) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockASC) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence serves responses for path in order; the last one repeats.
func (m *MockASC) SetSequence(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sequences[path] = responses
}

// SetJSON serves v encoded as JSON with status for path.
func (m *MockASC) SetJSON(path string, status int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal mock response: %v", err))
	}
	m.SetResponse(path, MockResponse{StatusCode: status, Body: string(raw)})
}

// Requests returns the requests received so far.
func (m *MockASC) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockASC) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

func writeResponse(w http.ResponseWriter, resp MockResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("X-Rate-Limit", DefaultRateLimitHeader)
	w.Header().Set("Content-Type", "application/json")
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if resp.Body != "" {
		_, _ = w.Write([]byte(resp.Body))
	}
}

// defaultHandler answers unknown paths with a JSON:API 404.
func (m *MockASC) defaultHandler(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, MockResponse{
		StatusCode: http.StatusNotFound,
		Body: fmt.Sprintf(`{"errors":[{"status":"404","code":"NOT_FOUND","title":"The specified resource does not exist","detail":"The path provided does not match a defined resource type: %s"}]}`,
			r.URL.Path),
	})
}
