package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
)

// Call records one request made against a FakeAPI.
type Call struct {
	Method   string // "GET", "GET_URL", "POST", "DELETE"
	Endpoint string
	Params   map[string]string
	Body     any
}

// FakeAPI is an in-memory App Store Connect API scripted per endpoint and URL.
type FakeAPI struct {
	mu sync.Mutex

	AppID string

	Responses map[string]jsonapi.Document // by endpoint (GET/POST/DELETE)
	Pages     map[string]jsonapi.Document // by absolute URL (GET_URL)
	Errors    map[string]error            // by endpoint or URL

	Calls []Call
}

// NewFakeAPI creates an empty fake with a default app id.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		AppID:     "app-123",
		Responses: make(map[string]jsonapi.Document),
		Pages:     make(map[string]jsonapi.Document),
		Errors:    make(map[string]error),
	}
}

// Get implements pagination.PageFetcher.
func (f *FakeAPI) Get(ctx context.Context, endpoint string, params map[string]string) (jsonapi.Document, error) {
	copied := make(map[string]string, len(params))
	for k, v := range params {
		copied[k] = v
	}
	return f.respond(ctx, Call{Method: "GET", Endpoint: endpoint, Params: copied}, f.Responses)
}

// GetURL implements pagination.PageFetcher.
func (f *FakeAPI) GetURL(ctx context.Context, url string) (jsonapi.Document, error) {
	return f.respond(ctx, Call{Method: "GET_URL", Endpoint: url}, f.Pages)
}

// Post records the body and returns the scripted response for endpoint.
func (f *FakeAPI) Post(ctx context.Context, endpoint string, body any) (jsonapi.Document, error) {
	return f.respond(ctx, Call{Method: "POST", Endpoint: endpoint, Body: body}, f.Responses)
}

// Delete records the call.
func (f *FakeAPI) Delete(ctx context.Context, endpoint string) error {
	_, err := f.respond(ctx, Call{Method: "DELETE", Endpoint: endpoint}, nil)
	return err
}

// DefaultAppID returns the configured app id.
func (f *FakeAPI) DefaultAppID() string {
	return f.AppID
}

// EnsureAppID returns appID, falling back to the default app id.
func (f *FakeAPI) EnsureAppID(appID string) (string, error) {
	if appID != "" {
		return appID, nil
	}
	if f.AppID != "" {
		return f.AppID, nil
	}
	return "", apperr.Validation("app_id is required",
		"Please provide an app_id or set APP_STORE_APP_ID environment variable",
		map[string]any{"missing_field": "app_id"})
}

// CallsByMethod returns recorded calls of the given method.
func (f *FakeAPI) CallsByMethod(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeAPI) respond(ctx context.Context, call Call, table map[string]jsonapi.Document) (jsonapi.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, call)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := f.Errors[call.Endpoint]; ok {
		return nil, err
	}
	if table == nil {
		return nil, nil
	}
	doc, ok := table[call.Endpoint]
	if !ok {
		return nil, fmt.Errorf("fake api: no response for %s %s", call.Method, call.Endpoint)
	}
	return doc, nil
}

// Page builds a page document with the given data, included records and next link.
func Page(data []jsonapi.Record, included []jsonapi.Record, next string) jsonapi.Document {
	doc := jsonapi.Document{"data": data}
	if included != nil {
		doc["included"] = included
	}
	links := map[string]any{}
	if next != "" {
		links["next"] = next
	}
	doc["links"] = links
	return doc
}

// Records builds n records with ids prefix-1..prefix-n.
func Records(prefix string, n int) []jsonapi.Record {
	out := make([]jsonapi.Record, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, jsonapi.Record{
			"id":         fmt.Sprintf("%s-%d", prefix, i),
			"type":       "customerReviews",
			"attributes": map[string]any{},
		})
	}
	return out
}

// IDs returns the ids of records in order.
func IDs(records []jsonapi.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID())
	}
	return out
}
