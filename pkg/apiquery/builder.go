// Package apiquery builds App Store Connect request descriptors (endpoint plus
// query parameters) using the JSON:API conventions the API expects:
// filter[...], fields[...], include, limit and sort.
//
//	b := apiquery.New("/v1/apps/" + appID + "/customerReviews").
//		WithPagination(50, "-createdDate").
//		WithFilters(map[string]any{"territory": []string{"USA", "GBR"}}, nil).
//		WithIncludes([]string{"response"})
//	doc, err := b.Execute(ctx, client)
package apiquery

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"
)

// ErrConsumed is returned when a Builder is executed more than once.
var ErrConsumed = errors.New("query builder already executed")

// FilterMapping translates caller filter names to the API's filter names.
type FilterMapping map[string]string

// Resolve returns the API filter name for key, or key itself when unmapped.
func (m FilterMapping) Resolve(key string) string {
	if vendor, ok := m[key]; ok && vendor != "" {
		return vendor
	}
	return key
}

// Builder accumulates the query parameters for one request.
type Builder struct {
	endpoint string
	params   map[string]string
	consumed bool
}

// New creates a builder for endpoint.
func New(endpoint string) *Builder {
	return &Builder{
		endpoint: endpoint,
		params:   make(map[string]string),
	}
}

// Endpoint returns the endpoint the builder targets.
func (b *Builder) Endpoint() string {
	return b.endpoint
}

// Params returns a copy of the accumulated query parameters.
func (b *Builder) Params() map[string]string {
	out := make(map[string]string, len(b.params))
	for k, v := range b.params {
		out[k] = v
	}
	return out
}

// WithPagination sets limit (when > 0) and sort (when non-empty).
func (b *Builder) WithPagination(limit int, sort string) *Builder {
	if limit > 0 {
		b.params["limit"] = strconv.Itoa(limit)
	}
	if sort != "" {
		b.params["sort"] = sort
	}
	return b
}

// WithLimitAndSort sets only limit, for endpoints that reject a sort parameter.
func (b *Builder) WithLimitAndSort(limit int) *Builder {
	if limit > 0 {
		b.params["limit"] = strconv.Itoa(limit)
	}
	return b
}

// WithFilters adds filter[<name>] parameters. Names are translated through
// mapping; list values are comma-joined. Empty values (nil, "", empty lists,
// false and zero) add nothing.
func (b *Builder) WithFilters(filters map[string]any, mapping FilterMapping) *Builder {
	for key, value := range filters {
		encoded, ok := encodeFilterValue(value)
		if !ok {
			continue
		}
		b.params[fmt.Sprintf("filter[%s]", mapping.Resolve(key))] = encoded
	}
	return b
}

// WithFields restricts the attributes returned for resourceType.
func (b *Builder) WithFields(resourceType string, fields []string) *Builder {
	if len(fields) > 0 {
		b.params[fmt.Sprintf("fields[%s]", resourceType)] = strings.Join(fields, ",")
	}
	return b
}

// WithIncludes requests related resources to be side-loaded.
func (b *Builder) WithIncludes(includes []string) *Builder {
	if len(includes) > 0 {
		b.params["include"] = strings.Join(includes, ",")
	}
	return b
}

// WithRawParams merges params verbatim, overwriting existing keys.
func (b *Builder) WithRawParams(params map[string]string) *Builder {
	for k, v := range params {
		b.params[k] = v
	}
	return b
}

// WithOptions merges the query encoding of opts, a struct whose fields carry
// `url` tags. Repeated values are comma-joined.
func (b *Builder) WithOptions(opts any) (*Builder, error) {
	v, err := query.Values(opts)
	if err != nil {
		return b, fmt.Errorf("encode query options: %w", err)
	}
	for k, values := range v {
		if len(values) == 0 {
			continue
		}
		b.params[k] = strings.Join(values, ",")
	}
	return b, nil
}

// encodeFilterValue renders a filter value; ok is false for empty values.
func encodeFilterValue(value any) (string, bool) {
	if value == nil {
		return "", false
	}

	switch v := value.(type) {
	case string:
		return v, v != ""
	case bool:
		return "true", v
	case []string:
		return strings.Join(v, ","), len(v) > 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "", false
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, scalarString(rv.Index(i).Interface()))
		}
		return strings.Join(parts, ","), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if rv.IsZero() {
			return "", false
		}
		return scalarString(value), true
	case reflect.Pointer:
		if rv.IsNil() {
			return "", false
		}
		return encodeFilterValue(rv.Elem().Interface())
	default:
		return scalarString(value), true
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
