package apiquery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/pagination"
)

// APIClient is the subset of the App Store Connect client a Builder executes against.
type APIClient = pagination.PageFetcher

// Validator is implemented by typed response shapes that check their own invariants
// after decoding.
type Validator interface {
	Validate() error
}

// Result is the outcome of a typed decode. Exactly one of Parsed and DecodeErr is set;
// Raw always holds the response document.
type Result[T any] struct {
	Parsed    *T
	Raw       jsonapi.Document
	DecodeErr error
}

// Ok reports whether the response matched T.
func (r Result[T]) Ok() bool {
	return r.Parsed != nil
}

// Value returns the typed value when decoding succeeded, otherwise the raw document.
func (r Result[T]) Value() any {
	if r.Parsed != nil {
		return r.Parsed
	}
	return r.Raw
}

// Decode converts doc into T on a best-effort basis. A document that does not
// match T is reported through DecodeErr, never dropped.
func Decode[T any](doc jsonapi.Document) Result[T] {
	res := Result[T]{Raw: doc}

	raw, err := json.Marshal(doc)
	if err != nil {
		res.DecodeErr = fmt.Errorf("encode response: %w", err)
		return res
	}

	var parsed T
	if err := json.Unmarshal(raw, &parsed); err != nil {
		res.DecodeErr = fmt.Errorf("decode response: %w", err)
		return res
	}

	if v, ok := any(&parsed).(Validator); ok {
		if err := v.Validate(); err != nil {
			res.DecodeErr = fmt.Errorf("validate response: %w", err)
			return res
		}
	}

	res.Parsed = &parsed
	return res
}

func (b *Builder) consume() error {
	if b.consumed {
		return ErrConsumed
	}
	b.consumed = true
	return nil
}

// Execute performs a single GET with the accumulated parameters.
func (b *Builder) Execute(ctx context.Context, client APIClient) (jsonapi.Document, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}
	return client.Get(ctx, b.endpoint, b.Params())
}

// ExecuteAs performs a single GET and decodes the response into T.
// Only transport and API failures are returned as errors.
func ExecuteAs[T any](ctx context.Context, b *Builder, client APIClient) (Result[T], error) {
	doc, err := b.Execute(ctx, client)
	if err != nil {
		return Result[T]{}, err
	}
	return Decode[T](doc), nil
}

// ExecuteAllPages follows links.next until the collection is exhausted,
// requesting pages of pagination.MaxPageSize.
func (b *Builder) ExecuteAllPages(ctx context.Context, client APIClient) (jsonapi.Document, error) {
	return b.ExecuteAllPagesLimit(ctx, client, 0)
}

// ExecuteAllPagesLimit is ExecuteAllPages capped at maxTotal records (maxTotal <= 0 is unlimited).
func (b *Builder) ExecuteAllPagesLimit(ctx context.Context, client APIClient, maxTotal int) (jsonapi.Document, error) {
	if err := b.consume(); err != nil {
		return nil, err
	}

	agg := pagination.NewAggregator(client, pagination.DefaultConfig())
	result, err := agg.FetchAllPages(ctx, b.endpoint, b.Params(), pagination.MaxPageSize, maxTotal)
	if err != nil {
		return nil, err
	}
	return result.Document(), nil
}
