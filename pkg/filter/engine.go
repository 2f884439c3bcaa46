// Package filter narrows already-fetched JSON:API records with predicates the
// App Store Connect API cannot evaluate server-side: numeric ranges, substring
// containment, date windows and version ranges.
//
// Stages are chained and evaluated eagerly; each one builds a new working
// slice. Records whose attribute is missing or malformed are excluded by any
// active stage rather than aborting the pass.
//
//	filtered := filter.New(records).
//		NumericRange("attributes.rating", filter.Float(3), nil).
//		TextContains("attributes.body", []string{"crash"}).
//		Limit(50).
//		Apply()
package filter

import (
	"strings"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to resolve sinceDays in DateRange.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is a chainable client-side filter pipeline.
type Engine struct {
	records []jsonapi.Record
	limit   int
	now     func() time.Time
}

// New creates an engine over a shallow copy of records.
func New(records []jsonapi.Record, opts ...Option) *Engine {
	working := make([]jsonapi.Record, len(records))
	copy(working, records)

	e := &Engine{
		records: working,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Float returns a pointer to v, for optional numeric bounds.
func Float(v float64) *float64 {
	return &v
}

// AnyOf converts a typed slice to the []any accepted by Values.
func AnyOf[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// keep rebinds the working list to the records matching pred.
func (e *Engine) keep(stage string, pred func(jsonapi.Record) bool) *Engine {
	out := make([]jsonapi.Record, 0, len(e.records))
	for _, rec := range e.records {
		if pred(rec) {
			out = append(out, rec)
		}
	}
	if dropped := len(e.records) - len(out); dropped > 0 {
		RecordsDropped.WithLabelValues(stage).Add(float64(dropped))
	}
	e.records = out
	return e
}

// NumericRange keeps records whose numeric value at path lies within [lo, hi].
// A nil bound is open. With no bounds the stage is a no-op.
func (e *Engine) NumericRange(path string, lo, hi *float64) *Engine {
	if lo == nil && hi == nil {
		return e
	}
	return e.keep("numeric_range", func(rec jsonapi.Record) bool {
		v, ok := rec.Float(path)
		if !ok {
			return false
		}
		if lo != nil && v < *lo {
			return false
		}
		if hi != nil && v > *hi {
			return false
		}
		return true
	})
}

// Values keeps records whose value at path equals one of allowed.
// Numbers compare by value regardless of Go type. Empty allowed is a no-op.
func (e *Engine) Values(path string, allowed []any) *Engine {
	if len(allowed) == 0 {
		return e
	}
	set := make(map[any]struct{}, len(allowed))
	for _, v := range allowed {
		if key, ok := normalize(v); ok {
			set[key] = struct{}{}
		}
	}
	return e.keep("values", func(rec jsonapi.Record) bool {
		v, ok := rec.Lookup(path)
		if !ok {
			return false
		}
		key, ok := normalize(v)
		if !ok {
			return false
		}
		_, member := set[key]
		return member
	})
}

// TextContains keeps records whose string at path contains any of substrings,
// case-insensitively. Empty substrings is a no-op.
func (e *Engine) TextContains(path string, substrings []string) *Engine {
	if len(substrings) == 0 {
		return e
	}
	needles := make([]string, 0, len(substrings))
	for _, s := range substrings {
		needles = append(needles, strings.ToLower(s))
	}
	return e.keep("text_contains", func(rec jsonapi.Record) bool {
		s, ok := rec.String(path)
		if !ok {
			return false
		}
		s = strings.ToLower(s)
		for _, n := range needles {
			if strings.Contains(s, n) {
				return true
			}
		}
		return false
	})
}

// DateRange keeps records whose timestamp at path lies within the window.
// The lower bound is the later of after and now minus sinceDays (when > 0);
// the upper bound is before. Empty or unparsable bound strings are ignored.
func (e *Engine) DateRange(path, after, before string, sinceDays int) *Engine {
	var lower, upper *time.Time

	if sinceDays > 0 {
		since := e.now().UTC().AddDate(0, 0, -sinceDays)
		lower = &since
	}
	if t, ok := ParseDateTime(after); ok {
		if lower == nil || t.After(*lower) {
			lower = &t
		}
	}
	if t, ok := ParseDateTime(before); ok {
		upper = &t
	}
	if lower == nil && upper == nil {
		return e
	}

	return e.keep("date_range", func(rec jsonapi.Record) bool {
		raw, ok := rec.String(path)
		if !ok {
			return false
		}
		t, ok := ParseDateTime(raw)
		if !ok {
			return false
		}
		if lower != nil && t.Before(*lower) {
			return false
		}
		if upper != nil && t.After(*upper) {
			return false
		}
		return true
	})
}

// VersionRange keeps records whose dotted version at path lies within
// [minVersion, maxVersion]. Empty bounds are open.
func (e *Engine) VersionRange(path, minVersion, maxVersion string) *Engine {
	if minVersion == "" && maxVersion == "" {
		return e
	}
	return e.keep("version_range", func(rec jsonapi.Record) bool {
		v, ok := rec.String(path)
		if !ok {
			return false
		}
		if minVersion != "" && !VersionGE(v, minVersion) {
			return false
		}
		if maxVersion != "" && !VersionLE(v, maxVersion) {
			return false
		}
		return true
	})
}

// Limit caps the result at n records. The cap is applied by Apply after all
// other stages, wherever Limit appears in the chain. n <= 0 removes the cap.
func (e *Engine) Limit(n int) *Engine {
	e.limit = n
	return e
}

// Apply returns the filtered records.
func (e *Engine) Apply() []jsonapi.Record {
	if e.limit > 0 && len(e.records) > e.limit {
		return e.records[:e.limit]
	}
	return e.records
}

// normalize maps a value to a comparable set key.
func normalize(v any) (any, bool) {
	if f, ok := jsonapi.ToFloat(v); ok {
		return f, true
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return t, true
	default:
		return nil, false
	}
}
