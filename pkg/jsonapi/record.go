// Package jsonapi provides the JSON:API wire model returned by App Store Connect:
// opaque resource records, response documents and the normalized envelope used
// for client-side filtered results.
package jsonapi

import (
	"encoding/json"
	"strings"
)

// Record is a single JSON:API resource object ({id, type, attributes, relationships, ...}).
// Records are read-only snapshots; filtering copies slices, never the records.
type Record map[string]any

// ID returns the resource id, or "" if absent.
func (r Record) ID() string {
	s, _ := r["id"].(string)
	return s
}

// Type returns the resource type, or "" if absent.
func (r Record) Type() string {
	s, _ := r["type"].(string)
	return s
}

// Attributes returns the attributes object, or nil.
func (r Record) Attributes() map[string]any {
	m, _ := r["attributes"].(map[string]any)
	return m
}

// Lookup resolves a dotted path (e.g. "attributes.rating") against the record.
// The boolean is false when any segment is missing or traverses a non-object.
func (r Record) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		m, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String resolves path and returns its value if it is a string.
func (r Record) String(path string) (string, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Float resolves path and returns its value if it is numeric.
func (r Record) Float(path string) (float64, bool) {
	v, ok := r.Lookup(path)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ToFloat converts JSON-decoded and Go numeric values to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Record:
		return m, true
	default:
		return nil, false
	}
}
