package jsonapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) Document {
	t.Helper()
	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestRecord_Lookup(t *testing.T) {
	rec := Record{
		"id":   "r1",
		"type": "customerReviews",
		"attributes": map[string]any{
			"rating": float64(4),
			"title":  "Great",
			"nested": map[string]any{"deep": "value"},
		},
	}

	tests := []struct {
		name   string
		path   string
		want   any
		wantOK bool
	}{
		{name: "top level", path: "id", want: "r1", wantOK: true},
		{name: "attribute", path: "attributes.rating", want: float64(4), wantOK: true},
		{name: "nested", path: "attributes.nested.deep", want: "value", wantOK: true},
		{name: "missing leaf", path: "attributes.body", want: nil, wantOK: false},
		{name: "through scalar", path: "attributes.title.length", want: nil, wantOK: false},
		{name: "empty path", path: "", want: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := rec.Lookup(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_TypedAccessors(t *testing.T) {
	rec := Record{"attributes": map[string]any{"rating": float64(5), "title": "ok", "count": json.Number("12")}}

	f, ok := rec.Float("attributes.rating")
	assert.True(t, ok)
	assert.Equal(t, 5.0, f)

	f, ok = rec.Float("attributes.count")
	assert.True(t, ok)
	assert.Equal(t, 12.0, f)

	_, ok = rec.Float("attributes.title")
	assert.False(t, ok)

	s, ok := rec.String("attributes.title")
	assert.True(t, ok)
	assert.Equal(t, "ok", s)

	_, ok = rec.String("attributes.rating")
	assert.False(t, ok)
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{name: "float64", in: 2.5, want: 2.5, wantOK: true},
		{name: "float32", in: float32(0.5), want: 0.5, wantOK: true},
		{name: "int", in: 2, want: 2, wantOK: true},
		{name: "int8", in: int8(-2), want: -2, wantOK: true},
		{name: "int16", in: int16(300), want: 300, wantOK: true},
		{name: "int32", in: int32(2), want: 2, wantOK: true},
		{name: "int64", in: int64(2), want: 2, wantOK: true},
		{name: "uint", in: uint(2), want: 2, wantOK: true},
		{name: "uint8", in: uint8(2), want: 2, wantOK: true},
		{name: "uint16", in: uint16(2), want: 2, wantOK: true},
		{name: "uint32", in: uint32(2), want: 2, wantOK: true},
		{name: "uint64", in: uint64(2), want: 2, wantOK: true},
		{name: "json number", in: json.Number("4.5"), want: 4.5, wantOK: true},
		{name: "bad json number", in: json.Number("x"), wantOK: false},
		{name: "string", in: "2", wantOK: false},
		{name: "nil", in: nil, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDocument_Accessors(t *testing.T) {
	doc := decode(t, `{
		"data": [{"id": "1", "type": "a"}, {"id": "2", "type": "a"}],
		"included": [{"id": "b1", "type": "b"}],
		"links": {"self": "https://x/v1/a", "next": "https://x/v1/a?cursor=2"}
	}`)

	data := doc.Data()
	require.Len(t, data, 2)
	assert.Equal(t, "1", data[0].ID())
	assert.Equal(t, "a", data[1].Type())
	assert.Len(t, doc.Included(), 1)
	assert.Equal(t, "https://x/v1/a?cursor=2", doc.NextLink())
	assert.Equal(t, "https://x/v1/a", doc.SelfLink())
}

func TestDocument_SingleResource(t *testing.T) {
	doc := decode(t, `{"data": {"id": "9", "type": "customerReviews"}}`)

	data := doc.Data()
	require.Len(t, data, 1)
	assert.Equal(t, "9", data[0].ID())
	assert.Empty(t, doc.NextLink())
	assert.Nil(t, doc.Included())
}

func TestBuildFilteredResponse_Empty(t *testing.T) {
	doc := BuildFilteredResponse([]Record{}, nil, "/x", nil)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": [], "meta": {"paging": {"total": 0}}, "links": {"self": "/x"}}`, string(out))
}

func TestBuildFilteredResponse_NilDataIsEmptyList(t *testing.T) {
	out, err := json.Marshal(BuildFilteredResponse(nil, []Record{}, "/x", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": [], "meta": {"paging": {"total": 0}}, "links": {"self": "/x"}}`, string(out))
}

func TestBuildFilteredResponse_WithLimitAndIncluded(t *testing.T) {
	limit := 50
	data := []Record{{"id": "1"}, {"id": "2"}}
	included := []Record{{"id": "inc"}}

	doc := BuildFilteredResponse(data, included, "/v1/apps/1/customerReviews", &limit)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"data": [{"id": "1"}, {"id": "2"}],
		"included": [{"id": "inc"}],
		"meta": {"paging": {"total": 2, "limit": 50}},
		"links": {"self": "/v1/apps/1/customerReviews"}
	}`, string(out))
}
