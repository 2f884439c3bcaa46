package jsonapi

import "encoding/json"

// Document is a decoded JSON:API response envelope:
// {data, included?, links?: {self?, next?}, meta?}.
type Document map[string]any

// Data returns the primary data as records. A single-resource document
// yields a one-element slice; missing data yields nil.
func (d Document) Data() []Record {
	switch v := d["data"].(type) {
	case map[string]any:
		return []Record{Record(v)}
	case Record:
		return []Record{v}
	default:
		return toRecords(v)
	}
}

// Included returns the side-loaded resources, or nil.
func (d Document) Included() []Record {
	return toRecords(d["included"])
}

// NextLink returns links.next, or "" when the page is terminal.
func (d Document) NextLink() string {
	return d.link("next")
}

// SelfLink returns links.self, or "".
func (d Document) SelfLink() string {
	return d.link("self")
}

func (d Document) link(name string) string {
	links, ok := asObject(d["links"])
	if !ok {
		return ""
	}
	s, _ := links[name].(string)
	return s
}

// JSON encodes the document with indentation.
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func toRecords(v any) []Record {
	switch list := v.(type) {
	case []Record:
		return list
	case []map[string]any:
		out := make([]Record, 0, len(list))
		for _, m := range list {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(list))
		for _, item := range list {
			if m, ok := asObject(item); ok {
				out = append(out, Record(m))
			}
		}
		return out
	default:
		return nil
	}
}
