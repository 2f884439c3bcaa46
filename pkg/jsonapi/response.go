package jsonapi

// BuildFilteredResponse wraps client-side filtered records in the canonical
// envelope {data, meta.paging.total, meta.paging.limit?, links.self, included?}.
func BuildFilteredResponse(filtered []Record, included []Record, endpoint string, limit *int) Document {
	if filtered == nil {
		filtered = []Record{}
	}

	paging := map[string]any{
		"total": len(filtered),
	}
	if limit != nil {
		paging["limit"] = *limit
	}

	doc := Document{
		"data":  filtered,
		"meta":  map[string]any{"paging": paging},
		"links": map[string]any{"self": endpoint},
	}
	if len(included) > 0 {
		doc["included"] = included
	}
	return doc
}
