// Package pagination aggregates App Store Connect's cursor-paginated collections.
//
// App Store Connect returns a links.next URL on every non-terminal page. The next
// URL is only known once the current page is parsed, so pages are fetched strictly
// in sequence:
//
//	agg := pagination.NewAggregator(apiClient, pagination.DefaultConfig())
//	result, err := agg.FetchAllPages(ctx, "/v1/apps/123/customerReviews", params, pagination.MaxPageSize, 0)
//
// The aggregator:
//   - Sets limit on the first request only (clamped to MaxPageSize)
//   - Follows links.next verbatim, without re-attaching the original parameters
//   - Concatenates data and included in page-arrival order
//   - Truncates the final page to honor maxTotal
//   - Aborts on a repeated next link or after Config.MaxPages pages
//   - Fails all-or-nothing: no partial result is returned with an error
package pagination
