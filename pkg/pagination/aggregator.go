package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/logging"
	"github.com/rs/zerolog"
)

// MaxPageSize is the largest page App Store Connect serves.
const MaxPageSize = 200

var (
	// ErrCyclicNextLink is returned when a server repeats a links.next URL.
	ErrCyclicNextLink = errors.New("next link already visited")

	// ErrMaxPagesExceeded is returned when a collection spans more than Config.MaxPages pages.
	ErrMaxPagesExceeded = errors.New("maximum page count exceeded")
)

// Config holds aggregator configuration
type Config struct {
	// MaxPages bounds the number of pages fetched per aggregation.
	// 1000 pages at MaxPageSize is 200k records.
	MaxPages int
}

// DefaultConfig returns the default aggregator configuration
func DefaultConfig() Config {
	return Config{
		MaxPages: 1000,
	}
}

// PageFetcher is the interface the API client must implement for page fetching
type PageFetcher interface {
	// Get fetches an endpoint relative to the API base URL with the given query parameters.
	Get(ctx context.Context, endpoint string, params map[string]string) (jsonapi.Document, error)

	// GetURL fetches an absolute URL verbatim (used for links.next).
	GetURL(ctx context.Context, url string) (jsonapi.Document, error)
}

// Result is the aggregated collection.
type Result struct {
	Data     []jsonapi.Record
	Included []jsonapi.Record
}

// Document renders the result as a response document; included is emitted
// only when at least one page contributed side-loaded records.
func (r *Result) Document() jsonapi.Document {
	data := r.Data
	if data == nil {
		data = []jsonapi.Record{}
	}
	doc := jsonapi.Document{"data": data}
	if len(r.Included) > 0 {
		doc["included"] = r.Included
	}
	return doc
}

// Aggregator follows links.next until a collection is exhausted.
type Aggregator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(fetcher PageFetcher, config Config) *Aggregator {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultConfig().MaxPages
	}

	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		logger:  logging.NewLogger("pagination"),
	}
}

// FetchAllPages materializes a paginated collection.
// pageSize is clamped to MaxPageSize; maxTotal <= 0 means unlimited.
func (a *Aggregator) FetchAllPages(ctx context.Context, endpoint string, params map[string]string, pageSize, maxTotal int) (*Result, error) {
	start := time.Now()

	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	firstParams := make(map[string]string, len(params)+1)
	for k, v := range params {
		firstParams[k] = v
	}
	firstParams["limit"] = strconv.Itoa(pageSize)

	result := &Result{}
	visited := make(map[string]struct{})
	nextURL := ""
	pageNum := 0

	for {
		pageNum++

		if pageNum > a.config.MaxPages {
			Failures.WithLabelValues("max_pages").Inc()
			return nil, a.failure(endpoint, nextURL, pageNum, len(result.Data), ErrMaxPagesExceeded)
		}

		var (
			page jsonapi.Document
			err  error
		)
		if nextURL == "" {
			page, err = a.fetcher.Get(ctx, endpoint, firstParams)
		} else {
			page, err = a.fetcher.GetURL(ctx, nextURL)
		}
		if err != nil {
			Failures.WithLabelValues("fetch").Inc()
			return nil, a.failure(endpoint, nextURL, pageNum, len(result.Data), err)
		}
		PagesFetched.Inc()

		data := page.Data()
		if included := page.Included(); len(included) > 0 {
			result.Included = append(result.Included, included...)
		}

		if maxTotal > 0 {
			remaining := maxTotal - len(result.Data)
			if len(data) > remaining {
				data = data[:remaining]
			}
		}
		result.Data = append(result.Data, data...)

		a.logger.Debug().
			Str("endpoint", endpoint).
			Int("page", pageNum).
			Int("page_items", len(data)).
			Int("items_collected", len(result.Data)).
			Msg("Page fetched")

		if maxTotal > 0 && len(result.Data) >= maxTotal {
			break
		}

		next := page.NextLink()
		if next == "" {
			break
		}
		if _, seen := visited[next]; seen {
			Failures.WithLabelValues("cycle").Inc()
			return nil, a.failure(endpoint, next, pageNum+1, len(result.Data), ErrCyclicNextLink)
		}
		visited[next] = struct{}{}
		nextURL = next
	}

	ItemsAggregated.Observe(float64(len(result.Data)))
	a.logger.Info().
		Str("endpoint", endpoint).
		Int("pages", pageNum).
		Int("items", len(result.Data)).
		Int("included", len(result.Included)).
		Dur("duration", time.Since(start)).
		Msg("Pagination complete")

	return result, nil
}

// failure wraps err with the aggregation context at the failing page.
func (a *Aggregator) failure(endpoint, nextURL string, pageNum, collected int, err error) error {
	target := endpoint
	var next any
	if nextURL != "" {
		target = nextURL
		next = nextURL
	}

	a.logger.Warn().
		Err(err).
		Str("endpoint", endpoint).
		Int("page", pageNum).
		Int("items_collected", collected).
		Msg("Pagination failed")

	return apperr.Pagination(
		fmt.Sprintf("pagination failed on page %d while fetching %s", pageNum, target),
		map[string]any{
			"page_number":     pageNum,
			"endpoint":        endpoint,
			"next_url":        next,
			"items_collected": collected,
			"original_error":  err.Error(),
		},
		err,
	)
}
