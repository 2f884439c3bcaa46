package tools

import (
	"context"
	"fmt"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/filter"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

var reviewFields = []string{
	"rating",
	"title",
	"body",
	"reviewerNickname",
	"createdDate",
	"territory",
}

var reviewFilterMapping = apiquery.FilterMapping{
	"rating":          "rating",
	"territory":       "territory",
	"appStoreVersion": "appStoreVersion",
}

func (s *Server) registerReviewTools() {
	s.addTool(mcp.NewTool("reviews_list",
		mcp.WithDescription("[App] List customer reviews for an app"),
		appIDParam(),
		mcp.WithObject("filters", mcp.Description("Server-side filters: rating, territory, appStoreVersion")),
		mcp.WithString("sort", mcp.Description("Sort order (default -createdDate)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 200)")),
		includeParam(),
	), s.reviewsList)

	s.addTool(mcp.NewTool("reviews_get",
		mcp.WithDescription("[App] Get detailed information about a specific customer review"),
		mcp.WithString("review_id", mcp.Description("Customer review ID"), mcp.Required()),
		includeParam(),
	), s.reviewsGet)

	s.addTool(mcp.NewTool("reviews_search",
		mcp.WithDescription("[App] Search customer reviews with rating, territory, text and date filters"),
		appIDParam(),
		mcp.WithArray("rating", mcp.Description("Exact ratings (server-side)"), integerItems),
		mcp.WithNumber("min_rating", mcp.Description("Minimum rating, inclusive")),
		mcp.WithNumber("max_rating", mcp.Description("Maximum rating, inclusive")),
		mcp.WithArray("territory", mcp.Description("Territory codes (server-side)"), stringItems),
		mcp.WithArray("territory_contains", mcp.Description("Territory substrings, case-insensitive"), stringItems),
		mcp.WithNumber("created_since_days", mcp.Description("Only reviews from the last N days")),
		mcp.WithString("created_after", mcp.Description("ISO-8601 lower bound for createdDate")),
		mcp.WithString("created_before", mcp.Description("ISO-8601 upper bound for createdDate")),
		mcp.WithArray("body_contains", mcp.Description("Body substrings, case-insensitive"), stringItems),
		mcp.WithArray("title_contains", mcp.Description("Title substrings, case-insensitive"), stringItems),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 200)")),
		includeParam(),
		mcp.WithString("sort", mcp.Description("Sort order (default -createdDate)")),
	), s.reviewsSearch)
}

func (s *Server) reviewsList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/apps/%s/customerReviews", appID)).
		WithPagination(req.GetInt("limit", 50), req.GetString("sort", "-createdDate")).
		WithFilters(objectArg(req, "filters"), reviewFilterMapping).
		WithFields("customerReviews", reviewFields).
		WithIncludes(stringSlice(req, "include"))

	res, err := apiquery.ExecuteAs[models.CustomerReviewsResponse](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded("reviews_list", res.Value(), res.DecodeErr), nil
}

func (s *Server) reviewsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	reviewID, err := requiredString(req, "review_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/customerReviews/%s", reviewID)).
		WithFields("customerReviews", reviewFields).
		WithIncludes(stringSlice(req, "include"))

	res, err := apiquery.ExecuteAs[models.CustomerReviewResponse](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded("reviews_get", res.Value(), res.DecodeErr), nil
}

// reviewsSearch narrows server-side by rating and territory, fetches every
// page, then applies the remaining predicates locally.
func (s *Server) reviewsSearch(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/v1/apps/%s/customerReviews", appID)
	limit := req.GetInt("limit", 200)

	serverFilters := map[string]any{}
	if rating := intSlice(req, "rating"); len(rating) > 0 {
		serverFilters["rating"] = rating
	}
	if territory := stringSlice(req, "territory"); len(territory) > 0 {
		serverFilters["territory"] = territory
	}

	doc, err := apiquery.New(endpoint).
		WithRawParams(map[string]string{"sort": req.GetString("sort", "-createdDate")}).
		WithFilters(serverFilters, reviewFilterMapping).
		WithFields("customerReviews", reviewFields).
		WithIncludes(stringSlice(req, "include")).
		ExecuteAllPages(ctx, s.api)
	if err != nil {
		return nil, err
	}

	filtered := filter.New(doc.Data(), filter.WithClock(s.now)).
		NumericRange("attributes.rating", optionalFloat(req, "min_rating"), optionalFloat(req, "max_rating")).
		TextContains("attributes.territory", stringSlice(req, "territory_contains")).
		DateRange("attributes.createdDate",
			req.GetString("created_after", ""),
			req.GetString("created_before", ""),
			req.GetInt("created_since_days", 0)).
		TextContains("attributes.body", stringSlice(req, "body_contains")).
		TextContains("attributes.title", stringSlice(req, "title_contains")).
		Limit(limit).
		Apply()

	return jsonapi.BuildFilteredResponse(filtered, doc.Included(), endpoint, &limit), nil
}
