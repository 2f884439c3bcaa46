package tools

import (
	"context"
	"fmt"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/filter"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/pagination"
	"github.com/mark3labs/mcp-go/mcp"
)

var crashFields = []string{
	"createdDate",
	"comment",
	"email",
	"deviceModel",
	"osVersion",
	"locale",
	"timeZone",
	"architecture",
	"connectionType",
	"pairedAppleWatch",
	"appUptimeInMilliseconds",
	"diskBytesAvailable",
	"diskBytesTotal",
	"batteryPercentage",
	"screenWidthInPoints",
	"screenHeightInPoints",
	"appPlatform",
	"devicePlatform",
	"deviceFamily",
	"buildBundleId",
	"crashLog",
	"build",
	"tester",
}

var crashFilterMapping = apiquery.FilterMapping{
	"device_model":    "deviceModel",
	"os_version":      "osVersion",
	"app_platform":    "appPlatform",
	"device_platform": "devicePlatform",
	"build_id":        "build",
	"tester_id":       "tester",
}

func (s *Server) registerCrashTools() {
	s.addTool(mcp.NewTool("crashes_list",
		mcp.WithDescription("[TestFlight] List beta feedback crash submissions for an app"),
		appIDParam(),
		mcp.WithObject("filters", mcp.Description("Server-side filters: device_model, os_version, app_platform, device_platform, build_id, tester_id")),
		mcp.WithString("sort", mcp.Description("Sort order (default -createdDate)")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 50); 200 or more fetches multiple pages")),
		includeParam(),
	), s.crashesList)

	s.addTool(mcp.NewTool("crashes_search",
		mcp.WithDescription("[TestFlight] Search crash submissions by platform, OS version, device model and date"),
		appIDParam(),
		mcp.WithArray("app_platform", mcp.Description("App platforms (server-side)"), stringItems),
		mcp.WithArray("device_platform", mcp.Description("Device platforms (default [IOS])"), stringItems),
		mcp.WithString("os_min_version", mcp.Description("Minimum OS version, inclusive; crashes without an OS version are excluded when set")),
		mcp.WithString("os_max_version", mcp.Description("Maximum OS version, inclusive; crashes without an OS version are excluded when set")),
		mcp.WithArray("os_versions", mcp.Description("Exact OS versions (server-side)"), stringItems),
		mcp.WithArray("device_model", mcp.Description("Exact device models (server-side)"), stringItems),
		mcp.WithArray("device_model_contains", mcp.Description("Device model substrings, case-insensitive"), stringItems),
		mcp.WithNumber("created_since_days", mcp.Description("Only submissions from the last N days")),
		mcp.WithString("created_after", mcp.Description("ISO-8601 lower bound for createdDate")),
		mcp.WithString("created_before", mcp.Description("ISO-8601 upper bound for createdDate")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 200)")),
		includeParam(),
		mcp.WithString("sort", mcp.Description("Sort order (default -createdDate)")),
	), s.crashesSearch)

	s.addTool(mcp.NewTool("crashes_get_by_id",
		mcp.WithDescription("[TestFlight] Get a crash submission by ID"),
		mcp.WithString("submission_id", mcp.Description("Crash submission ID"), mcp.Required()),
		includeParam(),
	), s.crashesGetByID)

	s.addTool(mcp.NewTool("crashes_get_log",
		mcp.WithDescription("[TestFlight] Get the crash log text for a submission"),
		mcp.WithString("submission_id", mcp.Description("Crash submission ID"), mcp.Required()),
	), s.crashesGetLog)
}

func (s *Server) crashesList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/v1/apps/%s/betaFeedbackCrashSubmissions", appID)
	limit := req.GetInt("limit", 50)
	sort := req.GetString("sort", "-createdDate")

	b := apiquery.New(endpoint).
		WithFilters(objectArg(req, "filters"), crashFilterMapping).
		WithFields("betaFeedbackCrashSubmissions", crashFields).
		WithIncludes(stringSlice(req, "include"))

	var doc jsonapi.Document
	if limit > 0 && limit < pagination.MaxPageSize {
		doc, err = b.WithPagination(limit, sort).Execute(ctx, s.api)
	} else {
		doc, err = b.WithRawParams(map[string]string{"sort": sort}).ExecuteAllPagesLimit(ctx, s.api, limit)
	}
	if err != nil {
		return nil, err
	}

	res := apiquery.Decode[models.BetaFeedbackCrashSubmissionsResponse](doc)
	return s.decoded("crashes_list", res.Value(), res.DecodeErr), nil
}

// crashSearchQuery holds the crashes_search predicates the API evaluates server-side.
type crashSearchQuery struct {
	AppPlatform []string `url:"filter[appPlatform],comma,omitempty"`
	DeviceModel []string `url:"filter[deviceModel],comma,omitempty"`
	OSVersion   []string `url:"filter[osVersion],comma,omitempty"`
	Sort        string   `url:"sort,omitempty"`
}

// crashesSearch filters server-side where the API supports it and applies
// platform, version, model and date predicates locally.
func (s *Server) crashesSearch(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("/v1/apps/%s/betaFeedbackCrashSubmissions", appID)

	b, err := apiquery.New(endpoint).
		WithFields("betaFeedbackCrashSubmissions", crashFields).
		WithIncludes(stringSlice(req, "include")).
		WithOptions(crashSearchQuery{
			AppPlatform: stringSlice(req, "app_platform"),
			DeviceModel: stringSlice(req, "device_model"),
			OSVersion:   stringSlice(req, "os_versions"),
			Sort:        req.GetString("sort", "-createdDate"),
		})
	if err != nil {
		return nil, err
	}
	doc, err := b.ExecuteAllPages(ctx, s.api)
	if err != nil {
		return nil, err
	}

	filtered := filter.New(doc.Data(), filter.WithClock(s.now)).
		Values("attributes.devicePlatform", filter.AnyOf(stringSliceOr(req, "device_platform", []string{"IOS"}))).
		VersionRange("attributes.osVersion", req.GetString("os_min_version", ""), req.GetString("os_max_version", "")).
		TextContains("attributes.deviceModel", stringSlice(req, "device_model_contains")).
		DateRange("attributes.createdDate",
			req.GetString("created_after", ""),
			req.GetString("created_before", ""),
			req.GetInt("created_since_days", 0)).
		Limit(req.GetInt("limit", pagination.MaxPageSize)).
		Apply()

	out := jsonapi.Document{"data": filtered}
	if included := doc.Included(); len(included) > 0 {
		out["included"] = included
	}
	return out, nil
}

func (s *Server) crashesGetByID(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requiredString(req, "submission_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/betaFeedbackCrashSubmissions/%s", id)).
		WithIncludes(stringSlice(req, "include")).
		WithFields("betaFeedbackCrashSubmissions", crashFields)

	res, err := apiquery.ExecuteAs[models.BetaFeedbackCrashSubmissionResponse](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded("crashes_get_by_id", res.Value(), res.DecodeErr), nil
}

func (s *Server) crashesGetLog(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := requiredString(req, "submission_id")
	if err != nil {
		return nil, err
	}

	return apiquery.New(fmt.Sprintf("/v1/betaFeedbackCrashSubmissions/%s/crashLog", id)).
		WithFields("betaCrashLogs", []string{"logText"}).
		Execute(ctx, s.api)
}
