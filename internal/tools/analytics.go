package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	analyticsRequestFields  = []string{"accessType", "stoppedDueToInactivity"}
	analyticsReportFields   = []string{"name", "category"}
	analyticsInstanceFields = []string{"granularity", "processingDate", "segments"}
	analyticsSegmentFields  = []string{"checksum", "sizeInBytes", "url"}
)

var analyticsFilterMapping = apiquery.FilterMapping{
	"access_type":     "accessType",
	"processing_date": "processingDate",
}

var reportAccessTypes = []string{"ONE_TIME_SNAPSHOT", "ONGOING"}

func (s *Server) registerAnalyticsTools() {
	s.addTool(mcp.NewTool("apps_list_analytics_report_requests",
		mcp.WithDescription("[Analytics/Requests] List analytics report requests for an app. Default limit is 50, max 200"),
		appIDParam(),
		mcp.WithArray("access_type", mcp.Description("ONE_TIME_SNAPSHOT or ONGOING"), stringItems),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.appsListAnalyticsReportRequests)

	s.addTool(mcp.NewTool("report_requests_create",
		mcp.WithDescription("[Analytics/Requests] Create an analytics report request, from access_type or a full request_data body"),
		mcp.WithObject("request_data", mcp.Description("JSON:API request body, sent as is")),
		mcp.WithString("access_type", mcp.Description("ONE_TIME_SNAPSHOT or ONGOING (used without request_data)")),
		appIDParam(),
	), s.reportRequestsCreate)

	s.addTool(mcp.NewTool("report_requests_get",
		mcp.WithDescription("[Analytics/Requests] Get an analytics report request"),
		mcp.WithString("request_id", mcp.Description("Analytics report request ID"), mcp.Required()),
		includeParam(),
	), s.reportRequestsGet)

	s.addTool(mcp.NewTool("report_requests_delete",
		mcp.WithDescription("[Analytics/Requests] Delete an analytics report request"),
		mcp.WithString("request_id", mcp.Description("Analytics report request ID"), mcp.Required()),
	), s.reportRequestsDelete)

	s.addTool(mcp.NewTool("report_requests_list_reports",
		mcp.WithDescription("[Analytics/Reports] List reports for an analytics report request. Default limit is 50, max 200"),
		mcp.WithString("request_id", mcp.Description("Analytics report request ID"), mcp.Required()),
		mcp.WithArray("name", mcp.Description("Report names"), stringItems),
		mcp.WithArray("category", mcp.Description("Report categories"), stringItems),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.reportRequestsListReports)

	s.addTool(mcp.NewTool("reports_get",
		mcp.WithDescription("[Analytics/Reports] Get detailed information about an analytics report"),
		mcp.WithString("report_id", mcp.Description("Analytics report ID"), mcp.Required()),
		includeParam(),
	), s.reportsGet)

	s.addTool(mcp.NewTool("reports_list_instances",
		mcp.WithDescription("[Analytics/Reports] List instances of an analytics report. Default limit is 100, max 200"),
		mcp.WithString("report_id", mcp.Description("Analytics report ID"), mcp.Required()),
		mcp.WithArray("granularity", mcp.Description("DAILY, WEEKLY or MONTHLY"), stringItems),
		mcp.WithArray("processing_date", mcp.Description("Processing dates (YYYY-MM-DD)"), stringItems),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		includeParam(),
	), s.reportsListInstances)

	s.addTool(mcp.NewTool("report_instances_get",
		mcp.WithDescription("[Analytics/Reports] Get an analytics report instance"),
		mcp.WithString("instance_id", mcp.Description("Report instance ID"), mcp.Required()),
		includeParam(),
	), s.reportInstancesGet)

	s.addTool(mcp.NewTool("report_instances_list_segments",
		mcp.WithDescription("[Analytics/Segments] List downloadable segments of a report instance. Default limit is 100, max 200"),
		mcp.WithString("instance_id", mcp.Description("Report instance ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		includeParam(),
	), s.reportInstancesListSegments)

	s.addTool(mcp.NewTool("report_segments_get",
		mcp.WithDescription("[Analytics/Segments] Get an analytics report segment with its download URL"),
		mcp.WithString("segment_id", mcp.Description("Report segment ID"), mcp.Required()),
		includeParam(),
	), s.reportSegmentsGet)
}

func (s *Server) appsListAnalyticsReportRequests(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/apps/%s/analyticsReportRequests", appID)).
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFilters(map[string]any{"access_type": stringSlice(req, "access_type")}, analyticsFilterMapping).
		WithFields("analyticsReportRequests", analyticsRequestFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportRequestsResponse](ctx, s, "apps_list_analytics_report_requests", b)
}

func (s *Server) reportRequestsCreate(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	var body any
	if data := objectArg(req, "request_data"); len(data) > 0 {
		body = data
	} else {
		accessType := strings.ToUpper(strings.TrimSpace(req.GetString("access_type", "")))
		if !slices.Contains(reportAccessTypes, accessType) {
			return nil, apperr.Validation(
				"access_type must be ONE_TIME_SNAPSHOT or ONGOING when request_data is not given", "",
				map[string]any{"access_type": accessType, "allowed": reportAccessTypes})
		}
		appID, err := s.api.EnsureAppID(req.GetString("app_id", ""))
		if err != nil {
			return nil, err
		}
		body = models.NewAnalyticsReportRequestCreateRequest(appID, accessType)
	}

	doc, err := s.api.Post(ctx, "/v1/analyticsReportRequests", body)
	if err != nil {
		return nil, err
	}

	res := apiquery.Decode[models.AnalyticsReportRequestResponse](doc)
	return s.decoded("report_requests_create", res.Value(), res.DecodeErr), nil
}

func (s *Server) reportRequestsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	requestID, err := requiredString(req, "request_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReportRequests/%s", requestID)).
		WithFields("analyticsReportRequests", analyticsRequestFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportRequestResponse](ctx, s, "report_requests_get", b)
}

func (s *Server) reportRequestsDelete(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	requestID, err := requiredString(req, "request_id")
	if err != nil {
		return nil, err
	}

	if err := s.api.Delete(ctx, fmt.Sprintf("/v1/analyticsReportRequests/%s", requestID)); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": true, "request_id": requestID}, nil
}

func (s *Server) reportRequestsListReports(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	requestID, err := requiredString(req, "request_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReportRequests/%s/reports", requestID)).
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFilters(map[string]any{
			"name":     stringSlice(req, "name"),
			"category": stringSlice(req, "category"),
		}, analyticsFilterMapping).
		WithFields("analyticsReports", analyticsReportFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportsResponse](ctx, s, "report_requests_list_reports", b)
}

func (s *Server) reportsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	reportID, err := requiredString(req, "report_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReports/%s", reportID)).
		WithFields("analyticsReports", analyticsReportFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportResponse](ctx, s, "reports_get", b)
}

func (s *Server) reportsListInstances(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	reportID, err := requiredString(req, "report_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReports/%s/instances", reportID)).
		WithLimitAndSort(req.GetInt("limit", 100)).
		WithFilters(map[string]any{
			"granularity":     stringSlice(req, "granularity"),
			"processing_date": stringSlice(req, "processing_date"),
		}, analyticsFilterMapping).
		WithFields("analyticsReportInstances", analyticsInstanceFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportInstancesResponse](ctx, s, "reports_list_instances", b)
}

func (s *Server) reportInstancesGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	instanceID, err := requiredString(req, "instance_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReportInstances/%s", instanceID)).
		WithFields("analyticsReportInstances", analyticsInstanceFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportInstanceResponse](ctx, s, "report_instances_get", b)
}

func (s *Server) reportInstancesListSegments(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	instanceID, err := requiredString(req, "instance_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReportInstances/%s/segments", instanceID)).
		WithLimitAndSort(req.GetInt("limit", 100)).
		WithFields("analyticsReportSegments", analyticsSegmentFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportSegmentsResponse](ctx, s, "report_instances_list_segments", b)
}

func (s *Server) reportSegmentsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	segmentID, err := requiredString(req, "segment_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/analyticsReportSegments/%s", segmentID)).
		WithFields("analyticsReportSegments", analyticsSegmentFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.AnalyticsReportSegmentResponse](ctx, s, "report_segments_get", b)
}
