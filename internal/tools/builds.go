package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

var buildRunFields = []string{
	"number",
	"createdDate",
	"startedDate",
	"finishedDate",
	"sourceCommit",
	"destinationCommit",
	"isPullRequestBuild",
	"issueCounts",
	"executionProgress",
	"completionStatus",
	"startReason",
	"cancelReason",
}

var buildFilterMapping = apiquery.FilterMapping{
	"execution_progress":    "executionProgress",
	"completion_status":     "completionStatus",
	"is_pull_request_build": "isPullRequestBuild",
}

func (s *Server) registerBuildTools() {
	s.addTool(mcp.NewTool("builds_list",
		mcp.WithDescription("[Xcode Cloud] List build runs for a product or workflow"),
		mcp.WithString("product_id", mcp.Description("Xcode Cloud product ID")),
		mcp.WithString("workflow_id", mcp.Description("Workflow ID (takes precedence over product_id)")),
		mcp.WithObject("filters", mcp.Description("Server-side filters: execution_progress, completion_status, is_pull_request_build")),
		mcp.WithString("sort", mcp.Description("Sort order (default -number)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 200)")),
		includeParam(),
	), s.buildsList)

	s.addTool(mcp.NewTool("builds_get",
		mcp.WithDescription("[Xcode Cloud] Get detailed information about a build run"),
		mcp.WithString("build_id", mcp.Description("Build run ID"), mcp.Required()),
		includeParam(),
	), s.buildsGet)

	s.addTool(mcp.NewTool("builds_start",
		mcp.WithDescription("[Xcode Cloud] Start a new build run for a workflow"),
		mcp.WithString("workflow_id", mcp.Description("Workflow ID"), mcp.Required()),
		mcp.WithString("source_branch_or_tag", mcp.Description("Git reference ID to build")),
		mcp.WithNumber("pull_request_number", mcp.Description("Pull request to build")),
	), s.buildsStart)
}

func (s *Server) buildsList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	var endpoint string
	switch workflowID, productID := req.GetString("workflow_id", ""), req.GetString("product_id", ""); {
	case workflowID != "":
		endpoint = fmt.Sprintf("/v1/ciWorkflows/%s/buildRuns", workflowID)
	case productID != "":
		endpoint = fmt.Sprintf("/v1/ciProducts/%s/buildRuns", productID)
	default:
		return nil, apperr.Validation(
			"Missing required parameter: either product_id or workflow_id must be provided", "",
			map[string]any{"product_id": nil, "workflow_id": nil})
	}

	b := apiquery.New(endpoint).
		WithPagination(req.GetInt("limit", 50), req.GetString("sort", "-number")).
		WithFilters(objectArg(req, "filters"), buildFilterMapping).
		WithFields("ciBuildRuns", buildRunFields).
		WithIncludes(stringSlice(req, "include"))

	res, err := apiquery.ExecuteAs[models.CiBuildRunsResponse](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded("builds_list", res.Value(), res.DecodeErr), nil
}

func (s *Server) buildsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	buildID, err := requiredString(req, "build_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/ciBuildRuns/%s", buildID)).
		WithFields("ciBuildRuns", buildRunFields).
		WithIncludes(stringSlice(req, "include"))

	res, err := apiquery.ExecuteAs[models.CiBuildRunResponse](ctx, b, s.api)
	if err != nil {
		return nil, err
	}
	return s.decoded("builds_get", res.Value(), res.DecodeErr), nil
}

func (s *Server) buildsStart(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	workflowID, err := requiredString(req, "workflow_id")
	if err != nil {
		return nil, err
	}

	var pullRequestID string
	if n := req.GetInt("pull_request_number", 0); n > 0 {
		pullRequestID = strconv.Itoa(n)
	}
	body := models.NewCiBuildRunCreateRequest(workflowID, req.GetString("source_branch_or_tag", ""), pullRequestID)

	doc, err := s.api.Post(ctx, "/v1/ciBuildRuns", body)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("workflow_id", workflowID).Msg("Build run started")

	res := apiquery.Decode[models.CiBuildRunResponse](doc)
	return s.decoded("builds_start", res.Value(), res.DecodeErr), nil
}
