package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/pagination"
	"github.com/mark3labs/mcp-go/mcp"
)

// actionResource is a collection hanging off each action of a build run,
// reached at /v1/ciBuildActions/{id}/<suffix>.
type actionResource struct {
	suffix       string
	resourceType string
	fields       []string
	actionFields []string
	// keep selects actions to visit; nil visits all.
	keep func(action jsonapi.Record) bool
}

var (
	buildArtifacts = actionResource{
		suffix:       "artifacts",
		resourceType: "ciArtifacts",
		fields:       []string{"fileType", "fileName", "fileSize", "downloadUrl"},
		actionFields: []string{"name", "actionType"},
	}
	buildIssues = actionResource{
		suffix:       "issues",
		resourceType: "ciIssues",
		fields:       []string{"issueType", "message", "fileSource", "category"},
		actionFields: []string{"name", "actionType", "issueCounts"},
	}
	buildTestResults = actionResource{
		suffix:       "testResults",
		resourceType: "ciTestResults",
		fields:       []string{"className", "name", "status", "message", "fileSource", "destinationTestResults"},
		actionFields: []string{"name", "actionType"},
		keep:         isTestAction,
	}
)

func isTestAction(action jsonapi.Record) bool {
	actionType, _ := action.String("attributes.actionType")
	return strings.Contains(strings.ToUpper(actionType), "TEST")
}

func (s *Server) registerBuildActionTools() {
	s.addTool(mcp.NewTool("builds_list_artifacts",
		mcp.WithDescription("[Xcode Cloud] List artifacts of every action in a build run"),
		mcp.WithString("build_id", mcp.Description("Build run ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum artifacts per action (default 50, max 200)")),
	), s.actionResourceTool(buildArtifacts, 50))

	s.addTool(mcp.NewTool("builds_list_issues",
		mcp.WithDescription("[Xcode Cloud] List errors, warnings and analyzer issues of every action in a build run"),
		mcp.WithString("build_id", mcp.Description("Build run ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum issues per action (default 100, max 200)")),
	), s.actionResourceTool(buildIssues, 100))

	s.addTool(mcp.NewTool("builds_list_test_results",
		mcp.WithDescription("[Xcode Cloud] List test results of the test actions in a build run"),
		mcp.WithString("build_id", mcp.Description("Build run ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Maximum results per action (default 100, max 200)")),
	), s.actionResourceTool(buildTestResults, 100))
}

func (s *Server) actionResourceTool(res actionResource, defaultLimit int) toolFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (any, error) {
		buildID, err := requiredString(req, "build_id")
		if err != nil {
			return nil, err
		}
		return s.fetchActionResources(ctx, buildID, res, req.GetInt("limit", defaultLimit))
	}
}

// fetchActionResources lists the actions of a build run, then fetches res for
// each selected action in order. Every resource is tagged with an "_action"
// object {id, name, actionType}; the result carries meta.total.
func (s *Server) fetchActionResources(ctx context.Context, buildID string, res actionResource, limit int) (jsonapi.Document, error) {
	actions, err := apiquery.New(fmt.Sprintf("/v1/ciBuildRuns/%s/actions", buildID)).
		WithPagination(pagination.MaxPageSize, "").
		WithFields("ciBuildActions", res.actionFields).
		Execute(ctx, s.api)
	if err != nil {
		return nil, err
	}

	collected := []jsonapi.Record{}
	for _, action := range actions.Data() {
		if res.keep != nil && !res.keep(action) {
			continue
		}
		actionID := action.ID()
		if actionID == "" {
			continue
		}

		doc, err := apiquery.New(fmt.Sprintf("/v1/ciBuildActions/%s/%s", actionID, res.suffix)).
			WithPagination(limit, "").
			WithFields(res.resourceType, res.fields).
			Execute(ctx, s.api)
		if err != nil {
			return nil, err
		}

		name, _ := action.Lookup("attributes.name")
		actionType, _ := action.Lookup("attributes.actionType")
		for _, r := range doc.Data() {
			tagged := r.Clone()
			tagged["_action"] = map[string]any{
				"id":         actionID,
				"name":       name,
				"actionType": actionType,
			}
			collected = append(collected, tagged)
		}
	}

	s.logger.Debug().
		Str("build_id", buildID).
		Str("resource", res.resourceType).
		Int("actions", len(actions.Data())).
		Int("total", len(collected)).
		Msg("Collected build action resources")

	return jsonapi.Document{
		"data": collected,
		"meta": map[string]any{"total": len(collected)},
	}, nil
}
