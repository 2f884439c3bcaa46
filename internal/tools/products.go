package tools

import (
	"context"
	"fmt"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	productFields  = []string{"name", "createdDate", "productType"}
	workflowFields = []string{"name", "description", "isEnabled", "isLockedForEditing", "containerFilePath", "lastModifiedDate"}
)

var (
	productFilterMapping  = apiquery.FilterMapping{"product_type": "productType"}
	workflowFilterMapping = apiquery.FilterMapping{"is_enabled": "isEnabled"}
)

func (s *Server) registerProductTools() {
	s.addTool(mcp.NewTool("products_list",
		mcp.WithDescription("[Xcode Cloud] List Xcode Cloud products. Default limit is 50, max 200"),
		mcp.WithObject("filters", mcp.Description("Server-side filters: product_type (APP or FRAMEWORK)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.productsList)

	s.addTool(mcp.NewTool("products_get",
		mcp.WithDescription("[Xcode Cloud] Get an Xcode Cloud product"),
		mcp.WithString("product_id", mcp.Description("Xcode Cloud product ID"), mcp.Required()),
		includeParam(),
	), s.productsGet)

	s.addTool(mcp.NewTool("workflows_list",
		mcp.WithDescription("[Xcode Cloud] List workflows of a product. Default limit is 50, max 200"),
		mcp.WithString("product_id", mcp.Description("Xcode Cloud product ID"), mcp.Required()),
		mcp.WithObject("filters", mcp.Description("Server-side filters: is_enabled")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.workflowsList)

	s.addTool(mcp.NewTool("workflows_get",
		mcp.WithDescription("[Xcode Cloud] Get a workflow"),
		mcp.WithString("workflow_id", mcp.Description("Workflow ID"), mcp.Required()),
		includeParam(),
	), s.workflowsGet)
}

func (s *Server) productsList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	b := apiquery.New("/v1/ciProducts").
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFilters(objectArg(req, "filters"), productFilterMapping).
		WithFields("ciProducts", productFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.CiProductsResponse](ctx, s, "products_list", b)
}

func (s *Server) productsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	productID, err := requiredString(req, "product_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/ciProducts/%s", productID)).
		WithFields("ciProducts", productFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.CiProductResponse](ctx, s, "products_get", b)
}

func (s *Server) workflowsList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	productID, err := requiredString(req, "product_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/ciProducts/%s/workflows", productID)).
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFilters(objectArg(req, "filters"), workflowFilterMapping).
		WithFields("ciWorkflows", workflowFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.CiWorkflowsResponse](ctx, s, "workflows_list", b)
}

func (s *Server) workflowsGet(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	workflowID, err := requiredString(req, "workflow_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/ciWorkflows/%s", workflowID)).
		WithFields("ciWorkflows", workflowFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.CiWorkflowResponse](ctx, s, "workflows_get", b)
}
