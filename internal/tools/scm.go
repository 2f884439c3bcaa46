package tools

import (
	"context"
	"fmt"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apiquery"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/models"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	scmProviderFields     = []string{"scmProviderType", "url"}
	scmRepositoryFields   = []string{"repositoryName", "ownerName", "httpCloneUrl", "sshCloneUrl", "lastAccessedDate"}
	scmGitReferenceFields = []string{"name", "canonicalName", "isDeleted", "kind"}
	scmPullRequestFields  = []string{
		"title",
		"number",
		"webUrl",
		"sourceRepositoryOwner",
		"sourceRepositoryName",
		"sourceBranchName",
		"destinationRepositoryOwner",
		"destinationRepositoryName",
		"destinationBranchName",
		"isClosed",
		"isCrossRepository",
	}
)

// registerSCMTools adds the source control tools. These endpoints accept
// limit but not sort.
func (s *Server) registerSCMTools() {
	s.addTool(mcp.NewTool("scm_providers_list",
		mcp.WithDescription("[Xcode Cloud/SCM] List source control providers. Default limit is 50, max 200"),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
	), s.scmProvidersList)

	s.addTool(mcp.NewTool("scm_repositories_list",
		mcp.WithDescription("[Xcode Cloud/SCM] List repositories of a source control provider. Default limit is 50, max 200"),
		mcp.WithString("scm_provider_id", mcp.Description("SCM provider ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.scmRepositoriesList)

	s.addTool(mcp.NewTool("scm_pull_requests_list",
		mcp.WithDescription("[Xcode Cloud/SCM] List pull requests of a repository. Default limit is 50, max 200"),
		mcp.WithString("repository_id", mcp.Description("SCM repository ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50)")),
		includeParam(),
	), s.scmPullRequestsList)

	s.addTool(mcp.NewTool("scm_git_references_list",
		mcp.WithDescription("[Xcode Cloud/SCM] List branches and tags of a repository. Default limit is 100, max 200"),
		mcp.WithString("repository_id", mcp.Description("SCM repository ID"), mcp.Required()),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		includeParam(),
	), s.scmGitReferencesList)
}

func (s *Server) scmProvidersList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	b := apiquery.New("/v1/scmProviders").
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFields("scmProviders", scmProviderFields)

	return executeAs[models.ScmProvidersResponse](ctx, s, "scm_providers_list", b)
}

func (s *Server) scmRepositoriesList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	providerID, err := requiredString(req, "scm_provider_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/scmProviders/%s/repositories", providerID)).
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFields("scmRepositories", scmRepositoryFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.ScmRepositoriesResponse](ctx, s, "scm_repositories_list", b)
}

func (s *Server) scmPullRequestsList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	repositoryID, err := requiredString(req, "repository_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/scmRepositories/%s/pullRequests", repositoryID)).
		WithLimitAndSort(req.GetInt("limit", 50)).
		WithFields("scmPullRequests", scmPullRequestFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.ScmPullRequestsResponse](ctx, s, "scm_pull_requests_list", b)
}

func (s *Server) scmGitReferencesList(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	repositoryID, err := requiredString(req, "repository_id")
	if err != nil {
		return nil, err
	}

	b := apiquery.New(fmt.Sprintf("/v1/scmRepositories/%s/gitReferences", repositoryID)).
		WithLimitAndSort(req.GetInt("limit", 100)).
		WithFields("scmGitReferences", scmGitReferenceFields).
		WithIncludes(stringSlice(req, "include"))

	return executeAs[models.ScmGitReferencesResponse](ctx, s, "scm_git_references_list", b)
}
