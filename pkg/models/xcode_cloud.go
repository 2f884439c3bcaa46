package models

import "time"

// CiProductAttributes are the attributes of an Xcode Cloud product.
type CiProductAttributes struct {
	Name        string     `json:"name,omitempty"`
	CreatedDate *time.Time `json:"createdDate,omitempty"`
	ProductType string     `json:"productType,omitempty"`
}

// CiProduct is a ciProducts resource.
type CiProduct struct {
	Resource
	Attributes *CiProductAttributes `json:"attributes,omitempty"`
}

// CiProductsResponse is a page of products.
type CiProductsResponse struct {
	Data []CiProduct `json:"data"`
	collection
}

func (r *CiProductsResponse) Validate() error { return validateList("ciProducts", r.Data) }

// CiProductResponse is a single product.
type CiProductResponse struct {
	Data *CiProduct `json:"data"`
	single
}

func (r *CiProductResponse) Validate() error { return validateOne("ciProducts", r.Data) }

// CiWorkflowAttributes are the attributes of an Xcode Cloud workflow.
type CiWorkflowAttributes struct {
	Name               string     `json:"name,omitempty"`
	Description        string     `json:"description,omitempty"`
	IsEnabled          *bool      `json:"isEnabled,omitempty"`
	IsLockedForEditing *bool      `json:"isLockedForEditing,omitempty"`
	ContainerFilePath  string     `json:"containerFilePath,omitempty"`
	LastModifiedDate   *time.Time `json:"lastModifiedDate,omitempty"`
}

// CiWorkflow is a ciWorkflows resource.
type CiWorkflow struct {
	Resource
	Attributes *CiWorkflowAttributes `json:"attributes,omitempty"`
}

// CiWorkflowsResponse is a page of workflows.
type CiWorkflowsResponse struct {
	Data []CiWorkflow `json:"data"`
	collection
}

func (r *CiWorkflowsResponse) Validate() error { return validateList("ciWorkflows", r.Data) }

// CiWorkflowResponse is a single workflow.
type CiWorkflowResponse struct {
	Data *CiWorkflow `json:"data"`
	single
}

func (r *CiWorkflowResponse) Validate() error { return validateOne("ciWorkflows", r.Data) }

// ScmProviderType describes the hosting service behind an SCM provider.
type ScmProviderType struct {
	Kind        string `json:"kind,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	IsOnPremise *bool  `json:"isOnPremise,omitempty"`
}

// ScmProvider is an scmProviders resource.
type ScmProvider struct {
	Resource
	Attributes *struct {
		ScmProviderType *ScmProviderType `json:"scmProviderType,omitempty"`
		URL             string           `json:"url,omitempty"`
	} `json:"attributes,omitempty"`
}

// ScmProvidersResponse is a page of SCM providers.
type ScmProvidersResponse struct {
	Data []ScmProvider `json:"data"`
	collection
}

func (r *ScmProvidersResponse) Validate() error { return validateList("scmProviders", r.Data) }

// ScmRepository is an scmRepositories resource.
type ScmRepository struct {
	Resource
	Attributes *struct {
		RepositoryName   string     `json:"repositoryName,omitempty"`
		OwnerName        string     `json:"ownerName,omitempty"`
		HTTPCloneURL     string     `json:"httpCloneUrl,omitempty"`
		SSHCloneURL      string     `json:"sshCloneUrl,omitempty"`
		LastAccessedDate *time.Time `json:"lastAccessedDate,omitempty"`
	} `json:"attributes,omitempty"`
}

// ScmRepositoriesResponse is a page of repositories.
type ScmRepositoriesResponse struct {
	Data []ScmRepository `json:"data"`
	collection
}

func (r *ScmRepositoriesResponse) Validate() error { return validateList("scmRepositories", r.Data) }

// ScmPullRequest is an scmPullRequests resource.
type ScmPullRequest struct {
	Resource
	Attributes *struct {
		Title                      string `json:"title,omitempty"`
		Number                     int    `json:"number,omitempty"`
		WebURL                     string `json:"webUrl,omitempty"`
		SourceRepositoryOwner      string `json:"sourceRepositoryOwner,omitempty"`
		SourceRepositoryName       string `json:"sourceRepositoryName,omitempty"`
		SourceBranchName           string `json:"sourceBranchName,omitempty"`
		DestinationRepositoryOwner string `json:"destinationRepositoryOwner,omitempty"`
		DestinationRepositoryName  string `json:"destinationRepositoryName,omitempty"`
		DestinationBranchName      string `json:"destinationBranchName,omitempty"`
		IsClosed                   *bool  `json:"isClosed,omitempty"`
		IsCrossRepository          *bool  `json:"isCrossRepository,omitempty"`
	} `json:"attributes,omitempty"`
}

// ScmPullRequestsResponse is a page of pull requests.
type ScmPullRequestsResponse struct {
	Data []ScmPullRequest `json:"data"`
	collection
}

func (r *ScmPullRequestsResponse) Validate() error { return validateList("scmPullRequests", r.Data) }

// ScmGitReference is an scmGitReferences resource (a branch or tag).
type ScmGitReference struct {
	Resource
	Attributes *struct {
		Name          string `json:"name,omitempty"`
		CanonicalName string `json:"canonicalName,omitempty"`
		IsDeleted     *bool  `json:"isDeleted,omitempty"`
		Kind          string `json:"kind,omitempty"`
	} `json:"attributes,omitempty"`
}

// ScmGitReferencesResponse is a page of git references.
type ScmGitReferencesResponse struct {
	Data []ScmGitReference `json:"data"`
	collection
}

func (r *ScmGitReferencesResponse) Validate() error { return validateList("scmGitReferences", r.Data) }
