package models

import "time"

// CiIssueCounts summarizes the issues raised by a build.
type CiIssueCounts struct {
	AnalyzerWarnings int `json:"analyzerWarnings"`
	Errors           int `json:"errors"`
	TestFailures     int `json:"testFailures"`
	Warnings         int `json:"warnings"`
}

// CiBuildRunAttributes are the attributes of an Xcode Cloud build run.
type CiBuildRunAttributes struct {
	Number             int            `json:"number,omitempty"`
	CreatedDate        *time.Time     `json:"createdDate,omitempty"`
	StartedDate        *time.Time     `json:"startedDate,omitempty"`
	FinishedDate       *time.Time     `json:"finishedDate,omitempty"`
	SourceCommit       map[string]any `json:"sourceCommit,omitempty"`
	DestinationCommit  map[string]any `json:"destinationCommit,omitempty"`
	IsPullRequestBuild *bool          `json:"isPullRequestBuild,omitempty"`
	IssueCounts        *CiIssueCounts `json:"issueCounts,omitempty"`
	ExecutionProgress  string         `json:"executionProgress,omitempty"`
	CompletionStatus   string         `json:"completionStatus,omitempty"`
	StartReason        string         `json:"startReason,omitempty"`
	CancelReason       string         `json:"cancelReason,omitempty"`
}

// CiBuildRun is a ciBuildRuns resource.
type CiBuildRun struct {
	Resource
	Attributes *CiBuildRunAttributes `json:"attributes,omitempty"`
}

// CiBuildRunsResponse is a page of build runs.
type CiBuildRunsResponse struct {
	Data []CiBuildRun `json:"data"`
	collection
}

// Validate checks every resource is a build run.
func (r *CiBuildRunsResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	resources := make([]Resource, len(r.Data))
	for i, d := range r.Data {
		resources[i] = d.Resource
	}
	return validateAll("ciBuildRuns", resources)
}

// CiBuildRunResponse is a single build run.
type CiBuildRunResponse struct {
	Data *CiBuildRun `json:"data"`
	single
}

// Validate checks the resource is a build run.
func (r *CiBuildRunResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	return r.Data.validate("ciBuildRuns")
}

// Relationship wraps a to-one linkage.
type Relationship struct {
	Data ResourceIdentifier `json:"data"`
}

// CiBuildRunCreateRelationships are the relationships accepted when starting a build.
type CiBuildRunCreateRelationships struct {
	Workflow          *Relationship `json:"workflow,omitempty"`
	SourceBranchOrTag *Relationship `json:"sourceBranchOrTag,omitempty"`
	PullRequest       *Relationship `json:"pullRequest,omitempty"`
}

// CiBuildRunCreateRequest is the body of POST /v1/ciBuildRuns.
type CiBuildRunCreateRequest struct {
	Data struct {
		Type          string                        `json:"type"`
		Relationships CiBuildRunCreateRelationships `json:"relationships"`
	} `json:"data"`
}

// NewCiBuildRunCreateRequest builds a start request for workflowID. gitReferenceID
// and pullRequestID are optional.
func NewCiBuildRunCreateRequest(workflowID, gitReferenceID, pullRequestID string) CiBuildRunCreateRequest {
	var req CiBuildRunCreateRequest
	req.Data.Type = "ciBuildRuns"
	req.Data.Relationships.Workflow = &Relationship{Data: ResourceIdentifier{Type: "ciWorkflows", ID: workflowID}}
	if gitReferenceID != "" {
		req.Data.Relationships.SourceBranchOrTag = &Relationship{Data: ResourceIdentifier{Type: "scmGitReferences", ID: gitReferenceID}}
	}
	if pullRequestID != "" {
		req.Data.Relationships.PullRequest = &Relationship{Data: ResourceIdentifier{Type: "scmPullRequests", ID: pullRequestID}}
	}
	return req
}
