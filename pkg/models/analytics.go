package models

// AnalyticsReportAttributes are the attributes of an analyticsReports resource.
type AnalyticsReportAttributes struct {
	Name     string `json:"name,omitempty"`
	Category string `json:"category,omitempty"`
}

// AnalyticsReport is an analyticsReports resource.
type AnalyticsReport struct {
	Resource
	Attributes *AnalyticsReportAttributes `json:"attributes,omitempty"`
}

// AnalyticsReportsResponse is a page of analytics reports.
type AnalyticsReportsResponse struct {
	Data []AnalyticsReport `json:"data"`
	collection
}

// Validate checks every resource is an analytics report.
func (r *AnalyticsReportsResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	resources := make([]Resource, len(r.Data))
	for i, d := range r.Data {
		resources[i] = d.Resource
	}
	return validateAll("analyticsReports", resources)
}

// AnalyticsReportResponse is a single analytics report.
type AnalyticsReportResponse struct {
	Data *AnalyticsReport `json:"data"`
	single
}

// Validate checks the resource is an analytics report.
func (r *AnalyticsReportResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	return r.Data.validate("analyticsReports")
}

// AnalyticsReportInstanceAttributes are the attributes of a report instance.
type AnalyticsReportInstanceAttributes struct {
	Granularity    string `json:"granularity,omitempty"`
	ProcessingDate string `json:"processingDate,omitempty"`
}

// AnalyticsReportInstance is an analyticsReportInstances resource.
type AnalyticsReportInstance struct {
	Resource
	Attributes *AnalyticsReportInstanceAttributes `json:"attributes,omitempty"`
}

// AnalyticsReportInstancesResponse is a page of report instances.
type AnalyticsReportInstancesResponse struct {
	Data []AnalyticsReportInstance `json:"data"`
	collection
}

// Validate checks every resource is a report instance.
func (r *AnalyticsReportInstancesResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	resources := make([]Resource, len(r.Data))
	for i, d := range r.Data {
		resources[i] = d.Resource
	}
	return validateAll("analyticsReportInstances", resources)
}

// AnalyticsReportInstanceResponse is a single report instance.
type AnalyticsReportInstanceResponse struct {
	Data *AnalyticsReportInstance `json:"data"`
	single
}

func (r *AnalyticsReportInstanceResponse) Validate() error {
	return validateOne("analyticsReportInstances", r.Data)
}

// AnalyticsReportRequestAttributes are the attributes of a report request.
type AnalyticsReportRequestAttributes struct {
	AccessType             string `json:"accessType,omitempty"`
	StoppedDueToInactivity *bool  `json:"stoppedDueToInactivity,omitempty"`
}

// AnalyticsReportRequest is an analyticsReportRequests resource.
type AnalyticsReportRequest struct {
	Resource
	Attributes *AnalyticsReportRequestAttributes `json:"attributes,omitempty"`
}

// AnalyticsReportRequestsResponse is a page of report requests.
type AnalyticsReportRequestsResponse struct {
	Data []AnalyticsReportRequest `json:"data"`
	collection
}

func (r *AnalyticsReportRequestsResponse) Validate() error {
	return validateList("analyticsReportRequests", r.Data)
}

// AnalyticsReportRequestResponse is a single report request.
type AnalyticsReportRequestResponse struct {
	Data *AnalyticsReportRequest `json:"data"`
	single
}

func (r *AnalyticsReportRequestResponse) Validate() error {
	return validateOne("analyticsReportRequests", r.Data)
}

// AnalyticsReportSegmentAttributes describe a downloadable report file.
type AnalyticsReportSegmentAttributes struct {
	Checksum    string `json:"checksum,omitempty"`
	SizeInBytes int64  `json:"sizeInBytes,omitempty"`
	URL         string `json:"url,omitempty"`
}

// AnalyticsReportSegment is an analyticsReportSegments resource.
type AnalyticsReportSegment struct {
	Resource
	Attributes *AnalyticsReportSegmentAttributes `json:"attributes,omitempty"`
}

// AnalyticsReportSegmentsResponse is a page of report segments.
type AnalyticsReportSegmentsResponse struct {
	Data []AnalyticsReportSegment `json:"data"`
	collection
}

func (r *AnalyticsReportSegmentsResponse) Validate() error {
	return validateList("analyticsReportSegments", r.Data)
}

// AnalyticsReportSegmentResponse is a single report segment.
type AnalyticsReportSegmentResponse struct {
	Data *AnalyticsReportSegment `json:"data"`
	single
}

func (r *AnalyticsReportSegmentResponse) Validate() error {
	return validateOne("analyticsReportSegments", r.Data)
}

// AnalyticsReportRequestCreateRequest is the body of POST /v1/analyticsReportRequests.
type AnalyticsReportRequestCreateRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			AccessType string `json:"accessType"`
		} `json:"attributes"`
		Relationships struct {
			App Relationship `json:"app"`
		} `json:"relationships"`
	} `json:"data"`
}

// NewAnalyticsReportRequestCreateRequest requests reports for appID with
// accessType ONE_TIME_SNAPSHOT or ONGOING.
func NewAnalyticsReportRequestCreateRequest(appID, accessType string) AnalyticsReportRequestCreateRequest {
	var req AnalyticsReportRequestCreateRequest
	req.Data.Type = "analyticsReportRequests"
	req.Data.Attributes.AccessType = accessType
	req.Data.Relationships.App = Relationship{Data: ResourceIdentifier{Type: "apps", ID: appID}}
	return req
}
