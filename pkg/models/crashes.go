package models

import "time"

// BetaFeedbackCrashSubmissionAttributes are the attributes of a TestFlight crash submission.
type BetaFeedbackCrashSubmissionAttributes struct {
	CreatedDate             *time.Time `json:"createdDate,omitempty"`
	Comment                 string     `json:"comment,omitempty"`
	Email                   string     `json:"email,omitempty"`
	DeviceModel             string     `json:"deviceModel,omitempty"`
	OSVersion               string     `json:"osVersion,omitempty"`
	Locale                  string     `json:"locale,omitempty"`
	TimeZone                string     `json:"timeZone,omitempty"`
	Architecture            string     `json:"architecture,omitempty"`
	ConnectionType          string     `json:"connectionType,omitempty"`
	PairedAppleWatch        string     `json:"pairedAppleWatch,omitempty"`
	AppUptimeInMilliseconds *int64     `json:"appUptimeInMilliseconds,omitempty"`
	DiskBytesAvailable      *int64     `json:"diskBytesAvailable,omitempty"`
	DiskBytesTotal          *int64     `json:"diskBytesTotal,omitempty"`
	BatteryPercentage       *int       `json:"batteryPercentage,omitempty"`
	ScreenWidthInPoints     *int       `json:"screenWidthInPoints,omitempty"`
	ScreenHeightInPoints    *int       `json:"screenHeightInPoints,omitempty"`
	AppPlatform             string     `json:"appPlatform,omitempty"`
	DevicePlatform          string     `json:"devicePlatform,omitempty"`
	DeviceFamily            string     `json:"deviceFamily,omitempty"`
	BuildBundleID           string     `json:"buildBundleId,omitempty"`
}

// BetaFeedbackCrashSubmission is a betaFeedbackCrashSubmissions resource.
type BetaFeedbackCrashSubmission struct {
	Resource
	Attributes *BetaFeedbackCrashSubmissionAttributes `json:"attributes,omitempty"`
}

// BetaFeedbackCrashSubmissionsResponse is a page of crash submissions.
type BetaFeedbackCrashSubmissionsResponse struct {
	Data []BetaFeedbackCrashSubmission `json:"data"`
	collection
}

// Validate checks every resource is a crash submission.
func (r *BetaFeedbackCrashSubmissionsResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	resources := make([]Resource, len(r.Data))
	for i, d := range r.Data {
		resources[i] = d.Resource
	}
	return validateAll("betaFeedbackCrashSubmissions", resources)
}

// BetaFeedbackCrashSubmissionResponse is a single crash submission.
type BetaFeedbackCrashSubmissionResponse struct {
	Data *BetaFeedbackCrashSubmission `json:"data"`
	single
}

// Validate checks the resource is a crash submission.
func (r *BetaFeedbackCrashSubmissionResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	return r.Data.validate("betaFeedbackCrashSubmissions")
}
