package models

import "time"

// CustomerReviewAttributes are the attributes of a customerReviews resource.
type CustomerReviewAttributes struct {
	Rating           int        `json:"rating,omitempty"`
	Title            string     `json:"title,omitempty"`
	Body             string     `json:"body,omitempty"`
	ReviewerNickname string     `json:"reviewerNickname,omitempty"`
	CreatedDate      *time.Time `json:"createdDate,omitempty"`
	Territory        string     `json:"territory,omitempty"`
}

// CustomerReview is a customerReviews resource.
type CustomerReview struct {
	Resource
	Attributes *CustomerReviewAttributes `json:"attributes,omitempty"`
}

// CustomerReviewsResponse is a page of customer reviews.
type CustomerReviewsResponse struct {
	Data []CustomerReview `json:"data"`
	collection
}

// Validate checks every resource is a customer review.
func (r *CustomerReviewsResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	resources := make([]Resource, len(r.Data))
	for i, d := range r.Data {
		resources[i] = d.Resource
	}
	return validateAll("customerReviews", resources)
}

// CustomerReviewResponse is a single customer review.
type CustomerReviewResponse struct {
	Data *CustomerReview `json:"data"`
	single
}

// Validate checks the resource is a customer review.
func (r *CustomerReviewResponse) Validate() error {
	if r.Data == nil {
		return ErrMissingData
	}
	return r.Data.validate("customerReviews")
}
