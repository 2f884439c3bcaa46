// Package models holds typed App Store Connect response shapes. They are used
// for best-effort decoding: a response that does not match is passed through
// as a raw document instead.
package models

import (
	"errors"
	"fmt"
)

// ErrMissingData is returned by Validate when a response has no primary data.
var ErrMissingData = errors.New("response has no data")

// Resource is the identity common to every JSON:API resource object.
type Resource struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Relationships map[string]any `json:"relationships,omitempty"`
	Links         map[string]any `json:"links,omitempty"`
}

func (r Resource) validate(resourceType string) error {
	if r.ID == "" {
		return fmt.Errorf("%s resource has no id", resourceType)
	}
	if r.Type != resourceType {
		return fmt.Errorf("expected resource type %q, got %q", resourceType, r.Type)
	}
	return nil
}

// ResourceIdentifier is a relationship linkage {type, id}.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// DocumentLinks are the top-level links of a response.
type DocumentLinks struct {
	Self  string `json:"self,omitempty"`
	Next  string `json:"next,omitempty"`
	First string `json:"first,omitempty"`
}

// PagingInformation is meta.paging of a collection response.
type PagingInformation struct {
	Paging struct {
		Total int `json:"total"`
		Limit int `json:"limit"`
	} `json:"paging"`
}

// collection is embedded by collection responses.
type collection struct {
	Included []map[string]any  `json:"included,omitempty"`
	Links    *DocumentLinks     `json:"links,omitempty"`
	Meta     *PagingInformation `json:"meta,omitempty"`
}

// single is embedded by single-resource responses.
type single struct {
	Included []map[string]any `json:"included,omitempty"`
	Links    *DocumentLinks   `json:"links,omitempty"`
}

func validateAll(resourceType string, resources []Resource) error {
	for i, r := range resources {
		if err := r.validate(resourceType); err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
	}
	return nil
}

// validateList checks a collection's data against resourceType. Resource
// types are satisfied through their embedded Resource.
func validateList[T interface{ validate(string) error }](resourceType string, data []T) error {
	if data == nil {
		return ErrMissingData
	}
	for i, d := range data {
		if err := d.validate(resourceType); err != nil {
			return fmt.Errorf("data[%d]: %w", i, err)
		}
	}
	return nil
}

// validateOne checks a single-resource response's data against resourceType.
func validateOne[T interface{ validate(string) error }](resourceType string, data *T) error {
	if data == nil {
		return ErrMissingData
	}
	return (*data).validate(resourceType)
}
