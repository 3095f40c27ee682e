// Package models defines the records exchanged between the analyzer and
// the run stores.
package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Run errors
var (
	ErrRunNotFound  = errors.New("run not found")
	ErrInvalidRunID = errors.New("invalid run id: must be a UUID")
)

// ValidateRunID checks that id is a UUID.
func ValidateRunID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidRunID
	}
	return nil
}

// NewRunID returns a fresh random run id.
func NewRunID() string {
	return uuid.NewString()
}

// TagCount is one row of a category table.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CategoryResult is the table loaded for one category.
type CategoryResult struct {
	// Category is "success", "fail" or "reference"
	Category string `json:"category"`

	// Path is the file the table was parsed from
	Path string `json:"path"`

	// Tags in table order
	Tags []TagCount `json:"tags"`
}

// Total returns the sum of all counts.
func (c *CategoryResult) Total() int64 {
	var sum int64
	for _, t := range c.Tags {
		sum += int64(t.Count)
	}
	return sum
}

// Run is one analyzer execution.
type Run struct {
	ID             string           `json:"id"`
	Created        time.Time        `json:"created"`
	ProjectName    string           `json:"project_name"`
	NoFilterMarker string           `json:"no_filter_marker"`
	DataPath       string           `json:"data_path"`
	Categories     []CategoryResult `json:"categories"`
}

// Category returns the result for name, or nil.
func (r *Run) Category(name string) *CategoryResult {
	for i := range r.Categories {
		if r.Categories[i].Category == name {
			return &r.Categories[i]
		}
	}
	return nil
}

// RunSummary describes a stored run without its tag rows.
type RunSummary struct {
	ID          string           `json:"id"`
	Created     time.Time        `json:"created"`
	ProjectName string           `json:"project_name"`
	Distinct    map[string]int   `json:"distinct_tags"`
	Totals      map[string]int64 `json:"totals"`
}
