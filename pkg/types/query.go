// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DateRangeOlder selects publications from before OlderThanYear.
const DateRangeOlder = "older"

// OlderThanYear is the cut-off year for DateRangeOlder.
const OlderThanYear = 2015

// Criteria holds the optional filter predicates. An empty field is a no-op.
type Criteria struct {
	Organism       string `json:"organism,omitempty" yaml:"organism,omitempty"`
	ExperimentType string `json:"experiment_type,omitempty" yaml:"experiment_type,omitempty"`
	Theme          string `json:"theme,omitempty" yaml:"theme,omitempty"`

	// DateRange is a four-digit year or DateRangeOlder.
	DateRange string `json:"date_range,omitempty" yaml:"date_range,omitempty"`
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.Organism == "" && c.ExperimentType == "" && c.Theme == "" && c.DateRange == ""
}

// Pagination describes one page of a result set.
type Pagination struct {
	Page       int  `json:"page" yaml:"page"`
	PageSize   int  `json:"pageSize" yaml:"page_size"`
	Total      int  `json:"total" yaml:"total"`
	TotalPages int  `json:"totalPages" yaml:"total_pages"`
	HasMore    bool `json:"hasMore" yaml:"has_more"`
}

// Page is a slice of publications plus its pagination metadata.
type Page struct {
	Data       []Publication `json:"data" yaml:"data"`
	Pagination Pagination    `json:"pagination" yaml:"pagination"`
}
