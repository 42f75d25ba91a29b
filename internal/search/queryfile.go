// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Query bundles a search term, filter criteria, and the requested page.
type Query struct {
	Term     string         `yaml:"term,omitempty"`
	Criteria types.Criteria `yaml:"criteria,omitempty"`
	Page     int            `yaml:"page"`
	PageSize int            `yaml:"page_size"`
}

// Run applies search, then filter, then pagination to pubs.
func Run(pubs []types.Publication, q Query, minTermLen int) types.Page {
	matched := SearchWith(pubs, q.Term, minTermLen)
	return Paginate(Filter(matched, q.Criteria), q.Page, q.PageSize)
}

// QueryFile is the on-disk representation of a query and the page it
// produced. A saved query can be replayed later against a fresh dataset.
type QueryFile struct {
	Query   Query               `yaml:"query"`
	Results []types.Publication `yaml:"results"`
	Summary QuerySummary        `yaml:"summary"`
}

// QuerySummary stores result statistics and a timestamp.
type QuerySummary struct {
	Total      int       `yaml:"total"`
	TotalPages int       `yaml:"total_pages"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteQueryFile saves the query and its page to a YAML file.
func WriteQueryFile(path string, q Query, page types.Page) error {
	qf := QueryFile{
		Query:   q,
		Results: page.Data,
		Summary: QuerySummary{
			Total:      page.Pagination.Total,
			TotalPages: page.Pagination.TotalPages,
			Timestamp:  time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a previously saved query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	return &qf, nil
}
