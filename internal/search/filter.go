// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strconv"
	"time"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Filter returns the publications satisfying every set criterion. Unset
// criteria are ignored; a DateRange that is neither a four-digit year nor
// "older" matches nothing.
func Filter(pubs []types.Publication, c types.Criteria) []types.Publication {
	if len(pubs) == 0 {
		return []types.Publication{}
	}
	if c.IsEmpty() {
		return pubs
	}

	match := dateMatcher(c.DateRange)
	var filtered []types.Publication
	for _, p := range pubs {
		if c.Organism != "" && p.Organism != c.Organism {
			continue
		}
		if c.ExperimentType != "" && p.ExperimentType != c.ExperimentType {
			continue
		}
		if c.Theme != "" && !contains(p.Themes, c.Theme) {
			continue
		}
		if c.DateRange != "" {
			year, ok := publicationYear(p)
			if !ok || !match(year) {
				continue
			}
		}
		filtered = append(filtered, p)
	}
	return filtered
}

// dateMatcher turns a DateRange value into a year predicate.
func dateMatcher(dateRange string) func(year int) bool {
	if dateRange == types.DateRangeOlder {
		return func(year int) bool { return year < types.OlderThanYear }
	}
	want, ok := parseYear(dateRange)
	if !ok {
		return func(int) bool { return false }
	}
	return func(year int) bool { return year == want }
}

// parseYear accepts exactly four ASCII digits.
func parseYear(s string) (int, bool) {
	if len(s) != 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	y, err := strconv.Atoi(s)
	return y, err == nil
}

// publicationYear extracts the year of an ISO-8601 date or date-time.
func publicationYear(p types.Publication) (int, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, p.PublicationDate); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
