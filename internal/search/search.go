// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search filters, searches, paginates, and summarizes collections of
// normalized Publications. Every function here is pure: it never mutates its
// input and returns the same output for the same arguments, so Search, Filter,
// and Paginate compose in any order.
//
// See docs/ARCHITECTURE § Filter/Search Engine, § Paginator.
package search

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Search returns the publications whose title, abstract, authors, or any
// keyword contains term, ignoring case. Terms shorter than the default
// minimum length return pubs unchanged.
func Search(pubs []types.Publication, term string) []types.Publication {
	return SearchWith(pubs, term, types.DefaultAnalyticsConfig().MinSearchLength)
}

// SearchWith is Search with an explicit minimum term length in runes.
func SearchWith(pubs []types.Publication, term string, minLen int) []types.Publication {
	if len(pubs) == 0 || term == "" || utf8.RuneCountInString(term) < minLen {
		return pubs
	}

	needle := strings.ToLower(term)
	var matched []types.Publication
	for _, p := range pubs {
		if matches(p, needle) {
			matched = append(matched, p)
		}
	}
	return matched
}

// matches checks the title first since it is the most likely hit.
func matches(p types.Publication, needle string) bool {
	if strings.Contains(strings.ToLower(p.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Abstract), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Authors), needle) {
		return true
	}
	for _, k := range p.Keywords {
		if strings.Contains(strings.ToLower(k), needle) {
			return true
		}
	}
	return false
}

// FormatTable writes a page of publications as a human-readable table to w.
func FormatTable(page types.Page, w io.Writer) {
	if len(page.Data) == 0 {
		fmt.Fprintln(w, "No publications found.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-60s  %-16s  %-18s  %-4s  %s\n",
		"ID", "Title", "Organism", "Experiment", "Year", "Impact")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for _, p := range page.Data {
		year := ""
		if y, ok := publicationYear(p); ok {
			year = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(w, "%-10s  %-60s  %-16s  %-18s  %-4s  %d\n",
			p.ID, truncate(p.Title, 60), truncate(p.Organism, 16),
			truncate(p.ExperimentType, 18), year, p.ImpactScore)
	}

	pg := page.Pagination
	fmt.Fprintf(w, "\npage %d of %d, %d publications", pg.Page, pg.TotalPages, pg.Total)
	if pg.HasMore {
		fmt.Fprint(w, " (more available)")
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the page as indented JSON to w.
func FormatJSON(page types.Page, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(page)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
