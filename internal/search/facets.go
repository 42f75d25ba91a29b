// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"io"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Summary holds dataset-level statistics for the dashboard header.
type Summary struct {
	TotalPublications  int         `json:"totalPublications" yaml:"total_publications"`
	UniqueOrganisms    int         `json:"uniqueOrganisms" yaml:"unique_organisms"`
	ExperimentTypes    int         `json:"experimentTypes" yaml:"experiment_types"`
	AverageImpactScore float64     `json:"averageImpactScore" yaml:"average_impact_score"`
	MedianImpactScore  float64     `json:"medianImpactScore" yaml:"median_impact_score"`
	P90ImpactScore     float64     `json:"p90ImpactScore" yaml:"p90_impact_score"`
	ByYear             map[int]int `json:"byYear" yaml:"by_year"`
}

// Options holds the sorted distinct values offered by the filter controls.
type Options struct {
	Organisms       []string `json:"organisms" yaml:"organisms"`
	ExperimentTypes []string `json:"experimentTypes" yaml:"experiment_types"`
	Themes          []string `json:"themes" yaml:"themes"`
}

// Summarize computes the dataset summary. Only positive impact scores enter
// the score statistics; with none, the scores are zero.
func Summarize(pubs []types.Publication) (Summary, error) {
	s := Summary{
		TotalPublications: len(pubs),
		ByYear:            make(map[int]int),
	}
	if len(pubs) == 0 {
		return s, nil
	}

	organisms := make(map[string]bool)
	experiments := make(map[string]bool)
	var scores stats.Float64Data

	for _, p := range pubs {
		organisms[p.Organism] = true
		experiments[p.ExperimentType] = true
		if p.ImpactScore > 0 {
			scores = append(scores, float64(p.ImpactScore))
		}
		if y, ok := publicationYear(p); ok {
			s.ByYear[y]++
		}
	}
	s.UniqueOrganisms = len(organisms)
	s.ExperimentTypes = len(experiments)

	if len(scores) == 0 {
		return s, nil
	}

	var err error
	if s.AverageImpactScore, err = stats.Mean(scores); err != nil {
		return s, fmt.Errorf("mean impact score: %w", err)
	}
	if s.MedianImpactScore, err = stats.Median(scores); err != nil {
		return s, fmt.Errorf("median impact score: %w", err)
	}
	if s.P90ImpactScore, err = stats.Percentile(scores, 90); err != nil {
		return s, fmt.Errorf("p90 impact score: %w", err)
	}
	return s, nil
}

// FilterOptions collects the distinct organisms, experiment types, and themes.
func FilterOptions(pubs []types.Publication) Options {
	organisms := make(map[string]bool)
	experiments := make(map[string]bool)
	themes := make(map[string]bool)
	for _, p := range pubs {
		organisms[p.Organism] = true
		experiments[p.ExperimentType] = true
		for _, th := range p.Themes {
			themes[th] = true
		}
	}
	return Options{
		Organisms:       sortedKeys(organisms),
		ExperimentTypes: sortedKeys(experiments),
		Themes:          sortedKeys(themes),
	}
}

// FormatSummary writes the summary as aligned text to w.
func FormatSummary(s Summary, w io.Writer) {
	fmt.Fprintf(w, "Publications:          %d\n", s.TotalPublications)
	fmt.Fprintf(w, "Organisms:             %d\n", s.UniqueOrganisms)
	fmt.Fprintf(w, "Experiment types:      %d\n", s.ExperimentTypes)
	fmt.Fprintf(w, "Impact score (mean):   %.2f\n", s.AverageImpactScore)
	fmt.Fprintf(w, "Impact score (median): %.2f\n", s.MedianImpactScore)
	fmt.Fprintf(w, "Impact score (p90):    %.2f\n", s.P90ImpactScore)

	years := make([]int, 0, len(s.ByYear))
	for y := range s.ByYear {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		fmt.Fprintf(w, "  %d: %d\n", y, s.ByYear[y])
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
