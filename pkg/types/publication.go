// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the bioscience-explorer
// pipeline: raw feed records, normalized publications, derived insights,
// query criteria, and stage configuration.
//
// See docs/ARCHITECTURE.md § Data Model.
package types

// RawRecord is one entry of the scraped publication feed. The feed names its
// fields Title and Link, and the JSON tags match that casing exactly.
type RawRecord struct {
	Title string `json:"Title" yaml:"title"`
	Link  string `json:"Link" yaml:"link"`
}

// Publication is the canonical enriched record derived 1:1 from a RawRecord.
// Every field is populated by normalization; consumers never see a partially
// built value.
type Publication struct {
	// ID is positional ("nasa_<index>") and stable for the lifetime of one
	// cached dataset.
	ID string `json:"id" yaml:"id"`

	// Title and URL are copied from the feed.
	Title string `json:"title" yaml:"title"`
	URL   string `json:"url" yaml:"url"`

	// Organism is the first organism rule matched in the title, or
	// "Mixed Organisms".
	Organism string `json:"organism" yaml:"organism"`

	// ExperimentType is the first experiment rule matched in the title, or
	// "General Biology".
	ExperimentType string `json:"experiment_type" yaml:"experiment_type"`

	// Keywords are up to five length- and stopword-filtered title tokens.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Themes holds one to three values from the theme vocabulary.
	Themes []string `json:"themes" yaml:"themes"`

	Authors          string `json:"authors" yaml:"authors"`
	Journal          string `json:"journal" yaml:"journal"`
	Abstract         string `json:"abstract" yaml:"abstract"`
	AISummary        string `json:"ai_summary" yaml:"ai_summary"`
	Methodology      string `json:"methodology" yaml:"methodology"`
	MissionRelevance string `json:"mission_relevance" yaml:"mission_relevance"`

	// KeyFindings holds two to four finding statements.
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`

	// ImpactScore is an integer in [MinImpactScore, MaxImpactScore].
	ImpactScore int `json:"impact_score" yaml:"impact_score"`

	// PublicationDate is an ISO-8601 UTC timestamp.
	PublicationDate string `json:"publication_date" yaml:"publication_date"`

	// DOI and CitationCount are not produced by normalization; they exist so a
	// Publication round-trips through the persisted row schema.
	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`
	CitationCount int    `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`
}

// Impact score bounds shared by normalization and enrichment.
const (
	MinImpactScore = 4
	MaxImpactScore = 10
)

// Sentinel values used when a title matches no rule.
const (
	MixedOrganisms = "Mixed Organisms"
	GeneralBiology = "General Biology"
)
