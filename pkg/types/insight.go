// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// InsightType categorizes an Insight. The set is closed.
type InsightType string

const (
	InsightProgress   InsightType = "progress"
	InsightGap        InsightType = "gap"
	InsightConsensus  InsightType = "consensus"
	InsightActionable InsightType = "actionable"
)

// AllInsightTypes lists every InsightType in output order.
var AllInsightTypes = []InsightType{
	InsightProgress,
	InsightGap,
	InsightConsensus,
	InsightActionable,
}

// ParseInsightType maps s onto the closed InsightType set.
func ParseInsightType(s string) (InsightType, bool) {
	for _, t := range AllInsightTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Insight is a typed observation derived from patterns across a batch of
// Publications. Publications are cited by title only; the link is for
// display and carries no ownership.
type Insight struct {
	// ID names the rule that produced the insight (e.g. "research_concentration").
	ID string `json:"id" yaml:"id"`

	Type        InsightType `json:"type" yaml:"type"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description" yaml:"description"`

	// MissionImpact describes the consequence for mission planning.
	MissionImpact string `json:"mission_impact" yaml:"mission_impact"`

	// ConfidenceScore is in [0, 1].
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	SupportingEvidence []string `json:"supporting_evidence" yaml:"supporting_evidence"`

	// SupportingPublicationTitles holds at most three titles from the batch.
	SupportingPublicationTitles []string `json:"supporting_publication_titles" yaml:"supporting_publication_titles"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
