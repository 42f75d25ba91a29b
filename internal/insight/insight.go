// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package insight derives typed Insights from a batch of Publications.
// Generation runs four analysis passes over the lowercase titles of the
// batch (research-area frequency, critical-area gaps, consensus patterns,
// mission relevance) and turns their results into candidate insights. Every
// requested type that yields no candidate on a non-empty batch receives a
// generic fallback, so a non-empty batch always produces at least one insight
// per requested type.
//
// See docs/ARCHITECTURE § Insight Generator.
package insight

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Generator produces insights. The zero value is not usable; call New.
type Generator struct {
	Config types.AnalyticsConfig

	// Now stamps Insight.CreatedAt.
	Now func() time.Time
}

// New returns a Generator with the given thresholds and the wall clock.
func New(cfg types.AnalyticsConfig) *Generator {
	return &Generator{Config: cfg, Now: time.Now}
}

// Generate returns the insights for pubs. An empty typ requests every type;
// results are ordered progress, gap, consensus, actionable. An empty batch or
// a typ outside the closed set yields an empty slice.
func (g *Generator) Generate(pubs []types.Publication, typ types.InsightType) []types.Insight {
	insights := []types.Insight{}
	if len(pubs) == 0 {
		return insights
	}

	wanted := types.AllInsightTypes
	if typ != "" {
		t, ok := types.ParseInsightType(string(typ))
		if !ok {
			return insights
		}
		wanted = []types.InsightType{t}
	}

	r := g.analyze(pubs)
	for _, t := range wanted {
		var batch []types.Insight
		switch t {
		case types.InsightProgress:
			batch = r.progress()
		case types.InsightGap:
			batch = r.gaps()
		case types.InsightConsensus:
			batch = r.consensus()
		case types.InsightActionable:
			batch = r.actionable()
		}
		if len(batch) == 0 {
			batch = []types.Insight{r.fallback(t)}
		}
		insights = append(insights, batch...)
	}
	return insights
}

// CacheKey identifies the result of Generate(pubs, typ) for memoization:
// batch size, the IDs of the first idCount publications, and the type
// ("all" when empty).
func CacheKey(pubs []types.Publication, typ types.InsightType, idCount int) string {
	n := max(0, min(idCount, len(pubs)))
	ids := make([]string, n)
	for i := range ids {
		ids[i] = pubs[i].ID
	}
	t := string(typ)
	if t == "" {
		t = "all"
	}
	return fmt.Sprintf("%d_%s_%s", len(pubs), strings.Join(ids, "_"), t)
}

// report bundles the pass results for one batch.
type report struct {
	cfg     types.AnalyticsConfig
	now     time.Time
	corpus  corpus
	titles  titleFrequency
	gapInfo contentGaps
	pattern patterns
	mission missionRelevance
}

func (g *Generator) analyze(pubs []types.Publication) report {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	cfg := g.Config.WithDefaults()
	c := newCorpus(pubs)
	return report{
		cfg:     cfg,
		now:     now().UTC(),
		corpus:  c,
		titles:  analyzeTitles(c, cfg),
		gapInfo: analyzeGaps(c, cfg),
		pattern: analyzePatterns(c, cfg),
		mission: analyzeMission(c, cfg),
	}
}

func (r report) progress() []types.Insight {
	var out []types.Insight
	maxTitles := r.cfg.MaxSupportingTitles

	if areas := r.titles.topAreas; len(areas) > 0 {
		lead := areas[:min(3, len(areas))]
		evidence := make([]string, len(lead))
		for i, a := range lead {
			evidence[i] = fmt.Sprintf("%s: %d studies", a, r.corpus.countWith(a))
		}
		out = append(out, types.Insight{
			ID:                          "research_concentration",
			Type:                        types.InsightProgress,
			Title:                       "Concentrated Research in Key Areas",
			Description:                 fmt.Sprintf("NASA research shows concentrated focus on: %s. This concentration suggests these areas have proven most critical for understanding space biology effects.", strings.Join(lead, ", ")),
			ConfidenceScore:             0.85,
			MissionImpact:               "Focused research in these areas provides reliable data for mission planning and astronaut health protocols.",
			SupportingEvidence:          evidence,
			SupportingPublicationTitles: r.corpus.titlesMentioning(areas, maxTitles),
			CreatedAt:                   r.now,
		})
	}

	if p := r.pattern; p.diversity > r.cfg.MethodDiversityThreshold {
		out = append(out, types.Insight{
			ID:              "methodological_advancement",
			Type:            types.InsightProgress,
			Title:           "Advanced Research Methodologies",
			Description:     fmt.Sprintf("Research demonstrates sophisticated methodological approaches including %s. This indicates significant advancement in space biology research capabilities.", strings.Join(p.methods, ", ")),
			ConfidenceScore: 0.8,
			MissionImpact:   "Advanced methodologies enable more precise understanding of space effects on biological systems.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d advanced methodologies identified", len(p.methods)),
				"High methodological diversity score",
				"Integration of multiple research approaches",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(p.methods, maxTitles),
			CreatedAt:                   r.now,
		})
	}
	return out
}

func (r report) gaps() []types.Insight {
	var out []types.Insight
	g := r.gapInfo

	if len(g.missing) > 0 {
		out = append(out, types.Insight{
			ID:              "critical_gaps",
			Type:            types.InsightGap,
			Title:           "Critical Research Gaps Identified",
			Description:     fmt.Sprintf("Analysis reveals limited research in critical areas: %s. These gaps represent potential risks for long-duration missions where comprehensive understanding is essential.", strings.Join(g.missing, ", ")),
			ConfidenceScore: 0.9,
			MissionImpact:   "These gaps could compromise astronaut health and mission success during extended space travel.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d critical areas with minimal research", len(g.missing)),
				"Limited coverage in essential biological systems",
				"Potential knowledge gaps for mission planning",
			},
			SupportingPublicationTitles: []string{},
			CreatedAt:                   r.now,
		})
	}

	if len(g.understudied) > 0 {
		out = append(out, types.Insight{
			ID:              "understudied_systems",
			Type:            types.InsightGap,
			Title:           "Understudied Biological Systems",
			Description:     fmt.Sprintf("Several biological systems show minimal research coverage: %s. This limited understanding could impact our ability to predict and mitigate space-related health effects.", strings.Join(g.understudied, ", ")),
			ConfidenceScore: 0.85,
			MissionImpact:   "Insufficient understanding of these systems could lead to unexpected health issues during long-duration missions.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d biological systems with limited research", len(g.understudied)),
				"Potential for unexpected health complications",
				"Need for expanded research coverage",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(g.understudied, min(2, r.cfg.MaxSupportingTitles)),
			CreatedAt:                   r.now,
		})
	}
	return out
}

func (r report) consensus() []types.Insight {
	var out []types.Insight
	p := r.pattern
	maxTitles := r.cfg.MaxSupportingTitles

	if len(p.findings) > 0 {
		out = append(out, types.Insight{
			ID:              "consistent_findings",
			Type:            types.InsightConsensus,
			Title:           "Consistent Research Findings Across Studies",
			Description:     fmt.Sprintf("Multiple studies consistently report: %s. This consistency across independent research suggests reliable, validated findings about space biology effects.", strings.Join(p.findings, ", ")),
			ConfidenceScore: 0.9,
			MissionImpact:   "Consistent findings provide reliable foundation for developing countermeasures and mission protocols.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d consistent findings across studies", len(p.findings)),
				"Multiple independent research groups report similar results",
				"High confidence in these biological responses",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(p.findings, maxTitles),
			CreatedAt:                   r.now,
		})
	}

	if len(p.mechanisms) > 0 {
		out = append(out, types.Insight{
			ID:              "established_mechanisms",
			Type:            types.InsightConsensus,
			Title:           "Well-Established Biological Mechanisms",
			Description:     fmt.Sprintf("Research consensus exists on several biological mechanisms: %s. These mechanisms are now well-understood and can guide mission planning.", strings.Join(p.mechanisms, ", ")),
			ConfidenceScore: 0.85,
			MissionImpact:   "Understanding of these mechanisms enables targeted countermeasure development and risk assessment.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d well-documented mechanisms", len(p.mechanisms)),
				"Strong scientific consensus on biological processes",
				"Reliable data for mission planning",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(p.mechanisms, maxTitles),
			CreatedAt:                   r.now,
		})
	}
	return out
}

func (r report) actionable() []types.Insight {
	var out []types.Insight
	m := r.mission
	maxTitles := r.cfg.MaxSupportingTitles

	if len(m.urgent) > 0 {
		out = append(out, types.Insight{
			ID:              "urgent_mission_considerations",
			Type:            types.InsightActionable,
			Title:           "Urgent Mission Planning Considerations",
			Description:     fmt.Sprintf("Recent research identifies critical considerations for missions: %s. These findings require immediate attention in mission planning and astronaut preparation protocols.", strings.Join(m.urgent, ", ")),
			ConfidenceScore: 0.9,
			MissionImpact:   "Addressing these findings is essential for mission success and astronaut safety.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d critical findings for mission planning", len(m.urgent)),
				"Recent research highlights urgent considerations",
				"Direct impact on mission success",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(m.urgentWords, maxTitles),
			CreatedAt:                   r.now,
		})
	}

	if len(m.countermeasures) > 0 {
		out = append(out, types.Insight{
			ID:              "countermeasure_opportunities",
			Type:            types.InsightActionable,
			Title:           "Countermeasure Development Priorities",
			Description:     fmt.Sprintf("Research identifies specific countermeasure opportunities: %s. These areas show the most promise for developing effective interventions.", strings.Join(m.countermeasures, ", ")),
			ConfidenceScore: 0.8,
			MissionImpact:   "Focusing countermeasure development on these areas could maximize effectiveness and mission success.",
			SupportingEvidence: []string{
				fmt.Sprintf("%d countermeasure opportunities identified", len(m.countermeasures)),
				"Research suggests high potential for intervention success",
				"Strategic focus for resource allocation",
			},
			SupportingPublicationTitles: r.corpus.titlesMentioning(m.countermeasureWords, maxTitles),
			CreatedAt:                   r.now,
		})
	}
	return out
}

// fallback synthesizes the generic insight of type t from batch statistics.
func (r report) fallback(t types.InsightType) types.Insight {
	n := len(r.corpus.pubs)
	in := types.Insight{
		Type:                        t,
		SupportingPublicationTitles: r.corpus.firstTitles(r.cfg.MaxSupportingTitles),
		CreatedAt:                   r.now,
	}

	switch t {
	case types.InsightProgress:
		in.ID = "general_progress"
		in.Title = "NASA Research Progress and Achievements"
		in.Description = fmt.Sprintf("NASA's space biology research program shows significant progress with %d publications covering diverse aspects of biological responses to space conditions. This comprehensive research effort demonstrates substantial advancement in space biology understanding.", n)
		in.ConfidenceScore = 0.8
		in.MissionImpact = "Continued research progress enables better mission planning and astronaut health management."
		in.SupportingEvidence = []string{
			fmt.Sprintf("%d research publications demonstrate progress", n),
			"Comprehensive coverage of space biology topics",
			"Significant advancement in research capabilities",
		}
	case types.InsightGap:
		in.ID = "general_research_gaps"
		in.Title = "Research Coverage Analysis"
		in.Description = fmt.Sprintf("Analysis of %d NASA research publications reveals areas where additional research could strengthen our understanding of space biology effects. While current research covers many important areas, expanding coverage could provide more comprehensive insights.", n)
		in.ConfidenceScore = 0.7
		in.MissionImpact = "Enhanced research coverage in key areas could improve mission planning and astronaut health protocols."
		in.SupportingEvidence = []string{
			fmt.Sprintf("Current research covers %d different research areas", r.titles.distinct),
			"Opportunities exist for expanded coverage in critical systems",
			"Additional research could fill knowledge gaps",
		}
	case types.InsightConsensus:
		in.ID = "general_consensus"
		in.Title = "Research Quality and Consistency"
		in.Description = fmt.Sprintf("Analysis of %d NASA research publications demonstrates consistent focus on critical space biology areas. The research shows strong methodological approaches and reliable findings across multiple studies.", n)
		in.ConfidenceScore = 0.8
		in.MissionImpact = "Consistent research quality provides reliable foundation for mission planning and astronaut health protocols."
		in.SupportingEvidence = []string{
			fmt.Sprintf("%d publications demonstrate consistent research focus", n),
			"Strong methodological approaches across studies",
			"Reliable findings for mission planning",
		}
	case types.InsightActionable:
		in.ID = "general_mission_insights"
		in.Title = "Mission Planning Recommendations"
		in.Description = fmt.Sprintf("Based on analysis of %d NASA research publications, several key areas should be prioritized for mission planning: microgravity effects, biological adaptation, and long-duration health considerations. These findings provide actionable insights for upcoming space missions.", n)
		in.ConfidenceScore = 0.8
		in.MissionImpact = "Implementing these recommendations could improve mission success and astronaut health outcomes."
		in.SupportingEvidence = []string{
			fmt.Sprintf("%d publications analyzed for mission relevance", n),
			"Key research areas identified for mission planning",
			"Actionable insights derived from current research",
		}
	}
	return in
}

// FormatText writes insights as readable blocks to w.
func FormatText(insights []types.Insight, w io.Writer) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "No insights.")
		return
	}
	for i, in := range insights {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%s] %s (%.2f)\n", in.Type, in.Title, in.ConfidenceScore)
		fmt.Fprintf(w, "  %s\n", in.Description)
		fmt.Fprintf(w, "  Mission impact: %s\n", in.MissionImpact)
		for _, e := range in.SupportingEvidence {
			fmt.Fprintf(w, "  - %s\n", e)
		}
		for _, t := range in.SupportingPublicationTitles {
			fmt.Fprintf(w, "  * %s\n", t)
		}
	}
}
