// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/bioscience-explorer/internal/normalize"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// genericWords never count as research areas.
var genericWords = map[string]bool{
	"study": true, "research": true, "analysis": true, "effects": true, "space": true,
}

// CriticalAreas are the body systems and topics every mission-ready corpus
// should cover. Order determines the order of reported gaps.
var CriticalAreas = []string{
	"cardiovascular", "heart", "circulation", "blood pressure",
	"immune", "immunity", "infection", "pathogen",
	"cognitive", "brain", "neural", "memory", "learning",
	"vision", "eye", "retinal", "optic",
	"hearing", "auditory", "ear",
	"digestive", "gut", "microbiome", "nutrition",
	"reproductive", "fertility", "hormone",
	"sleep", "circadian", "rhythm",
}

var (
	findingPhrases    = []string{"bone loss", "muscle atrophy", "fluid shift", "immune suppression"}
	mechanismPhrases  = []string{"oxidative stress", "gene expression", "protein synthesis", "cell cycle"}
	advancedMethods   = []string{"transcriptome", "proteome", "metabolome", "genomics", "transcriptomics"}
	urgencyWords      = []string{"critical", "severe", "significant", "major", "substantial"}
	countermeasureKey = []string{"prevention", "treatment", "intervention", "therapy", "countermeasure"}
)

// corpus is the lowercase view of a batch shared by every analysis pass.
type corpus struct {
	pubs   []types.Publication
	titles []string // lowercase, parallel to pubs
	joined string
}

func newCorpus(pubs []types.Publication) corpus {
	titles := make([]string, len(pubs))
	for i, p := range pubs {
		titles[i] = strings.ToLower(p.Title)
	}
	return corpus{pubs: pubs, titles: titles, joined: strings.Join(titles, " ")}
}

// titlesMentioning returns up to limit original titles that mention any term.
func (c corpus) titlesMentioning(terms []string, limit int) []string {
	out := []string{}
	if len(terms) == 0 {
		return out
	}
	for i, t := range c.titles {
		if len(out) == limit {
			break
		}
		for _, term := range terms {
			if mentions(t, term) > 0 {
				out = append(out, c.pubs[i].Title)
				break
			}
		}
	}
	return out
}

// firstTitles returns up to limit titles in batch order.
func (c corpus) firstTitles(limit int) []string {
	n := min(limit, len(c.pubs))
	out := make([]string, n)
	for i := range out {
		out[i] = c.pubs[i].Title
	}
	return out
}

// countWith returns how many titles mention term.
func (c corpus) countWith(term string) int {
	n := 0
	for _, t := range c.titles {
		if mentions(t, term) > 0 {
			n++
		}
	}
	return n
}

// mentions counts the occurrences of term in text that begin at a word
// boundary. Both are expected in lowercase. "ear" matches "ear" and "early"
// but not "research".
func mentions(text, term string) int {
	if term == "" {
		return 0
	}
	n := 0
	for i := 0; i <= len(text)-len(term); {
		j := strings.Index(text[i:], term)
		if j < 0 {
			break
		}
		at := i + j
		if atWordStart(text, at) {
			n++
		}
		i = at + len(term)
	}
	return n
}

func atWordStart(text string, at int) bool {
	if at == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:at])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}

// titleFrequency is the result of the research-area pass.
type titleFrequency struct {
	// topAreas holds the most frequent tokens, most frequent first.
	topAreas []string

	// distinct is the number of distinct counted tokens.
	distinct int
}

func analyzeTitles(c corpus, cfg types.AnalyticsConfig) titleFrequency {
	counts := make(map[string]int)
	var order []string
	for _, t := range c.titles {
		for _, word := range normalize.Tokenize(t) {
			if utf8.RuneCountInString(word) < cfg.MinAreaTokenLength || genericWords[word] {
				continue
			}
			if counts[word] == 0 {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})
	if len(ranked) > cfg.TopAreas {
		ranked = ranked[:cfg.TopAreas]
	}
	return titleFrequency{topAreas: ranked, distinct: len(order)}
}

// contentGaps is the result of the critical-area pass.
type contentGaps struct {
	missing      []string
	understudied []string
}

func analyzeGaps(c corpus, cfg types.AnalyticsConfig) contentGaps {
	var g contentGaps
	for _, area := range CriticalAreas {
		n := mentions(c.joined, area)
		switch {
		case n == 0:
			g.missing = append(g.missing, area)
		case n < cfg.UnderstudiedBelow:
			g.understudied = append(g.understudied, area)
		}
	}
	return g
}

// patterns is the result of the consensus and methodology pass.
type patterns struct {
	findings   []string
	mechanisms []string
	methods    []string
	diversity  float64
}

func analyzePatterns(c corpus, cfg types.AnalyticsConfig) patterns {
	var p patterns
	for _, f := range findingPhrases {
		if mentions(c.joined, f) >= cfg.FindingThreshold {
			p.findings = append(p.findings, f)
		}
	}
	for _, m := range mechanismPhrases {
		if mentions(c.joined, m) >= cfg.MechanismThreshold {
			p.mechanisms = append(p.mechanisms, m)
		}
	}
	for _, m := range advancedMethods {
		if mentions(c.joined, m) > 0 {
			p.methods = append(p.methods, m)
		}
	}
	p.diversity = float64(len(p.methods)) / float64(len(advancedMethods))
	return p
}

// missionRelevance is the result of the urgency and countermeasure pass.
type missionRelevance struct {
	urgentWords         []string
	urgent              []string
	countermeasureWords []string
	countermeasures     []string
}

func analyzeMission(c corpus, cfg types.AnalyticsConfig) missionRelevance {
	var m missionRelevance
	for _, w := range urgencyWords {
		if len(m.urgent) == cfg.MaxActionableItems {
			break
		}
		if mentions(c.joined, w) > 0 {
			m.urgentWords = append(m.urgentWords, w)
			m.urgent = append(m.urgent, fmt.Sprintf("research showing %s effects", w))
		}
	}
	for _, w := range countermeasureKey {
		if len(m.countermeasures) == cfg.MaxActionableItems {
			break
		}
		if mentions(c.joined, w) > 0 {
			m.countermeasureWords = append(m.countermeasureWords, w)
			m.countermeasures = append(m.countermeasures, fmt.Sprintf("research on %s strategies", w))
		}
	}
	return m
}
