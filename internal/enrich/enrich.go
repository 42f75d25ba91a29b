// Package enrich replaces the synthetic AI fields of stored publications with
// analyses from a Generative AI backend.
//
//	docs/ARCHITECTURE § Enrichment.
package enrich

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/bioscience-explorer/internal/store"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

const (
	defaultConcurrency = 4
	defaultMaxRetries  = 3
	maxKeyFindings     = 4
	maxKeywords        = 8
)

// Analyzer abstracts the Generative AI API so tests can supply a mock.
// Each call analyzes one publication and returns the raw response.
type Analyzer interface {
	Analyze(ctx context.Context, p types.Publication) (Analysis, error)
}

// Analysis is the structured response from the AI backend for one
// publication. ImpactScore is a float because models do not reliably return
// integers.
type Analysis struct {
	AISummary        string   `json:"ai_summary"`
	KeyFindings      []string `json:"key_findings"`
	Methodology      string   `json:"methodology"`
	MissionRelevance string   `json:"mission_relevance"`
	ImpactScore      float64  `json:"impact_score"`
	Keywords         []string `json:"keywords"`
}

// Sink receives validated enrichments. *store.Store satisfies it.
type Sink interface {
	ApplyEnrichment(ctx context.Context, id string, e store.Enrichment, at time.Time) error
}

// BatchSummary holds counts from an enrichment run.
type BatchSummary struct {
	Enriched int
	Failed   int
}

// Total returns the number of publications processed.
func (s BatchSummary) Total() int {
	return s.Enriched + s.Failed
}

// HasFailures reports whether any publication failed.
func (s BatchSummary) HasFailures() bool {
	return s.Failed > 0
}

// EnrichAll analyzes pubs and writes each validated result to sink. A failed
// publication is reported and counted; the run continues with the rest. At
// most cfg.Limit publications are processed when Limit is positive.
func EnrichAll(ctx context.Context, analyzer Analyzer, sink Sink, pubs []types.Publication, cfg types.EnrichConfig, w io.Writer) (BatchSummary, error) {
	if cfg.Limit > 0 && len(pubs) > cfg.Limit {
		pubs = pubs[:cfg.Limit]
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var (
		mu      sync.Mutex
		summary BatchSummary
	)
	report := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, p := range pubs {
		g.Go(func() error {
			err := enrichOne(gctx, analyzer, sink, p, maxRetries)

			mu.Lock()
			if err != nil {
				summary.Failed++
			} else {
				summary.Enriched++
			}
			mu.Unlock()

			if err != nil {
				report("failed   %s: %v\n", p.ID, err)
			} else {
				report("enriched %s\n", p.ID)
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func enrichOne(ctx context.Context, analyzer Analyzer, sink Sink, p types.Publication, maxRetries int) error {
	a, err := callWithRetry(ctx, analyzer, p, maxRetries)
	if err != nil {
		return err
	}
	e, err := validate(a)
	if err != nil {
		return err
	}
	return sink.ApplyEnrichment(ctx, p.ID, e, time.Now())
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the analyzer with exponential backoff. A response that
// fails validation is retried like a transport error.
func callWithRetry(ctx context.Context, analyzer Analyzer, p types.Publication, maxRetries int) (Analysis, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Analysis{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		a, err := analyzer.Analyze(ctx, p)
		if err == nil {
			_, err = validate(a)
		}
		if err == nil {
			return a, nil
		}
		lastErr = err
	}
	return Analysis{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// validate checks an Analysis and converts it to a store.Enrichment. Blank
// findings and keywords are dropped and the impact score is rounded and
// clamped to the publication range.
func validate(a Analysis) (store.Enrichment, error) {
	var problems []string

	summary := strings.TrimSpace(a.AISummary)
	if summary == "" {
		problems = append(problems, "empty ai_summary")
	}
	methodology := strings.TrimSpace(a.Methodology)
	if methodology == "" {
		problems = append(problems, "empty methodology")
	}
	relevance := strings.TrimSpace(a.MissionRelevance)
	if relevance == "" {
		problems = append(problems, "empty mission_relevance")
	}

	findings := nonBlank(a.KeyFindings, maxKeyFindings, false)
	if len(findings) == 0 {
		problems = append(problems, "no key_findings")
	}
	if math.IsNaN(a.ImpactScore) {
		problems = append(problems, "impact_score is NaN")
	}

	if len(problems) > 0 {
		return store.Enrichment{}, fmt.Errorf("invalid analysis: %s", strings.Join(problems, "; "))
	}

	return store.Enrichment{
		AISummary:        summary,
		KeyFindings:      findings,
		Methodology:      methodology,
		MissionRelevance: relevance,
		ImpactScore:      clampImpact(a.ImpactScore),
		Keywords:         nonBlank(a.Keywords, maxKeywords, true),
	}, nil
}

func clampImpact(score float64) int {
	n := int(math.Round(score))
	return min(max(n, types.MinImpactScore), types.MaxImpactScore)
}

// nonBlank trims values, drops empty and duplicate entries, and keeps at most
// limit. Keywords are lower-cased.
func nonBlank(values []string, limit int, lower bool) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
