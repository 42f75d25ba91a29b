// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// QueryOptions holds parameters for publication queries.
type QueryOptions struct {
	// Text is an FTS5 query over title and abstract.
	Text string

	Organism       string
	ExperimentType string

	// Enriched restricts results to rows that have (true) or lack (false)
	// AI enrichment. Nil means either.
	Enriched *bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// QueryPublications returns stored publications. Full-text queries are ranked
// by relevance; structured-only queries keep insertion order.
func (s *Store) QueryPublications(ctx context.Context, opts QueryOptions) ([]types.Publication, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Text != ""
	)

	if useFTS {
		qb.WriteString(`SELECT ` + publicationColumns + `
			FROM publications_fts
			JOIN publications p ON p.rowid = publications_fts.rowid
			WHERE publications_fts MATCH ?`)
		args = append(args, opts.Text)
	} else {
		qb.WriteString(`SELECT ` + publicationColumns + ` FROM publications p WHERE 1=1`)
	}

	if opts.Organism != "" {
		qb.WriteString(` AND p.organism = ?`)
		args = append(args, opts.Organism)
	}
	if opts.ExperimentType != "" {
		qb.WriteString(` AND p.experiment_type = ?`)
		args = append(args, opts.ExperimentType)
	}
	if opts.Enriched != nil {
		if *opts.Enriched {
			qb.WriteString(` AND p.enriched_at IS NOT NULL`)
		} else {
			qb.WriteString(` AND p.enriched_at IS NULL`)
		}
	}

	if useFTS {
		qb.WriteString(` ORDER BY publications_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.rowid`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying publications: %w", err)
	}
	defer rows.Close()

	var pubs []types.Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		pubs = append(pubs, p)
	}
	return pubs, rows.Err()
}

// Enrichment holds the AI-derived fields of a publication.
type Enrichment struct {
	AISummary        string   `json:"ai_summary" yaml:"ai_summary"`
	KeyFindings      []string `json:"key_findings" yaml:"key_findings"`
	Methodology      string   `json:"methodology" yaml:"methodology"`
	MissionRelevance string   `json:"mission_relevance" yaml:"mission_relevance"`
	ImpactScore      int      `json:"impact_score" yaml:"impact_score"`
	Keywords         []string `json:"keywords" yaml:"keywords"`
}

// ApplyEnrichment overwrites the AI-derived columns of publication id and
// marks it enriched. Later saves of the same ID keep these values. Empty
// Keywords leave the stored keywords in place.
func (s *Store) ApplyEnrichment(ctx context.Context, id string, e Enrichment, at time.Time) error {
	findings, _ := json.Marshal(e.KeyFindings)
	var keywords any
	if len(e.Keywords) > 0 {
		data, _ := json.Marshal(e.Keywords)
		keywords = string(data)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE publications SET ai_summary = ?, key_findings = ?, methodology = ?,
			mission_relevance = ?, impact_score = ?, keywords = COALESCE(?, keywords), enriched_at = ?
		 WHERE id = ?`,
		e.AISummary, string(findings), e.Methodology, e.MissionRelevance, e.ImpactScore,
		keywords, at.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("enriching %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("publication %s: %w", id, ErrNotFound)
	}
	return nil
}
