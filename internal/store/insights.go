// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// StoredInsight is an Insight row. SupportingPublications holds the rowids
// of the cited publications that were stored when the insight was saved.
type StoredInsight struct {
	types.Insight          `yaml:",inline"`
	RowID                  int64   `json:"row_id" yaml:"row_id"`
	SupportingPublications []int64 `json:"supporting_publications" yaml:"supporting_publications"`
}

// SaveInsights inserts insights in one transaction. Supporting titles are
// resolved to publication rowids; titles with no stored row are dropped from
// SupportingPublications but kept as titles.
func (s *Store) SaveInsights(ctx context.Context, insights []types.Insight) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	lookup, err := tx.PrepareContext(ctx, `SELECT rowid FROM publications WHERE title = ? ORDER BY rowid LIMIT 1`)
	if err != nil {
		return 0, fmt.Errorf("preparing lookup: %w", err)
	}
	defer lookup.Close()

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO insights (rule_id, type, title, description, supporting_publications,
			supporting_titles, supporting_evidence, confidence_score, mission_impact, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer insert.Close()

	for _, in := range insights {
		rowids := []int64{}
		for _, title := range in.SupportingPublicationTitles {
			var id int64
			err := lookup.QueryRowContext(ctx, title).Scan(&id)
			if err == sql.ErrNoRows {
				continue
			}
			if err != nil {
				return 0, fmt.Errorf("resolving %q: %w", title, err)
			}
			rowids = append(rowids, id)
		}

		pubsJSON, _ := json.Marshal(rowids)
		titlesJSON, _ := json.Marshal(in.SupportingPublicationTitles)
		evidenceJSON, _ := json.Marshal(in.SupportingEvidence)

		if _, err := insert.ExecContext(ctx,
			in.ID, string(in.Type), in.Title, in.Description, string(pubsJSON),
			string(titlesJSON), string(evidenceJSON), in.ConfidenceScore, in.MissionImpact,
			in.CreatedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return 0, fmt.Errorf("inserting insight %s: %w", in.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insights: %w", err)
	}
	return len(insights), nil
}

// ListInsights returns stored insights, optionally of one type, highest
// confidence first and newest first within equal confidence.
func (s *Store) ListInsights(ctx context.Context, typ types.InsightType, limit int) ([]StoredInsight, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	query := `SELECT rowid, rule_id, type, title, description, supporting_publications,
			supporting_titles, supporting_evidence, confidence_score, mission_impact, created_at
		FROM insights`
	var args []any
	if typ != "" {
		query += ` WHERE type = ?`
		args = append(args, string(typ))
	}
	query += ` ORDER BY confidence_score DESC, created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	defer rows.Close()

	var out []StoredInsight
	for rows.Next() {
		var (
			si                         StoredInsight
			typeStr, created           string
			description, impact        sql.NullString
			pubsJSON, titles, evidence sql.NullString
		)
		if err := rows.Scan(
			&si.RowID, &si.ID, &typeStr, &si.Title, &description, &pubsJSON,
			&titles, &evidence, &si.ConfidenceScore, &impact, &created,
		); err != nil {
			return nil, fmt.Errorf("scanning insight: %w", err)
		}

		si.Type = types.InsightType(typeStr)
		si.Description = description.String
		si.MissionImpact = impact.String
		si.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		if pubsJSON.Valid {
			json.Unmarshal([]byte(pubsJSON.String), &si.SupportingPublications)
		}
		if titles.Valid {
			json.Unmarshal([]byte(titles.String), &si.SupportingPublicationTitles)
		}
		if evidence.Valid {
			json.Unmarshal([]byte(evidence.String), &si.SupportingEvidence)
		}
		out = append(out, si)
	}
	return out, rows.Err()
}
