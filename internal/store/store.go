// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists Publications and Insights in SQLite. Publication
// rows mirror the dashboard's persisted schema and are indexed with FTS5
// over title and abstract; insight rows reference publications by rowid.
//
//	docs/ARCHITECTURE § Persistence.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

const (
	dbFile            = "bioscience.db"
	defaultMaxResults = 20
)

// ErrNotFound is returned when a publication ID has no row.
var ErrNotFound = errors.New("not found")

// Store manages the SQLite database under StoreConfig.DataDir.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// Open opens or creates the database at dataDir/bioscience.db and creates the
// schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	s := &Store{db: db, dataDir: cfg.DataDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DataDir returns the directory holding the database and exports.
func (s *Store) DataDir() string { return s.dataDir }

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS publications (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			authors TEXT,
			abstract TEXT,
			publication_date TEXT,
			journal TEXT,
			doi TEXT,
			url TEXT,
			keywords TEXT,
			themes TEXT,
			experiment_type TEXT,
			organism TEXT,
			mission_relevance TEXT,
			ai_summary TEXT,
			key_findings TEXT,
			methodology TEXT,
			impact_score INTEGER,
			citation_count INTEGER DEFAULT 0,
			content_hash TEXT,
			enriched_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_organism ON publications(organism)`,
		`CREATE INDEX IF NOT EXISTS idx_publications_experiment ON publications(experiment_type)`,
		`CREATE TABLE IF NOT EXISTS insights (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_id TEXT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			supporting_publications TEXT,
			supporting_titles TEXT,
			supporting_evidence TEXT,
			confidence_score REAL,
			mission_impact TEXT,
			created_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_insights_type ON insights(type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='publications_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE publications_fts USING fts5(title, abstract, content=publications, content_rowid=rowid)`,
			`CREATE TRIGGER publications_ai AFTER INSERT ON publications BEGIN
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
			`CREATE TRIGGER publications_ad AFTER DELETE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
			END`,
			`CREATE TRIGGER publications_au AFTER UPDATE ON publications BEGIN
				INSERT INTO publications_fts(publications_fts, rowid, title, abstract) VALUES('delete', old.rowid, old.title, old.abstract);
				INSERT INTO publications_fts(rowid, title, abstract) VALUES (new.rowid, new.title, new.abstract);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SaveSummary holds counts from a publication save run.
type SaveSummary struct {
	Inserted  int
	Updated   int
	Unchanged int
	Failed    int
}

// Total returns the number of publications processed.
func (s SaveSummary) Total() int {
	return s.Inserted + s.Updated + s.Unchanged + s.Failed
}

// SaveOutcome reports what SavePublication did with a row.
type SaveOutcome int

const (
	SaveInserted SaveOutcome = iota
	SaveUpdated
	SaveUnchanged
)

// SavePublications upserts pubs one at a time, writing a progress line per
// changed publication to w. Rows whose content is unchanged are skipped. A
// failed row is counted and does not stop the run.
func (s *Store) SavePublications(ctx context.Context, pubs []types.Publication, w io.Writer) (SaveSummary, error) {
	var summary SaveSummary

	for _, p := range pubs {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		outcome, err := s.SavePublication(ctx, p)
		if err != nil {
			fmt.Fprintf(w, "failed   %s: %v\n", p.ID, err)
			summary.Failed++
			continue
		}
		switch outcome {
		case SaveInserted:
			fmt.Fprintf(w, "stored   %s\n", p.ID)
			summary.Inserted++
		case SaveUpdated:
			fmt.Fprintf(w, "updated  %s\n", p.ID)
			summary.Updated++
		default:
			summary.Unchanged++
		}
	}

	fmt.Fprintf(w, "\nstored: %d, updated: %d, unchanged: %d, failed: %d\n",
		summary.Inserted, summary.Updated, summary.Unchanged, summary.Failed)
	return summary, nil
}

// SavePublication upserts one publication keyed by ID. Once a row has been
// enriched, its AI-derived columns are kept on later saves of the same title;
// a different title replaces them and clears the enrichment.
func (s *Store) SavePublication(ctx context.Context, p types.Publication) (SaveOutcome, error) {
	if p.ID == "" {
		return 0, errors.New("publication has no id")
	}

	hash, err := contentHash(p)
	if err != nil {
		return 0, err
	}

	var stored string
	err = s.db.QueryRowContext(ctx,
		`SELECT content_hash FROM publications WHERE id = ?`, p.ID,
	).Scan(&stored)
	switch {
	case err == nil && stored == hash:
		return SaveUnchanged, nil
	case err != nil && !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("looking up %s: %w", p.ID, err)
	}
	exists := err == nil

	keywords, _ := json.Marshal(p.Keywords)
	themes, _ := json.Marshal(p.Themes)
	findings, _ := json.Marshal(p.KeyFindings)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO publications (id, title, authors, abstract, publication_date, journal, doi, url,
			keywords, themes, experiment_type, organism, mission_relevance, ai_summary, key_findings,
			methodology, impact_score, citation_count, content_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors, abstract=excluded.abstract,
			publication_date=excluded.publication_date, journal=excluded.journal, doi=excluded.doi,
			url=excluded.url, themes=excluded.themes,
			experiment_type=excluded.experiment_type, organism=excluded.organism,
			citation_count=excluded.citation_count, content_hash=excluded.content_hash,
			keywords=`+keepEnriched("keywords")+`,
			mission_relevance=`+keepEnriched("mission_relevance")+`,
			ai_summary=`+keepEnriched("ai_summary")+`,
			key_findings=`+keepEnriched("key_findings")+`,
			methodology=`+keepEnriched("methodology")+`,
			impact_score=`+keepEnriched("impact_score")+`,
			enriched_at=CASE WHEN publications.title = excluded.title THEN publications.enriched_at END`,
		p.ID, p.Title, p.Authors, p.Abstract, p.PublicationDate, p.Journal, p.DOI, p.URL,
		string(keywords), string(themes), p.ExperimentType, p.Organism, p.MissionRelevance,
		p.AISummary, string(findings), p.Methodology, p.ImpactScore, p.CitationCount, hash,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting %s: %w", p.ID, err)
	}

	if exists {
		return SaveUpdated, nil
	}
	return SaveInserted, nil
}

// GetPublication returns the publication with the given ID.
func (s *Store) GetPublication(ctx context.Context, id string) (types.Publication, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+publicationColumns+` FROM publications p WHERE p.id = ?`, id)
	p, err := scanPublication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Publication{}, fmt.Errorf("publication %s: %w", id, ErrNotFound)
	}
	return p, err
}

// CountPublications returns the number of stored publications.
func (s *Store) CountPublications(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM publications`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting publications: %w", err)
	}
	return n, nil
}

// keepEnriched keeps an AI column only while the row is enriched and still
// holds the same paper. IDs are positional, so a new title at the same ID is
// a different paper.
func keepEnriched(col string) string {
	return "CASE WHEN publications.enriched_at IS NULL OR publications.title <> excluded.title" +
		" THEN excluded." + col + " ELSE publications." + col + " END"
}

func contentHash(p types.Publication) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("hashing %s: %w", p.ID, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

const publicationColumns = `p.id, p.title, p.authors, p.abstract, p.publication_date, p.journal,
	p.doi, p.url, p.keywords, p.themes, p.experiment_type, p.organism, p.mission_relevance,
	p.ai_summary, p.key_findings, p.methodology, p.impact_score, p.citation_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPublication(row rowScanner) (types.Publication, error) {
	var (
		p                                types.Publication
		authors, abstract, date, journal sql.NullString
		doi, url, keywords, themes       sql.NullString
		experiment, organism, relevance  sql.NullString
		summary, findings, methodology   sql.NullString
		impact, citations                sql.NullInt64
	)
	if err := row.Scan(
		&p.ID, &p.Title, &authors, &abstract, &date, &journal,
		&doi, &url, &keywords, &themes, &experiment, &organism, &relevance,
		&summary, &findings, &methodology, &impact, &citations,
	); err != nil {
		return types.Publication{}, err
	}

	p.Authors = authors.String
	p.Abstract = abstract.String
	p.PublicationDate = date.String
	p.Journal = journal.String
	p.DOI = doi.String
	p.URL = url.String
	p.ExperimentType = experiment.String
	p.Organism = organism.String
	p.MissionRelevance = relevance.String
	p.AISummary = summary.String
	p.Methodology = methodology.String
	p.ImpactScore = int(impact.Int64)
	p.CitationCount = int(citations.Int64)

	if keywords.Valid {
		json.Unmarshal([]byte(keywords.String), &p.Keywords)
	}
	if themes.Valid {
		json.Unmarshal([]byte(themes.String), &p.Themes)
	}
	if findings.Valid {
		json.Unmarshal([]byte(findings.String), &p.KeyFindings)
	}
	return p, nil
}
