package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bioscience-explorer/internal/normalize"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DataDir: filepath.Join(t.TempDir(), "data"), MaxResults: 20})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePubs() []types.Publication {
	return normalize.Normalize([]types.RawRecord{
		{Title: "Microgravity Effects on Mouse Bone Density", Link: "https://example.org/1"},
		{Title: "Human Immune System Response in Space", Link: "https://example.org/2"},
		{Title: "Cell Differentiation Under Microgravity", Link: "https://example.org/3"},
		{Title: "Plant Growth in Space Environment", Link: "https://example.org/4"},
	})
}

func saveAll(t *testing.T, s *Store, pubs []types.Publication) SaveSummary {
	t.Helper()
	var buf strings.Builder
	summary, err := s.SavePublications(context.Background(), pubs, &buf)
	if err != nil {
		t.Fatal(err)
	}
	return summary
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"publications", "publications_fts", "insights"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}

	if _, err := os.Stat(filepath.Join(s.DataDir(), dbFile)); err != nil {
		t.Errorf("database file: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	for i := 0; i < 2; i++ {
		s, err := Open(types.StoreConfig{DataDir: dir})
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		s.Close()
	}
}

// --- save tests ---

func TestSavePublications(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()

	summary := saveAll(t, s, pubs)
	if summary.Inserted != 4 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want 4 inserted", summary)
	}

	// Unchanged rows are skipped.
	summary = saveAll(t, s, pubs)
	if summary.Unchanged != 4 {
		t.Errorf("Unchanged = %d, want 4", summary.Unchanged)
	}

	// A changed row is updated.
	pubs[1].CitationCount = 12
	summary = saveAll(t, s, pubs)
	if summary.Updated != 1 || summary.Unchanged != 3 {
		t.Errorf("summary = %+v, want 1 updated, 3 unchanged", summary)
	}
	if summary.Total() != 4 {
		t.Errorf("Total = %d, want 4", summary.Total())
	}
}

func TestSavePublicationsCountsFailures(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()
	pubs[2].ID = ""

	var buf strings.Builder
	summary, err := s.SavePublications(context.Background(), pubs, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 1 || summary.Inserted != 3 {
		t.Errorf("summary = %+v, want 3 inserted, 1 failed", summary)
	}
	if !strings.Contains(buf.String(), "failed: 1") {
		t.Errorf("output missing summary line:\n%s", buf.String())
	}
}

func TestGetPublicationRoundTrip(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()
	pubs[0].DOI = "10.1000/bone"
	saveAll(t, s, pubs)

	got, err := s.GetPublication(context.Background(), "nasa_0")
	if err != nil {
		t.Fatal(err)
	}

	want := pubs[0]
	if got.Title != want.Title || got.Organism != want.Organism || got.ExperimentType != want.ExperimentType {
		t.Errorf("got %+v", got)
	}
	if got.DOI != "10.1000/bone" {
		t.Errorf("DOI = %q", got.DOI)
	}
	if strings.Join(got.Keywords, ",") != strings.Join(want.Keywords, ",") {
		t.Errorf("Keywords = %v, want %v", got.Keywords, want.Keywords)
	}
	if len(got.Themes) != len(want.Themes) || len(got.KeyFindings) != len(want.KeyFindings) {
		t.Errorf("Themes/KeyFindings not round-tripped: %+v", got)
	}
	if got.ImpactScore != want.ImpactScore || got.PublicationDate != want.PublicationDate {
		t.Errorf("ImpactScore/PublicationDate = %d/%s", got.ImpactScore, got.PublicationDate)
	}
}

func TestGetPublicationNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.GetPublication(context.Background(), "nasa_99")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- query tests ---

func TestQueryPublicationsFullText(t *testing.T) {
	s := testStore(t)
	saveAll(t, s, samplePubs())

	got, err := s.QueryPublications(context.Background(), QueryOptions{Text: "microgravity"})
	if err != nil {
		t.Fatal(err)
	}
	// Titles 0 and 2 mention microgravity; every abstract template may too,
	// so only assert the title hits are present.
	ids := map[string]bool{}
	for _, p := range got {
		ids[p.ID] = true
	}
	if !ids["nasa_0"] || !ids["nasa_2"] {
		t.Errorf("ids = %v, want nasa_0 and nasa_2", ids)
	}
}

func TestQueryPublicationsStructured(t *testing.T) {
	s := testStore(t)
	saveAll(t, s, samplePubs())
	ctx := context.Background()

	got, err := s.QueryPublications(ctx, QueryOptions{Organism: "Human"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "nasa_1" {
		t.Errorf("got %d results, want nasa_1", len(got))
	}

	got, err = s.QueryPublications(ctx, QueryOptions{MaxResults: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "nasa_0" || got[1].ID != "nasa_1" {
		t.Errorf("want insertion order limited to 2, got %v", got)
	}

	got, err = s.QueryPublications(ctx, QueryOptions{Text: "zebrafish"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

// --- enrichment tests ---

func TestApplyEnrichmentSurvivesResave(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()
	saveAll(t, s, pubs)
	ctx := context.Background()

	e := Enrichment{
		AISummary:        "Bone density drops in unloaded mice.",
		KeyFindings:      []string{"Trabecular loss", "Reduced osteoblasts"},
		Methodology:      "Hindlimb unloading",
		MissionRelevance: "Informs exercise countermeasures",
		ImpactScore:      9,
		Keywords:         []string{"bone", "unloading"},
	}
	if err := s.ApplyEnrichment(ctx, "nasa_0", e, time.Now()); err != nil {
		t.Fatal(err)
	}

	// Force an update of the row with new synthetic content.
	pubs[0].CitationCount = 3
	saveAll(t, s, pubs)

	got, err := s.GetPublication(ctx, "nasa_0")
	if err != nil {
		t.Fatal(err)
	}
	if got.AISummary != e.AISummary || got.ImpactScore != 9 || got.CitationCount != 3 {
		t.Errorf("got %+v", got)
	}
	if strings.Join(got.KeyFindings, "|") != "Trabecular loss|Reduced osteoblasts" {
		t.Errorf("KeyFindings = %v", got.KeyFindings)
	}

	enriched := true
	rows, err := s.QueryPublications(ctx, QueryOptions{Enriched: &enriched})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("enriched rows = %d, want 1", len(rows))
	}
}

func TestResaveWithNewTitleDropsEnrichment(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()
	saveAll(t, s, pubs)
	ctx := context.Background()

	e := Enrichment{
		AISummary:   "Summary of the original paper.",
		KeyFindings: []string{"Original finding"},
		Methodology: "Original method",
		ImpactScore: 9,
		Keywords:    []string{"original"},
	}
	if err := s.ApplyEnrichment(ctx, "nasa_0", e, time.Now()); err != nil {
		t.Fatal(err)
	}

	// The feed now carries a different paper at the same position.
	replaced := pubs[0]
	replaced.Title = "Plant Root Growth in Microgravity"
	replaced.AISummary = "Synthetic summary of the plant paper."
	replaced.KeyFindings = []string{"Synthetic finding"}
	replaced.Keywords = []string{"plant", "root"}
	replaced.ImpactScore = 5
	if outcome, err := s.SavePublication(ctx, replaced); err != nil || outcome != SaveUpdated {
		t.Fatalf("SavePublication = %v, %v", outcome, err)
	}

	got, err := s.GetPublication(ctx, "nasa_0")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != replaced.Title || got.AISummary != replaced.AISummary || got.ImpactScore != 5 {
		t.Errorf("got %+v", got)
	}
	if strings.Join(got.Keywords, "|") != "plant|root" {
		t.Errorf("Keywords = %v", got.Keywords)
	}

	enriched := true
	rows, err := s.QueryPublications(ctx, QueryOptions{Enriched: &enriched})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("enriched rows = %d, want 0", len(rows))
	}
}

func TestApplyEnrichmentKeepsKeywordsWhenEmpty(t *testing.T) {
	s := testStore(t)
	pubs := samplePubs()
	saveAll(t, s, pubs)
	ctx := context.Background()

	if err := s.ApplyEnrichment(ctx, "nasa_1", Enrichment{AISummary: "s", ImpactScore: 7}, time.Now()); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetPublication(ctx, "nasa_1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Keywords) == 0 || strings.Join(got.Keywords, "|") != strings.Join(pubs[1].Keywords, "|") {
		t.Errorf("Keywords = %v, want %v", got.Keywords, pubs[1].Keywords)
	}
}

func TestApplyEnrichmentNotFound(t *testing.T) {
	s := testStore(t)
	err := s.ApplyEnrichment(context.Background(), "nasa_7", Enrichment{}, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- insight tests ---

func TestSaveAndListInsights(t *testing.T) {
	s := testStore(t)
	saveAll(t, s, samplePubs())
	ctx := context.Background()

	t0 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	insights := []types.Insight{
		{
			ID: "research_concentration", Type: types.InsightProgress, Title: "Concentrated",
			ConfidenceScore:             0.85,
			SupportingPublicationTitles: []string{"Cell Differentiation Under Microgravity", "Unknown Title"},
			SupportingEvidence:          []string{"microgravity: 2 studies"},
			CreatedAt:                   t0,
		},
		{ID: "critical_gaps", Type: types.InsightGap, Title: "Gaps", ConfidenceScore: 0.9, CreatedAt: t0},
		{ID: "general_progress", Type: types.InsightProgress, Title: "Later", ConfidenceScore: 0.85, CreatedAt: t0.Add(time.Hour)},
	}
	n, err := s.SaveInsights(ctx, insights)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("saved %d, want 3", n)
	}

	all, err := s.ListInsights(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	var order []string
	for _, si := range all {
		order = append(order, si.ID)
	}
	want := "critical_gaps,general_progress,research_concentration"
	if strings.Join(order, ",") != want {
		t.Errorf("order = %v, want %s", order, want)
	}

	progress, err := s.ListInsights(ctx, types.InsightProgress, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(progress) != 2 {
		t.Fatalf("progress insights = %d, want 2", len(progress))
	}
	rc := progress[1]
	if len(rc.SupportingPublications) != 1 {
		t.Errorf("SupportingPublications = %v, want one resolved rowid", rc.SupportingPublications)
	}
	if len(rc.SupportingPublicationTitles) != 2 {
		t.Errorf("titles = %v, want both kept", rc.SupportingPublicationTitles)
	}
	if !rc.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", rc.CreatedAt, t0)
	}
}

// --- export tests ---

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	saveAll(t, s, samplePubs())

	path, err := s.ExportYAML(context.Background(), QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Export
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("parsing export.yaml: %v", err)
	}
	if len(doc.Publications) != 4 {
		t.Errorf("publications = %d, want 4", len(doc.Publications))
	}
}

func TestExportJSONFiltered(t *testing.T) {
	s := testStore(t)
	saveAll(t, s, samplePubs())

	path, err := s.ExportJSON(context.Background(), QueryOptions{Organism: "Plant"})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "export.json" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Export
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Publications) != 1 || doc.Publications[0].Organism != "Plant" {
		t.Errorf("publications = %+v", doc.Publications)
	}
	if doc.Insights == nil {
		t.Error("insights should encode as an empty list")
	}
}

func TestWriteExportUnknownFormat(t *testing.T) {
	s := testStore(t)
	var buf bytes.Buffer
	if err := s.WriteExport(context.Background(), QueryOptions{}, "csv", &buf); err == nil {
		t.Error("expected error for csv")
	}
}
