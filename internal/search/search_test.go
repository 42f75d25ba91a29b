package search

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bioscience-explorer/internal/normalize"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// --- fixtures ---

func pub(id, title, organism, experiment, date string, themes ...string) types.Publication {
	return types.Publication{
		ID:              id,
		Title:           title,
		Organism:        organism,
		ExperimentType:  experiment,
		Themes:          themes,
		Authors:         "NASA Research Team",
		Abstract:        "This study investigates " + strings.ToLower(title) + ".",
		Keywords:        normalize.ExtractKeywords(title),
		PublicationDate: date,
		ImpactScore:     7,
	}
}

func fixture() []types.Publication {
	return []types.Publication{
		pub("p1", "Microgravity Effects on Mouse Bone Density", "Mouse", "Microgravity", "2023-01-01T00:00:00.000Z", "Bone Health", "Space Biology"),
		pub("p2", "Human Immune System Response in Space", "Human", "Immune", "2022-06-15T00:00:00.000Z", "Immune System"),
		pub("p3", "Cell Differentiation Under Microgravity", "Cell", "Microgravity", "2023-03-20T00:00:00.000Z", "Cell Biology"),
		pub("p4", "Plant Growth in Space Environment", "Plant", types.GeneralBiology, "2014-12-10T00:00:00.000Z", "Space Biology"),
		pub("p5", "Mouse Muscle Atrophy in Orbit", "Mouse", "Muscle", "2012-05-01", "Muscle Physiology"),
		pub("p6", "Undated Bacteria Survey", "Bacteria", types.GeneralBiology, "not a date", "Space Biology"),
	}
}

func ids(pubs []types.Publication) []string {
	out := make([]string, len(pubs))
	for i, p := range pubs {
		out[i] = p.ID
	}
	return out
}

// --- Filter ---

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria types.Criteria
		want     []string
	}{
		{"no criteria returns input", types.Criteria{}, []string{"p1", "p2", "p3", "p4", "p5", "p6"}},
		{"organism", types.Criteria{Organism: "Mouse"}, []string{"p1", "p5"}},
		{"experiment type", types.Criteria{ExperimentType: "Microgravity"}, []string{"p1", "p3"}},
		{"theme membership", types.Criteria{Theme: "Space Biology"}, []string{"p1", "p4", "p6"}},
		{"year", types.Criteria{DateRange: "2023"}, []string{"p1", "p3"}},
		{"date-only year", types.Criteria{DateRange: "2012"}, []string{"p5"}},
		{"older", types.Criteria{DateRange: "older"}, []string{"p4", "p5"}},
		{"malformed date range matches nothing", types.Criteria{DateRange: "recent"}, nil},
		{"short year matches nothing", types.Criteria{DateRange: "23"}, nil},
		{"conjunction", types.Criteria{Organism: "Mouse", ExperimentType: "Microgravity"}, []string{"p1"}},
		{"case sensitive organism", types.Criteria{Organism: "mouse"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(fixture(), tt.criteria)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterEmptyInput(t *testing.T) {
	got := Filter(nil, types.Criteria{Organism: "Mouse"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterConjunctionIsIntersection(t *testing.T) {
	pubs := normalize.Normalize([]types.RawRecord{
		{Title: "Microgravity Effects on Mouse Bone Density"},
		{Title: "Mouse Radiation Exposure"},
		{Title: "Human Microgravity Adaptation"},
		{Title: "Mouse Microgravity Muscle Study"},
		{Title: "Plant Spaceflight Growth"},
		{Title: "Rat Bone Loss in Spaceflight"},
	})
	options := FilterOptions(pubs)

	for _, org := range options.Organisms {
		for _, exp := range options.ExperimentTypes {
			both := Filter(pubs, types.Criteria{Organism: org, ExperimentType: exp})
			byOrg := Filter(pubs, types.Criteria{Organism: org})
			byExp := Filter(pubs, types.Criteria{ExperimentType: exp})

			inExp := map[string]bool{}
			for _, p := range byExp {
				inExp[p.ID] = true
			}
			var want []string
			for _, p := range byOrg {
				if inExp[p.ID] {
					want = append(want, p.ID)
				}
			}
			if len(want) == 0 {
				assert.Empty(t, both, "%s/%s", org, exp)
				continue
			}
			assert.Equal(t, want, ids(both), "%s/%s", org, exp)
		}
	}
}

// --- Search ---

func TestSearch(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []string
	}{
		{"title match ignores case", "MOUSE", []string{"p1", "p5"}},
		{"abstract match", "investigates plant", []string{"p4"}},
		{"authors match", "research team", []string{"p1", "p2", "p3", "p4", "p5", "p6"}},
		{"keyword match", "atrophy", []string{"p5"}},
		{"no match", "zebrafish", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(fixture(), tt.term)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSearchShortTermsAreNoOps(t *testing.T) {
	pubs := fixture()
	assert.Equal(t, pubs, Search(pubs, ""))
	assert.Equal(t, pubs, Search(pubs, "z"))
	assert.Equal(t, pubs, SearchWith(pubs, "zebra", 6))
}

func TestSearchMonotonic(t *testing.T) {
	pubs := fixture()
	for _, term := range []string{"mo", "mouse", "space", "xx", "bone density", "in"} {
		assert.LessOrEqual(t, len(Search(pubs, term)), len(pubs), term)
	}
}

func TestSearchThenFilterComposes(t *testing.T) {
	pubs := fixture()
	c := types.Criteria{Organism: "Mouse"}
	a := Filter(Search(pubs, "bone"), c)
	b := Search(Filter(pubs, c), "bone")
	assert.Equal(t, ids(a), ids(b))
}

// --- Paginate ---

func TestPaginate(t *testing.T) {
	pubs := fixture()
	tests := []struct {
		name      string
		page      int
		pageSize  int
		wantIDs   []string
		wantPages int
		wantMore  bool
	}{
		{"first page", 1, 4, []string{"p1", "p2", "p3", "p4"}, 2, true},
		{"last partial page", 2, 4, []string{"p5", "p6"}, 2, false},
		{"exact fit", 1, 6, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, 1, false},
		{"page past end", 3, 4, []string{}, 2, false},
		{"page zero", 0, 4, []string{}, 2, false},
		{"negative page", -1, 4, []string{}, 2, false},
		{"default page size", 1, 0, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, 1, false},
		{"max int page size", 1, math.MaxInt, []string{"p1", "p2", "p3", "p4", "p5", "p6"}, 1, false},
		{"max int page size past end", 2, math.MaxInt, []string{}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(pubs, tt.page, tt.pageSize)
			assert.Equal(t, tt.wantIDs, ids(got.Data))
			assert.Equal(t, len(pubs), got.Pagination.Total)
			assert.Equal(t, tt.wantPages, got.Pagination.TotalPages)
			assert.Equal(t, tt.wantMore, got.Pagination.HasMore)
			assert.Equal(t, tt.page, got.Pagination.Page)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	got := Paginate(nil, 1, 10)
	assert.Empty(t, got.Data)
	assert.Equal(t, 0, got.Pagination.Total)
	assert.Equal(t, 0, got.Pagination.TotalPages)
	assert.False(t, got.Pagination.HasMore)
}

func TestPaginateReconstructs(t *testing.T) {
	records := make([]types.RawRecord, 23)
	for i := range records {
		records[i] = types.RawRecord{Title: fmt.Sprintf("Spaceflight Study %d", i)}
	}
	pubs := normalize.Normalize(records)

	for _, size := range []int{1, 2, 5, 7, 23, 50, math.MaxInt} {
		first := Paginate(pubs, 1, size)
		var all []types.Publication
		for page := 1; page <= first.Pagination.TotalPages; page++ {
			p := Paginate(pubs, page, size)
			assert.LessOrEqual(t, len(p.Data), size)
			all = append(all, p.Data...)
		}
		assert.Equal(t, pubs, all, "page size %d", size)
	}
}

// --- Run ---

func TestRun(t *testing.T) {
	page := Run(fixture(), Query{
		Term:     "mouse",
		Criteria: types.Criteria{ExperimentType: "Muscle"},
		Page:     1,
		PageSize: 10,
	}, 2)
	assert.Equal(t, []string{"p5"}, ids(page.Data))
	assert.Equal(t, 1, page.Pagination.Total)
}

// --- Summary and options ---

func TestSummarize(t *testing.T) {
	pubs := fixture()
	pubs[0].ImpactScore = 10
	pubs[1].ImpactScore = 4
	pubs[2].ImpactScore = 0

	s, err := Summarize(pubs)
	require.NoError(t, err)
	assert.Equal(t, 6, s.TotalPublications)
	assert.Equal(t, 5, s.UniqueOrganisms)
	assert.Equal(t, 4, s.ExperimentTypes)
	// 10, 4, 7, 7, 7 (zero excluded)
	assert.InDelta(t, 7.0, s.AverageImpactScore, 1e-9)
	assert.InDelta(t, 7.0, s.MedianImpactScore, 1e-9)
	assert.Equal(t, 2, s.ByYear[2023])
	assert.Equal(t, 1, s.ByYear[2012])
	_, hasBadYear := s.ByYear[0]
	assert.False(t, hasBadYear)
}

func TestSummarizeEmpty(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.TotalPublications)
	assert.Zero(t, s.AverageImpactScore)
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions(fixture())
	assert.Equal(t, []string{"Bacteria", "Cell", "Human", "Mouse", "Plant"}, opts.Organisms)
	assert.Equal(t, []string{types.GeneralBiology, "Immune", "Microgravity", "Muscle"}, opts.ExperimentTypes)
	assert.Contains(t, opts.Themes, "Space Biology")
	assert.IsIncreasing(t, opts.Themes)
}

// --- Output ---

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Paginate(fixture(), 1, 2), &buf)
	out := buf.String()
	assert.Contains(t, out, "p1")
	assert.Contains(t, out, "2023")
	assert.Contains(t, out, "page 1 of 3, 6 publications (more available)")

	buf.Reset()
	FormatTable(Paginate(nil, 1, 2), &buf)
	assert.Contains(t, buf.String(), "No publications found.")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Bone loss", 20, "Bone loss"},
		{"exact", "abcdef", 6, "abcdef"},
		{"ascii", "abcdefghij", 8, "abcde..."},
		{"multibyte", "Étude ésotérique", 8, "Étude..."},
		{"cjk", "微重力下的骨丢失研究", 6, "微重力..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestQueryFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "query.yaml")
	q := Query{Term: "mouse", Criteria: types.Criteria{Organism: "Mouse"}, Page: 1, PageSize: 10}
	page := Run(fixture(), q, 2)

	require.NoError(t, WriteQueryFile(path, q, page))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, q, qf.Query)
	assert.Equal(t, ids(page.Data), ids(qf.Results))
	assert.Equal(t, 2, qf.Summary.Total)
	assert.False(t, qf.Summary.Timestamp.IsZero())
}

func TestReadQueryFileMissing(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
