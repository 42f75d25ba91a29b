package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/pdiddy/bioscience-explorer/internal/search"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// handlePublications returns one page of matching publications.
// GET /api/publications?search=&organism=&experiment_type=&theme=&date_range=&page=&page_size=
func (s *Server) handlePublications(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	page, err := s.backend.Query(r.Context(), q)
	if err != nil {
		s.logger.Error("fetching publications", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to fetch publications"))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleInsights returns insights for the publications matching the same
// filters as /api/publications. An unknown type yields an empty list.
// GET /api/insights?type=&sample=
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	q, err := s.parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sample, err := queryInt(r, "sample", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	typ := types.InsightType(r.URL.Query().Get("type"))

	insights, err := s.backend.QueryInsights(r.Context(), q, typ, sample)
	if err != nil {
		s.logger.Error("generating insights", "type", typ, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to generate insights"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"insights": insights,
		"count":    len(insights),
	})
}

// GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.backend.Stats(r.Context())
	if err != nil {
		s.logger.Error("computing stats", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to compute statistics"))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GET /api/filters
func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.backend.FilterOptions(r.Context())
	if err != nil {
		s.logger.Error("listing filter options", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to list filter options"))
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// POST /api/cache/clear
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.Invalidate(r.Context()); err != nil {
		s.logger.Error("clearing cache", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to clear cache"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseQuery reads the search term, filter criteria, and pagination from the
// query string.
func (s *Server) parseQuery(r *http.Request) (search.Query, error) {
	v := r.URL.Query()
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return search.Query{}, err
	}
	pageSize, err := queryInt(r, "page_size", s.pageSize)
	if err != nil {
		return search.Query{}, err
	}
	return search.Query{
		Term: v.Get("search"),
		Criteria: types.Criteria{
			Organism:       v.Get("organism"),
			ExperimentType: v.Get("experiment_type"),
			Theme:          v.Get("theme"),
			DateRange:      v.Get("date_range"),
		},
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
