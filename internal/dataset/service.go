// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset owns the lifecycle of the normalized publication set: it
// loads the raw feed, normalizes it, serves it from a TTL cache, and memoizes
// insight batches. A Service holds all state; there are no package globals,
// so independent services (per test, per tenant) never share caches.
//
// See docs/ARCHITECTURE § Cache Layer.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/bioscience-explorer/internal/cache"
	"github.com/pdiddy/bioscience-explorer/internal/insight"
	"github.com/pdiddy/bioscience-explorer/internal/normalize"
	"github.com/pdiddy/bioscience-explorer/internal/search"
	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

const refreshKey = "dataset"

// Config configures a Service.
type Config struct {
	// Loader fetches the raw feed. Required.
	Loader Loader

	// TTL is the dataset cache lifetime (default types.DefaultDatasetTTL).
	TTL time.Duration

	// Analytics holds search and insight thresholds
	// (default types.DefaultAnalyticsConfig()).
	Analytics *types.AnalyticsConfig

	// Insights memoizes insight batches (default: in-process store).
	Insights cache.InsightStore

	// Now is the clock for the TTL and insight timestamps (default time.Now).
	Now func() time.Time

	// Logger for refresh and cache messages (default slog.Default()).
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.TTL <= 0 {
		c.TTL = types.DefaultDatasetTTL
	}
	a := types.DefaultAnalyticsConfig()
	if c.Analytics != nil {
		a = c.Analytics.WithDefaults()
	}
	c.Analytics = &a
	if c.Insights == nil {
		c.Insights = cache.NewMemoryInsights()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service serves publications and insights from one feed. It is safe for
// concurrent use.
type Service struct {
	loader    Loader
	analytics types.AnalyticsConfig
	dataset   *cache.Dataset
	insights  cache.InsightStore
	generator *insight.Generator
	group     singleflight.Group
	logger    *slog.Logger

	// mu guards gen, which Invalidate bumps so that a refresh started
	// earlier does not repopulate the cache.
	mu  sync.Mutex
	gen uint64
}

// New returns a Service with empty caches.
func New(cfg Config) (*Service, error) {
	if cfg.Loader == nil {
		return nil, ErrNoSource
	}
	cfg.defaults()

	gen := insight.New(*cfg.Analytics)
	gen.Now = cfg.Now

	return &Service{
		loader:    cfg.Loader,
		analytics: *cfg.Analytics,
		dataset:   cache.NewDataset(cfg.TTL, cfg.Now),
		insights:  cfg.Insights,
		generator: gen,
		logger:    cfg.Logger,
	}, nil
}

// Analytics returns the thresholds the service was built with.
func (s *Service) Analytics() types.AnalyticsConfig { return s.analytics }

// Publications returns the normalized dataset. Within the TTL the cached set
// is returned; afterwards the feed is fetched once for all concurrent callers.
// The shared fetch is not cancelled with any one caller: each caller stops
// waiting when its own ctx is done. A failed fetch is returned as an error and
// never falls back to stale data.
func (s *Service) Publications(ctx context.Context) ([]types.Publication, error) {
	if pubs, ok := s.dataset.Get(); ok {
		return pubs, nil
	}

	ch := s.group.DoChan(refreshKey, func() (any, error) {
		if pubs, ok := s.dataset.Get(); ok {
			return pubs, nil
		}
		return s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]types.Publication), nil
	}
}

func (s *Service) refresh(ctx context.Context) ([]types.Publication, error) {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	start := time.Now()
	records, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error("dataset refresh failed", "error", err)
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	pubs := normalize.Normalize(records)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		s.logger.Debug("dataset invalidated during refresh, result not cached")
		return pubs, nil
	}
	s.dataset.Set(pubs)
	s.mu.Unlock()

	// Insight batches are tied to the dataset they were computed from.
	if err := s.insights.Clear(ctx); err != nil {
		s.logger.Warn("clearing insight cache after refresh", "error", err)
	}

	s.logger.Info("dataset refreshed",
		"publications", len(pubs),
		"duration", time.Since(start),
	)
	return pubs, nil
}

// Query runs search, filter, and pagination over the dataset.
func (s *Service) Query(ctx context.Context, q search.Query) (types.Page, error) {
	pubs, err := s.Publications(ctx)
	if err != nil {
		return types.Page{}, err
	}
	return search.Run(pubs, q, s.analytics.MinSearchLength), nil
}

// Insights returns the insights for pubs, memoized by insight.CacheKey. A
// store failure is logged and the batch is computed directly.
func (s *Service) Insights(ctx context.Context, pubs []types.Publication, typ types.InsightType) ([]types.Insight, error) {
	key := insight.CacheKey(pubs, typ, s.analytics.CacheKeyIDs)

	cached, ok, err := s.insights.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("insight cache read failed", "key", key, "error", err)
	case ok:
		s.logger.Debug("insight cache hit", "key", key)
		return cached, nil
	}

	insights := s.generator.Generate(pubs, typ)
	if err := s.insights.Set(ctx, key, insights); err != nil {
		s.logger.Warn("insight cache write failed", "key", key, "error", err)
	}
	return insights, nil
}

// QueryInsights generates insights for the publications matching q's term
// and criteria. Only the first sample publications are analyzed; a
// non-positive sample uses the configured InsightSample. Pagination fields of
// q are ignored.
func (s *Service) QueryInsights(ctx context.Context, q search.Query, typ types.InsightType, sample int) ([]types.Insight, error) {
	pubs, err := s.Publications(ctx)
	if err != nil {
		return nil, err
	}
	matched := search.Filter(search.SearchWith(pubs, q.Term, s.analytics.MinSearchLength), q.Criteria)

	if sample <= 0 {
		sample = s.analytics.InsightSample
	}
	if sample > 0 && len(matched) > sample {
		matched = matched[:sample]
	}
	return s.Insights(ctx, matched, typ)
}

// Stats summarizes the dataset.
func (s *Service) Stats(ctx context.Context) (search.Summary, error) {
	pubs, err := s.Publications(ctx)
	if err != nil {
		return search.Summary{}, err
	}
	return search.Summarize(pubs)
}

// FilterOptions returns the distinct filter values of the dataset.
func (s *Service) FilterOptions(ctx context.Context) (search.Options, error) {
	pubs, err := s.Publications(ctx)
	if err != nil {
		return search.Options{}, err
	}
	return search.FilterOptions(pubs), nil
}

// Invalidate empties both caches and resets the TTL clock. The next
// Publications call fetches the feed again.
func (s *Service) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.dataset.Clear()
	s.mu.Unlock()
	s.group.Forget(refreshKey)
	if err := s.insights.Clear(ctx); err != nil {
		return fmt.Errorf("clearing insight cache: %w", err)
	}
	s.logger.Info("dataset cache cleared")
	return nil
}

// Close releases the insight store.
func (s *Service) Close() error {
	return s.insights.Close()
}
