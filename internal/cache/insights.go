// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"sync"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// InsightStore memoizes generated insight batches by cache key. Entries never
// expire; Clear removes all of them.
type InsightStore interface {
	Get(ctx context.Context, key string) ([]types.Insight, bool, error)
	Set(ctx context.Context, key string, insights []types.Insight) error
	Clear(ctx context.Context) error
	Close() error
}

var _ InsightStore = (*MemoryInsights)(nil)

// MemoryInsights is an in-process InsightStore.
type MemoryInsights struct {
	mu      sync.RWMutex
	entries map[string][]types.Insight
}

// NewMemoryInsights returns an empty in-process store.
func NewMemoryInsights() *MemoryInsights {
	return &MemoryInsights{entries: make(map[string][]types.Insight)}
}

func (m *MemoryInsights) Get(_ context.Context, key string) ([]types.Insight, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *MemoryInsights) Set(_ context.Context, key string, insights []types.Insight) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = insights
	return nil
}

func (m *MemoryInsights) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string][]types.Insight)
	return nil
}

// Len returns the number of cached batches.
func (m *MemoryInsights) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryInsights) Close() error { return nil }
