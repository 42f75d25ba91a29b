// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache holds the two caches of the dataset service: a single-slot
// dataset cache with a time-to-live and a keyed insight cache with no
// expiry. The insight cache has an in-process and a Redis implementation.
package cache

import (
	"sync"
	"time"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// Dataset is a single-slot cache for the normalized publication set. Entries
// are not evicted; Get reports a miss once the TTL has elapsed since Set.
type Dataset struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	pubs     []types.Publication
	storedAt time.Time
	filled   bool
}

// NewDataset returns an empty Dataset. A non-positive ttl selects
// types.DefaultDatasetTTL; a nil clock selects time.Now.
func NewDataset(ttl time.Duration, now func() time.Time) *Dataset {
	if ttl <= 0 {
		ttl = types.DefaultDatasetTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Dataset{ttl: ttl, now: now}
}

// Get returns the cached publications while they are fresh.
func (d *Dataset) Get() ([]types.Publication, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.filled || d.expiredLocked() {
		return nil, false
	}
	return d.pubs, true
}

// Set stores pubs and restarts the TTL.
func (d *Dataset) Set(pubs []types.Publication) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pubs = pubs
	d.storedAt = d.now()
	d.filled = true
}

// Clear empties the slot and resets the TTL clock.
func (d *Dataset) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pubs = nil
	d.storedAt = time.Time{}
	d.filled = false
}

// Expired reports whether the slot is empty or older than the TTL.
func (d *Dataset) Expired() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return !d.filled || d.expiredLocked()
}

// TTL returns the configured lifetime.
func (d *Dataset) TTL() time.Duration { return d.ttl }

func (d *Dataset) expiredLocked() bool {
	return d.now().Sub(d.storedAt) >= d.ttl
}
