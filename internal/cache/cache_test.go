// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func samplePubs() []types.Publication {
	return []types.Publication{{ID: "nasa_0", Title: "Mouse"}, {ID: "nasa_1", Title: "Plant"}}
}

func sampleInsights() []types.Insight {
	return []types.Insight{{
		ID:                          "critical_gaps",
		Type:                        types.InsightGap,
		Title:                       "Critical Research Gaps Identified",
		ConfidenceScore:             0.9,
		SupportingEvidence:          []string{"30 critical areas with minimal research"},
		SupportingPublicationTitles: []string{},
		CreatedAt:                   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
}

func TestDatasetTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	d := NewDataset(5*time.Minute, clock.Now)

	_, ok := d.Get()
	assert.False(t, ok, "empty slot")
	assert.True(t, d.Expired())

	d.Set(samplePubs())
	got, ok := d.Get()
	require.True(t, ok)
	assert.Equal(t, samplePubs(), got)

	clock.Advance(4*time.Minute + 59*time.Second)
	_, ok = d.Get()
	assert.True(t, ok, "still fresh")

	clock.Advance(time.Second)
	_, ok = d.Get()
	assert.False(t, ok, "expired at TTL")
	assert.True(t, d.Expired())

	d.Set(samplePubs())
	assert.False(t, d.Expired(), "Set restarts the TTL")
}

func TestDatasetClear(t *testing.T) {
	d := NewDataset(time.Hour, nil)
	d.Set(samplePubs())
	d.Clear()
	_, ok := d.Get()
	assert.False(t, ok)
	assert.True(t, d.Expired())
}

func TestDatasetDefaultTTL(t *testing.T) {
	assert.Equal(t, types.DefaultDatasetTTL, NewDataset(0, nil).TTL())
}

func TestMemoryInsights(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryInsights()

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "k", sampleInsights()))
	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleInsights(), got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Clear(ctx))
	assert.Equal(t, 0, m.Len())
	assert.NoError(t, m.Close())
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisInsightsRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	r := NewRedisInsights(client, "test:")

	_, ok, err := r.Get(ctx, "2_nasa_0_nasa_1_gap")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(ctx, "2_nasa_0_nasa_1_gap", sampleInsights()))
	assert.True(t, mr.Exists("test:2_nasa_0_nasa_1_gap"))
	assert.Zero(t, mr.TTL("test:2_nasa_0_nasa_1_gap"), "insight entries never expire")

	got, ok, err := r.Get(ctx, "2_nasa_0_nasa_1_gap")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleInsights(), got)
}

func TestRedisInsightsClearKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	r := NewRedisInsights(client, "")

	require.NoError(t, r.Set(ctx, "a", sampleInsights()))
	require.NoError(t, r.Set(ctx, "b", sampleInsights()))
	require.NoError(t, mr.Set("session:unrelated", "x"))

	require.NoError(t, r.Clear(ctx))
	assert.False(t, mr.Exists(DefaultKeyPrefix+"a"))
	assert.False(t, mr.Exists(DefaultKeyPrefix+"b"))
	assert.True(t, mr.Exists("session:unrelated"))

	// Clearing an empty namespace is a no-op.
	assert.NoError(t, r.Clear(ctx))
}

func TestRedisInsightsCorruptValue(t *testing.T) {
	ctx := context.Background()
	mr, client := setupRedis(t)
	r := NewRedisInsights(client, "p:")
	require.NoError(t, mr.Set("p:bad", "not json"))

	_, _, err := r.Get(ctx, "bad")
	assert.Error(t, err)
}

func TestOpenRedisInsights(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	r, err := OpenRedisInsights(ctx, "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	require.NoError(t, r.Set(ctx, "k", sampleInsights()))
	assert.NoError(t, r.Close())

	_, err = OpenRedisInsights(ctx, "not a url", "")
	assert.Error(t, err)
}
