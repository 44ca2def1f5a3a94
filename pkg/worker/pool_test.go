package worker

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

func TestMap_PreservesOrder(t *testing.T) {
	items := make([]int, 37)
	for i := range items {
		items[i] = i
	}

	for _, workers := range []int{0, 1, 4, 100} {
		got, err := Map(context.Background(), Config{Workers: workers}, items, func(_ context.Context, v int) (int, error) {
			return v * v, nil
		})
		require.NoError(t, err)
		require.Len(t, got, len(items))
		for i, v := range got {
			assert.Equal(t, i*i, v)
		}
	}
}

func TestMap_RoundRobin(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}
	var mu sync.Mutex
	seen := make(map[int][]int) // worker index -> items in processing order

	_, err := Map(context.Background(), Config{Workers: 3}, items, func(_ context.Context, v int) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		seen[v%3] = append(seen[v%3], v)
		return v, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, seen[0])
	assert.Equal(t, []int{1, 4}, seen[1])
	assert.Equal(t, []int{2, 5}, seen[2])
}

func TestMap_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	got, err := Map(context.Background(), Config{Workers: 2}, []int{1, 2, 3}, func(_ context.Context, v int) (int, error) {
		if v == 2 {
			return 0, boom
		}
		return v, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "item 1")
	assert.Nil(t, got)
}

func TestMap_Empty(t *testing.T) {
	got, err := Map(context.Background(), DefaultConfig(), []int{}, func(_ context.Context, v int) (int, error) {
		return v, nil
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClusterAll(t *testing.T) {
	profiles := []model.Profile{
		model.NewProfile("NL_Demand", []float64{1, 1, 1, 5, 5, 5, 9, 9}),
		model.NewProfile("NL_Solar", []float64{0, 0, 3, 6, 3, 0, 0, 0}),
		model.NewProfile("BE_Demand", []float64{2, 2, 2, 2}),
	}
	before := testutil.ToFloat64(profilesTotal.WithLabelValues("ward", "ok"))

	results, err := ClusterAll(context.Background(), Config{Workers: 2}, profiles, cluster.DefaultConfig(cluster.MethodWard, 3))
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, profiles[i].Name, r.Stats.ProfileName)
		assert.GreaterOrEqual(t, r.Stats.UniformError+1e-9, r.TotalError)
	}
	assert.Equal(t, []int{3, 3, 2}, results[0].Weights)
	assert.Equal(t, before+3, testutil.ToFloat64(profilesTotal.WithLabelValues("ward", "ok")))

	_, err = ClusterAll(context.Background(), Config{Workers: 2},
		[]model.Profile{model.NewProfile("empty", nil)}, cluster.DefaultConfig(cluster.MethodWard, 3))
	assert.ErrorIs(t, err, cluster.ErrEmptySeries)
}
