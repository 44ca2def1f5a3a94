package duckdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient("")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, InitializeSchema(context.Background(), c))
	return c
}

func TestProfileRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepo(newTestClient(t))

	profiles := []model.Profile{
		model.NewProfile("NL_Solar", []float64{0, 0.5, 0.25}),
		model.NewProfile("BE_Demand", []float64{3, 2}),
	}
	require.NoError(t, repo.InsertBatch(ctx, profiles))
	require.NoError(t, repo.InsertBatch(ctx, profiles[:1]), "re-inserting is idempotent")

	names, err := repo.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BE_Demand", "NL_Solar"}, names)

	count, err := repo.Count(ctx, "NL_Solar")
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	loaded, err := repo.LoadProfiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Profile{profiles[1], profiles[0]}, loaded)

	_, err = repo.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestResultRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepo(newTestClient(t))

	p := model.NewProfile("NL_Demand", []float64{1, 1, 1, 5, 5, 5, 9})
	cfg := cluster.DefaultConfig(cluster.MethodWard, 3)
	res, err := cluster.Cluster(p, cfg)
	require.NoError(t, err)
	res.Stats.UniformError = 2

	id := model.GenerateResultID(p.Name, string(cfg.Method), cfg.Clusters, cfg.Params())
	require.NoError(t, repo.Save(ctx, id, cfg.Params(), res))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.Partition, got.Partition)
	assert.Equal(t, res.MergeErrors, got.Stats.MergeErrors)
	assert.Nil(t, got.Stats.CurveErrors)
	assert.Equal(t, "NL_Demand", got.Stats.ProfileName)
	assert.Equal(t, 3, got.Stats.NumClusters)
	assert.Equal(t, 2.0, got.Stats.UniformError)
	assert.Equal(t, cfg.Params(), got.Params)

	// saving again with a coarser partition replaces the trace
	cfg.Clusters = 2
	cfg.CurveErrors = true
	coarser, err := cluster.Cluster(p, cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, id, cfg.Params(), coarser))

	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Partition, 2)
	assert.Len(t, got.Stats.MergeErrors, 5)
	require.Len(t, coarser.Stats.CurveErrors, 5)
	assert.Equal(t, coarser.Stats.CurveErrors, got.Stats.CurveErrors)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	stats, err := repo.StatsByMethod(ctx, "ward")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].NumClusters)

	assert.Error(t, repo.SaveBatch(ctx, []string{"a"}, "", nil))
	_, err = repo.Get(ctx, "missing")
	assert.Error(t, err)
}
