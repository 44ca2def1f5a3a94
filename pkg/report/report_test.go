package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/model"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriteAssetPartitions(t *testing.T) {
	w := NewWriter(t.TempDir())
	rows := []model.AssetPartition{
		{Asset: "NL_Demand", RepPeriod: 1, Specification: model.SpecExplicit, Partition: "3;1;3"},
	}
	require.NoError(t, w.WriteAssetPartitions(rows))

	want := ",,{uniform;explicit;math},\n" +
		"asset,rep_period,specification,partition\n" +
		"NL_Demand,1,explicit,3;1;3\n"
	assert.Equal(t, want, readFile(t, w.Path(AssetsFile)))
}

func TestWriteFlowPartitions(t *testing.T) {
	w := NewWriter(t.TempDir())
	rows := []model.FlowPartition{
		{FromAsset: "NL_Wind", ToAsset: "NL_Demand", RepPeriod: 1, Specification: model.SpecExplicit, Partition: "2;2"},
	}
	require.NoError(t, w.WriteFlowPartitions(rows))

	want := ",,,{uniform;explicit;math},\n" +
		"from_asset,to_asset,rep_period,specification,partition\n" +
		"NL_Wind,NL_Demand,1,explicit,2;2\n"
	assert.Equal(t, want, readFile(t, w.Path(FlowsFile)))
}

func TestWriteStatsAndErrors(t *testing.T) {
	w := NewWriter(t.TempDir())
	stats := []model.Stats{{
		ProfileName:      "NL_Demand",
		Method:           "ward",
		NumTimesteps:     8,
		NumClusters:      2,
		CompressionRatio: 0.25,
		TotalError:       1.5,
		RuntimeSec:       0.125,
		UniformError:     4,
		MergeErrors:      []float64{0, 0.5, 1, 0, 0, 0},
		CurveErrors:      []float64{0, 0.25, 0.5, 0.5, 0.5, 0.5},
	}}
	require.NoError(t, w.WriteStats(stats))
	require.NoError(t, w.WriteMergeErrors(stats))
	require.NoError(t, w.WriteCurveErrors(stats))

	assert.Equal(t,
		"profile_name,num_timesteps,num_clusters,compression_ratio,total_error,runtime_sec,method,uniform_error\n"+
			"NL_Demand,8,2,0.25,1.5,0.125,ward,4\n",
		readFile(t, w.Path(StatsFile)))
	assert.Equal(t,
		"profile_name,errors\n"+
			"NL_Demand,\"[0.0, 0.5, 1.0, 0.0, 0.0, 0.0]\"\n",
		readFile(t, w.Path(MergeErrorsFile)))
	assert.Equal(t,
		"profile_name,ldc_errors\n"+
			"NL_Demand,\"[0.0, 0.25, 0.5, 0.5, 0.5, 0.5]\"\n",
		readFile(t, w.Path(CurveErrorsFile)))
}

func TestWriteDiagnostics(t *testing.T) {
	w := NewWriter(t.TempDir())

	require.NoError(t, w.WriteDurationCurves([]model.DurationCurve{
		{ProfileName: "p", Original: []float64{3, 1}, Reduced: []float64{2, 2}},
	}))
	assert.Equal(t, "profile_name,rank,original,reduced\np,1,3,2\np,2,1,2\n", readFile(t, w.Path(CurvesFile)))

	require.NoError(t, w.WriteErrorBands([]model.ErrorBand{{Merge: 1, Mean: 0.5, Std: 0.25, Count: 2}}))
	assert.Equal(t, "merge,mean,std,count\n1,0.5,0.25,2\n", readFile(t, w.Path(BandsFile)))

	require.NoError(t, w.WriteMethodSummary([]model.MethodSummary{{Method: "ward", Profiles: 1}}))
	assert.Contains(t, readFile(t, w.Path(SummaryFile)), "ward,1,0,0,0,0,0,0\n")
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "[]", FormatList(nil))
	assert.Equal(t, "[1.0, 2.5, 1e-20]", FormatList([]float64{1, 2.5, 1e-20}))
	assert.Equal(t, "[NaN]", FormatList([]float64{math.NaN()}))
}

func TestPrepareOutputDir(t *testing.T) {
	input := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(input, "flows-data.csv"), []byte("a,b\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(input, "notes.txt"), []byte("skip"), 0o644))

	out := filepath.Join(t.TempDir(), "C672_ward")
	require.NoError(t, PrepareOutputDir(input, out))

	assert.Equal(t, "a,b\n", readFile(t, filepath.Join(out, "flows-data.csv")))
	_, err := os.Stat(filepath.Join(out, "notes.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, PrepareOutputDir(input, out), "re-running overwrites")
}

func TestWriter_MissingDir(t *testing.T) {
	w := NewWriter(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, w.WriteStats(nil))
}

func TestWriteUniformPartitions(t *testing.T) {
	w := NewWriter(t.TempDir())
	require.NoError(t, w.WriteUniformPartitions([]model.AssetPartition{model.NewUniformPartition("NL_Demand", 24)}))

	want := ",,{uniform;explicit;math},\n" +
		"asset,rep_period,specification,partition\n" +
		"NL_Demand,1,uniform,24\n"
	assert.Equal(t, want, readFile(t, w.Path(UniformFile)))
}
