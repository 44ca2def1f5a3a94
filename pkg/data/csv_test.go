package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tunogya/hcpart/pkg/model"
)

const demandCSV = `,,,,p.u.
profile_name,year,rep_period,time_step,value
NL_Demand,2030,1,2,0.5
NL_Demand,2030,1,1,0.25
NL_Demand,2030,1,3,NaN
NL_Demand,2030,1,4,
NL_Demand,2030,1,x,0.9
BE_Demand,2030,1,1,1.5
NL_Demand,2030,1,5,0.75
`

const availabilityCSV = `units
profile_name,timestep,value
NL_Solar,1,0
NL_Solar,2,0.4
`

const flowsCSV = `,,,
carrier,from_asset,to_asset,active
electricity,NL_Wind,NL_Demand,true
electricity,NL_CCGT,BE_Demand,true
electricity,,NL_Demand,true
`

func writeCase(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		DemandFile:       demandCSV,
		AvailabilityFile: availabilityCSV,
		InflowsFile:      "units\nprofile_name,time_step,value\n",
		FlowsFile:        flowsCSV,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func TestCSVProvider_LoadProfiles(t *testing.T) {
	p := NewCSVProvider(writeCase(t))

	profiles, err := p.LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	assert.Equal(t, model.Profile{Name: "BE_Demand", Values: []float64{1.5}}, profiles[0])
	assert.Equal(t, model.Profile{Name: "NL_Demand", Values: []float64{0.25, 0.5, 0.75}}, profiles[1])
	assert.Equal(t, model.Profile{Name: "NL_Solar", Values: []float64{0, 0.4}}, profiles[2])
}

func TestCSVProvider_LoadFlows(t *testing.T) {
	p := NewCSVProvider(writeCase(t))

	flows, err := p.LoadFlows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Flow{
		{FromAsset: "NL_Wind", ToAsset: "NL_Demand"},
		{FromAsset: "NL_CCGT", ToAsset: "BE_Demand"},
	}, flows)
}

func TestCSVProvider_Errors(t *testing.T) {
	dir := writeCase(t)

	_, err := NewCSVProvider(dir).WithProfileFiles("missing.csv").LoadProfiles(context.Background())
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("units\nname,value\nx,1\n"), 0o644))
	_, err = ReadProfiles(bad)
	assert.ErrorContains(t, err, "missing column")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewCSVProvider(dir).LoadProfiles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryProvider(t *testing.T) {
	p := NewMemoryProvider(nil, []model.Flow{{FromAsset: "a", ToAsset: "b"}})
	p.AddProfiles(model.NewProfile("z", []float64{1}), model.NewProfile("a", []float64{2}))

	profiles, err := p.LoadProfiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "a", profiles[0].Name)

	flows, err := p.LoadFlows(context.Background())
	require.NoError(t, err)
	assert.Len(t, flows, 1)
}
