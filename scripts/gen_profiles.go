package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/data"
)

// country codes of the generated assets
var countries = []string{"NL", "BE", "DE"}

func main() {
	output := flag.String("output", filepath.Join("Cases", "1h"), "Case directory to write")
	hours := flag.Int("hours", 8760, "Number of hourly time steps per profile")
	year := flag.Int("year", 2050, "Milestone year written to every row")
	seed := flag.Int64("seed", 1, "Random seed")
	flag.Parse()

	if err := log.Init(false); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := os.MkdirAll(*output, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	rng := rand.New(rand.NewSource(*seed))

	demand := map[string][]float64{}
	availability := map[string][]float64{}
	inflows := map[string][]float64{}
	var flows [][2]string
	for _, c := range countries {
		demand["N"+c+"_demand"] = demandProfile(rng, *hours)
		availability[c+"_Solar"] = solarProfile(rng, *hours)
		availability[c+"_WindOn"] = windProfile(rng, *hours)
		inflows[c+"_Hydro"] = inflowProfile(rng, *hours)

		flows = append(flows,
			[2]string{c + "_Solar", "N" + c + "_demand"},
			[2]string{c + "_WindOn", "N" + c + "_demand"},
			[2]string{c + "_Hydro", "N" + c + "_demand"},
		)
	}
	for i := 1; i < len(countries); i++ {
		flows = append(flows, [2]string{"N" + countries[i-1] + "_demand", "N" + countries[i] + "_demand"})
	}

	files := map[string]map[string][]float64{
		data.DemandFile:       demand,
		data.AvailabilityFile: availability,
		data.InflowsFile:      inflows,
	}
	for name, profiles := range files {
		path := filepath.Join(*output, name)
		if err := writeProfiles(path, *year, profiles); err != nil {
			log.Fatalf("Failed to write %s: %v", path, err)
		}
		log.Infof("Wrote %d profiles to %s", len(profiles), path)
	}

	path := filepath.Join(*output, data.FlowsFile)
	if err := writeFlows(path, flows); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Infof("Wrote %d flows to %s", len(flows), path)
}

// demandProfile has daily and weekly cycles, a winter peak and noise
func demandProfile(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		hour := float64(t % 24)
		day := t / 24
		daily := 0.15 * math.Sin(2*math.Pi*(hour-8)/24)
		weekend := 0.0
		if day%7 >= 5 {
			weekend = -0.08
		}
		season := 0.1 * math.Cos(2*math.Pi*float64(t)/float64(n))
		out[t] = 0.7 + daily + weekend + season + 0.03*rng.NormFloat64()
	}
	return out
}

// solarProfile is zero at night with a cloudiness factor per day
func solarProfile(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	cloud := 1.0
	for t := range out {
		hour := float64(t % 24)
		if t%24 == 0 {
			cloud = 0.4 + 0.6*rng.Float64()
		}
		season := 0.75 - 0.25*math.Cos(2*math.Pi*float64(t)/float64(n))
		if hour >= 6 && hour <= 20 {
			out[t] = clamp(cloud * season * math.Sin(math.Pi*(hour-6)/14))
		}
	}
	return out
}

// windProfile follows an AR(1) process
func windProfile(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	x := 0.4
	for t := range out {
		x = 0.4 + 0.97*(x-0.4) + 0.05*rng.NormFloat64()
		out[t] = clamp(x)
	}
	return out
}

// inflowProfile peaks in spring and varies slowly
func inflowProfile(rng *rand.Rand, n int) []float64 {
	out := make([]float64, n)
	noise := 0.0
	for t := range out {
		noise = 0.995*noise + 0.01*rng.NormFloat64()
		out[t] = math.Max(0, 50+30*math.Sin(2*math.Pi*(float64(t)/float64(n)-0.1))+50*noise)
	}
	return out
}

func clamp(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

func writeProfiles(path string, year int, profiles map[string][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Write([]string{"", "", "", "", "p.u."})
	w.Write([]string{"profile_name", "year", "rep_period", "timestep", "value"})
	for _, name := range sortedKeys(profiles) {
		for t, v := range profiles[name] {
			w.Write([]string{name, strconv.Itoa(year), "1", strconv.Itoa(t + 1), strconv.FormatFloat(v, 'f', 6, 64)})
		}
	}
	w.Flush()
	return w.Error()
}

func writeFlows(path string, flows [][2]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Write([]string{"", "", "", ""})
	w.Write([]string{"carrier", "from_asset", "to_asset", "active"})
	for _, f := range flows {
		w.Write([]string{"electricity", f[0], f[1], "true"})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write flows: %w", err)
	}
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
