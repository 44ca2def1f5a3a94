package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/tunogya/hcpart/pkg/model"
)

// CSVProvider implements ProfileProvider and FlowProvider for a directory of
// Tulipa-format CSV files. Each file starts with a units line, followed by
// the header line and the records.
type CSVProvider struct {
	dir          string
	profileFiles []string
	flowsFile    string
}

// NewCSVProvider creates a provider reading the default files from dir
func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{
		dir:          dir,
		profileFiles: DefaultProfileFiles(),
		flowsFile:    FlowsFile,
	}
}

// WithProfileFiles overrides the profile files read from the directory
func (p *CSVProvider) WithProfileFiles(files ...string) *CSVProvider {
	p.profileFiles = files
	return p
}

// Dir returns the case directory
func (p *CSVProvider) Dir() string {
	return p.dir
}

// LoadProfiles reads every profile file in order. Within a file profiles are
// sorted by name and their values by time step.
func (p *CSVProvider) LoadProfiles(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	for _, name := range p.profileFiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := ReadProfiles(filepath.Join(p.dir, name))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, loaded...)
	}
	return profiles, nil
}

// LoadFlows reads the flows file of the directory
func (p *CSVProvider) LoadFlows(ctx context.Context) ([]model.Flow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFlows(filepath.Join(p.dir, p.flowsFile))
}

// ReadProfiles loads one profile file
func ReadProfiles(path string) ([]model.Profile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	profiles, err := parseProfiles(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return profiles, nil
}

type sample struct {
	step  int
	value float64
}

func parseProfiles(r io.Reader) ([]model.Profile, error) {
	reader, colMap, err := openTable(r)
	if err != nil {
		return nil, err
	}

	stepCol := "time_step"
	if _, ok := colMap[stepCol]; !ok {
		stepCol = "timestep"
	}
	for _, col := range []string{"profile_name", stepCol, "value"} {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	samples := make(map[string][]sample)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		getValue := func(name string) string {
			if idx := colMap[name]; idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		name := getValue("profile_name")
		raw := getValue("value")
		if name == "" || raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(value) {
			continue
		}
		step, err := strconv.Atoi(getValue(stepCol))
		if err != nil {
			continue // Skip invalid records
		}
		samples[name] = append(samples[name], sample{step: step, value: value})
	}

	names := make([]string, 0, len(samples))
	for name := range samples {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]model.Profile, 0, len(names))
	for _, name := range names {
		s := samples[name]
		sort.SliceStable(s, func(i, j int) bool { return s[i].step < s[j].step })
		values := make([]float64, len(s))
		for i := range s {
			values[i] = s[i].value
		}
		profiles = append(profiles, model.Profile{Name: name, Values: values})
	}
	return profiles, nil
}

// ReadFlows loads a flows file; rows without both assets are skipped
func ReadFlows(path string) ([]model.Flow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader, colMap, err := openTable(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	from, okFrom := colMap["from_asset"]
	to, okTo := colMap["to_asset"]
	if !okFrom || !okTo {
		return nil, fmt.Errorf("failed to parse %s: missing from_asset/to_asset columns", filepath.Base(path))
	}

	var flows []model.Flow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if from >= len(record) || to >= len(record) {
			continue
		}
		f := model.Flow{FromAsset: strings.TrimSpace(record[from]), ToAsset: strings.TrimSpace(record[to])}
		if f.FromAsset == "" || f.ToAsset == "" {
			continue
		}
		flows = append(flows, f)
	}
	return flows, nil
}

// openTable skips the units line and maps the header columns to indices
func openTable(r io.Reader) (*csv.Reader, map[string]int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV units line: %w", err)
	}
	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return reader, colMap, nil
}
