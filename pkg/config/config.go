// Package config holds the run configuration of the partition tool. Values
// come from defaults, an optional YAML file and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/model"
)

// Config is the complete configuration of one partition run
type Config struct {
	InputDir   string         `yaml:"input_dir"`   // Tulipa case directory with the input CSV files
	OutputRoot string         `yaml:"output_root"` // directory receiving C{k}_{method}/
	Cluster    cluster.Config `yaml:"cluster"`
	Workers    int            `yaml:"workers"`        // local pool size, 0 uses every CPU
	UniformLen int            `yaml:"uniform_length"` // block length of the uniform baseline file, 0 disables it
	Debug      bool           `yaml:"debug"`

	Diagnostics Diagnostics `yaml:"diagnostics"`
	NATS        NATS        `yaml:"nats"`
	DuckDB      DuckDB      `yaml:"duckdb"`
	Milvus      Milvus      `yaml:"milvus"`
	MetricsAddr string      `yaml:"metrics_addr"` // serve /metrics on this address when set
}

// Diagnostics selects the diagnostic outputs
type Diagnostics struct {
	DurationCurves bool   `yaml:"duration_curves"`
	CurvePrefix    string `yaml:"curve_prefix"` // only profiles starting with this prefix get curves
}

// NATS configures the distributed mode
type NATS struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
}

// DuckDB configures result persistence
type DuckDB struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Milvus configures shape indexing
type Milvus struct {
	Enabled    bool   `yaml:"enabled"`
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
}

// DefaultConfig returns the configuration of the reference experiment:
// 672 peaks-and-lows clusters over the 1h case
func DefaultConfig() Config {
	clusterCfg := cluster.DefaultConfig(cluster.MethodPeaksAndLows, 672)
	clusterCfg.CurveErrors = true
	return Config{
		InputDir:   filepath.Join("Cases", "1h"),
		OutputRoot: "Cases",
		Cluster:    clusterCfg,
		Diagnostics: Diagnostics{
			DurationCurves: true,
			CurvePrefix:    "N",
		},
		NATS:   NATS{URL: "nats://localhost:4222"},
		DuckDB: DuckDB{Path: "hcpart.duckdb"},
		Milvus: Milvus{
			Address:    "localhost:19530",
			Collection: "profile_shapes",
			Dimension:  model.VectorDim96,
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Normalized returns c with the method name in canonical form, so that the
// output directory and result IDs never depend on how the method was spelled
func (c Config) Normalized() (Config, error) {
	cl, err := c.Cluster.Normalized()
	if err != nil {
		return c, fmt.Errorf("invalid cluster config: %w", err)
	}
	c.Cluster = cl
	return c, nil
}

// Validate checks the configuration before any file is touched
func (c Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("input directory is required")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("output root is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.UniformLen < 0 {
		return fmt.Errorf("uniform length must be non-negative, got %d", c.UniformLen)
	}
	if c.Milvus.Enabled && c.Milvus.Dimension < 2 {
		return fmt.Errorf("milvus dimension must be at least 2, got %d", c.Milvus.Dimension)
	}
	if err := c.Cluster.Validate(); err != nil {
		return fmt.Errorf("invalid cluster config: %w", err)
	}
	return nil
}

// OutputDir returns the run directory, e.g. Cases/C672_peaks_and_lows
func (c Config) OutputDir() string {
	return filepath.Join(c.OutputRoot, c.Cluster.Name())
}
