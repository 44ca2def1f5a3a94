// Package report writes the partition files and diagnostics of a run into
// its output directory.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tunogya/hcpart/pkg/model"
)

// Output file names
const (
	AssetsFile      = "assets-rep-periods-partitions.csv"
	UniformFile     = "assets-rep-periods-partitions-uniform.csv"
	FlowsFile       = "flows-rep-periods-partitions.csv"
	StatsFile       = "profile-stats.csv"
	MergeErrorsFile = "cummulative_errors_per_profile.csv"
	CurveErrorsFile = "ldc_errors_per_profile.csv"
	CurvesFile      = "load-duration-curves.csv"
	BandsFile       = "cumulative-error-summary.csv"
	SummaryFile     = "method-summary.csv"
)

const specificationHeader = "{uniform;explicit;math}"

// Writer writes report files into one directory
type Writer struct {
	dir string
}

// NewWriter creates a writer for dir, which must exist
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}

// Path returns the full path of a report file
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteAssetPartitions writes the explicit partition of every asset. The file
// carries two header rows, the first one naming the allowed specifications.
func (w *Writer) WriteAssetPartitions(rows []model.AssetPartition) error {
	return w.writeAssets(AssetsFile, rows)
}

// WriteUniformPartitions writes the uniform baseline partitions in the same
// layout as the explicit ones
func (w *Writer) WriteUniformPartitions(rows []model.AssetPartition) error {
	return w.writeAssets(UniformFile, rows)
}

func (w *Writer) writeAssets(name string, rows []model.AssetPartition) error {
	return w.write(name, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"", "", specificationHeader, ""}); err != nil {
			return err
		}
		if err := cw.Write([]string{"asset", "rep_period", "specification", "partition"}); err != nil {
			return err
		}
		for _, r := range rows {
			if err := cw.Write([]string{r.Asset, strconv.Itoa(r.RepPeriod), r.Specification, r.Partition}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteFlowPartitions writes the partition inherited by every flow
func (w *Writer) WriteFlowPartitions(rows []model.FlowPartition) error {
	return w.write(FlowsFile, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"", "", "", specificationHeader, ""}); err != nil {
			return err
		}
		if err := cw.Write([]string{"from_asset", "to_asset", "rep_period", "specification", "partition"}); err != nil {
			return err
		}
		for _, r := range rows {
			record := []string{r.FromAsset, r.ToAsset, strconv.Itoa(r.RepPeriod), r.Specification, r.Partition}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteStats writes one row of run statistics per profile
func (w *Writer) WriteStats(stats []model.Stats) error {
	return w.write(StatsFile, func(cw *csv.Writer) error {
		header := []string{"profile_name", "num_timesteps", "num_clusters", "compression_ratio",
			"total_error", "runtime_sec", "method", "uniform_error"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, s := range stats {
			record := []string{
				s.ProfileName,
				strconv.Itoa(s.NumTimesteps),
				strconv.Itoa(s.NumClusters),
				formatFloat(s.CompressionRatio),
				formatFloat(s.TotalError),
				formatFloat(s.RuntimeSec),
				s.Method,
				formatFloat(s.UniformError),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMergeErrors writes the merge errors of every profile as a list
// literal, e.g. "[0.0, 0.5, 2.25]"
func (w *Writer) WriteMergeErrors(stats []model.Stats) error {
	return w.write(MergeErrorsFile, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"profile_name", "errors"}); err != nil {
			return err
		}
		for _, s := range stats {
			if err := cw.Write([]string{s.ProfileName, FormatList(s.MergeErrors)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCurveErrors writes the load duration curve RMSE after every merge of
// every profile, in the same list format as WriteMergeErrors
func (w *Writer) WriteCurveErrors(stats []model.Stats) error {
	return w.write(CurveErrorsFile, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"profile_name", "ldc_errors"}); err != nil {
			return err
		}
		for _, s := range stats {
			if err := cw.Write([]string{s.ProfileName, FormatList(s.CurveErrors)}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteDurationCurves writes the original and reduced load duration curves in
// long format, one row per profile and rank
func (w *Writer) WriteDurationCurves(curves []model.DurationCurve) error {
	return w.write(CurvesFile, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"profile_name", "rank", "original", "reduced"}); err != nil {
			return err
		}
		for _, c := range curves {
			for i := range c.Original {
				reduced := ""
				if i < len(c.Reduced) {
					reduced = formatFloat(c.Reduced[i])
				}
				record := []string{c.ProfileName, strconv.Itoa(i + 1), formatFloat(c.Original[i]), reduced}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// WriteErrorBands writes the mean and spread of cumulative error per merge
func (w *Writer) WriteErrorBands(bands []model.ErrorBand) error {
	return w.write(BandsFile, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"merge", "mean", "std", "count"}); err != nil {
			return err
		}
		for _, b := range bands {
			record := []string{strconv.Itoa(b.Merge), formatFloat(b.Mean), formatFloat(b.Std), strconv.Itoa(b.Count)}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMethodSummary writes the cross-profile summary of every method
func (w *Writer) WriteMethodSummary(summaries []model.MethodSummary) error {
	return w.write(SummaryFile, func(cw *csv.Writer) error {
		header := []string{"method", "profiles", "total_error_mean", "total_error_p10", "total_error_p50",
			"total_error_p90", "runtime_sec_total", "uniform_gain_mean"}
		if err := cw.Write(header); err != nil {
			return err
		}
		for _, s := range summaries {
			record := []string{
				s.Method,
				strconv.Itoa(s.Profiles),
				formatFloat(s.TotalErrorMean),
				formatFloat(s.TotalErrorP10),
				formatFloat(s.TotalErrorP50),
				formatFloat(s.TotalErrorP90),
				formatFloat(s.RuntimeSecTotal),
				formatFloat(s.UniformGainMean),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

// write creates name in the output directory and fills it through fn
func (w *Writer) write(name string, fn func(cw *csv.Writer) error) error {
	path := w.Path(name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	cw := csv.NewWriter(file)
	if err := fn(cw); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return file.Close()
}

// FormatList renders values as a bracketed list literal
func FormatList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = listFloat(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// listFloat formats v so that whole numbers keep a decimal point
func listFloat(v float64) string {
	s := formatFloat(v)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// PrepareOutputDir creates dir and copies every CSV file of inputDir into it,
// so that the output directory is a complete case on its own
func PrepareOutputDir(inputDir, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(inputDir, "*.csv"))
	if err != nil {
		return fmt.Errorf("failed to list input files: %w", err)
	}
	for _, src := range matches {
		if err := copyFile(src, filepath.Join(dir, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
