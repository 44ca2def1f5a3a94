package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/config"
	"github.com/tunogya/hcpart/pkg/data"
	"github.com/tunogya/hcpart/pkg/model"
	"github.com/tunogya/hcpart/pkg/pipeline"
	"github.com/tunogya/hcpart/pkg/queue/nats"
	"github.com/tunogya/hcpart/pkg/store/duckdb"
	"github.com/tunogya/hcpart/pkg/store/milvus"
	"github.com/tunogya/hcpart/pkg/worker"
)

func main() {
	cfg := parseFlags()
	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Infow("starting partition run",
		"input", cfg.InputDir,
		"method", cfg.Cluster.Method,
		"clusters", cfg.Cluster.Clusters,
		"params", cfg.Cluster.Params(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	backend := pipeline.Local(worker.Config{Workers: cfg.Workers})
	if cfg.NATS.Enabled {
		natsCfg := nats.DefaultConfig()
		natsCfg.URL = cfg.NATS.URL
		natsClient, err := nats.NewClient(natsCfg)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsClient.Close()

		if err := natsClient.EnsureStream(ctx); err != nil {
			log.Fatalf("Failed to create stream: %v", err)
		}
		dispatcher := nats.NewDispatcher(natsClient)
		runID := cfg.Cluster.Name() + "-" + strconv.FormatInt(time.Now().UnixNano(), 10)
		backend = pipeline.BackendFunc(func(ctx context.Context, profiles []model.Profile, c cluster.Config) ([]*model.ClusteringResult, error) {
			return dispatcher.Run(ctx, runID, profiles, c)
		})
		log.Infow("distributed mode", "nats", cfg.NATS.URL, "run", runID)
	}

	p := pipeline.New(cfg, data.NewCSVProvider(cfg.InputDir), backend)

	if cfg.DuckDB.Enabled {
		duckClient, err := duckdb.NewClient(cfg.DuckDB.Path)
		if err != nil {
			log.Fatalf("Failed to connect to DuckDB: %v", err)
		}
		defer duckClient.Close()

		if err := duckdb.InitializeSchema(ctx, duckClient); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		p.WithProfileSink(duckdb.NewProfileRepo(duckClient)).
			WithResultSink(duckdb.NewResultRepo(duckClient))
	}

	if cfg.Milvus.Enabled {
		milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
		if err != nil {
			log.Fatalf("Failed to connect to Milvus: %v", err)
		}
		defer milvusClient.Close()

		collection := milvus.DefaultCollectionConfig()
		collection.Name = cfg.Milvus.Collection
		collection.Dimension = cfg.Milvus.Dimension
		if err := milvusClient.EnsureCollection(ctx, collection); err != nil {
			log.Fatalf("Failed to prepare Milvus collection: %v", err)
		}
		p.WithShapeIndex(milvusClient, collection.Name)
		defer func() {
			if err := milvusClient.Flush(context.Background(), collection.Name); err != nil {
				log.Warnf("Failed to flush Milvus: %v", err)
			}
		}()
	}

	out, err := p.Run(ctx)
	if err != nil {
		log.Fatalf("Partition run failed: %v", err)
	}

	fmt.Printf("Wrote %d partitions to %s in %s\n", len(out.Results), out.OutputDir, out.Elapsed.Round(time.Millisecond))
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("Metrics server stopped: %v", err)
	}
}

func parseFlags() config.Config {
	def := config.DefaultConfig()

	var (
		configPath string
		method     string
		cfg        = def
	)

	flag.StringVar(&configPath, "config", "", "Optional YAML run configuration")
	flag.StringVar(&cfg.InputDir, "input", def.InputDir, "Case directory with the input CSV files")
	flag.StringVar(&cfg.OutputRoot, "output", def.OutputRoot, "Root directory receiving C{k}_{method}/")
	flag.StringVar(&method, "method", string(def.Cluster.Method), "Clustering method: ward, integral_cost, quantile, penalized, peaks_and_lows")
	flag.IntVar(&cfg.Cluster.Clusters, "clusters", def.Cluster.Clusters, "Target number of segments per profile")
	flag.Float64Var(&cfg.Cluster.Alpha, "alpha", def.Cluster.Alpha, "Quantile bias or extreme threshold, 0 selects the method default")
	flag.Float64Var(&cfg.Cluster.Lambda, "lambda", def.Cluster.Lambda, "Length-dispersion penalty of the penalized method")
	flag.BoolVar(&cfg.Cluster.PreserveExtremes, "extremes", def.Cluster.PreserveExtremes, "Preserve peaks and lows on top of any method")
	flag.IntVar(&cfg.Cluster.ExtremeWindow, "extreme-window", def.Cluster.ExtremeWindow, "Timesteps on each side an extreme must dominate")
	flag.BoolVar(&cfg.Cluster.CurveErrors, "ldc", def.Cluster.CurveErrors, "Record the load duration curve error after every merge")
	flag.IntVar(&cfg.Workers, "workers", def.Workers, "Local worker count, 0 uses every CPU")
	flag.IntVar(&cfg.UniformLen, "uniform", def.UniformLen, "Also write a uniform partition file with this block length")
	flag.BoolVar(&cfg.NATS.Enabled, "nats", def.NATS.Enabled, "Distribute profiles to NATS workers")
	flag.StringVar(&cfg.NATS.URL, "nats-url", def.NATS.URL, "NATS server URL")
	flag.BoolVar(&cfg.DuckDB.Enabled, "duckdb", def.DuckDB.Enabled, "Store profiles and results in DuckDB")
	flag.StringVar(&cfg.DuckDB.Path, "duckdb-path", def.DuckDB.Path, "DuckDB file path")
	flag.BoolVar(&cfg.Milvus.Enabled, "milvus", def.Milvus.Enabled, "Index reduced profile shapes in Milvus")
	flag.StringVar(&cfg.Milvus.Address, "milvus-addr", def.Milvus.Address, "Milvus server address")
	flag.StringVar(&cfg.MetricsAddr, "metrics", def.MetricsAddr, "Serve Prometheus metrics on this address")
	flag.BoolVar(&cfg.Debug, "debug", def.Debug, "Enable debug logging")

	flag.Parse()

	if configPath == "" {
		cfg.Cluster.Method = cluster.Method(method)
		return normalize(cfg)
	}

	// flags given on the command line win over the file
	fileCfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	override(set, "input", &fileCfg.InputDir, cfg.InputDir)
	override(set, "output", &fileCfg.OutputRoot, cfg.OutputRoot)
	override(set, "method", &fileCfg.Cluster.Method, cluster.Method(method))
	override(set, "clusters", &fileCfg.Cluster.Clusters, cfg.Cluster.Clusters)
	override(set, "alpha", &fileCfg.Cluster.Alpha, cfg.Cluster.Alpha)
	override(set, "lambda", &fileCfg.Cluster.Lambda, cfg.Cluster.Lambda)
	override(set, "extremes", &fileCfg.Cluster.PreserveExtremes, cfg.Cluster.PreserveExtremes)
	override(set, "extreme-window", &fileCfg.Cluster.ExtremeWindow, cfg.Cluster.ExtremeWindow)
	override(set, "ldc", &fileCfg.Cluster.CurveErrors, cfg.Cluster.CurveErrors)
	override(set, "workers", &fileCfg.Workers, cfg.Workers)
	override(set, "uniform", &fileCfg.UniformLen, cfg.UniformLen)
	override(set, "nats", &fileCfg.NATS.Enabled, cfg.NATS.Enabled)
	override(set, "nats-url", &fileCfg.NATS.URL, cfg.NATS.URL)
	override(set, "duckdb", &fileCfg.DuckDB.Enabled, cfg.DuckDB.Enabled)
	override(set, "duckdb-path", &fileCfg.DuckDB.Path, cfg.DuckDB.Path)
	override(set, "milvus", &fileCfg.Milvus.Enabled, cfg.Milvus.Enabled)
	override(set, "milvus-addr", &fileCfg.Milvus.Address, cfg.Milvus.Address)
	override(set, "metrics", &fileCfg.MetricsAddr, cfg.MetricsAddr)
	override(set, "debug", &fileCfg.Debug, cfg.Debug)
	return normalize(fileCfg)
}

func normalize(cfg config.Config) config.Config {
	out, err := cfg.Normalized()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	return out
}

func override[T any](set map[string]bool, name string, dst *T, v T) {
	if set[name] {
		*dst = v
	}
}
