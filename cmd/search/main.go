package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/cluster"
	"github.com/tunogya/hcpart/pkg/feature"
	"github.com/tunogya/hcpart/pkg/model"
	"github.com/tunogya/hcpart/pkg/rerank"
	"github.com/tunogya/hcpart/pkg/store/duckdb"
	"github.com/tunogya/hcpart/pkg/store/milvus"
)

type Config struct {
	Profile   string
	Method    string
	Clusters  int
	AnyMethod bool

	DuckDBPath string
	MilvusAddr string
	Collection string
	VectorDim  int
	TopK       int
	Debug      bool
}

func main() {
	cfg := parseFlags()
	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	method, err := cluster.ParseMethod(cfg.Method)
	if err != nil {
		log.Fatalf("Invalid method: %v", err)
	}

	duckClient, err := duckdb.NewClient(cfg.DuckDBPath)
	if err != nil {
		log.Fatalf("Failed to connect to DuckDB: %v", err)
	}
	defer duckClient.Close()

	profile, err := duckdb.NewProfileRepo(duckClient).Get(ctx, cfg.Profile)
	if err != nil {
		log.Fatalf("Failed to load profile %s: %v", cfg.Profile, err)
	}
	log.Infof("Loaded %s with %d timesteps", profile.Name, profile.Len())

	// Reduce the query the same way the indexed shapes were reduced
	result, err := cluster.Cluster(profile, cluster.DefaultConfig(method, cfg.Clusters))
	if err != nil {
		log.Fatalf("Failed to cluster query profile: %v", err)
	}
	extractor := feature.NewExtractor(cfg.VectorDim)
	queryID := model.GenerateResultID(profile.Name, string(method), cfg.Clusters, cluster.DefaultConfig(method, cfg.Clusters).Params())
	_, shape := extractor.Extract(queryID, profile, result)

	milvusClient, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.MilvusAddr})
	if err != nil {
		log.Fatalf("Failed to connect to Milvus: %v", err)
	}
	defer milvusClient.Close()

	if err := milvusClient.LoadCollection(ctx, cfg.Collection); err != nil {
		log.Fatalf("Failed to load collection: %v", err)
	}

	filter := milvus.Filter(string(method), 0)
	if cfg.AnyMethod {
		filter = ""
	}
	// one extra hit, the query itself is usually indexed
	results, err := milvusClient.Search(ctx, cfg.Collection, shape.Vector, filter, cfg.TopK+1)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	ranked := rerank.NewReranker(rerank.DefaultResolutionConfig()).Rerank(results, cfg.Clusters)

	fmt.Printf("Profiles shaped like %s (%s, %d clusters, total error %.4g)\n\n",
		profile.Name, method, result.Partition.Len(), result.TotalError)
	fmt.Printf("%-5s %-24s %-16s %-9s %-12s %-8s %-8s\n", "Rank", "Profile", "Method", "Clusters", "TotalError", "Score", "Final")
	fmt.Println("--------------------------------------------------------------------------------------")

	rank := 0
	for _, r := range ranked {
		if r.ProfileName == profile.Name && r.Method == string(method) && r.NumClusters == cfg.Clusters {
			continue
		}
		rank++
		if rank > cfg.TopK {
			break
		}
		fmt.Printf("%-5d %-24s %-16s %-9d %-12.4g %-8.4f %-8.4f\n",
			rank, r.ProfileName, r.Method, r.NumClusters, r.TotalError, r.OriginalScore, r.FinalScore)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Profile, "profile", "", "Profile name to search with")
	flag.StringVar(&cfg.Method, "method", string(cluster.MethodPeaksAndLows), "Clustering method of the query")
	flag.IntVar(&cfg.Clusters, "clusters", 672, "Target clusters of the query")
	flag.BoolVar(&cfg.AnyMethod, "any-method", false, "Search shapes of every method")
	flag.StringVar(&cfg.DuckDBPath, "duckdb", "hcpart.duckdb", "DuckDB path")
	flag.StringVar(&cfg.MilvusAddr, "milvus", "localhost:19530", "Milvus address")
	flag.StringVar(&cfg.Collection, "collection", milvus.DefaultCollectionName, "Milvus collection")
	flag.IntVar(&cfg.VectorDim, "dim", model.VectorDim96, "Vector dimension")
	flag.IntVar(&cfg.TopK, "topk", 10, "Top K results")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	flag.Parse()

	if cfg.Profile == "" {
		fmt.Println("Usage: search -profile <name> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	return cfg
}
