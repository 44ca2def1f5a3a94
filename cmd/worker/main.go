package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tunogya/hcpart/internal/log"
	"github.com/tunogya/hcpart/pkg/queue/nats"
	"github.com/tunogya/hcpart/pkg/worker"
)

// Config holds clustering worker configuration
type Config struct {
	NATSUrl     string
	Consumer    string
	MetricsAddr string
	Debug       bool
}

func main() {
	cfg := parseFlags()
	if err := log.Init(cfg.Debug); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	name := nats.WorkerName()
	log.Infow("starting clustering worker", "worker", name, "nats", cfg.NATSUrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	natsCfg := nats.DefaultConfig()
	natsCfg.URL = cfg.NATSUrl
	natsClient, err := nats.NewClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer natsClient.Close()

	if err := natsClient.EnsureStream(ctx); err != nil {
		log.Fatalf("Failed to create stream: %v", err)
	}

	// Workers share one durable consumer, so each job goes to a single worker
	consumer, err := natsClient.Subscribe(ctx, nats.SubjectJobs, cfg.Consumer, nats.JobHandler(natsClient, name, worker.Process))
	if err != nil {
		log.Fatalf("Failed to subscribe to jobs: %v", err)
	}
	defer consumer.Stop()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	log.Infof("Worker %s waiting for jobs on %s", name, nats.SubjectJobs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Infof("Shutting down worker %s", name)
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.NATSUrl, "nats", "nats://localhost:4222", "NATS server URL")
	flag.StringVar(&cfg.Consumer, "consumer", "hcpart-workers", "Durable consumer shared by all workers")
	flag.StringVar(&cfg.MetricsAddr, "metrics", "", "Serve Prometheus metrics on this address")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable debug logging")

	flag.Parse()
	return cfg
}
