package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tunogya/hcpart/internal/log"
)

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Infof("Serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorf("Metrics server stopped: %v", err)
	}
}
