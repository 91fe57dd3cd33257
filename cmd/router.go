package main

import (
	"net/http"

	"github.com/angeloszaimis/lbhealth/internal/handler"
	"github.com/angeloszaimis/lbhealth/internal/metrics"
)

func setupRouter(probe *handler.ProbeHandler, metricsCollector *metrics.Collector) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/", probe)
	mux.HandleFunc("/metrics", metricsCollector.Handler())

	return mux
}
