package metrics

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oneiric-ai/vecstore/v1/vectordb"
)

// Config controls the metrics endpoint.
type Config struct {
	// Address the /metrics HTTP server listens on, e.g. ":9090".
	Address string `yaml:"address" env:"METRICS_ADDRESS"`

	// ServiceName is attached as a constant "service" label to every
	// metric emitted through the registry.
	ServiceName string `yaml:"service_name" env:"METRICS_SERVICE_NAME"`

	// EnableDefaultCollectors additionally registers the Go runtime,
	// process and build info collectors.
	EnableDefaultCollectors bool `yaml:"enable_default_collectors" env:"METRICS_DEFAULT_COLLECTORS"`
}

// NewConfig reads from environment variables.
func NewConfig() Config {
	addr := os.Getenv("METRICS_ADDRESS")
	if addr == "" {
		addr = ":9090"
	}
	return Config{
		Address:                 addr,
		ServiceName:             os.Getenv("METRICS_SERVICE_NAME"),
		EnableDefaultCollectors: os.Getenv("METRICS_DEFAULT_COLLECTORS") != "false",
	}
}

// Metrics bundles the Prometheus registry, the store observer that
// feeds it, and the HTTP server exposing /metrics for scraping.
type Metrics struct {
	// Server exposes the registry for Prometheus scraping.
	Server *http.Server

	// Registry is an isolated registry, so multiple services in one
	// process never collide on metric names.
	Registry *prometheus.Registry

	// Observer records every vector store operation into the registry.
	// Pass it to the store factory via store.WithObserver.
	Observer *vectordb.MetricsObserver
}

// NewMetrics builds an isolated registry with the store operation
// collectors registered, plus an HTTP server exposing it.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.NewConfig())
//	s, err := store.New(cfg, store.WithObserver(m.Observer))
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	// Every metric carries service="<name>" for aggregation across
	// deployments.
	var registerer prometheus.Registerer = registry
	if cfg.ServiceName != "" {
		registerer = prometheus.WrapRegistererWith(
			prometheus.Labels{"service": cfg.ServiceName},
			registry,
		)
	}

	observer := vectordb.NewMetricsObserver(registerer)

	if cfg.EnableDefaultCollectors {
		registerer.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &Metrics{
		Server: &http.Server{
			Addr:    cfg.Address,
			Handler: handler,
		},
		Registry: registry,
		Observer: observer,
	}
}
