// Package metrics exposes vector store operation metrics to Prometheus.
//
// It bundles three things: an isolated Prometheus registry, the
// vectordb.MetricsObserver that records every store operation into that
// registry, and an HTTP server serving /metrics for scraping.
//
// # Usage
//
//	m := metrics.NewMetrics(metrics.NewConfig())
//	s, err := store.New(cfg, store.WithObserver(m.Observer))
//	...
//	go m.Server.ListenAndServe()
//
// The observer records, per provider/operation/collection:
//
//   - operation counts, labelled by outcome
//   - operation latency histograms
//   - batch size histograms for document-carrying operations
//
// # Environment variables
//
//   - METRICS_ADDRESS: listen address (default ":9090")
//   - METRICS_SERVICE_NAME: constant "service" label on all metrics
//   - METRICS_DEFAULT_COLLECTORS: "false" disables the Go runtime,
//     process and build info collectors
//
// # Dependency Injection (Fx)
//
// FXModule provides *Metrics, binds the observer as vectordb.Observer
// (which the store module consumes automatically) and manages the HTTP
// server lifecycle.
package metrics
