// Package metric provides Prometheus-based metrics collection and an HTTP
// server for complianceflow monitoring.
//
// The package offers a centralized metrics registry managing both core
// pipeline metrics (worker batches and faults, snapshot publication, health)
// and component-specific collectors. The HTTP server exposes everything in
// Prometheus format.
//
// # Architecture
//
//  1. Core Metrics: pipeline-level metrics registered automatically (Metrics type)
//  2. Registry: extensible registration for component metrics (Registrar interface)
//  3. HTTP Server: metrics endpoint plus a pluggable health endpoint (Server type)
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry,
//	    metric.WithHealthHandler(healthHandler))
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        logger.Error("metrics server failed", "error", err)
//	    }
//	}()
//	defer server.Shutdown(ctx)
//
//	registry.CoreMetrics().RecordBatch(workerID, elapsed)
//
// # Snapshot Collectors
//
// Aggregated domain values (events, rule violations, risk levels) are not
// kept in live counters. The aggregator publishes immutable snapshots and a
// custom collector reads the latest one at scrape time:
//
//	registry.Register("aggregator", "snapshot", aggregate.NewCollector(agg))
//
// # Error Handling
//
// Registration errors follow the errors package conventions: duplicate
// registrations are invalid, unexpected Prometheus failures are fatal.
package metric
