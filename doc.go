// Package complianceflow is a high-throughput pipeline that evaluates
// synthetic AI usage events against compliance and risk rules and publishes
// aggregated metrics.
//
// # Architecture
//
//	┌──────────────────────────────────────┐
//	│        cmd/complianceflow            │  Flags, config layering,
//	│  (reporter, metrics server, summary) │  signal handling
//	└──────────────────────────────────────┘
//	           ↓ starts
//	┌──────────────────────────────────────┐
//	│            pipeline                  │  Tick schedule, one
//	│   (pkg/worker pool, N workers)       │  store per worker
//	└──────────────────────────────────────┘
//	           ↓ per tick: generate → evaluate → fold
//	┌──────────────┐ ┌────────────┐ ┌──────────────┐
//	│  generator   │ │   rules    │ │  aggregate   │
//	│ (seeded PCG) │ │ (3 systems │ │  (Counters,  │
//	│              │ │  + risk)   │ │   slots)     │
//	└──────────────┘ └────────────┘ └──────────────┘
//	           ↓ every report interval
//	┌──────────────────────────────────────┐
//	│   aggregate.Aggregator → Snapshot    │  atomic publish, history,
//	│                                      │  Prometheus collector
//	└──────────────────────────────────────┘
//
// Events are identified by a dense uint64 ID. Every component of an event is
// a pure function of the run seed and the ID, so totals do not depend on the
// worker count or on how IDs were split between workers.
//
// # Packages
//
//   - ecs: structure-of-arrays component store and the closed catalogs
//     (services, vendors, departments, sensitivity levels)
//   - generator: deterministic per-event draws
//   - rules: EU AI Act, GDPR and internal policy systems plus risk scoring
//   - aggregate: additive counters, per-worker slots, snapshots
//   - pipeline: schedule, workers and lifecycle
//   - config: defaults, JSON/YAML files, environment overrides
//   - metric, health: Prometheus registry, HTTP exporter, health monitor
//   - errors: classified errors (transient, invalid, fatal)
//   - pkg/worker, pkg/buffer: goroutine pool and circular buffer
//
// # Quick Start
//
//	complianceflow --seed=42 --max-events=10000 --threads=4 --no-throttle
//
// The final snapshot is printed as a summary table. Use --metrics-port to
// expose /metrics and /health while running.
package complianceflow
