// Package health tracks the health of pipeline components and aggregates
// them into one system status.
//
// # Health States
//
// The package supports three health states:
//   - Healthy: component operating normally
//   - Degraded: component operating with reduced capacity
//   - Unhealthy: component stopped or not functioning
//
// # Basic Usage
//
//	monitor := health.NewMonitor()
//	monitor.Update("aggregator", health.NewHealthy("aggregator", "publishing"))
//	monitor.Update("worker-3", health.FromError("worker-3", err))
//
//	workers := health.Quorum("workers", monitor.WithPrefix("worker-"))
//	aggregator, _ := monitor.Get("aggregator")
//	system := health.Aggregate("complianceflow", []health.Status{aggregator, workers})
//
// Aggregate is strict: any unhealthy sub-status makes the result unhealthy.
// Quorum is meant for interchangeable replicas such as workers: losing some
// of them degrades the group, losing all of them makes it unhealthy.
//
// # Errors
//
// FromError maps errors through their classification. Fatal errors (worker
// invariant violations, recovered panics) are unhealthy; transient and
// invalid errors are degraded. URLs, absolute paths and credentials are
// masked before a message reaches the /health endpoint.
//
// # HTTP
//
// Handler serves a status function as JSON. It answers 503 only when the
// status is unhealthy.
//
// # Thread Safety
//
// Monitor methods are safe for concurrent use.
package health
