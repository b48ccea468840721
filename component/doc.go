// Package component defines the lifecycle shared by long-running parts of
// complianceflow.
//
// A component is created, started once, and stopped once:
//
//	created → started → stopping → stopped
//	                 ↘ failed
//
// StateTracker performs these transitions atomically so concurrent Start and
// Stop calls observe a single winner. The pipeline reports its state through
// the component status gauge in the metric package.
package component
