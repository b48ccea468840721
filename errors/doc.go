// Package errors provides standardized error handling patterns for complianceflow components.
//
// # Overview
//
// Errors fall into three classes: Transient (the condition may clear on its
// own), Invalid (bad input or configuration, reject and report) and Fatal
// (stop the component that observed it).
//
// In the pipeline the classes map onto concrete handling:
//
//   - Invalid: configuration rejected at startup, the process exits non-zero
//   - Fatal: an invariant violation inside a worker, the batch is discarded
//     and that worker stops while the others keep running
//   - Transient: shutdown and cancellation, never reported as faults
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: underlying error"
//
// For example:
//
//	return errors.WrapInvalid(err, "Config", "Validate", "check threads")
//
// # Invariant Violations
//
// Code that detects a broken invariant raises it with Invariant and panics.
// The worker loop recovers the panic with FromPanic, keeps the classification
// and records the fault:
//
//	if n > s.capacity {
//	    panic(errors.Invariant("Store", "AllocateBatch", "batch of %d exceeds capacity %d", n, s.capacity))
//	}
//
// # Classification
//
//	switch errors.Classify(err) {
//	case errors.ErrorFatal:
//	    // stop this worker, record the fault
//	case errors.ErrorInvalid:
//	    // reject the configuration
//	default:
//	    // shutdown path
//	}
package errors
