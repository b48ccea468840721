// Package config provides configuration loading for complianceflow.
//
// Configuration is assembled in layers, each overriding the previous one:
//
//  1. Default(): built-in values (100k events/s, 5s report interval, one
//     worker per CPU, the default rule policy)
//  2. file layers added with AddLayer, in order (.json, .yaml or .yml)
//  3. COMPLIANCEFLOW_* environment variables
//  4. command line flags, applied by the caller for flags explicitly set
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("complianceflow.yaml")
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # File Layers
//
// Files are read with size and path checks, decoded into a generic document
// and validated against the embedded JSON Schema (schema.json) before being
// merged. Unknown keys are rejected there, so typos fail loudly. Nested
// objects merge key by key; arrays replace the earlier value as a whole.
//
// Durations accept either a Go duration string ("5s", "1m30s") or a number
// of seconds.
//
// # Environment Overrides
//
//	COMPLIANCEFLOW_RATE, COMPLIANCEFLOW_THREADS, COMPLIANCEFLOW_INTERVAL,
//	COMPLIANCEFLOW_SEED, COMPLIANCEFLOW_MAX_EVENTS, COMPLIANCEFLOW_DURATION,
//	COMPLIANCEFLOW_TICKS_PER_SECOND, COMPLIANCEFLOW_MAX_BATCH,
//	COMPLIANCEFLOW_THROTTLE, COMPLIANCEFLOW_REFRESH,
//	COMPLIANCEFLOW_METRICS_PORT, COMPLIANCEFLOW_LOG_LEVEL,
//	COMPLIANCEFLOW_LOG_FORMAT
//
// Empty values are ignored. Malformed values fail the load.
//
// # Validation
//
// Validate rejects non-positive rates, intervals and thread counts, and
// compiles the rule policy so unknown service, vendor, department or
// category names are reported before the pipeline starts. Every validation
// error is classified invalid and wraps errors.ErrInvalidConfig.
package config
