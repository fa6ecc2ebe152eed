// Package observability provides structured logging, Prometheus metrics, and
// context propagation for the Roster Control Service.
//
// # Logging
//
// Logging is built on zerolog. NewLogger constructs the root logger from
// configuration; components derive child loggers with
// logger.With().Str("component", ...). The WithSessionContext and
// WithAnalysisContext helpers attach the common comparison fields.
//
// # Metrics
//
// Metrics uses prometheus/promauto with a configurable namespace. All
// counters and histograms live on the Metrics struct and are recorded through
// its Record* helpers so call sites stay free of label plumbing.
//
// # Context
//
// Request and session identifiers travel through context.Context using unexported
// keys with typed accessors.
package observability
