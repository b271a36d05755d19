// Package app wires the report server together and manages its lifecycle.
//
// NewApplication builds everything from a loaded config: telemetry, the
// configured data source, the report and health services, the chi router
// with its middleware chain and the http.Server. NewPipeline builds only the
// report pipeline for the one-shot CLI commands.
//
// Middleware order is RequestID, RealIP, OTel, StructuredLogger, Recoverer.
// Report routes additionally pass SecurityHeaders, the rate limiter, the
// request timeout and compression. Probes and /metrics skip those.
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// server.shutdown_timeout and flushes telemetry. Errors are returned to the
// caller; the package never calls os.Exit.
package app
