// Package logging assembles structured slog loggers and formatting helpers used
// across vidfetch.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so handlers can tag log lines
// with the request's operation and correlation ID. It also provides log file
// retention, a progress sampler for chatty extractor output, and a no-op
// logger for tests.
package logging
