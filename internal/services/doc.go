// Package services defines shared utilities consumed by the HTTP handlers and
// the extractor integrations.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs and operation names for logging
//     and tracing.
//   - Structured error markers, the Wrap helper, and Failure values whose text
//     is returned to callers verbatim (extractor diagnostics, integrity errors).
//
// Extractor clients live in subpackages (ytdlp, ytnative); they return errors
// built here so the server can classify them without knowing the backend.
package services
