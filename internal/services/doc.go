// Package services defines shared utilities consumed by the operation
// dispatcher and the capability bindings.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, operation names, and file paths for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent report classifications (validation, capability,
//     conflict, io).
//
// Use these helpers when wiring new operation logic so failure handling and
// observability stay uniform across the pipeline.
package services
