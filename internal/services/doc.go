// Package services defines shared utilities consumed by the pipeline stages
// and the inference backends.
//
// Key responsibilities:
//   - Context helpers that stamp book/chapter identifiers, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap and Details helpers that let the
//     orchestrator turn failures into readable run results.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
