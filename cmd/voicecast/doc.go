// Package main hosts the voicecast CLI entrypoint and command graph.
//
// The Cobra command tree reads chapter text from disk, drives the analysis
// pipeline, and persists what it learns to the results database. It also
// exposes maintenance commands for checkpoints, the speaker catalog, stored
// results, and configuration scaffolding.
//
// Keep this package lean: new behavior belongs in the internal packages and
// is surfaced here through dedicated commands or flags.
package main
