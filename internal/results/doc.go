// Package results persists analysis output for the CLI host in SQLite.
//
// Interim character sets are written after every pipeline stage so partial
// work is visible while a chapter runs; the final write records the run
// outcome. Character details (traits, pages, dialog, voice profile) are
// stored as JSON columns.
package results
