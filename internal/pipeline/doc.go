// Package pipeline runs the ordered extraction stages over one chapter,
// checkpointing after every non-final stage so an interrupted run resumes
// where it stopped, and finally casts every character onto a catalog voice.
//
// Run never returns an error: failures, cancellation and success are all
// reported through Result. RunBatch analyzes several chapters of one book
// with a bounded worker pool.
package pipeline
