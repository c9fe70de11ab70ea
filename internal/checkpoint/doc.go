// Package checkpoint persists pipeline progress so an interrupted chapter can
// resume after its last completed stage.
//
// One JSON file per (book, chapter) lives in the checkpoint directory as
// "<book>_<chapter>.json". Writes go to "<book>_<chapter>.tmp" first and are
// renamed into place. Every operation on a key holds an in-process mutex and
// an advisory file lock under ".locks/", so separate voicecast processes that
// share a directory also take turns.
//
// Load fails closed: anything other than a fresh checkpoint whose content hash
// matches the caller's fingerprint reads as "no checkpoint", and expired,
// mismatched, or corrupt files are removed on the way.
package checkpoint
