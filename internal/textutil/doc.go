// Package textutil provides the content fingerprint used to validate
// checkpoints, plus small helpers for turning plain text into paragraphs.
//
// The fingerprint is a 16-hex-character SHA-256 prefix over the ordered
// paragraphs; it only needs to distinguish revisions of one chapter.
package textutil
