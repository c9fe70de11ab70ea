package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// paragraphSeparator joins paragraphs before hashing. The record-separator
// glyph keeps ["ab", "c"] and ["a", "bc"] distinct.
const paragraphSeparator = "\n␞\n"

const fingerprintLength = 16

// ContentFingerprint returns the first 16 hex characters of the SHA-256 of the
// paragraphs joined in order. Invalid UTF-8 is replaced before hashing; use
// ValidateParagraphs to reject it instead.
func ContentFingerprint(paragraphs []string) string {
	h := sha256.New()
	for i, p := range paragraphs {
		if i > 0 {
			h.Write([]byte(paragraphSeparator))
		}
		h.Write([]byte(strings.ToValidUTF8(p, "�")))
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLength]
}

// ValidateParagraphs reports the first paragraph that is not valid UTF-8.
func ValidateParagraphs(paragraphs []string) error {
	for i, p := range paragraphs {
		if !utf8.ValidString(p) {
			return fmt.Errorf("paragraph %d is not valid UTF-8", i)
		}
	}
	return nil
}
