package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteChapter writes paragraphs to dir/name as plain text separated by
// blank lines and returns the path.
func WriteChapter(t testing.TB, dir, name string, paragraphs ...string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(paragraphs, "\n\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
