package textutil

import (
	"regexp"
	"testing"
)

func TestContentFingerprint(t *testing.T) {
	a := ContentFingerprint([]string{"Alice sat.", "She smiled."})
	if !regexp.MustCompile(`^[0-9a-f]{16}$`).MatchString(a) {
		t.Fatalf("unexpected fingerprint format %q", a)
	}
	if b := ContentFingerprint([]string{"Alice sat.", "She smiled."}); a != b {
		t.Fatalf("fingerprint not deterministic: %s vs %s", a, b)
	}
	if c := ContentFingerprint([]string{"Alice sat.", "She frowned."}); a == c {
		t.Fatal("different content produced the same fingerprint")
	}
	if ContentFingerprint([]string{"ab", "c"}) == ContentFingerprint([]string{"a", "bc"}) {
		t.Fatal("paragraph boundaries must affect the fingerprint")
	}
	if ContentFingerprint(nil) != ContentFingerprint([]string{}) {
		t.Fatal("nil and empty input should hash the same")
	}
}

func TestValidateParagraphs(t *testing.T) {
	if err := ValidateParagraphs([]string{"ok", "fine ✓"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateParagraphs([]string{"ok", "bad \xff"}); err == nil {
		t.Fatal("expected invalid UTF-8 to be rejected")
	}
}

func TestSplitParagraphs(t *testing.T) {
	text := "First line\r\ncontinues here.\r\n\r\n\n  Second   paragraph.  \n\n\n"
	got := SplitParagraphs(text)
	want := []string{"First line continues here.", "Second paragraph."}
	if len(got) != len(want) {
		t.Fatalf("want %q got %q", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want %q got %q", want, got)
		}
	}
	if len(SplitParagraphs("   \n\n ")) != 0 {
		t.Fatal("blank text should produce no paragraphs")
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"héllo", 2, "hé"},
		{"x", 0, ""},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.limit); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}
