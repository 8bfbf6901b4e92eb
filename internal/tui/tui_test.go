package tui

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	if got := truncate("Shrapnel", 32); got != "Shrapnel" {
		t.Errorf("short name changed: %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("got %q, want abc…", got)
	}
}

func TestTruncateMultibyteNames(t *testing.T) {
	// Item names can carry multibyte runes; cutting one mid-sequence would
	// render as mojibake in the table.
	name := strings.Repeat("é", 10)
	got := truncate(name, 4)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if got != "ééé…" {
		t.Errorf("got %q, want ééé…", got)
	}
}
