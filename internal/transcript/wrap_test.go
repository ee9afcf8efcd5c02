package transcript

import (
	"strings"
	"testing"
)

func TestWrapForcedBreak(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Wrap(long, 10)
	lines := strings.Split(got, "\n")
	if len(lines) != 10 {
		t.Fatalf("expected 10 lines, got %d: %q", len(lines), got)
	}
	for i, line := range lines {
		if line != strings.Repeat("a", 10) {
			t.Errorf("line %d = %q, want 10 a's", i, line)
		}
	}
}

func TestWrapForcedBreakNonMultiple(t *testing.T) {
	got := Wrap(strings.Repeat("b", 25), 10)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), got)
	}
	if lines[2] != "bbbbb" {
		t.Errorf("last line = %q, want 5 b's", lines[2])
	}
}

func TestWrapGreedy(t *testing.T) {
	got := Wrap("the quick brown fox", 10)
	want := "the quick\nbrown fox"
	if got != want {
		t.Fatalf("Wrap = %q, want %q", got, want)
	}
	for _, line := range strings.Split(got, "\n") {
		if len(line) > 10 {
			t.Errorf("line %q exceeds 10 chars", line)
		}
	}
}

func TestWrapShortTextUntouched(t *testing.T) {
	if got := Wrap("hello there", 45); got != "hello there" {
		t.Fatalf("Wrap = %q, want unchanged", got)
	}
}

func TestWrapEmpty(t *testing.T) {
	if got := Wrap("", 45); got != "" {
		t.Fatalf("Wrap(\"\") = %q, want empty", got)
	}
}

// A force-broken token counts with its full multi-line length in the greedy
// phase, so a short word following it always starts a fresh line.
func TestWrapForcedTokenCountsWhole(t *testing.T) {
	text := strings.Repeat("x", 30) + " yz"
	got := Wrap(text, 10)
	lines := strings.Split(got, "\n")
	if lines[len(lines)-1] != "yz" {
		t.Fatalf("expected trailing word on its own line, got %q", got)
	}
}

func TestWrapDefaultWidth(t *testing.T) {
	// zero width falls back to the default
	sentence := strings.Repeat("word ", 20)
	got := Wrap(strings.TrimSpace(sentence), 0)
	for _, line := range strings.Split(got, "\n") {
		if len(line) > DefaultWrapWidth {
			t.Errorf("line %q exceeds default width", line)
		}
	}
}
