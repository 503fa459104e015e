package game

import "testing"

func TestGuessMatchesIsCaseInsensitiveExact(t *testing.T) {
	if !GuessMatches("Paris", "paris") {
		t.Fatalf("expected Paris to match paris")
	}
	if !GuessMatches("  COMET\n", "comet") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
	if GuessMatches("pariss", "paris") {
		t.Fatalf("expected pariss not to match")
	}
	if GuessMatches("", "") {
		t.Fatalf("empty guess must never match")
	}
}

func TestStripInlineGuess(t *testing.T) {
	got := StripInlineGuess("  it is wet [[guess: Ocean]] ")
	if got != "it is wet" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := StripInlineGuess("[[GUESS:comet]]"); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := truncate("héllo", 2); got != "hé" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncate("abc", 10); got != "abc" {
		t.Fatalf("short string changed: %q", got)
	}
}
