package game

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	SenderPlayer1 = "player1"
	SenderPlayer2 = "player2"

	maxMessageLength = 400
)

var inlineGuessRE = regexp.MustCompile(`(?i)\[\[guess:\s*([a-zA-Z]{2,})\s*]]`)

// NormalizeGuess trims and lowercases a guess.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GuessMatches is exact, case-insensitive equality. Empty guesses never match.
func GuessMatches(guess, secret string) bool {
	g := NormalizeGuess(guess)
	return g != "" && g == NormalizeGuess(secret)
}

// StripInlineGuess removes [[guess: word]] markers from chat text.
func StripInlineGuess(text string) string {
	return strings.TrimSpace(inlineGuessRE.ReplaceAllString(text, ""))
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func opponent(sender string) string {
	if sender == SenderPlayer1 {
		return SenderPlayer2
	}
	return SenderPlayer1
}
