// Package inference talks to the language model that powers the agents.
//
// The engine needs exactly two capabilities: rewriting an agent's note from
// the recent conversation, and producing a one-word guess from a note. Both
// are synchronous and may fail; callers decide what a failure means.
package inference

import (
	"context"
	"strings"
)

// Line is one role-tagged entry of conversation history.
type Line struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider is the interface for model backends.
type Provider interface {
	// UpdateNote returns the rewritten note for prompt given history.
	UpdateNote(ctx context.Context, model, prompt string, history []Line) (string, error)

	// Guess returns a single normalized token for prompt.
	Guess(ctx context.Context, model, prompt string) (string, error)
}

// NormalizeToken trims and lowercases a model guess.
func NormalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
