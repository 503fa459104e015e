package inference

import (
	"context"
	"strings"
	"sync"
)

// Scripted is a deterministic Provider for tests and offline play.
//
// Notes and guesses are consumed in call order and returned verbatim. When a
// queue runs dry the note falls back to the last history line and the guess
// to Fallback.
type Scripted struct {
	mu       sync.Mutex
	notes    []string
	guesses  []string
	noteErr  error
	guessErr error

	Fallback string

	NoteCalls    int
	GuessCalls   int
	NotePrompts  []string
	GuessPrompts []string
	Histories    [][]Line
}

var _ Provider = (*Scripted)(nil)

// NewScripted returns a provider that replays the given notes and guesses.
func NewScripted(notes, guesses []string) *Scripted {
	return &Scripted{
		notes:    append([]string(nil), notes...),
		guesses:  append([]string(nil), guesses...),
		Fallback: "pass",
	}
}

// FailNotes makes every following UpdateNote call return err.
func (s *Scripted) FailNotes(err error) {
	s.mu.Lock()
	s.noteErr = err
	s.mu.Unlock()
}

// FailGuesses makes every following Guess call return err.
func (s *Scripted) FailGuesses(err error) {
	s.mu.Lock()
	s.guessErr = err
	s.mu.Unlock()
}

// Calls reports the total number of provider calls made so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.NoteCalls + s.GuessCalls
}

func (s *Scripted) UpdateNote(_ context.Context, _ string, prompt string, history []Line) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NoteCalls++
	s.NotePrompts = append(s.NotePrompts, prompt)
	s.Histories = append(s.Histories, append([]Line(nil), history...))
	if s.noteErr != nil {
		return "", s.noteErr
	}
	if len(s.notes) > 0 {
		note := s.notes[0]
		s.notes = s.notes[1:]
		return note, nil
	}
	if len(history) == 0 {
		return "", nil
	}
	return strings.TrimSpace(history[len(history)-1].Content), nil
}

func (s *Scripted) Guess(_ context.Context, _ string, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.GuessCalls++
	s.GuessPrompts = append(s.GuessPrompts, prompt)
	if s.guessErr != nil {
		return "", s.guessErr
	}
	if len(s.guesses) > 0 {
		guess := s.guesses[0]
		s.guesses = s.guesses[1:]
		return guess, nil
	}
	return s.Fallback, nil
}
