package game

import (
	"errors"
	"fmt"
)

// AgentRole decides what an agent's correct guess does to the game.
type AgentRole string

const (
	// RoleAdversary agents end the game in LOSE when they name a secret.
	RoleAdversary AgentRole = "spy"
	// RoleAlly agents guess along; their guesses are recorded only.
	RoleAlly AgentRole = "comrade"
)

// Prompt renders an instruction prompt from an agent's note.
type Prompt func(note string) (string, error)

// Agent is one configured note-keeping guesser.
type Agent struct {
	Name        string
	Model       string
	Role        AgentRole
	NotePrompt  Prompt
	GuessPrompt Prompt
}

// Rules is the immutable engine configuration, loaded once at startup.
type Rules struct {
	MaxTurns      int
	HistoryWindow int
	MaxNoteLength int
	Agents        []Agent
}

// Validate checks the rules are usable by the engine.
func (r Rules) Validate() error {
	if r.MaxTurns <= 0 {
		return errors.New("rules: max turns must be > 0")
	}
	if r.HistoryWindow <= 0 {
		return errors.New("rules: history window must be > 0")
	}
	if r.MaxNoteLength <= 0 {
		return errors.New("rules: max note length must be > 0")
	}
	seen := make(map[string]struct{}, len(r.Agents))
	for i, a := range r.Agents {
		if a.Name == "" {
			return fmt.Errorf("rules: agent %d has no name", i)
		}
		if _, dup := seen[a.Name]; dup {
			return fmt.Errorf("rules: duplicate agent %q", a.Name)
		}
		seen[a.Name] = struct{}{}
		if a.Role != RoleAdversary && a.Role != RoleAlly {
			return fmt.Errorf("rules: agent %q has unknown role %q", a.Name, a.Role)
		}
		if a.NotePrompt == nil || a.GuessPrompt == nil {
			return fmt.Errorf("rules: agent %q is missing a prompt", a.Name)
		}
	}
	return nil
}
