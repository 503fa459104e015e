package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"wordwatch/internal/game"
)

//go:embed default_agents.yaml
var defaultRoster []byte

// Roster is the YAML agent configuration.
type Roster struct {
	MaxTurns      int         `yaml:"max_turns"`
	HistoryWindow int         `yaml:"history_window"`
	MaxNoteLength int         `yaml:"max_note_length"`
	Agents        []AgentSpec `yaml:"agents"`
}

// AgentSpec declares one agent. Prompts may reference {{.Note}}.
type AgentSpec struct {
	Name        string `yaml:"name"`
	Model       string `yaml:"model"`
	Role        string `yaml:"role"`
	NotePrompt  string `yaml:"note_prompt"`
	GuessPrompt string `yaml:"guess_prompt"`
}

// LoadRoster reads the roster at path, or the built-in one when path is empty.
func LoadRoster(path string) (Roster, error) {
	if path == "" {
		return ParseRoster(defaultRoster)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Roster{}, fmt.Errorf("read agents file: %w", err)
	}
	r, err := ParseRoster(data)
	if err != nil {
		return Roster{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// ParseRoster decodes a roster, rejecting unknown keys.
func ParseRoster(data []byte) (Roster, error) {
	var r Roster
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Roster{}, fmt.Errorf("parse agents: %w", err)
	}
	return r, nil
}

// Rules compiles the roster into engine rules. Non-zero limits in cfg take
// precedence over the roster's.
func (r Roster) Rules(cfg Config) (game.Rules, error) {
	rules := game.Rules{
		MaxTurns:      pick(cfg.MaxTurns, r.MaxTurns, 30),
		HistoryWindow: pick(cfg.HistoryWindow, r.HistoryWindow, 10),
		MaxNoteLength: pick(cfg.MaxNoteLength, r.MaxNoteLength, 300),
		Agents:        make([]game.Agent, 0, len(r.Agents)),
	}
	for _, spec := range r.Agents {
		name := strings.TrimSpace(spec.Name)
		note, err := compilePrompt(name+".note_prompt", spec.NotePrompt)
		if err != nil {
			return game.Rules{}, err
		}
		guess, err := compilePrompt(name+".guess_prompt", spec.GuessPrompt)
		if err != nil {
			return game.Rules{}, err
		}
		rules.Agents = append(rules.Agents, game.Agent{
			Name:        name,
			Model:       strings.TrimSpace(spec.Model),
			Role:        game.AgentRole(strings.ToLower(strings.TrimSpace(spec.Role))),
			NotePrompt:  note,
			GuessPrompt: guess,
		})
	}
	if err := rules.Validate(); err != nil {
		return game.Rules{}, err
	}
	return rules, nil
}

type promptData struct {
	Note string
}

func compilePrompt(name, text string) (game.Prompt, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("agents: %s is empty", name)
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("agents: %w", err)
	}
	return func(note string) (string, error) {
		var b strings.Builder
		if err := tmpl.Execute(&b, promptData{Note: note}); err != nil {
			return "", err
		}
		return strings.TrimSpace(b.String()), nil
	}, nil
}

func pick(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
