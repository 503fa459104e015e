package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wordwatch/internal/replay"
)

// RolePlayer marks messages written by a human player. Agent messages carry
// the agent's name as their role.
const RolePlayer = "Player"

// Game represents one two-player match.
type Game struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	Player1Secret string    `gorm:"not null"`
	Player2Secret string    `gorm:"not null;default:''"`
	Player1Token  string    `gorm:"index"`
	Player2Token  string    `gorm:"index"`
	Status        string    `gorm:"index;not null"`
	Turns         int       `gorm:"not null;default:0"`
	P1Guessed     bool      `gorm:"not null;default:false"`
	P2Guessed     bool      `gorm:"not null;default:false"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Messages      []Message    `gorm:"constraint:OnDelete:CASCADE;"`
	AgentStates   []AgentState `gorm:"constraint:OnDelete:CASCADE;"`
	Replays       []Replay     `gorm:"constraint:OnDelete:CASCADE;"`
}

// Message is a chat line from a player or a note/guess row from an agent.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;index;not null"`
	Role      string    `gorm:"not null"`
	Sender    *string
	Text      string `gorm:"not null"`
	Guess     *string
	Used      bool `gorm:"index;not null;default:false"`
	CreatedAt time.Time
}

// SenderName returns the sender or "" for agent rows.
func (m Message) SenderName() string {
	if m.Sender == nil {
		return ""
	}
	return *m.Sender
}

// GuessText returns the guess or "" when none was attached.
func (m Message) GuessText() string {
	if m.Guess == nil {
		return ""
	}
	return *m.Guess
}

// AgentState is an agent's persistent note for one game.
type AgentState struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_agent_states_game_agent"`
	AgentName string    `gorm:"not null;uniqueIndex:idx_agent_states_game_agent"`
	AgentRole string    `gorm:"not null"`
	Note      string    `gorm:"not null;default:''"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Replay is the immutable audit row written once per resolved turn.
type Replay struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_replays_game_turn"`
	Turn      int       `gorm:"not null;uniqueIndex:idx_replays_game_turn"`
	TurnLines datatypes.JSONType[[]replay.Line]
	Outcome   string `gorm:"not null"`
	Agents    datatypes.JSONType[map[string]replay.AgentSnapshot]
	CreatedAt time.Time
}

// Record converts the row into its export form.
func (r Replay) Record() replay.Record {
	return replay.Record{
		GameID:    r.GameID.String(),
		Timestamp: r.CreatedAt.UTC(),
		Turn:      r.Turn,
		TurnLines: r.TurnLines.Data(),
		Agents:    r.Agents.Data(),
		Outcome:   r.Outcome,
	}
}
