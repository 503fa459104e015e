package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store wraps a gorm DB instance and provides helper methods for persisting games.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// ErrNotFound is returned when a record is not found.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrAlreadyJoined is returned when a second player tries to join a game
// that already has one.
var ErrAlreadyJoined = errors.New("player 2 already joined")

// Transaction runs fn inside a transaction. Called on a Store that is already
// inside a transaction it opens a savepoint, so a failure in fn only discards
// fn's own writes.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// GameStateUpdate represents a partial update to a game row.
type GameStateUpdate struct {
	Status    *string
	Turns     *int
	P1Guessed *bool
	P2Guessed *bool
}

// CreateGame inserts a new game row.
func (s *Store) CreateGame(ctx context.Context, game *Game) error {
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(game).Error
}

// LoadGame fetches a persisted game.
func (s *Store) LoadGame(ctx context.Context, id uuid.UUID) (*Game, error) {
	var game Game
	if err := s.db.WithContext(ctx).First(&game, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &game, nil
}

// SaveGameState applies partial updates to the game row.
func (s *Store) SaveGameState(ctx context.Context, id uuid.UUID, upd GameStateUpdate) error {
	updates := make(map[string]any)
	if upd.Status != nil {
		updates["status"] = *upd.Status
	}
	if upd.Turns != nil {
		updates["turns"] = *upd.Turns
	}
	if upd.P1Guessed != nil {
		updates["p1_guessed"] = *upd.P1Guessed
	}
	if upd.P2Guessed != nil {
		updates["p2_guessed"] = *upd.P2Guessed
	}
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Game{}).Where("id = ?", id).Updates(updates).Error
}

// JoinGame records player 2's secret and token and moves the game to status.
// Only the first caller wins; later callers get ErrAlreadyJoined.
func (s *Store) JoinGame(ctx context.Context, id uuid.UUID, secret, token, status string) error {
	res := s.db.WithContext(ctx).
		Model(&Game{}).
		Where("id = ? AND player2_secret = ?", id, "").
		Updates(map[string]any{
			"player2_secret": secret,
			"player2_token":  token,
			"status":         status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyJoined
	}
	return nil
}

// AddMessage inserts a chat or agent message.
func (s *Store) AddMessage(ctx context.Context, msg *Message) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// PendingMessages returns the sender's unconsumed player messages in arrival order.
func (s *Store) PendingMessages(ctx context.Context, gameID uuid.UUID, sender string) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND role = ? AND sender = ? AND used = ?", gameID, RolePlayer, sender, false).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// RecentPlayerMessages returns the last limit player messages of the game,
// oldest first. Agent rows are left out: an agent's own note already carries
// what it concluded, and other agents must not read each other's notes.
func (s *Store) RecentPlayerMessages(ctx context.Context, gameID uuid.UUID, limit int) ([]Message, error) {
	var msgs []Message
	if limit <= 0 {
		return msgs, nil
	}
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND role = ?", gameID, RolePlayer).
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// MarkUsed flags the given messages as consumed by a resolved turn.
func (s *Store) MarkUsed(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).
		Model(&Message{}).
		Where("id IN ? AND used = ?", ids, false).
		Update("used", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return fmt.Errorf("mark used: %d of %d messages already consumed", int64(len(ids))-res.RowsAffected, len(ids))
	}
	return nil
}

// MessagesAfter lists every message of the game with id > afterID.
func (s *Store) MessagesAfter(ctx context.Context, gameID uuid.UUID, afterID uint) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND id > ?", gameID, afterID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

// EnsureAgentState loads the agent's state for the game, creating an empty
// one on first use.
func (s *Store) EnsureAgentState(ctx context.Context, gameID uuid.UUID, agentName, agentRole string) (*AgentState, error) {
	state := AgentState{GameID: gameID, AgentName: agentName, AgentRole: agentRole}
	err := s.db.WithContext(ctx).
		Where("game_id = ? AND agent_name = ?", gameID, agentName).
		FirstOrCreate(&state).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveNote overwrites an agent's note.
func (s *Store) SaveNote(ctx context.Context, stateID uint, note string) error {
	return s.db.WithContext(ctx).
		Model(&AgentState{}).
		Where("id = ?", stateID).
		Update("note", note).Error
}

// AgentStates lists the agent states of a game.
func (s *Store) AgentStates(ctx context.Context, gameID uuid.UUID) ([]AgentState, error) {
	var states []AgentState
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("id ASC").Find(&states).Error
	return states, err
}

// AppendReplay writes a replay row. Rows are never updated.
func (s *Store) AppendReplay(ctx context.Context, r *Replay) error {
	return s.db.WithContext(ctx).Create(r).Error
}

// Replays returns the game's replay rows ordered by turn.
func (s *Store) Replays(ctx context.Context, gameID uuid.UUID) ([]Replay, error) {
	var rows []Replay
	err := s.db.WithContext(ctx).Where("game_id = ?", gameID).Order("turn ASC").Find(&rows).Error
	return rows, err
}

// Stats represents aggregate counts for games.
type Stats struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
}

// FetchStats aggregates game counts by status group.
func (s *Store) FetchStats(ctx context.Context, active, completed []string) (Stats, error) {
	var stats Stats
	if err := s.db.WithContext(ctx).Model(&Game{}).Count(&stats.Started).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("status IN ?", active).Count(&stats.Active).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Where("status IN ?", completed).Count(&stats.Completed).Error; err != nil {
		return stats, err
	}
	return stats, nil
}
