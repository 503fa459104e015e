package game

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wordwatch/internal/inference"
	"wordwatch/internal/replay"
	"wordwatch/internal/storage"
)

// Result tells the caller what ResolveTurn did.
type Result string

const (
	ResultInactive Result = "inactive" // game is not in PLAY or PARTIAL
	ResultPending  Result = "pending"  // a player has not spoken since the last turn
	ResultCapped   Result = "capped"   // turn limit reached; game lost without agent calls
	ResultResolved Result = "resolved"
)

// AgentTurn is one agent's contribution to a resolved turn.
type AgentTurn struct {
	Agent   string
	Role    AgentRole
	Note    string
	Guess   string
	Matched bool
}

// TurnReport describes the outcome of a ResolveTurn call.
type TurnReport struct {
	Result Result
	Status Status
	Turns  int
	Lines  []replay.Line
	Agents []AgentTurn
	// LostTo names the adversary whose guess ended the game, if any.
	LostTo string
}

// Engine resolves rounds: once both players have spoken it updates every
// agent's note, collects their guesses, evaluates them and advances the game.
type Engine struct {
	store    *storage.Store
	provider inference.Provider
	rules    Rules
	locks    *Hub
	log      *slog.Logger
	now      func() time.Time
}

// NewEngine wires an engine. A nil hub gets a private one.
func NewEngine(store *storage.Store, provider inference.Provider, rules Rules, locks *Hub, logger *slog.Logger) *Engine {
	if locks == nil {
		locks = NewHub()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		provider: provider,
		rules:    rules,
		locks:    locks,
		log:      logger,
		now:      time.Now,
	}
}

// Rules returns the configuration the engine was built with.
func (e *Engine) Rules() Rules { return e.rules }

// ResolveTurn advances the game by one round if both players have pending
// input. It is safe to call after every player message: when the round is
// not ready it changes nothing and reports ResultPending.
//
// Any persistence or provider failure rolls the whole round back and is
// returned as a *TurnError.
func (e *Engine) ResolveTurn(ctx context.Context, gameID uuid.UUID) (TurnReport, error) {
	return e.ResolveTurnIn(ctx, e.store, gameID)
}

// ResolveTurnIn is ResolveTurn against s, which may already be inside a
// transaction. The round then runs in a savepoint, so a failure leaves the
// caller's earlier writes intact.
func (e *Engine) ResolveTurnIn(ctx context.Context, s *storage.Store, gameID uuid.UUID) (TurnReport, error) {
	unlock := e.locks.Lock(gameID.String())
	defer unlock()

	log := e.log.With("game_id", gameID.String())

	var (
		report TurnReport
		row    *storage.Replay
	)
	err := s.Transaction(ctx, func(tx *storage.Store) error {
		g, err := tx.LoadGame(ctx, gameID)
		if err != nil {
			return fmt.Errorf("load game: %w", err)
		}
		status := Status(g.Status)
		report.Status, report.Turns = status, g.Turns

		if !status.Active() {
			log.Debug("turn skipped", "status", status)
			report.Result = ResultInactive
			return nil
		}

		if g.Turns >= e.rules.MaxTurns {
			next := NextStatus(status, Outcome{TurnCapReached: true})
			capped := string(next)
			if err := tx.SaveGameState(ctx, g.ID, storage.GameStateUpdate{Status: &capped}); err != nil {
				return fmt.Errorf("save capped game: %w", err)
			}
			log.Info("turn capped", "turns", g.Turns, "max_turns", e.rules.MaxTurns)
			report.Result, report.Status = ResultCapped, next
			return nil
		}

		p1, err := tx.PendingMessages(ctx, g.ID, SenderPlayer1)
		if err != nil {
			return fmt.Errorf("pending player1 messages: %w", err)
		}
		p2, err := tx.PendingMessages(ctx, g.ID, SenderPlayer2)
		if err != nil {
			return fmt.Errorf("pending player2 messages: %w", err)
		}
		if len(p1) == 0 || len(p2) == 0 {
			log.Debug("turn pending", "player1", len(p1), "player2", len(p2))
			report.Result = ResultPending
			return nil
		}

		lines := roundLines(p1, p2)
		recent, err := tx.RecentPlayerMessages(ctx, g.ID, e.rules.HistoryWindow)
		if err != nil {
			return fmt.Errorf("recent messages: %w", err)
		}
		history := historyLines(recent)

		agents := make([]AgentTurn, 0, len(e.rules.Agents))
		for _, a := range e.rules.Agents {
			at, err := e.runAgent(ctx, tx, g.ID, a, history)
			if err != nil {
				return fmt.Errorf("agent %s: %w", a.Name, err)
			}
			log.Debug("agent guessed", "agent", a.Name, "guess", at.Guess)
			agents = append(agents, at)
		}

		lostTo := evaluateGuesses(agents, g.Player1Secret, g.Player2Secret)

		// Consume only after every provider call succeeded: a failure above
		// rolls back and leaves the messages pending for the next trigger.
		if err := tx.MarkUsed(ctx, messageIDs(p1, p2)); err != nil {
			return fmt.Errorf("consume messages: %w", err)
		}

		next := NextStatus(status, Outcome{
			AdversaryMatched: lostTo != "",
			P1Guessed:        g.P1Guessed,
			P2Guessed:        g.P2Guessed,
		})
		turns := g.Turns + 1
		nextStatus := string(next)
		if err := tx.SaveGameState(ctx, g.ID, storage.GameStateUpdate{Status: &nextStatus, Turns: &turns}); err != nil {
			return fmt.Errorf("save game: %w", err)
		}

		report = TurnReport{
			Result: ResultResolved,
			Status: next,
			Turns:  turns,
			Lines:  lines,
			Agents: agents,
			LostTo: lostTo,
		}
		row = replayRow(g.ID, turns, next, lines, agents, e.now())
		return nil
	})
	if err != nil {
		log.Error("turn failed", "err", err)
		return TurnReport{}, &TurnError{GameID: gameID, Err: err}
	}

	if row != nil {
		log.Info("turn resolved", "turn", report.Turns, "status", report.Status, "lost_to", report.LostTo)
		// The round is already committed; the replay is an audit trail only.
		if err := s.AppendReplay(ctx, row); err != nil {
			log.Warn("replay not recorded", "turn", report.Turns, "err", err)
		}
	}
	return report, nil
}

func (e *Engine) runAgent(ctx context.Context, tx *storage.Store, gameID uuid.UUID, a Agent, history []inference.Line) (AgentTurn, error) {
	state, err := tx.EnsureAgentState(ctx, gameID, a.Name, string(a.Role))
	if err != nil {
		return AgentTurn{}, fmt.Errorf("load state: %w", err)
	}

	prompt, err := a.NotePrompt(state.Note)
	if err != nil {
		return AgentTurn{}, fmt.Errorf("render note prompt: %w", err)
	}
	raw, err := e.provider.UpdateNote(ctx, a.Model, prompt, history)
	if err != nil {
		return AgentTurn{}, fmt.Errorf("update note: %w", err)
	}
	note := truncate(strings.TrimSpace(raw), e.rules.MaxNoteLength)
	if err := tx.SaveNote(ctx, state.ID, note); err != nil {
		return AgentTurn{}, fmt.Errorf("save note: %w", err)
	}

	guessPrompt, err := a.GuessPrompt(note)
	if err != nil {
		return AgentTurn{}, fmt.Errorf("render guess prompt: %w", err)
	}
	rawGuess, err := e.provider.Guess(ctx, a.Model, guessPrompt)
	if err != nil {
		return AgentTurn{}, fmt.Errorf("guess: %w", err)
	}
	guess := NormalizeGuess(rawGuess)

	msg := &storage.Message{GameID: gameID, Role: a.Name, Text: note, Used: true}
	if guess != "" {
		msg.Guess = &guess
	}
	if err := tx.AddMessage(ctx, msg); err != nil {
		return AgentTurn{}, fmt.Errorf("record message: %w", err)
	}
	return AgentTurn{Agent: a.Name, Role: a.Role, Note: note, Guess: guess}, nil
}

// evaluateGuesses marks matching guesses in configured order and returns the
// first adversary to name either secret. Evaluation stops at that adversary.
func evaluateGuesses(agents []AgentTurn, secrets ...string) string {
	for i := range agents {
		for _, secret := range secrets {
			if GuessMatches(agents[i].Guess, secret) {
				agents[i].Matched = true
				break
			}
		}
		if agents[i].Matched && agents[i].Role == RoleAdversary {
			return agents[i].Agent
		}
	}
	return ""
}

func roundLines(p1, p2 []storage.Message) []replay.Line {
	lines := make([]replay.Line, 0, len(p1)+len(p2))
	for _, m := range p1 {
		lines = append(lines, replay.Line{Sender: SenderPlayer1, Text: m.Text})
	}
	for _, m := range p2 {
		lines = append(lines, replay.Line{Sender: SenderPlayer2, Text: m.Text})
	}
	return lines
}

func historyLines(msgs []storage.Message) []inference.Line {
	out := make([]inference.Line, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, inference.Line{Role: "user", Content: speakerLabel(m.SenderName()) + ": " + m.Text})
	}
	return out
}

func speakerLabel(sender string) string {
	switch sender {
	case SenderPlayer1:
		return "Player1"
	case SenderPlayer2:
		return "Player2"
	}
	return "Player"
}

func messageIDs(groups ...[]storage.Message) []uint {
	var ids []uint
	for _, g := range groups {
		for _, m := range g {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

func replayRow(gameID uuid.UUID, turn int, status Status, lines []replay.Line, agents []AgentTurn, at time.Time) *storage.Replay {
	snap := make(map[string]replay.AgentSnapshot, len(agents))
	for _, a := range agents {
		snap[a.Agent] = replay.AgentSnapshot{Note: a.Note, Guess: a.Guess}
	}
	return &storage.Replay{
		GameID:    gameID,
		Turn:      turn,
		TurnLines: datatypes.NewJSONType(lines),
		Outcome:   string(status),
		Agents:    datatypes.NewJSONType(snap),
		CreatedAt: at.UTC(),
	}
}
