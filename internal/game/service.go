package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"wordwatch/internal/replay"
	"wordwatch/internal/storage"
	"wordwatch/internal/words"
	"wordwatch/pkg/utils"
)

const tokenBytes = 16

// Service is the game lifecycle around the engine: creating and joining
// games, accepting player messages and exposing player-safe views.
type Service struct {
	store  *storage.Store
	engine *Engine
	words  words.Validator
	log    *slog.Logger
	token  func() (string, error)
}

// NewService builds a Service that resolves turns with engine.
func NewService(store *storage.Store, engine *Engine, validator words.Validator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		engine: engine,
		words:  validator,
		log:    logger,
		token:  func() (string, error) { return utils.RandomHex(tokenBytes) },
	}
}

// Session identifies one player of one game.
type Session struct {
	GameID uuid.UUID `json:"game_id"`
	Player string    `json:"player"`
	Token  string    `json:"player_token"`
}

// Start creates a game for player 1.
func (s *Service) Start(ctx context.Context, secret string) (Session, error) {
	secret = strings.TrimSpace(secret)
	if !s.words.Valid(ctx, secret) {
		return Session{}, ErrInvalidWord
	}
	token, err := s.token()
	if err != nil {
		return Session{}, fmt.Errorf("player token: %w", err)
	}
	g := &storage.Game{
		Player1Secret: strings.ToLower(secret),
		Player1Token:  token,
		Status:        string(StatusRamp),
	}
	if err := s.store.CreateGame(ctx, g); err != nil {
		return Session{}, fmt.Errorf("create game: %w", err)
	}
	s.log.Info("game started", "game_id", g.ID.String())
	return Session{GameID: g.ID, Player: SenderPlayer1, Token: token}, nil
}

// Join records player 2's secret and opens play.
func (s *Service) Join(ctx context.Context, id uuid.UUID, secret string) (Session, error) {
	g, err := s.store.LoadGame(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if g.Player1Secret == "" {
		return Session{}, ErrNotStarted
	}
	if g.Player2Secret != "" {
		return Session{}, storage.ErrAlreadyJoined
	}
	secret = strings.TrimSpace(secret)
	if !s.words.Valid(ctx, secret) {
		return Session{}, ErrInvalidWord
	}
	token, err := s.token()
	if err != nil {
		return Session{}, fmt.Errorf("player token: %w", err)
	}
	if err := s.store.JoinGame(ctx, id, strings.ToLower(secret), token, string(StatusPlay)); err != nil {
		return Session{}, err
	}
	s.log.Info("player 2 joined", "game_id", id.String())
	return Session{GameID: id, Player: SenderPlayer2, Token: token}, nil
}

// Joined reports whether player 2 has joined.
func (s *Service) Joined(ctx context.Context, id uuid.UUID) (bool, error) {
	g, err := s.store.LoadGame(ctx, id)
	if err != nil {
		return false, err
	}
	return g.Player2Secret != "", nil
}

// SendResult is what a player sees after posting a message.
type SendResult struct {
	Turn    TurnReport `json:"-"`
	Result  Result     `json:"result"`
	Correct bool       `json:"correct"`
	Status  Status     `json:"status"`
	Turns   int        `json:"turns"`
}

// Send stores a player's message, tries to resolve the round and then checks
// the player's own guess against the opponent's secret. A failed round still
// credits the guess before the *TurnError is returned.
func (s *Service) Send(ctx context.Context, id uuid.UUID, token, text, guess string) (SendResult, error) {
	g, err := s.store.LoadGame(ctx, id)
	if err != nil {
		return SendResult{}, err
	}
	sender := senderFor(g, token)
	if sender == "" {
		return SendResult{}, ErrUnknownPlayer
	}
	if !Status(g.Status).Active() {
		return SendResult{}, ErrGameFinished
	}

	text = StripInlineGuess(text)
	if text == "" {
		return SendResult{}, ErrEmptyMessage
	}
	text = truncate(text, maxMessageLength)
	guess = NormalizeGuess(guess)

	msg := &storage.Message{GameID: id, Role: storage.RolePlayer, Sender: &sender, Text: text}
	if guess != "" {
		msg.Guess = &guess
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return SendResult{}, fmt.Errorf("store message: %w", err)
	}

	// The guess counts whether or not the round resolves.
	report, turnErr := s.engine.ResolveTurn(ctx, id)
	res, err := s.applyGuess(ctx, id, sender, guess)
	if err != nil {
		return SendResult{}, err
	}
	if turnErr != nil {
		return SendResult{}, turnErr
	}
	res.Turn = report
	res.Result = report.Result
	return res, nil
}

// applyGuess sets the sender's guessed flag when guess names the opponent's
// secret. The flag is set even after the game ended; the status only moves
// while the game is still active.
func (s *Service) applyGuess(ctx context.Context, id uuid.UUID, sender, guess string) (SendResult, error) {
	unlock := s.engine.locks.Lock(id.String())
	defer unlock()

	var res SendResult
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		g, err := tx.LoadGame(ctx, id)
		if err != nil {
			return err
		}
		status := Status(g.Status)
		res.Status, res.Turns = status, g.Turns

		if !GuessMatches(guess, secretOf(g, opponent(sender))) {
			return nil
		}
		res.Correct = true

		p1, p2 := g.P1Guessed, g.P2Guessed
		upd := storage.GameStateUpdate{}
		if sender == SenderPlayer1 {
			p1 = true
			upd.P1Guessed = &p1
		} else {
			p2 = true
			upd.P2Guessed = &p2
		}
		next := NextStatus(status, Outcome{P1Guessed: p1, P2Guessed: p2})
		nextStatus := string(next)
		upd.Status = &nextStatus
		if err := tx.SaveGameState(ctx, id, upd); err != nil {
			return err
		}
		s.log.Info("player guessed secret", "game_id", id.String(), "player", sender, "status", next)
		res.Status = next
		return nil
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("apply guess: %w", err)
	}
	return res, nil
}

// MessageView is a transcript entry with hidden guesses removed.
type MessageView struct {
	ID     uint   `json:"id"`
	Role   string `json:"role"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text"`
	Guess  string `json:"guess"`
}

// PollView is the incremental game state returned to polling clients.
type PollView struct {
	Messages      []MessageView `json:"messages"`
	Status        Status        `json:"status"`
	Turns         int           `json:"turns"`
	MaxTurns      int           `json:"max_turns"`
	Player1Secret string        `json:"player1_secret,omitempty"`
	Player2Secret string        `json:"player2_secret,omitempty"`
}

// Poll returns messages newer than afterID. Guesses are only shown when they
// are correct; secrets are revealed once the game is over.
func (s *Service) Poll(ctx context.Context, id uuid.UUID, afterID uint) (PollView, error) {
	g, err := s.store.LoadGame(ctx, id)
	if err != nil {
		return PollView{}, err
	}
	msgs, err := s.store.MessagesAfter(ctx, id, afterID)
	if err != nil {
		return PollView{}, fmt.Errorf("poll messages: %w", err)
	}
	view := PollView{
		Messages: make([]MessageView, 0, len(msgs)),
		Status:   Status(g.Status),
		Turns:    g.Turns,
		MaxTurns: s.engine.rules.MaxTurns,
	}
	for _, m := range msgs {
		view.Messages = append(view.Messages, MessageView{
			ID:     m.ID,
			Role:   m.Role,
			Sender: m.SenderName(),
			Text:   m.Text,
			Guess:  visibleGuess(g, m),
		})
	}
	if view.Status.Terminal() {
		view.Player1Secret = g.Player1Secret
		view.Player2Secret = g.Player2Secret
	}
	return view, nil
}

// Replay returns the game's turn records once the game is over.
func (s *Service) Replay(ctx context.Context, id uuid.UUID) ([]replay.Record, error) {
	g, err := s.store.LoadGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !Status(g.Status).Terminal() {
		return nil, ErrReplayUnavailable
	}
	rows, err := s.store.Replays(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load replay: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoReplay
	}
	out := make([]replay.Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out, nil
}

// Stats counts games by lifecycle group.
func (s *Service) Stats(ctx context.Context) (storage.Stats, error) {
	return s.store.FetchStats(ctx, ActiveStatuses, TerminalStatuses)
}

// IsNotFound reports whether err means the game does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func senderFor(g *storage.Game, token string) string {
	switch {
	case token == "":
		return ""
	case token == g.Player1Token:
		return SenderPlayer1
	case token == g.Player2Token:
		return SenderPlayer2
	}
	return ""
}

func secretOf(g *storage.Game, sender string) string {
	if sender == SenderPlayer1 {
		return g.Player1Secret
	}
	return g.Player2Secret
}

func visibleGuess(g *storage.Game, m storage.Message) string {
	guess := m.GuessText()
	if guess == "" {
		return ""
	}
	if m.Role == storage.RolePlayer {
		if GuessMatches(guess, secretOf(g, opponent(m.SenderName()))) {
			return guess
		}
		return ""
	}
	if GuessMatches(guess, g.Player1Secret) || GuessMatches(guess, g.Player2Secret) {
		return guess
	}
	return ""
}
