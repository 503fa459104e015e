package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrTurnFailed is matched by every error ResolveTurn returns.
var ErrTurnFailed = errors.New("turn resolution failed")

var (
	ErrInvalidWord       = errors.New("not a valid English word")
	ErrNotStarted        = errors.New("player 1 has not started the game")
	ErrGameFinished      = errors.New("game already finished")
	ErrEmptyMessage      = errors.New("empty message")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrReplayUnavailable = errors.New("replay is available only after the game ends")
	ErrNoReplay          = errors.New("no replay found")
)

// TurnError wraps a persistence or provider failure during turn resolution.
type TurnError struct {
	GameID uuid.UUID
	Err    error
}

func (e *TurnError) Error() string {
	return fmt.Sprintf("%s for game %s: %v", ErrTurnFailed, e.GameID, e.Err)
}

func (e *TurnError) Unwrap() []error {
	return []error{ErrTurnFailed, e.Err}
}
