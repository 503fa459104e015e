package game

// Status is the lifecycle state of a game.
type Status string

const (
	StatusRamp    Status = "RAMP"    // waiting for player 2
	StatusPlay    Status = "PLAY"    // nobody has guessed yet
	StatusPartial Status = "PARTIAL" // exactly one player has guessed
	StatusWin     Status = "WIN"
	StatusLose    Status = "LOSE"
)

// Active reports whether turns may still be played.
func (s Status) Active() bool {
	return s == StatusPlay || s == StatusPartial
}

// Terminal reports whether the game is over. Terminal states never change.
func (s Status) Terminal() bool {
	return s == StatusWin || s == StatusLose
}

// ActiveStatuses and TerminalStatuses group statuses for queries.
var (
	ActiveStatuses   = []string{string(StatusPlay), string(StatusPartial)}
	TerminalStatuses = []string{string(StatusWin), string(StatusLose)}
)

// Outcome is what happened in the step being evaluated.
type Outcome struct {
	TurnCapReached   bool
	AdversaryMatched bool
	P1Guessed        bool
	P2Guessed        bool
}

// NextStatus applies the transition table. Rows are checked in order; a
// terminal or not-yet-started game is returned unchanged.
func NextStatus(current Status, o Outcome) Status {
	if !current.Active() {
		return current
	}
	switch {
	case o.TurnCapReached:
		return StatusLose
	case o.AdversaryMatched:
		return StatusLose
	case o.P1Guessed && o.P2Guessed:
		return StatusWin
	case o.P1Guessed || o.P2Guessed:
		return StatusPartial
	}
	return current
}
