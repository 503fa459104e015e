package game

import "testing"

func TestNextStatusTable(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		outcome Outcome
		want    Status
	}{
		{"nothing happens", StatusPlay, Outcome{}, StatusPlay},
		{"partial persists", StatusPartial, Outcome{P1Guessed: true}, StatusPartial},
		{"turn cap", StatusPlay, Outcome{TurnCapReached: true}, StatusLose},
		{"adversary beats win", StatusPartial, Outcome{AdversaryMatched: true, P1Guessed: true, P2Guessed: true}, StatusLose},
		{"both guessed", StatusPartial, Outcome{P1Guessed: true, P2Guessed: true}, StatusWin},
		{"one guessed", StatusPlay, Outcome{P2Guessed: true}, StatusPartial},
		{"win absorbs", StatusWin, Outcome{AdversaryMatched: true}, StatusWin},
		{"lose absorbs", StatusLose, Outcome{P1Guessed: true, P2Guessed: true}, StatusLose},
		{"ramp waits", StatusRamp, Outcome{P1Guessed: true}, StatusRamp},
	}
	for _, tc := range cases {
		if got := NextStatus(tc.current, tc.outcome); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestStatusGroups(t *testing.T) {
	if !StatusPlay.Active() || !StatusPartial.Active() || StatusRamp.Active() || StatusWin.Active() {
		t.Fatalf("unexpected Active grouping")
	}
	if !StatusWin.Terminal() || !StatusLose.Terminal() || StatusPlay.Terminal() {
		t.Fatalf("unexpected Terminal grouping")
	}
}
