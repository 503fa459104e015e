package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"wordwatch/internal/replay"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := New("sqlite::memory:", false)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db)
}

func newTestGame(t *testing.T, s *Store) *Game {
	t.Helper()
	g := &Game{Player1Secret: "ocean", Player2Secret: "comet", Status: "PLAY"}
	if err := s.CreateGame(context.Background(), g); err != nil {
		t.Fatalf("create game: %v", err)
	}
	return g
}

func playerMsg(gameID uuid.UUID, sender, text string) *Message {
	return &Message{GameID: gameID, Role: RolePlayer, Sender: &sender, Text: text}
}

func TestCreateAndLoadGame(t *testing.T) {
	s := newTestStore(t)
	g := newTestGame(t, s)
	if g.ID == uuid.Nil {
		t.Fatalf("expected id to be assigned")
	}
	got, err := s.LoadGame(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Player1Secret != "ocean" || got.Status != "PLAY" || got.Turns != 0 {
		t.Fatalf("unexpected game %+v", got)
	}
	if _, err := s.LoadGame(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJoinGameOnlyOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := &Game{Player1Secret: "ocean", Status: "RAMP"}
	if err := s.CreateGame(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.JoinGame(ctx, g.ID, "comet", "tok", "PLAY"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := s.JoinGame(ctx, g.ID, "other", "tok2", "PLAY"); !errors.Is(err, ErrAlreadyJoined) {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	got, _ := s.LoadGame(ctx, g.ID)
	if got.Player2Secret != "comet" || got.Player2Token != "tok" || got.Status != "PLAY" {
		t.Fatalf("unexpected game after join %+v", got)
	}
}

func TestPendingMessagesAndMarkUsed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	for _, m := range []*Message{
		playerMsg(g.ID, "player1", "a"),
		playerMsg(g.ID, "player2", "b"),
		playerMsg(g.ID, "player1", "c"),
	} {
		if err := s.AddMessage(ctx, m); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	p1, err := s.PendingMessages(ctx, g.ID, "player1")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(p1) != 2 || p1[0].Text != "a" || p1[1].Text != "c" {
		t.Fatalf("unexpected pending %+v", p1)
	}
	if err := s.MarkUsed(ctx, []uint{p1[0].ID, p1[1].ID}); err != nil {
		t.Fatalf("mark used: %v", err)
	}
	p1, _ = s.PendingMessages(ctx, g.ID, "player1")
	if len(p1) != 0 {
		t.Fatalf("expected no pending player1 messages, got %d", len(p1))
	}
	p2, _ := s.PendingMessages(ctx, g.ID, "player2")
	if len(p2) != 1 {
		t.Fatalf("expected player2 message to stay pending")
	}
}

func TestMarkUsedRejectsAlreadyConsumed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	m := playerMsg(g.ID, "player1", "a")
	_ = s.AddMessage(ctx, m)
	if err := s.MarkUsed(ctx, []uint{m.ID}); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if err := s.MarkUsed(ctx, []uint{m.ID}); err == nil {
		t.Fatalf("expected second mark to fail")
	}
}

func TestRecentPlayerMessagesWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	for _, text := range []string{"1", "2", "3", "4"} {
		_ = s.AddMessage(ctx, playerMsg(g.ID, "player1", text))
	}
	_ = s.AddMessage(ctx, &Message{GameID: g.ID, Role: "ZaZ", Text: "note"})

	got, err := s.RecentPlayerMessages(ctx, g.ID, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 || got[0].Text != "2" || got[2].Text != "4" {
		t.Fatalf("unexpected window %+v", got)
	}
}

func TestEnsureAgentStateIsLazyAndStable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	st, err := s.EnsureAgentState(ctx, g.ID, "ZaZ", "spy")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if st.Note != "" {
		t.Fatalf("expected empty note")
	}
	if err := s.SaveNote(ctx, st.ID, "suspects water"); err != nil {
		t.Fatalf("save note: %v", err)
	}
	again, err := s.EnsureAgentState(ctx, g.ID, "ZaZ", "spy")
	if err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	if again.ID != st.ID || again.Note != "suspects water" {
		t.Fatalf("expected same state with saved note, got %+v", again)
	}
	states, _ := s.AgentStates(ctx, g.ID)
	if len(states) != 1 {
		t.Fatalf("expected one agent state, got %d", len(states))
	}
}

func TestNestedTransactionRollsBackOnlyInnerScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(outer *Store) error {
		if err := outer.AddMessage(ctx, playerMsg(g.ID, "player1", "kept")); err != nil {
			return err
		}
		inner := outer.Transaction(ctx, func(tx *Store) error {
			turns := 5
			if err := tx.SaveGameState(ctx, g.ID, GameStateUpdate{Turns: &turns}); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(inner, boom) {
			t.Fatalf("expected inner error, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("outer: %v", err)
	}

	got, _ := s.LoadGame(ctx, g.ID)
	if got.Turns != 0 {
		t.Fatalf("inner write should have rolled back, turns=%d", got.Turns)
	}
	msgs, _ := s.MessagesAfter(ctx, g.ID, 0)
	if len(msgs) != 1 || msgs[0].Text != "kept" {
		t.Fatalf("outer write should be committed, got %+v", msgs)
	}
}

func TestReplaysOrderedAndUnique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	g := newTestGame(t, s)
	mk := func(turn int) *Replay {
		return &Replay{
			GameID:    g.ID,
			Turn:      turn,
			TurnLines: datatypes.NewJSONType([]replay.Line{{Sender: "player1", Text: "hi"}}),
			Outcome:   "PLAY",
			Agents:    datatypes.NewJSONType(map[string]replay.AgentSnapshot{"ZaZ": {Note: "n", Guess: "g"}}),
		}
	}
	for _, turn := range []int{2, 1} {
		if err := s.AppendReplay(ctx, mk(turn)); err != nil {
			t.Fatalf("append %d: %v", turn, err)
		}
	}
	if err := s.AppendReplay(ctx, mk(1)); err == nil {
		t.Fatalf("expected duplicate turn to be rejected")
	}
	rows, err := s.Replays(ctx, g.ID)
	if err != nil {
		t.Fatalf("replays: %v", err)
	}
	if len(rows) != 2 || rows[0].Turn != 1 || rows[1].Turn != 2 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	rec := rows[0].Record()
	if rec.GameID != g.ID.String() || rec.TurnLines[0].Text != "hi" || rec.Agents["ZaZ"].Guess != "g" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestFetchStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, status := range []string{"RAMP", "PLAY", "PARTIAL", "WIN", "LOSE"} {
		if err := s.CreateGame(ctx, &Game{Player1Secret: "x", Status: status}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	stats, err := s.FetchStats(ctx, []string{"PLAY", "PARTIAL"}, []string{"WIN", "LOSE"})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Started != 5 || stats.Active != 2 || stats.Completed != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}
