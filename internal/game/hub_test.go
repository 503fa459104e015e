package game

import (
	"sync"
	"testing"
	"time"
)

func TestHubSweepKeepsRecentAndHeldEntries(t *testing.T) {
	h := NewHub()
	now := time.Now()
	h.now = func() time.Time { return now }

	h.Lock("idle")()
	release := h.Lock("held")

	// 23 hours later nothing is old enough.
	now = now.Add(23 * time.Hour)
	if n := h.Sweep(24 * time.Hour); n != 0 {
		t.Fatalf("expected nothing swept, got %d", n)
	}

	// 25 hours later the idle entry goes; the held one stays.
	now = now.Add(2 * time.Hour)
	if n := h.Sweep(24 * time.Hour); n != 1 {
		t.Fatalf("expected 1 entry swept, got %d", n)
	}
	if h.Len() != 1 {
		t.Fatalf("expected held entry to remain")
	}
	release()
}

func TestHubSerializesSameGame(t *testing.T) {
	h := NewHub()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := h.Lock("g")
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestHubDifferentGamesDoNotBlock(t *testing.T) {
	h := NewHub()
	unlockA := h.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		h.Lock("b")()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("lock on another game blocked")
	}
}
