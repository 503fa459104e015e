package game

import (
	"context"
	"sync"
	"time"
)

// Hub hands out one mutex per game so that turn work for the same game is
// serialized inside this process. Idle entries are swept periodically.
type Hub struct {
	mu    sync.Mutex
	games map[string]*gameLock
	now   func() time.Time
}

type gameLock struct {
	mu       sync.Mutex
	holders  int
	lastSeen time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{games: make(map[string]*gameLock), now: time.Now}
}

// Lock blocks until the caller owns the game's lock and returns the release func.
func (h *Hub) Lock(id string) func() {
	h.mu.Lock()
	l, ok := h.games[id]
	if !ok {
		l = &gameLock{}
		h.games[id] = l
	}
	l.holders++
	l.lastSeen = h.now()
	h.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.mu.Lock()
		l.holders--
		l.lastSeen = h.now()
		h.mu.Unlock()
	}
}

// Sweep drops entries nobody holds or waits on that have been idle longer
// than idle. It returns how many were removed.
func (h *Hub) Sweep(idle time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	removed := 0
	for id, l := range h.games {
		if l.holders == 0 && now.Sub(l.lastSeen) > idle {
			delete(h.games, id)
			removed++
		}
	}
	return removed
}

// Len reports how many games currently have an entry.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.games)
}

// Run sweeps every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(idle)
		}
	}
}
