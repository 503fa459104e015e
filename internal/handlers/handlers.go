package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"wordwatch/internal/game"
	"wordwatch/internal/replay"
	"wordwatch/internal/storage"
)

// TokenHeader carries the player token issued by start and join.
const TokenHeader = "X-Player-Token"

// BuildInfo is reported by /version.
type BuildInfo struct {
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Games *game.Service
	Log   *slog.Logger
	Build BuildInfo
}

// NewHandler creates a new handler instance
func NewHandler(games *game.Service, logger *slog.Logger, build BuildInfo) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Games: games, Log: logger, Build: build}
}

// Routes registers every endpoint and wraps them in request logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /start", h.HandleStart)
	mux.HandleFunc("POST /games/{id}/join", h.HandleJoin)
	mux.HandleFunc("GET /games/{id}/joined", h.HandleJoined)
	mux.HandleFunc("POST /games/{id}/send", h.HandleSend)
	mux.HandleFunc("GET /games/{id}/poll", h.HandlePoll)
	mux.HandleFunc("GET /games/{id}/replay", h.HandleReplay)
	mux.HandleFunc("GET /stats", h.HandleStats)
	mux.HandleFunc("GET /version", h.HandleVersion)
	return RequestLogging(h.Log)(mux)
}

type secretRequest struct {
	Secret string `json:"secret"`
}

type sendRequest struct {
	Text  string `json:"text"`
	Guess string `json:"guess"`
}

// HandleStart creates a game for player 1
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var body secretRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	sess, err := h.Games.Start(r.Context(), body.Secret)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "session": sess})
}

// HandleJoin lets player 2 submit their secret
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var body secretRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	sess, err := h.Games.Join(r.Context(), id, body.Secret)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "session": sess})
}

// HandleJoined reports whether player 2 is in
func (h *Handler) HandleJoined(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	joined, err := h.Games.Joined(r.Context(), id)
	if err != nil && !game.IsNotFound(err) {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"joined": joined})
}

// HandleSend posts a chat message and optional guess
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	token := strings.TrimSpace(r.Header.Get(TokenHeader))
	if token == "" {
		writeError(w, http.StatusForbidden, "no player session found")
		return
	}
	var body sendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	res, err := h.Games.Send(r.Context(), id, token, body.Text, body.Guess)
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "result": res})
}

// HandlePoll returns messages newer than after_id
func (h *Handler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	var after uint64
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		var err error
		if after, err = strconv.ParseUint(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "bad after_id")
			return
		}
	}
	view, err := h.Games.Poll(r.Context(), id, uint(after))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// HandleReplay streams the finished game's turn records as JSON lines
func (h *Handler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}
	records, err := h.Games.Replay(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=game_"+id.String()+".jsonl")
	w.Header().Add("Vary", "Accept-Encoding")
	write := replay.WriteJSONL
	if acceptsGzip(r) {
		w.Header().Set("Content-Encoding", "gzip")
		write = replay.WriteGzipJSONL
	}
	w.WriteHeader(http.StatusOK)
	if err := write(w, records); err != nil {
		h.Log.Warn("replay download interrupted", "game_id", id.String(), "err", err)
	}
}

// HandleStats reports game counts
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Games.Stats(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// HandleVersion reports the running build
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Build)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case game.IsNotFound(err):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, game.ErrInvalidWord),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrUnknownPlayer),
		errors.Is(err, game.ErrReplayUnavailable):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrNotStarted),
		errors.Is(err, storage.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNoReplay):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.Log.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "game not found")
		return uuid.Nil, false
	}
	return id, true
}

func acceptsGzip(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(enc, "gzip") {
			return true
		}
	}
	return false
}
