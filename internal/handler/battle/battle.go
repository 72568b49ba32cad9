// Package battle exposes the arena engine over plain HTTP.
package battle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/handler/respond"
	"github.com/syntaxarena/arena/internal/history"
)

// Engine is the part of *arena.Engine served over HTTP.
type Engine interface {
	JoinQueue(ctx context.Context, p arena.Player) arena.JoinResult
	LeaveQueue(playerID string) bool
	QueueSize() int
	Session(sessionID string) (arena.Session, bool)
	SessionByPlayer(playerID string) (arena.Session, bool)
	UpdateProgress(sessionID, playerID string, progress, testsPassed, totalTests int) (arena.ProgressResult, error)
	SubmitSolution(ctx context.Context, sessionID, playerID string, allPassed bool, testsPassed, totalTests int) (arena.SubmitResult, error)
	HandleTimeout(ctx context.Context, sessionID string) (arena.TimeoutResult, error)
}

type Results interface {
	ListByPlayer(ctx context.Context, playerID string, limit int) ([]history.Result, error)
}

const maxResults = 100

type Handler struct {
	engine  Engine
	results Results
	logger  *slog.Logger
}

func NewHandler(engine Engine, results Results, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, results: results, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/queue", h.join)
	r.Get("/queue", h.queue)
	r.Delete("/queue/{playerID}", h.leave)
	r.Get("/sessions/{sessionID}", h.session)
	r.Post("/sessions/{sessionID}/progress", h.progress)
	r.Post("/sessions/{sessionID}/submit", h.submit)
	r.Post("/sessions/{sessionID}/timeout", h.timeout)
	r.Get("/players/{playerID}/session", h.playerSession)
	r.Get("/players/{playerID}/results", h.playerResults)
	return r
}

type JoinRequest struct {
	PlayerID string `json:"playerId" required:"true"`
	Username string `json:"username"`
	Rating   int    `json:"rating"`
}

type JoinResponse struct {
	Status    string         `json:"status" enum:"MATCHED,SEARCHING"`
	QueueSize int            `json:"queueSize"`
	Session   *arena.Session `json:"session,omitempty"`
}

type LeaveResponse struct {
	Removed bool `json:"removed"`
}

type QueueResponse struct {
	Size int `json:"size"`
}

type ProgressRequest struct {
	PlayerID    string `json:"playerId" required:"true"`
	Progress    int    `json:"progress" minimum:"0" maximum:"100"`
	TestsPassed int    `json:"testsPassed" minimum:"0"`
	TotalTests  int    `json:"totalTests" minimum:"0"`
}

type ProgressResponse struct {
	Player arena.Player `json:"player"`
}

type SubmitRequest struct {
	PlayerID    string `json:"playerId" required:"true"`
	AllPassed   bool   `json:"allPassed"`
	TestsPassed int    `json:"testsPassed" minimum:"0"`
	TotalTests  int    `json:"totalTests" minimum:"0"`
}

type SubmitResponse struct {
	Won     bool          `json:"won"`
	Session arena.Session `json:"session"`
}

type TimeoutResponse struct {
	WinnerID *string       `json:"winnerId"`
	Session  arena.Session `json:"session"`
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PlayerID == "" {
		respond.Error(w, http.StatusBadRequest, "playerId is required")
		return
	}

	res := h.engine.JoinQueue(r.Context(), arena.Player{
		ID:       req.PlayerID,
		Username: req.Username,
		Rating:   req.Rating,
	})

	resp := JoinResponse{Status: "SEARCHING", QueueSize: res.QueueSize}
	if res.Matched {
		resp.Status = "MATCHED"
		resp.Session = &res.Session
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	removed := h.engine.LeaveQueue(chi.URLParam(r, "playerID"))
	respond.JSON(w, http.StatusOK, LeaveResponse{Removed: removed})
}

func (h *Handler) queue(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, QueueResponse{Size: h.engine.QueueSize()})
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) {
	s, ok := h.engine.Session(chi.URLParam(r, "sessionID"))
	if !ok {
		respond.Error(w, http.StatusNotFound, arena.ErrSessionNotFound.Error())
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) playerSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.engine.SessionByPlayer(chi.URLParam(r, "playerID"))
	if !ok {
		respond.Error(w, http.StatusNotFound, arena.ErrSessionNotFound.Error())
		return
	}
	respond.JSON(w, http.StatusOK, s)
}

func (h *Handler) progress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validCounts(req.PlayerID, req.TestsPassed, req.TotalTests); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.engine.UpdateProgress(chi.URLParam(r, "sessionID"), req.PlayerID, req.Progress, req.TestsPassed, req.TotalTests)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ProgressResponse{Player: res.Player})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validCounts(req.PlayerID, req.TestsPassed, req.TotalTests); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.engine.SubmitSolution(r.Context(), chi.URLParam(r, "sessionID"), req.PlayerID, req.AllPassed, req.TestsPassed, req.TotalTests)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, SubmitResponse{Won: res.Won, Session: res.Session})
}

func (h *Handler) timeout(w http.ResponseWriter, r *http.Request) {
	res, err := h.engine.HandleTimeout(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	resp := TimeoutResponse{Session: res.Session}
	if res.WinnerID != "" {
		resp.WinnerID = &res.WinnerID
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) playerResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respond.Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxResults)
	}

	results, err := h.results.ListByPlayer(r.Context(), chi.URLParam(r, "playerID"), limit)
	if err != nil {
		h.logger.Error("listing results", "player_id", chi.URLParam(r, "playerID"), "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, results)
}

func validCounts(playerID string, testsPassed, totalTests int) string {
	switch {
	case playerID == "":
		return "playerId is required"
	case testsPassed < 0 || totalTests < 0:
		return "test counts must not be negative"
	}
	return ""
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arena.ErrSessionNotFound):
		respond.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, arena.ErrNotInSession):
		respond.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, arena.ErrSessionCompleted), errors.Is(err, arena.ErrSessionNotActive):
		respond.Error(w, http.StatusConflict, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
