// Package live streams arena messages to players over websockets and
// server-sent events, and accepts player actions on the websocket.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/handler/respond"
)

// Engine is the part of *arena.Engine players drive from a live connection.
type Engine interface {
	JoinQueue(ctx context.Context, p arena.Player) arena.JoinResult
	LeaveQueue(playerID string) bool
	SessionByPlayer(playerID string) (arena.Session, bool)
	UpdateProgress(sessionID, playerID string, progress, testsPassed, totalTests int) (arena.ProgressResult, error)
	SubmitSolution(ctx context.Context, sessionID, playerID string, allPassed bool, testsPassed, totalTests int) (arena.SubmitResult, error)
	HandleTimeout(ctx context.Context, sessionID string) (arena.TimeoutResult, error)
}

// Inbound message types.
const (
	JoinQueue      = "JOIN_QUEUE"
	LeaveQueue     = "LEAVE_QUEUE"
	ProgressUpdate = "PROGRESS_UPDATE"
	SubmitSolution = "SUBMIT_SOLUTION"
	Timeout        = "TIMEOUT"
)

// Frame is a message sent by the client. SessionID may be left empty once
// the player is in a session.
type Frame struct {
	Type        string `json:"type"`
	SessionID   string `json:"sessionId,omitempty"`
	Username    string `json:"username,omitempty"`
	Rating      int    `json:"rating,omitempty"`
	Progress    int    `json:"progress,omitempty"`
	TestsPassed int    `json:"testsPassed,omitempty"`
	TotalTests  int    `json:"totalTests,omitempty"`
	AllPassed   bool   `json:"allPassed,omitempty"`
}

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second
)

type Handler struct {
	engine  Engine
	broker  Broker
	origins []string
	logger  *slog.Logger
}

func NewHandler(engine Engine, broker Broker, origins []string, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, broker: broker, origins: origins, logger: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/arena", h.socket)
	return r
}

func (h *Handler) socket(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		respond.Error(w, http.StatusBadRequest, "playerId query parameter required")
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     h.origins,
		InsecureSkipVerify: len(h.origins) == 0,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	f := newFeed(h.broker, playerID)
	defer f.close()
	if s, ok := h.engine.SessionByPlayer(playerID); ok && s.Status != arena.StatusCompleted {
		f.follow(s.ID)
	}

	h.logger.Info("player connected", "player_id", playerID)
	defer func() {
		// Best effort: a pairing already in flight wins.
		h.engine.LeaveQueue(playerID)
		h.logger.Info("player disconnected", "player_id", playerID)
	}()

	go h.readLoop(ctx, cancel, conn, playerID)

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-f.player:
			f.observe(data)
			if err := write(ctx, conn, data); err != nil {
				h.logger.Debug("websocket write failed", "player_id", playerID, "error", err)
				return
			}
		case data := <-f.session:
			if err := write(ctx, conn, data); err != nil {
				h.logger.Debug("websocket write failed", "player_id", playerID, "error", err)
				return
			}
		case <-ping.C:
			pctx, pcancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pctx)
			pcancel()
			if err != nil {
				h.logger.Debug("websocket ping failed", "player_id", playerID, "error", err)
				return
			}
		}
	}
}

func (h *Handler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, playerID string) {
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Debug("websocket read ended", "player_id", playerID, "error", err)
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reject(ctx, conn, playerID, "invalid message")
			continue
		}
		if err := h.dispatch(ctx, playerID, frame); err != nil {
			h.reject(ctx, conn, playerID, err.Error())
		}
	}
}

var (
	errUnknownType = errors.New("unknown message type")
	errNoSession   = errors.New("no active session")
)

func (h *Handler) dispatch(ctx context.Context, playerID string, f Frame) error {
	switch f.Type {
	case JoinQueue:
		h.engine.JoinQueue(ctx, arena.Player{ID: playerID, Username: f.Username, Rating: f.Rating})
		return nil
	case LeaveQueue:
		h.engine.LeaveQueue(playerID)
		return nil
	case ProgressUpdate, SubmitSolution, Timeout:
	default:
		return fmt.Errorf("%w: %q", errUnknownType, f.Type)
	}

	sessionID := f.SessionID
	if sessionID == "" {
		s, ok := h.engine.SessionByPlayer(playerID)
		if !ok {
			return errNoSession
		}
		sessionID = s.ID
	}

	var err error
	switch f.Type {
	case ProgressUpdate:
		_, err = h.engine.UpdateProgress(sessionID, playerID, f.Progress, f.TestsPassed, f.TotalTests)
	case SubmitSolution:
		_, err = h.engine.SubmitSolution(ctx, sessionID, playerID, f.AllPassed, f.TestsPassed, f.TotalTests)
	case Timeout:
		_, err = h.engine.HandleTimeout(ctx, sessionID)
	}
	// Late events for a finished battle are dropped silently.
	if errors.Is(err, arena.ErrSessionCompleted) {
		return nil
	}
	return err
}

// reject answers the sending connection only.
func (h *Handler) reject(ctx context.Context, conn *websocket.Conn, playerID, reason string) {
	data, _ := json.Marshal(arena.Message{
		Type:     arena.MsgError,
		PlayerID: playerID,
		Payload:  arena.ErrorPayload{Error: reason},
	})
	if err := write(ctx, conn, data); err != nil {
		h.logger.Debug("websocket write failed", "player_id", playerID, "error", err)
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
