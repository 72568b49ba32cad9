package live

import (
	"fmt"
	"net/http"
	"time"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/handler/respond"
)

// Events is a read-only server-sent event stream carrying the same messages
// as the websocket.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		respond.Error(w, http.StatusBadRequest, "playerId query parameter required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	f := newFeed(h.broker, playerID)
	defer f.close()
	if s, ok := h.engine.SessionByPlayer(playerID); ok && s.Status != arena.StatusCompleted {
		f.follow(s.ID)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case data := <-f.player:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.observe(data), data)
			flusher.Flush()
		case data := <-f.session:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", peek(data).Type, data)
			flusher.Flush()
		case <-ping.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}
