package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/swaggest/swgui/v5emb"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/handler/battle"
	"github.com/syntaxarena/arena/internal/handler/health"
	"github.com/syntaxarena/arena/internal/handler/live"
	"github.com/syntaxarena/arena/internal/handler/respond"
	"github.com/syntaxarena/arena/internal/history"
)

type sessionPath struct {
	SessionID string `path:"sessionID"`
}

type playerPath struct {
	PlayerID string `path:"playerID"`
}

type playerQuery struct {
	PlayerID string `query:"playerId" required:"true"`
}

type progressOp struct {
	SessionID string `path:"sessionID"`
	battle.ProgressRequest
}

type submitOp struct {
	SessionID string `path:"sessionID"`
	battle.SubmitRequest
}

type resultsOp struct {
	PlayerID string `path:"playerID"`
	Limit    int    `query:"limit" minimum:"1" maximum:"100" default:"20"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Syntax Arena API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Matchmaking and live state for 1v1 coding battles.")

	notFound := openapi.WithHTTPStatus(http.StatusNotFound)
	badRequest := openapi.WithHTTPStatus(http.StatusBadRequest)

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Report{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/arena/queue
	join, _ := r.NewOperationContext(http.MethodPost, "/api/arena/queue")
	join.SetSummary("Join queue")
	join.SetDescription("Queues the player and pairs waiting players. A player already in a live session gets that session back.")
	join.AddReqStructure(battle.JoinRequest{})
	join.AddRespStructure(battle.JoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	join.AddRespStructure(respond.ErrorResponse{}, badRequest)
	_ = r.AddOperation(join)

	// GET /api/arena/queue
	queue, _ := r.NewOperationContext(http.MethodGet, "/api/arena/queue")
	queue.SetSummary("Queue size")
	queue.AddRespStructure(battle.QueueResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(queue)

	// DELETE /api/arena/queue/{playerID}
	leave, _ := r.NewOperationContext(http.MethodDelete, "/api/arena/queue/{playerID}")
	leave.SetSummary("Leave queue")
	leave.SetDescription("Best effort. A pairing already in progress is not undone.")
	leave.AddReqStructure(playerPath{})
	leave.AddRespStructure(battle.LeaveResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(leave)

	// GET /api/arena/sessions/{sessionID}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/arena/sessions/{sessionID}")
	getSession.SetSummary("Get session")
	getSession.AddReqStructure(sessionPath{})
	getSession.AddRespStructure(arena.Session{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(respond.ErrorResponse{}, notFound)
	_ = r.AddOperation(getSession)

	// POST /api/arena/sessions/{sessionID}/progress
	progress, _ := r.NewOperationContext(http.MethodPost, "/api/arena/sessions/{sessionID}/progress")
	progress.SetSummary("Report progress")
	progress.SetDescription("Overwrites the player's progress and relays it to the opponent.")
	progress.AddReqStructure(progressOp{})
	progress.AddRespStructure(battle.ProgressResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	addEngineErrors(progress)
	_ = r.AddOperation(progress)

	// POST /api/arena/sessions/{sessionID}/submit
	submit, _ := r.NewOperationContext(http.MethodPost, "/api/arena/sessions/{sessionID}/submit")
	submit.SetSummary("Submit solution")
	submit.SetDescription("Records a submission. The first submission with all tests passing wins the battle.")
	submit.AddReqStructure(submitOp{})
	submit.AddRespStructure(battle.SubmitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	addEngineErrors(submit)
	_ = r.AddOperation(submit)

	// POST /api/arena/sessions/{sessionID}/timeout
	timeout, _ := r.NewOperationContext(http.MethodPost, "/api/arena/sessions/{sessionID}/timeout")
	timeout.SetSummary("End on time")
	timeout.SetDescription("Ends the battle; the player with strictly higher progress wins, otherwise there is no winner.")
	timeout.AddReqStructure(sessionPath{})
	timeout.AddRespStructure(battle.TimeoutResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	timeout.AddRespStructure(respond.ErrorResponse{}, notFound)
	timeout.AddRespStructure(respond.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(timeout)

	// GET /api/arena/players/{playerID}/session
	playerSession, _ := r.NewOperationContext(http.MethodGet, "/api/arena/players/{playerID}/session")
	playerSession.SetSummary("Current session of a player")
	playerSession.AddReqStructure(playerPath{})
	playerSession.AddRespStructure(arena.Session{}, openapi.WithHTTPStatus(http.StatusOK))
	playerSession.AddRespStructure(respond.ErrorResponse{}, notFound)
	_ = r.AddOperation(playerSession)

	// GET /api/arena/players/{playerID}/results
	results, _ := r.NewOperationContext(http.MethodGet, "/api/arena/players/{playerID}/results")
	results.SetSummary("Match history")
	results.SetDescription("Finished battles of the player, newest first.")
	results.AddReqStructure(resultsOp{})
	results.AddRespStructure([]history.Result{}, openapi.WithHTTPStatus(http.StatusOK))
	results.AddRespStructure(respond.ErrorResponse{}, badRequest)
	_ = r.AddOperation(results)

	// GET /api/arena/events
	events, _ := r.NewOperationContext(http.MethodGet, "/api/arena/events")
	events.SetSummary("SSE event stream")
	events.SetDescription("Server-Sent Events carrying the player's messages and those of their current session.")
	events.AddReqStructure(playerQuery{})
	events.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	events.AddRespStructure(respond.ErrorResponse{}, badRequest)
	_ = r.AddOperation(events)

	// GET /ws/arena
	ws, _ := r.NewOperationContext(http.MethodGet, "/ws/arena")
	ws.SetSummary("Arena WebSocket")
	ws.SetDescription("Upgrades to a WebSocket. Clients send JOIN_QUEUE, LEAVE_QUEUE, PROGRESS_UPDATE, SUBMIT_SOLUTION and TIMEOUT frames and receive the same messages as the event stream.")
	ws.AddReqStructure(playerQuery{})
	ws.AddRespStructure(live.Frame{}, openapi.WithHTTPStatus(http.StatusSwitchingProtocols))
	ws.AddRespStructure(respond.ErrorResponse{}, badRequest)
	_ = r.AddOperation(ws)

	return r.Spec
}

func addEngineErrors(op openapi.OperationContext) {
	op.AddRespStructure(respond.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	op.AddRespStructure(respond.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	op.AddRespStructure(respond.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	op.AddRespStructure(respond.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

func handleSwaggerUI() http.Handler {
	return v5emb.New("Syntax Arena API", "/openapi.json", "/docs")
}
