package arena

import (
	"context"
	"log/slog"
	"time"
)

// ResultRecorder stores the outcome of completed sessions.
type ResultRecorder interface {
	RecordResult(ctx context.Context, s Session) error
}

type Config struct {
	// Duration is the time budget of every battle.
	Duration time.Duration
	// Retention is how long a completed session stays readable before
	// ReapCompleted removes it.
	Retention  time.Duration
	Matchmaker MatchmakerConfig
}

// Engine is the entry point for player actions. It owns the queue and the
// session store and routes every transition through the notifier.
type Engine struct {
	queue      *Queue
	store      *Store
	matchmaker *Matchmaker
	mutator    *Mutator
	notifier   *Notifier
	recorder   ResultRecorder
	retention  time.Duration
	logger     *slog.Logger
}

// NewEngine wires a fresh queue and store. rec may be nil.
func NewEngine(cfg Config, problems ProblemGenerator, pub Publisher, rec ResultRecorder, logger *slog.Logger) *Engine {
	queue := NewQueue()
	store := NewStore(cfg.Duration)
	return &Engine{
		queue:      queue,
		store:      store,
		matchmaker: NewMatchmaker(queue, store, problems, cfg.Matchmaker, logger),
		mutator:    NewMutator(store),
		notifier:   NewNotifier(pub),
		recorder:   rec,
		retention:  cfg.Retention,
		logger:     logger,
	}
}

type JoinResult struct {
	Matched   bool
	Session   Session
	QueueSize int
}

// JoinQueue puts p in the queue and pairs waiting players. A player who is
// already in a live session is sent that session again instead of queueing.
func (e *Engine) JoinQueue(ctx context.Context, p Player) JoinResult {
	if s, ok := e.store.GetByPlayer(p.ID); ok && s.Status != StatusCompleted {
		e.notifier.Resume(p.ID, s)
		return JoinResult{Matched: true, Session: s, QueueSize: e.queue.Size()}
	}

	e.queue.Enqueue(p)
	e.logger.Info("player joined queue", "player_id", p.ID, "username", p.Username, "queue_size", e.queue.Size())

	for _, s := range e.matchAll(ctx) {
		if _, ok := s.Player(p.ID); ok {
			return JoinResult{Matched: true, Session: s, QueueSize: e.queue.Size()}
		}
	}

	// A concurrent join may have paired p; only ack while still waiting.
	size := e.queue.Size()
	if e.queue.Contains(p.ID) {
		e.notifier.Queued(p.ID, size)
	}
	return JoinResult{QueueSize: size}
}

// LeaveQueue is best effort: a pairing already in flight for the player wins.
func (e *Engine) LeaveQueue(playerID string) bool {
	removed := e.queue.Remove(playerID)
	e.logger.Info("player left queue", "player_id", playerID, "removed", removed)
	e.notifier.Left(playerID, removed)
	return removed
}

// Matchmake pairs waiting players until fewer than two remain and returns
// the number of sessions created.
func (e *Engine) Matchmake(ctx context.Context) int {
	return len(e.matchAll(ctx))
}

func (e *Engine) UpdateProgress(sessionID, playerID string, progress, testsPassed, totalTests int) (ProgressResult, error) {
	res, err := e.mutator.UpdateProgress(sessionID, playerID, progress, testsPassed, totalTests)
	if err != nil {
		e.logger.Debug("progress update ignored", "session_id", sessionID, "player_id", playerID, "error", err)
		return res, err
	}
	e.notifier.Progress(res.Session, res.Player)
	return res, nil
}

func (e *Engine) SubmitSolution(ctx context.Context, sessionID, playerID string, allPassed bool, testsPassed, totalTests int) (SubmitResult, error) {
	res, err := e.mutator.Submit(sessionID, playerID, allPassed, testsPassed, totalTests)
	if err != nil {
		e.logger.Debug("submission ignored", "session_id", sessionID, "player_id", playerID, "error", err)
		return res, err
	}
	if res.Won {
		e.finish(ctx, res.Session)
		return res, nil
	}
	e.notifier.Submitted(res.Session, res.Player)
	return res, nil
}

func (e *Engine) HandleTimeout(ctx context.Context, sessionID string) (TimeoutResult, error) {
	res, err := e.mutator.HandleTimeout(sessionID)
	if err != nil {
		e.logger.Debug("timeout ignored", "session_id", sessionID, "error", err)
		return res, err
	}
	e.finish(ctx, res.Session)
	return res, nil
}

func (e *Engine) Cleanup(sessionID string) bool {
	return e.mutator.Cleanup(sessionID)
}

func (e *Engine) Session(sessionID string) (Session, bool) {
	return e.store.Get(sessionID)
}

func (e *Engine) SessionByPlayer(playerID string) (Session, bool) {
	return e.store.GetByPlayer(playerID)
}

func (e *Engine) QueueSize() int {
	return e.queue.Size()
}

// ExpireOverdue times out every ACTIVE session whose deadline is before now.
func (e *Engine) ExpireOverdue(ctx context.Context, now time.Time) int {
	n := 0
	for _, s := range e.store.Sessions() {
		if s.Status != StatusActive || !now.After(s.Deadline()) {
			continue
		}
		// A winning submit may get there first; that is not an error.
		if _, err := e.HandleTimeout(ctx, s.ID); err == nil {
			n++
		}
	}
	return n
}

// ReapCompleted removes sessions that completed at least Retention ago.
func (e *Engine) ReapCompleted(now time.Time) int {
	n := 0
	for _, s := range e.store.Sessions() {
		if s.Status != StatusCompleted || now.Sub(s.EndTime) < e.retention {
			continue
		}
		if e.Cleanup(s.ID) {
			n++
		}
	}
	return n
}

func (e *Engine) matchAll(ctx context.Context) []Session {
	var created []Session
	for {
		s, ok, err := e.matchmaker.AttemptMatch(ctx)
		if err != nil {
			e.logger.Error("matchmaking failed", "error", err)
			return created
		}
		if !ok {
			return created
		}
		e.notifier.MatchFound(s)
		created = append(created, s)
	}
}

func (e *Engine) finish(ctx context.Context, s Session) {
	e.logger.Info("game ended",
		"session_id", s.ID,
		"winner_id", s.WinnerID,
		"reason", s.EndReason,
	)
	e.notifier.GameEnd(s)

	if e.recorder == nil {
		return
	}
	if err := e.recorder.RecordResult(ctx, s); err != nil {
		e.logger.Error("recording result failed", "session_id", s.ID, "error", err)
	}
}
