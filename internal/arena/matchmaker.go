package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// ProblemGenerator supplies the exercise for a new session. Implementations
// are expected to fall back to built-in content instead of failing.
type ProblemGenerator interface {
	Generate(ctx context.Context, topic, difficulty, language string) (Problem, error)
}

type MatchmakerConfig struct {
	Topic      string
	Difficulty string
	Language   string
}

type Matchmaker struct {
	queue    *Queue
	store    *Store
	problems ProblemGenerator
	cfg      MatchmakerConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewMatchmaker(queue *Queue, store *Store, problems ProblemGenerator, cfg MatchmakerConfig, logger *slog.Logger) *Matchmaker {
	if cfg.Topic == "" {
		cfg.Topic = "Arrays"
	}
	if cfg.Difficulty == "" {
		cfg.Difficulty = "Medium"
	}
	if cfg.Language == "" {
		cfg.Language = "java"
	}
	return &Matchmaker{
		queue:    queue,
		store:    store,
		problems: problems,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// AttemptMatch pairs the two longest-waiting players into a new session.
// It reports false when fewer than two players are waiting.
//
// The problem is fetched after the pair has left the queue and before the
// store is touched, so a slow generator holds no lock.
func (m *Matchmaker) AttemptMatch(ctx context.Context) (Session, bool, error) {
	a, b, ok := m.queue.DequeuePair()
	if !ok {
		return Session{}, false, nil
	}

	problem, err := m.problems.Generate(ctx, m.cfg.Topic, m.cfg.Difficulty, m.cfg.Language)
	if err != nil {
		m.queue.Requeue(a, b)
		return Session{}, false, fmt.Errorf("generating problem for %s vs %s: %w", a.ID, b.ID, err)
	}
	problem.ID = "gen_" + strconv.FormatInt(m.now().UnixMilli(), 10)
	if problem.Difficulty == "" {
		problem.Difficulty = m.cfg.Difficulty
	}

	sess, err := m.store.Create(problem, a, b)
	if errors.Is(err, ErrDuplicatePlayer) {
		m.logger.Error("pairing rejected by session store",
			"player_a", a.ID,
			"player_b", b.ID,
			"error", err,
		)
		// Give back whoever is free so they are not stranded.
		var free []Player
		for _, p := range []Player{a, b} {
			if !m.store.Live(p.ID) {
				free = append(free, p)
			}
		}
		m.queue.Requeue(free...)
		return Session{}, false, err
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("creating session: %w", err)
	}

	m.logger.Info("match found",
		"session_id", sess.ID,
		"player_a", a.ID,
		"player_b", b.ID,
		"problem", sess.ProblemTitle,
	)
	return sess, true, nil
}
