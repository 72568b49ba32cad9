// Package history persists the outcome of finished battles. Live sessions
// stay in memory; only COMPLETED sessions are written, once each.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/syntaxarena/arena/internal/arena"
)

var (
	ErrNotFound     = errors.New("result not found")
	ErrNotCompleted = errors.New("session not completed")
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Participant struct {
	PlayerID    string `json:"playerId"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	Progress    int    `json:"progress"`
	TestsPassed int    `json:"testsPassed"`
	TotalTests  int    `json:"totalTests"`
	Submitted   bool   `json:"submitted"`
}

type Result struct {
	SessionID       string          `json:"sessionId"`
	ProblemID       string          `json:"problemId"`
	ProblemTitle    string          `json:"problemTitle"`
	Difficulty      string          `json:"difficulty"`
	WinnerID        string          `json:"winnerId,omitempty"`
	EndReason       arena.EndReason `json:"reason"`
	DurationSeconds int             `json:"durationSeconds"`
	StartedAt       time.Time       `json:"startedAt"`
	EndedAt         time.Time       `json:"endedAt"`
	Participants    []Participant   `json:"participants"`
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordResult writes a completed session. Recording the same session again
// is a no-op.
func (s *Store) RecordResult(ctx context.Context, sess arena.Session) error {
	if sess.Status != arena.StatusCompleted {
		return ErrNotCompleted
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM match_results WHERE session_id = ?)`, sess.ID,
	).Scan(&exists); err != nil {
		return fmt.Errorf("checking result: %w", err)
	}
	if exists {
		return nil
	}

	var winner sql.NullString
	if sess.WinnerID != "" {
		winner = sql.NullString{String: sess.WinnerID, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_results
			(session_id, problem_id, problem_title, difficulty, winner_id, end_reason, duration_seconds, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sess.ID, sess.ProblemID, sess.ProblemTitle, sess.Difficulty, winner, string(sess.EndReason),
		sess.DurationSeconds, formatTime(sess.StartTime), formatTime(sess.EndTime))
	if err != nil {
		return fmt.Errorf("inserting result: %w", err)
	}

	for _, p := range sess.Players {
		submitted := 0
		if p.Submitted {
			submitted = 1
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO match_participants
				(session_id, player_id, username, rating, progress, tests_passed, total_tests, submitted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, sess.ID, p.ID, p.Username, p.Rating, p.Progress, p.TestsPassed, p.TotalTests, submitted)
		if err != nil {
			return fmt.Errorf("inserting participant %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing result: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (Result, error) {
	rows, err := s.db.QueryContext(ctx, selectResults+`WHERE session_id = ?`, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("querying result: %w", err)
	}
	results, err := scanResults(rows)
	if err != nil {
		return Result{}, err
	}
	if len(results) == 0 {
		return Result{}, ErrNotFound
	}
	if err := s.loadParticipants(ctx, results); err != nil {
		return Result{}, err
	}
	return results[0], nil
}

// ListByPlayer returns the player's most recent results first.
func (s *Store) ListByPlayer(ctx context.Context, playerID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectResults+`
		WHERE session_id IN (SELECT session_id FROM match_participants WHERE player_id = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	results, err := scanResults(rows)
	if err != nil {
		return nil, err
	}
	if err := s.loadParticipants(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

const selectResults = `
	SELECT session_id, problem_id, problem_title, difficulty, COALESCE(winner_id, ''),
		end_reason, duration_seconds, started_at, ended_at
	FROM match_results
`

// scanResults drains and closes rows before any follow-up query runs, since
// the in-memory database has a single connection.
func scanResults(rows *sql.Rows) ([]Result, error) {
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r                  Result
			reason             string
			startedAt, endedAt string
		)
		if err := rows.Scan(&r.SessionID, &r.ProblemID, &r.ProblemTitle, &r.Difficulty, &r.WinnerID,
			&reason, &r.DurationSeconds, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		r.EndReason = arena.EndReason(reason)
		var err error
		if r.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if r.EndedAt, err = time.Parse(timeLayout, endedAt); err != nil {
			return nil, fmt.Errorf("parsing ended_at: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *Store) loadParticipants(ctx context.Context, results []Result) error {
	for i := range results {
		rows, err := s.db.QueryContext(ctx, `
			SELECT player_id, username, rating, progress, tests_passed, total_tests, submitted
			FROM match_participants
			WHERE session_id = ?
			ORDER BY rowid
		`, results[i].SessionID)
		if err != nil {
			return fmt.Errorf("querying participants: %w", err)
		}

		for rows.Next() {
			var (
				p         Participant
				submitted int
			)
			if err := rows.Scan(&p.PlayerID, &p.Username, &p.Rating, &p.Progress,
				&p.TestsPassed, &p.TotalTests, &submitted); err != nil {
				rows.Close()
				return fmt.Errorf("scanning participant: %w", err)
			}
			p.Submitted = submitted == 1
			results[i].Participants = append(results[i].Participants, p)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return fmt.Errorf("reading participants: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
