package arena_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/syntaxarena/arena/internal/arena"
)

type published struct {
	Topic string
	Msg   arena.Message
}

// recorder captures every published message.
type recorder struct {
	mu   sync.Mutex
	msgs []published
}

func (r *recorder) Publish(topic string, msg arena.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, published{Topic: topic, Msg: msg})
}

func (r *recorder) on(topic string) []arena.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []arena.Message
	for _, m := range r.msgs {
		if m.Topic == topic {
			out = append(out, m.Msg)
		}
	}
	return out
}

func (r *recorder) ofType(t arena.MessageType) []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []published
	for _, m := range r.msgs {
		if m.Msg.Type == t {
			out = append(out, m)
		}
	}
	return out
}

type staticProblems struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *staticProblems) Generate(_ context.Context, topic, difficulty, language string) (arena.Problem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return arena.Problem{}, g.err
	}
	return arena.Problem{
		Title:       "Longest Substring Without Repeating Characters",
		Description: "Given a string s, find the length of the longest substring without repeating characters.",
		StarterCode: "public class Solution {}",
		Difficulty:  difficulty,
	}, nil
}

type memResults struct {
	mu       sync.Mutex
	sessions []arena.Session
}

func (m *memResults) RecordResult(_ context.Context, s arena.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, s)
	return nil
}

var errGeneratorDown = errors.New("generator down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func player(id string) arena.Player {
	return arena.Player{ID: id, Username: "user-" + id, Rating: 1200}
}

func newEngine(t *testing.T) (*arena.Engine, *recorder, *memResults) {
	t.Helper()
	pub := &recorder{}
	results := &memResults{}
	e := arena.NewEngine(arena.Config{}, &staticProblems{}, pub, results, discardLogger())
	return e, pub, results
}

// activeSession pairs p1 and p2 and returns their session.
func activeSession(t *testing.T, e *arena.Engine, p1, p2 string) arena.Session {
	t.Helper()
	e.JoinQueue(context.Background(), player(p1))
	res := e.JoinQueue(context.Background(), player(p2))
	if !res.Matched {
		t.Fatalf("expected %s and %s to be matched", p1, p2)
	}
	return res.Session
}
