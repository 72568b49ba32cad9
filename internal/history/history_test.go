package history_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxarena/arena/internal/arena"
	"github.com/syntaxarena/arena/internal/database"
	"github.com/syntaxarena/arena/internal/history"
	"github.com/syntaxarena/arena/internal/migrations"
)

func newStore(t *testing.T) *history.Store {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(db))
	return history.NewStore(db)
}

var base = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func completed(id, winner string, ended time.Time, players ...string) arena.Session {
	s := arena.Session{
		ID:              id,
		ProblemID:       "gen_1",
		ProblemTitle:    "Two Sum",
		Difficulty:      "Easy",
		StartTime:       ended.Add(-5 * time.Minute),
		DurationSeconds: 900,
		WinnerID:        winner,
		Status:          arena.StatusCompleted,
		EndReason:       arena.ReasonSolved,
		EndTime:         ended,
	}
	if winner == "" {
		s.EndReason = arena.ReasonTimeout
	}
	for i, p := range players {
		s.Players = append(s.Players, arena.Player{
			ID:          p,
			Username:    "user-" + p,
			Rating:      1200 + i,
			Progress:    50 * (i + 1),
			TestsPassed: i + 1,
			TotalTests:  2,
			Submitted:   p == winner,
		})
	}
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sess := completed("s1", "b", base, "a", "b")

	require.NoError(t, s.RecordResult(ctx, sess))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.WinnerID)
	assert.Equal(t, arena.ReasonSolved, got.EndReason)
	assert.Equal(t, "Two Sum", got.ProblemTitle)
	assert.Equal(t, 900, got.DurationSeconds)
	assert.True(t, base.Equal(got.EndedAt), "ended_at = %v", got.EndedAt)
	assert.True(t, base.Add(-5*time.Minute).Equal(got.StartedAt))

	require.Len(t, got.Participants, 2)
	assert.Equal(t, history.Participant{
		PlayerID: "a", Username: "user-a", Rating: 1200, Progress: 50, TestsPassed: 1, TotalTests: 2,
	}, got.Participants[0])
	assert.True(t, got.Participants[1].Submitted)
}

func TestStore_RecordIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	sess := completed("s1", "a", base, "a", "b")

	require.NoError(t, s.RecordResult(ctx, sess))
	require.NoError(t, s.RecordResult(ctx, sess))

	results, err := s.ListByPlayer(ctx, "a", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Len(t, results[0].Participants, 2)
}

func TestStore_RejectsLiveSession(t *testing.T) {
	s := newStore(t)
	sess := completed("s1", "", base, "a", "b")
	sess.Status = arena.StatusActive

	err := s.RecordResult(context.Background(), sess)

	assert.ErrorIs(t, err, history.ErrNotCompleted)
	_, err = s.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestStore_TimeoutWithoutWinner(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.RecordResult(ctx, completed("s1", "", base, "a", "b")))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got.WinnerID)
	assert.Equal(t, arena.ReasonTimeout, got.EndReason)
}

func TestStore_ListByPlayer(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s%d", i)
		require.NoError(t, s.RecordResult(ctx, completed(id, "a", base.Add(time.Duration(i)*time.Minute), "a", "b")))
	}
	require.NoError(t, s.RecordResult(ctx, completed("other", "c", base.Add(time.Hour), "c", "d")))

	tests := []struct {
		name   string
		player string
		limit  int
		want   []string
	}{
		{name: "newest first", player: "a", limit: 10, want: []string{"s2", "s1", "s0"}},
		{name: "limit", player: "b", limit: 2, want: []string{"s2", "s1"}},
		{name: "default limit", player: "d", limit: 0, want: []string{"other"}},
		{name: "no matches", player: "zed", limit: 10, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.ListByPlayer(ctx, tt.player, tt.limit)
			require.NoError(t, err)

			ids := []string{}
			for _, r := range results {
				ids = append(ids, r.SessionID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}
