package arena_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxarena/arena/internal/arena"
)

func testProblem() arena.Problem {
	return arena.Problem{ID: "gen_1", Title: "Two Sum", Description: "…", Difficulty: "Easy"}
}

func TestStore_CreateIndexesBothPlayers(t *testing.T) {
	s := arena.NewStore(0)

	sess, err := s.Create(testProblem(), player("a"), player("b"))
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, arena.StatusActive, sess.Status)
	assert.Equal(t, 900, sess.DurationSeconds)
	assert.Len(t, sess.Players, 2)
	assert.Empty(t, sess.WinnerID)

	for _, id := range []string{"a", "b"} {
		got, ok := s.GetByPlayer(id)
		require.True(t, ok, id)
		assert.Equal(t, sess.ID, got.ID)
	}
}

func TestStore_CreateRejectsPlayerInLiveSession(t *testing.T) {
	s := arena.NewStore(time.Minute)
	_, err := s.Create(testProblem(), player("a"), player("b"))
	require.NoError(t, err)

	_, err = s.Create(testProblem(), player("c"), player("a"))

	assert.ErrorIs(t, err, arena.ErrDuplicatePlayer)
	_, ok := s.GetByPlayer("c")
	assert.False(t, ok, "failed create must not index anyone")
	assert.Equal(t, 1, s.Len())
}

func TestStore_CreateAllowsPlayerFromCompletedSession(t *testing.T) {
	s := arena.NewStore(time.Minute)
	first, err := s.Create(testProblem(), player("a"), player("b"))
	require.NoError(t, err)
	_, err = arena.NewMutator(s).HandleTimeout(first.ID)
	require.NoError(t, err)

	second, err := s.Create(testProblem(), player("a"), player("c"))
	require.NoError(t, err)

	// Cleaning up the old session must not unmap a's new session.
	require.True(t, s.Remove(first.ID))
	got, ok := s.GetByPlayer("a")
	require.True(t, ok)
	assert.Equal(t, second.ID, got.ID)
	_, ok = s.GetByPlayer("b")
	assert.False(t, ok)
}

func TestStore_GetMissing(t *testing.T) {
	s := arena.NewStore(0)

	_, ok := s.Get("nope")
	assert.False(t, ok)
	_, ok = s.GetByPlayer("nobody")
	assert.False(t, ok)
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := arena.NewStore(0)
	sess, err := s.Create(testProblem(), player("a"), player("b"))
	require.NoError(t, err)

	assert.True(t, s.Remove(sess.ID))
	assert.False(t, s.Remove(sess.ID))

	_, ok := s.Get(sess.ID)
	assert.False(t, ok)
	_, ok = s.GetByPlayer("a")
	assert.False(t, ok)
}

func TestStore_SnapshotsDoNotAlias(t *testing.T) {
	s := arena.NewStore(0)
	sess, err := s.Create(testProblem(), player("a"), player("b"))
	require.NoError(t, err)

	sess.Players[0].Progress = 99

	got, _ := s.Get(sess.ID)
	assert.Equal(t, 0, got.Players[0].Progress)
}

func TestStore_CreateResetsBattleFields(t *testing.T) {
	s := arena.NewStore(0)
	a := player("a")
	a.Progress, a.Submitted = 100, true

	sess, err := s.Create(testProblem(), a, player("b"))
	require.NoError(t, err)

	p, ok := sess.Player("a")
	require.True(t, ok)
	assert.Equal(t, 0, p.Progress)
	assert.False(t, p.Submitted)
	assert.Equal(t, 1200, p.Rating)
}
