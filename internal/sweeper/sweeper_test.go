package sweeper_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxarena/arena/internal/sweeper"
)

type fakeEngine struct {
	expired, reaped, matched atomic.Int32
}

func (f *fakeEngine) ExpireOverdue(context.Context, time.Time) int {
	f.expired.Add(1)
	return 1
}

func (f *fakeEngine) ReapCompleted(time.Time) int {
	f.reaped.Add(1)
	return 0
}

func (f *fakeEngine) Matchmake(context.Context) int {
	f.matched.Add(1)
	return 0
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweeper_RunsEveryJob(t *testing.T) {
	eng := &fakeEngine{}
	s := sweeper.New(eng, 20*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return eng.expired.Load() > 0 && eng.reaped.Load() > 0 && eng.matched.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_SingleSweep(t *testing.T) {
	eng := &fakeEngine{}
	s := sweeper.New(eng, 0, discardLogger())

	s.Expire(context.Background())
	s.Reap()
	s.Match(context.Background())

	assert.EqualValues(t, 1, eng.expired.Load())
	assert.EqualValues(t, 1, eng.reaped.Load())
	assert.EqualValues(t, 1, eng.matched.Load())
}
