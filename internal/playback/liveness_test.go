package playback

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavelane/internal/liveness"
	"github.com/llehouerou/wavelane/internal/output"
)

func newGuardedEngine(t *testing.T) (*Engine, *output.Fake) {
	t.Helper()
	out := output.NewFake(testRate)
	guard := liveness.New(out,
		liveness.WithPollInterval(time.Second),
		liveness.WithIdleSuspend(5*time.Second),
	)
	guard.Start()
	e, err := New(out, newFakeLoader(), Callbacks{}, WithKeepAlive(guard))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.Close()
		_ = guard.Close()
	})
	return e, out
}

func TestEngine_IdleGraphIsSuspendedAndWokenByResume(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, out := newGuardedEngine(t)
		require.NoError(t, e.Play(context.Background(), track("x"), 0, 0))
		out.Pull(testRate.N(time.Second))
		assert.Positive(t, e.Energy())

		e.Pause()
		time.Sleep(6 * time.Second)
		synctest.Wait()

		require.True(t, out.Suspended())
		assert.Nil(t, out.Pull(64))
		assert.Zero(t, e.Energy())

		e.Resume()
		assert.False(t, out.Suspended())
		assert.Len(t, out.Pull(64), 64)
	})
}

func TestEngine_PlayingGraphRecoversFromSuspension(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, out := newGuardedEngine(t)
		require.NoError(t, e.Play(context.Background(), track("x"), 0, 0))
		out.Pull(testRate.N(time.Second))

		require.NoError(t, out.Suspend())
		assert.Zero(t, e.Energy())

		time.Sleep(time.Second + time.Millisecond)
		synctest.Wait()

		assert.False(t, out.Suspended())
		assert.Equal(t, 1, out.Resumes())
		out.Pull(testRate.N(time.Second))
		assert.Positive(t, e.Energy())
	})
}

func TestEngine_PlayWakesIdleSuspendedGraph(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		e, out := newGuardedEngine(t)

		time.Sleep(6 * time.Second)
		synctest.Wait()
		require.True(t, out.Suspended())

		require.NoError(t, e.Play(context.Background(), track("x"), 0, 0))
		assert.False(t, out.Suspended())
	})
}
