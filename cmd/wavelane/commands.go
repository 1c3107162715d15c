package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/wavelane/internal/playback"
)

const (
	frameInterval = 33 * time.Millisecond
	retryDelay    = 500 * time.Millisecond
)

// beginMsg starts the queue's current track.
type beginMsg struct{}

// tickMsg redraws the spectrum and position.
type tickMsg time.Time

// stateMsg wraps an engine state change.
type stateMsg playback.StateChange

// trackMsg wraps an engine track change.
type trackMsg playback.TrackChange

// engineErrorMsg wraps a failure reported after Play returned, such as a
// start deferred by silence.
type engineErrorMsg playback.ErrorEvent

// engineClosedMsg is sent once the engine shuts down.
type engineClosedMsg struct{}

// remoteMsg is a skip request from the media session.
type remoteMsg struct {
	next bool
}

// playResultMsg reports the outcome of a Play call.
type playResultMsg struct {
	track   playback.Track
	attempt int
	version int
	err     error
}

// retryMsg fires once the retry delay has elapsed.
type retryMsg struct {
	track   playback.Track
	version int
}

// tickCmd returns a command that sends tickMsg after one frame.
func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// retryCmd returns a command that sends retryMsg after retryDelay.
func retryCmd(t playback.Track, version int) tea.Cmd {
	return tea.Tick(retryDelay, func(_ time.Time) tea.Msg {
		return retryMsg{track: t, version: version}
	})
}

// playCmd runs Play off the update loop since it blocks while loading.
func playCmd(ctx context.Context, e engine, t playback.Track, crossfade, silence time.Duration, attempt, version int) tea.Cmd {
	return func() tea.Msg {
		err := e.Play(ctx, t, crossfade, silence)
		return playResultMsg{track: t, attempt: attempt, version: version, err: err}
	}
}

// watchEvents returns a command that waits for the next engine or session
// event. Handlers re-issue it after each message.
func (m model) watchEvents() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub, remote := m.sub, m.remote
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return stateMsg(e)
		case e := <-sub.TrackChanged:
			return trackMsg(e)
		case e := <-sub.Error:
			return engineErrorMsg(e)
		case r := <-remote:
			return r
		case <-sub.Done:
			return engineClosedMsg{}
		}
	}
}
