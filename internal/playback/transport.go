package playback

import (
	"time"

	"github.com/llehouerou/wavelane/internal/player"
)

// Pause pauses the active lane if it is playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	id := e.active
	lane := e.lanes[id]
	if e.closed || lane.State() != player.Playing {
		e.mu.Unlock()
		return
	}
	e.out.Lock()
	lane.Pause()
	e.out.Unlock()
	e.setLaneStateLocked(id, player.Paused)
	e.mu.Unlock()
	e.flush()
}

// Resume resumes the active lane if it is paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	id := e.active
	lane := e.lanes[id]
	if e.closed || lane.State() != player.Paused {
		e.mu.Unlock()
		return
	}
	e.out.Lock()
	lane.Resume()
	e.out.Unlock()
	e.setLaneStateLocked(id, player.Playing)
	e.mu.Unlock()
	e.flush()
}

// Toggle pauses a playing lane or resumes a paused one.
func (e *Engine) Toggle() {
	e.mu.Lock()
	paused := e.lanes[e.active].State() == player.Paused
	e.mu.Unlock()
	if paused {
		e.Resume()
	} else {
		e.Pause()
	}
}

// Seek moves the active lane to pos. The lane clamps positions outside the
// track. It has no effect unless the active lane is playing or paused.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	lane := e.lanes[e.active]
	if e.closed || !lane.State().IsActive() {
		e.mu.Unlock()
		return
	}
	e.out.Lock()
	err := lane.Seek(pos)
	got := lane.Position()
	e.out.Unlock()
	if err != nil {
		e.logger.Warn("seek failed", "pos", pos, "err", err)
	}
	e.emitProgressLocked(got, true)
	e.mu.Unlock()
	e.flush()
}
