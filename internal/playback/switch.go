package playback

import (
	"context"
	"time"

	"github.com/llehouerou/wavelane/internal/player"
)

// Play switches to t. The inactive lane loads t and fades in over
// max(crossfade, 500ms) while the active lane fades out over crossfade, or
// is cut after a short delay when crossfade is zero.
//
// With silence > 0 the engine reports StateBuffering and Play returns at
// once; the switch runs after silence unless another Play comes first, and
// its errors go to Callbacks.OnError.
//
// A later Play supersedes this one: a pending silence is dropped, an
// in-flight load is cancelled and Play returns nil. Load failures return a
// *StartError and leave the active lane unchanged.
func (e *Engine) Play(ctx context.Context, t Track, crossfade, silence time.Duration) error {
	if t.AudioURL == "" {
		return ErrInvalidSource
	}
	crossfade = max(crossfade, 0)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.gen++
	gen := e.gen
	e.stopSilenceLocked()
	e.abandonLocked()

	if silence > 0 {
		e.logger.Debug("silence scheduled", "track", t.DisplayName(), "silence", silence)
		e.silence = time.AfterFunc(silence, func() {
			err := e.transition(ctx, gen, t, crossfade)
			if err == nil {
				return
			}
			e.mu.Lock()
			e.emitErrorLocked("play", &t, err)
			e.mu.Unlock()
			e.flush()
		})
		e.setStateLocked(StateBuffering)
		e.mu.Unlock()
		e.flush()
		return nil
	}
	e.mu.Unlock()

	return e.transition(ctx, gen, t, crossfade)
}

func (e *Engine) stopSilenceLocked() {
	if e.silence != nil {
		e.silence.Stop()
		e.silence = nil
	}
}

// abandonLocked cancels an in-flight load and restores the lane that was
// active before it.
func (e *Engine) abandonLocked() {
	a := e.inflight
	if a == nil {
		return
	}
	e.inflight = nil
	a.cancel()
	e.lanes[e.active].SetState(a.laneState)
	e.active = a.prev
	e.logger.Debug("transition superseded", "lane", a.prev.Other())
}

func (e *Engine) transition(ctx context.Context, gen uint64, t Track, crossfade time.Duration) error {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return nil
	}
	e.silence = nil

	prev := e.active
	next := prev.Other()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.inflight = &attempt{
		gen:       gen,
		prev:      prev,
		laneState: e.lanes[next].State(),
		cancel:    cancel,
	}
	e.active = next
	e.lanes[next].SetState(player.Loading)
	e.mu.Unlock()

	src, err := e.loader.Open(ctx, t.AudioURL)

	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		if src != nil {
			_ = src.Close()
		}
		e.logger.Debug("load discarded", "track", t.DisplayName())
		return nil
	}
	a := e.inflight
	e.inflight = nil

	if err != nil {
		e.active = prev
		e.lanes[next].SetState(a.laneState)
		e.syncStateLocked()
		e.mu.Unlock()
		e.flush()
		if isAbort(err) {
			e.logger.Debug("start aborted", "track", t.DisplayName(), "err", err)
			return nil
		}
		e.logger.Warn("start failed", "track", t.DisplayName(), "err", err)
		return &StartError{Track: t, Err: err}
	}

	ramp := max(crossfade, minRamp)
	incoming, outgoing := e.lanes[next], e.lanes[prev]

	e.out.Lock()
	token := incoming.Load(src.Streamer, src.Format)
	incoming.SetLevel(e.volume, false)
	incoming.Start(ramp)
	retireAfter := cutDelay
	if crossfade > 0 {
		outgoing.FadeOut(crossfade)
		retireAfter = crossfade
	}
	outgoingLoaded := outgoing.Loaded()
	dur := incoming.Duration()
	e.out.Unlock()

	if outgoingLoaded {
		e.scheduleRetireLocked(prev, outgoing.Token(), retireAfter)
	}

	prevTrack := e.track
	e.track = &t
	e.logger.Info("playing", "track", t.DisplayName(), "lane", next, "codec", src.Codec,
		"ramp", ramp, "crossfade", crossfade, "token", token)

	e.setLaneStateLocked(next, player.Playing)
	if dur == 0 {
		dur = t.Duration
	}
	e.emitTrackLocked(prevTrack, e.track)
	e.emitDurationLocked(dur)
	e.mu.Unlock()
	e.flush()
	return nil
}

// scheduleRetireLocked pauses and resets lane id after d, unless it has been
// reloaded in the meantime.
func (e *Engine) scheduleRetireLocked(id player.LaneID, token uint64, d time.Duration) {
	time.AfterFunc(d, func() { e.retire(id, token) })
}

func (e *Engine) retire(id player.LaneID, token uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	lane := e.lanes[id]
	if e.closed || lane.Token() != token {
		return
	}
	if e.isActive(id) && lane.State() != player.Loading {
		return
	}

	e.out.Lock()
	lane.Reset()
	e.out.Unlock()
	if lane.State() == player.Loading {
		// restored to this if the pending load fails
		e.inflight.laneState = player.Stopped
	} else {
		lane.SetState(player.Stopped)
	}
	e.logger.Debug("lane retired", "lane", id, "token", token)
}
