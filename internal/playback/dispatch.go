package playback

import "time"

// Events are queued while e.mu is held and delivered by flush once it is
// released. Only one goroutine delivers at a time; events queued by a
// callback, or by another goroutine during delivery, are picked up by the
// delivering loop, so order is preserved and re-entrant calls never deadlock.

// queueLocked appends fn to the delivery queue. Caller holds e.mu.
func (e *Engine) queueLocked(fn func()) {
	e.pending = append(e.pending, fn)
}

// flush delivers queued events. Caller must not hold e.mu.
func (e *Engine) flush() {
	e.mu.Lock()
	if e.dispatching {
		e.mu.Unlock()
		return
	}
	e.dispatching = true
	for len(e.pending) > 0 {
		batch := e.pending
		e.pending = nil
		e.mu.Unlock()
		for _, fn := range batch {
			fn()
		}
		e.mu.Lock()
	}
	e.dispatching = false
	e.mu.Unlock()
}

func (e *Engine) subscribers() []*Subscription {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	return append([]*Subscription(nil), e.subs...)
}

func (e *Engine) emitStateLocked(prev, cur State) {
	cb, session, keepAlive := e.cb.OnState, e.session, e.keepAlive
	pos, dur := e.positionLocked(), e.durationLocked()
	e.queueLocked(func() {
		if cb != nil {
			cb(cur)
		}
		session.SetStatus(cur)
		session.SetPosition(pos, dur)
		keepAlive.SetPlaying(cur.wantsAudio())
		for _, s := range e.subscribers() {
			s.sendState(StateChange{Previous: prev, Current: cur})
		}
	})
}

func (e *Engine) emitTrackLocked(prev, cur *Track) {
	session := e.session
	e.queueLocked(func() {
		session.SetMetadata(*cur)
		for _, s := range e.subscribers() {
			s.sendTrack(TrackChange{Previous: prev, Current: cur})
		}
	})
}

func (e *Engine) emitProgressLocked(pos time.Duration, seeked bool) {
	cb, session := e.cb.OnProgress, e.session
	dur := e.durationLocked()
	e.queueLocked(func() {
		if cb != nil {
			cb(pos)
		}
		if seeked {
			session.SetPosition(pos, dur)
		}
		for _, s := range e.subscribers() {
			s.sendPosition(PositionChange{Position: pos})
		}
	})
}

func (e *Engine) emitDurationLocked(d time.Duration) {
	cb := e.cb.OnDuration
	e.queueLocked(func() {
		if cb != nil {
			cb(d)
		}
		for _, s := range e.subscribers() {
			s.sendDuration(DurationChange{Duration: d})
		}
	})
}

func (e *Engine) emitErrorLocked(op string, t *Track, err error) {
	cb := e.cb.OnError
	e.queueLocked(func() {
		if cb != nil {
			cb(err)
		}
		for _, s := range e.subscribers() {
			s.sendError(ErrorEvent{Operation: op, Track: t, Err: err})
		}
	})
}
