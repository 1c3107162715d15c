package playback

import (
	"time"

	"github.com/llehouerou/wavelane/internal/player"
)

// laneEnded runs on the audio goroutine with the output lock held.
func (e *Engine) laneEnded(id player.LaneID, token uint64) {
	select {
	case e.ended <- laneEnd{id: id, token: token}:
	default:
	}
}

// monitor reports progress of the active lane and turns end-of-source
// notifications into state changes.
func (e *Engine) monitor() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.progressEvery)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			e.reportProgress()
		case end := <-e.ended:
			e.handleEnd(end)
		}
	}
}

func (e *Engine) reportProgress() {
	e.mu.Lock()
	if e.lanes[e.active].State() != player.Playing {
		e.mu.Unlock()
		return
	}
	e.emitProgressLocked(e.positionLocked(), false)
	e.mu.Unlock()
	e.flush()
}

func (e *Engine) handleEnd(end laneEnd) {
	e.mu.Lock()
	lane := e.lanes[end.id]
	e.out.Lock()
	stale := lane.Token() != end.token || !lane.Ended()
	e.out.Unlock()
	if stale || lane.State() != player.Playing {
		e.mu.Unlock()
		return
	}
	e.logger.Debug("lane ended", "lane", end.id, "active", e.isActive(end.id))
	if e.isActive(end.id) {
		e.emitProgressLocked(e.positionLocked(), false)
	}
	e.setLaneStateLocked(end.id, player.Stopped)
	e.mu.Unlock()
	e.flush()
}
