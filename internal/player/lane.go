// Package player implements the playback lanes: fixed slots that own one
// decoded source each and shape it with a fade gain and a volume level before
// it reaches the shared graph.
package player

import (
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavelane/internal/dsp"
)

// resampleQuality is passed to beep.Resample for sources whose sample rate
// differs from the output.
const resampleQuality = 4

// LaneID names one of the two playback lanes.
type LaneID int

const (
	LaneA LaneID = iota
	LaneB
)

// Other returns the opposite lane.
func (id LaneID) Other() LaneID {
	if id == LaneA {
		return LaneB
	}
	return LaneA
}

func (id LaneID) String() string {
	if id == LaneA {
		return "A"
	}
	return "B"
}

var _ beep.Streamer = (*Lane)(nil)

// Lane is a playback slot. It never drains: with no source, paused, or after
// the source ended it streams silence, so it can stay in the mixer for the
// lifetime of the engine.
//
// Everything touched by Stream (source, pause flag, gain params) must be
// mutated while holding the output lock. State is owned by the caller and
// guarded by the caller's own lock.
type Lane struct {
	id    LaneID
	rate  beep.SampleRate
	onEnd func(id LaneID, token uint64)

	src    beep.StreamSeekCloser
	format beep.Format
	stream beep.Streamer
	paused bool
	ended  bool
	token  uint64

	fade  *dsp.Param
	level *dsp.Param

	state State
}

// NewLane creates an empty lane streaming at rate. onEnd is called from the
// audio goroutine, with the output lock held, when a started source drains;
// it must not block.
func NewLane(id LaneID, rate beep.SampleRate, onEnd func(id LaneID, token uint64)) *Lane {
	return &Lane{
		id:     id,
		rate:   rate,
		onEnd:  onEnd,
		paused: true,
		fade:   dsp.NewParam(0),
		level:  dsp.NewParam(1),
	}
}

// ID returns the lane identifier.
func (l *Lane) ID() LaneID { return l.id }

// Token identifies the current load. It changes on every Load.
func (l *Lane) Token() uint64 { return l.token }

// State returns the lane lifecycle state.
func (l *Lane) State() State { return l.state }

// SetState records a lifecycle transition.
func (l *Lane) SetState(s State) { l.state = s }

// Loaded reports whether the lane holds a source.
func (l *Lane) Loaded() bool { return l.src != nil }

// Load replaces the source. The lane stays paused and silent until Start.
// Returns the new load token.
func (l *Lane) Load(src beep.StreamSeekCloser, format beep.Format) uint64 {
	l.closeSource()
	l.src = src
	l.format = format
	l.stream = src
	if format.SampleRate != 0 && format.SampleRate != l.rate {
		l.stream = beep.Resample(resampleQuality, format.SampleRate, l.rate, src)
	}
	l.paused = true
	l.ended = false
	l.fade.Set(0)
	l.token++
	return l.token
}

// Start unpauses the lane and ramps the fade gain linearly from 0 to 1 over
// ramp.
func (l *Lane) Start(ramp time.Duration) {
	l.fade.Set(0)
	l.fade.LinearRamp(1, l.rate.N(ramp))
	l.paused = false
}

// FadeOut ramps the fade gain linearly from its current value to 0.
func (l *Lane) FadeOut(ramp time.Duration) {
	l.fade.LinearRamp(0, l.rate.N(ramp))
}

// Pause stops pulling from the source. Gain automation keeps running.
func (l *Lane) Pause() { l.paused = true }

// Resume continues pulling from the source.
func (l *Lane) Resume() {
	if l.src != nil && !l.ended {
		l.paused = false
	}
}

// Ended reports whether the source has drained.
func (l *Lane) Ended() bool { return l.ended }

// Paused reports whether the lane is not producing audio.
func (l *Lane) Paused() bool { return l.paused || l.ended || l.src == nil }

// Reset pauses the lane, releases its source and silences it.
func (l *Lane) Reset() {
	l.closeSource()
	l.paused = true
	l.ended = false
	l.fade.Set(0)
}

// SetLevel sets the volume multiplier applied on top of the fade gain.
// When smooth is set the change follows the shared smoothing time constant.
func (l *Lane) SetLevel(v float64, smooth bool) {
	if !smooth {
		l.level.Set(v)
		return
	}
	l.level.SetTarget(v, dsp.SmoothingTime*float64(l.rate))
}

// Level returns the target volume multiplier.
func (l *Lane) Level() float64 { return l.level.Target() }

// Fade returns the current fade gain.
func (l *Lane) Fade() float64 { return l.fade.Value() }

// Gain returns the combined gain applied to the next sample.
func (l *Lane) Gain() float64 { return l.fade.Value() * l.level.Value() }

// Seek moves the source to d. Positions past either end are clamped.
func (l *Lane) Seek(d time.Duration) error {
	if l.src == nil {
		return nil
	}
	p := max(l.format.SampleRate.N(d), 0)
	if n := l.src.Len(); n > 0 {
		p = min(p, n)
	}
	if err := l.src.Seek(p); err != nil {
		return err
	}
	l.ended = false
	return nil
}

// Position returns the playback position of the source.
func (l *Lane) Position() time.Duration {
	if l.src == nil {
		return 0
	}
	return l.format.SampleRate.D(l.src.Position())
}

// Duration returns the source length, or 0 when unknown.
func (l *Lane) Duration() time.Duration {
	if l.src == nil {
		return 0
	}
	return l.format.SampleRate.D(l.src.Len())
}

// Stream implements beep.Streamer. It always fills the whole buffer.
func (l *Lane) Stream(samples [][2]float64) (int, bool) {
	n := 0
	if l.stream != nil && !l.paused && !l.ended {
		var ok bool
		n, ok = l.stream.Stream(samples)
		if !ok {
			l.ended = true
			if l.onEnd != nil {
				l.onEnd(l.id, l.token)
			}
		}
	}
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	for i := range samples {
		g := l.fade.Next() * l.level.Next()
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return len(samples), true
}

// Err implements beep.Streamer. Source errors end the lane instead of
// failing the mixer, so this is always nil.
func (l *Lane) Err() error { return nil }

// SourceErr returns the error reported by the current source, if any.
func (l *Lane) SourceErr() error {
	if l.src == nil {
		return nil
	}
	return l.src.Err()
}

func (l *Lane) closeSource() {
	if l.src != nil {
		_ = l.src.Close()
	}
	l.src = nil
	l.stream = nil
	l.format = beep.Format{}
}
