// Package playback implements the dual-lane crossfading playback engine.
//
// Two lanes feed a shared graph:
//
//	lane A ─┐
//	lane B ─┼─ mix ─ equalizer ─ analyzer ─ compressor ─ output
//	signal ─┘
//
// A new track is always loaded into the inactive lane and faded in while the
// previous lane fades out, then the active flag flips. Only the active lane's
// events reach callers.
package playback

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavelane/internal/dsp"
	"github.com/llehouerou/wavelane/internal/player"
)

const (
	// minRamp is the shortest fade-in applied to a starting lane, even
	// without a crossfade.
	minRamp = 500 * time.Millisecond

	// cutDelay is how long the previous lane keeps playing after a
	// transition without crossfade.
	cutDelay = 100 * time.Millisecond

	defaultProgressInterval = 250 * time.Millisecond
)

type laneEnd struct {
	id    player.LaneID
	token uint64
}

// attempt is a transition waiting on its loader.
type attempt struct {
	gen       uint64
	prev      player.LaneID
	laneState player.State
	cancel    context.CancelFunc
}

// Engine is the playback engine. All methods are safe for concurrent use.
type Engine struct {
	out       Output
	loader    Loader
	cb        Callbacks
	session   MediaSession
	keepAlive KeepAlive
	logger    *log.Logger

	lanes    [2]*player.Lane
	eq       *dsp.Equalizer
	analyzer *dsp.Analyzer
	comp     *dsp.Compressor

	mu            sync.Mutex
	active        player.LaneID
	state         State
	track         *Track
	volume        float64
	gen           uint64
	inflight      *attempt
	silence       *time.Timer
	closed        bool
	progressEvery time.Duration

	pending     []func()
	dispatching bool

	subs   []*Subscription
	subsMu sync.RWMutex

	ended chan laneEnd
	done  chan struct{}
	wg    sync.WaitGroup
}

// New builds the graph, starts it on out and returns an idle engine.
func New(out Output, loader Loader, cb Callbacks, opts ...Option) (*Engine, error) {
	if out == nil || loader == nil {
		return nil, errors.New("playback: output and loader are required")
	}

	e := &Engine{
		out:           out,
		loader:        loader,
		cb:            cb,
		session:       nopSession{},
		keepAlive:     nopKeepAlive{},
		logger:        log.New(io.Discard),
		active:        player.LaneA,
		volume:        1,
		progressEvery: defaultProgressInterval,
		ended:         make(chan laneEnd, 4),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	rate := out.SampleRate()
	for _, id := range []player.LaneID{player.LaneA, player.LaneB} {
		lane := player.NewLane(id, rate, e.laneEnded)
		lane.SetLevel(e.volume, false)
		e.lanes[id] = lane
	}
	mix := beep.Mix(e.lanes[player.LaneA], e.lanes[player.LaneB], e.keepAlive.Signal())
	e.eq = dsp.NewEqualizer(mix, rate)
	e.analyzer = dsp.NewAnalyzer(e.eq)
	e.comp = dsp.NewCompressor(e.analyzer, rate)

	e.session.Bind(Commands{
		Play:     e.Resume,
		Pause:    e.Pause,
		Toggle:   e.Toggle,
		Seek:     e.Seek,
		Position: e.Position,
		Next:     cb.OnNext,
		Previous: cb.OnPrevious,
	})

	out.Play(e.comp)

	e.wg.Add(1)
	go e.monitor()

	e.logger.Debug("engine started", "rate", rate)
	return e, nil
}

// Subscribe returns a channel-based view of the engine events, in addition
// to the callbacks passed to New.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Close stops the engine and releases both lanes. The output is left open.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.gen++
	e.stopSilenceLocked()
	if e.inflight != nil {
		e.inflight.cancel()
		e.inflight = nil
	}
	close(e.done)
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	e.out.Lock()
	for _, lane := range e.lanes {
		lane.Reset()
		lane.SetState(player.Stopped)
	}
	e.out.Unlock()
	e.setStateLocked(StateIdle)
	e.mu.Unlock()
	e.flush()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()

	e.logger.Debug("engine closed")
	return nil
}

// State returns the state of the active lane.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ActiveLane returns the lane currently reported to callers.
func (e *Engine) ActiveLane() player.LaneID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// CurrentTrack returns a copy of the track on the active lane, or nil.
func (e *Engine) CurrentTrack() *Track {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.track == nil {
		return nil
	}
	t := *e.track
	return &t
}

// Position returns the playback position of the active lane.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

// Duration returns the length of the track on the active lane.
func (e *Engine) Duration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.durationLocked()
}

// SetVolume sets the volume level, clamped to [0, 1]. It applies smoothly to
// the active lane and to every lane loaded afterwards.
func (e *Engine) SetVolume(level float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clampLevel(level)
	e.out.Lock()
	e.lanes[e.active].SetLevel(e.volume, true)
	e.out.Unlock()
}

// Volume returns the volume level.
func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetEQ sets the gain in dB of each equalizer band. Values past the last
// band are ignored.
func (e *Engine) SetEQ(bands []float64) {
	e.out.Lock()
	defer e.out.Unlock()
	for i, g := range bands {
		e.eq.SetGain(i, g)
	}
}

// EQ returns the target gain of each band.
func (e *Engine) EQ() []float64 {
	e.out.Lock()
	g := e.eq.Gains()
	e.out.Unlock()
	return g[:]
}

// SetNormalization switches the loudness normalizer.
func (e *Engine) SetNormalization(enabled bool) {
	e.out.Lock()
	defer e.out.Unlock()
	e.comp.SetEnabled(enabled)
}

// Normalization reports whether the normalizer is on.
func (e *Engine) Normalization() bool {
	e.out.Lock()
	defer e.out.Unlock()
	return e.comp.Enabled()
}

// Energy returns the mean spectrum magnitude in [0, 1], or 0 while the output
// is suspended.
func (e *Engine) Energy() float64 {
	if e.out.Suspended() {
		return 0
	}
	return e.analyzer.Energy()
}

// Spectrum returns the analyzer bins in [0, 255], all zero while the output
// is suspended.
func (e *Engine) Spectrum() []float64 {
	if e.out.Suspended() {
		return make([]float64, dsp.BinCount)
	}
	return e.analyzer.Spectrum()
}

// SetVisible tells the liveness subsystem whether the interface is in front.
func (e *Engine) SetVisible(visible bool) {
	e.keepAlive.SetVisible(visible)
}

// isActive is the filter deciding which lane events reach callers.
func (e *Engine) isActive(id player.LaneID) bool {
	return e.active == id
}

// setLaneStateLocked records a lane transition and forwards it when the lane
// is active. Loading is never forwarded.
func (e *Engine) setLaneStateLocked(id player.LaneID, s player.State) {
	e.lanes[id].SetState(s)
	if !e.isActive(id) {
		return
	}
	switch s {
	case player.Playing:
		e.setStateLocked(StatePlaying)
	case player.Paused:
		e.setStateLocked(StatePaused)
	case player.Stopped:
		e.setStateLocked(StateIdle)
	case player.Loading:
	}
}

// syncStateLocked re-derives the public state from the active lane.
func (e *Engine) syncStateLocked() {
	switch e.lanes[e.active].State() {
	case player.Playing:
		e.setStateLocked(StatePlaying)
	case player.Paused:
		e.setStateLocked(StatePaused)
	case player.Stopped, player.Loading:
		e.setStateLocked(StateIdle)
	}
}

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	prev := e.state
	e.state = s
	e.logger.Debug("state", "from", prev, "to", s, "lane", e.active)
	e.emitStateLocked(prev, s)
}

func (e *Engine) positionLocked() time.Duration {
	e.out.Lock()
	defer e.out.Unlock()
	return e.lanes[e.active].Position()
}

func (e *Engine) durationLocked() time.Duration {
	e.out.Lock()
	d := e.lanes[e.active].Duration()
	e.out.Unlock()
	if d == 0 && e.track != nil {
		return e.track.Duration
	}
	return d
}

func clampLevel(v float64) float64 {
	return min(max(v, 0), 1)
}
