// Package liveness keeps the audio graph running while a track should be
// audible. It mixes a near-silent signal into the graph, polls for a
// suspended device and holds a system wake lock while playing. After a
// stretch without playback it suspends the device itself, and wakes it again
// on the next play, on the next poll that finds a track playing, or when the
// interface regains focus.
//
// Every failure here is logged and swallowed.
package liveness

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gopxl/beep/v2"
)

const (
	// DefaultPollInterval is how often the graph is checked for suspension.
	DefaultPollInterval = 2 * time.Second

	// DefaultIdleSuspend is how long the graph may sit without playback
	// before the device is suspended.
	DefaultIdleSuspend = 30 * time.Second
)

// Graph is the part of the audio output the guard watches.
type Graph interface {
	Suspended() bool
	Suspend() error
	Resume() error
}

// WakeLock keeps the system from sleeping while held.
type WakeLock interface {
	Acquire() error
	Release() error
	Close() error
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithPollInterval sets the suspension check period.
func WithPollInterval(d time.Duration) Option {
	return func(g *Guard) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithIdleSuspend sets how long the graph may stay idle before the device is
// suspended. Zero keeps the device running.
func WithIdleSuspend(d time.Duration) Option {
	return func(g *Guard) {
		if d >= 0 {
			g.idleAfter = d
		}
	}
}

// WithWakeLock holds lock while playing.
func WithWakeLock(lock WakeLock) Option {
	return func(g *Guard) { g.lock = lock }
}

// Guard implements the engine's keep-alive capability.
type Guard struct {
	graph     Graph
	lock      WakeLock
	logger    *log.Logger
	interval  time.Duration
	idleAfter time.Duration
	signal    *noise

	mu        sync.Mutex
	playing   bool
	idleSince time.Time
	held      bool
	started   bool
	closed    bool
	done      chan struct{}
	wg        sync.WaitGroup
}

// New returns a guard watching graph. Call Start to begin polling.
func New(graph Graph, opts ...Option) *Guard {
	g := &Guard{
		graph:     graph,
		logger:    log.New(io.Discard),
		interval:  DefaultPollInterval,
		idleAfter: DefaultIdleSuspend,
		signal:    newNoise(),
		idleSince: time.Now(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Signal returns the keep-alive streamer to mix into the graph.
func (g *Guard) Signal() beep.Streamer { return g.signal }

// Start launches the poll loop. It is a no-op after the first call.
func (g *Guard) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started || g.closed {
		return
	}
	g.started = true
	g.wg.Add(1)
	go g.poll()
}

// SetPlaying records whether a track should be audible and takes or drops
// the wake lock accordingly. Starting playback wakes a suspended graph.
func (g *Guard) SetPlaying(playing bool) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	if g.playing && !playing {
		g.idleSince = time.Now()
	}
	g.playing = playing
	if playing {
		g.acquireLocked()
	} else {
		g.releaseLocked()
	}
	g.mu.Unlock()

	if playing {
		g.resume("play")
	}
}

// SetVisible is called when the interface gains or loses focus. Regaining it
// resumes the graph and re-takes the wake lock, which some systems drop
// while the session is idle.
func (g *Guard) SetVisible(visible bool) {
	if !visible {
		return
	}
	g.resume("visible")

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	if !g.playing {
		g.idleSince = time.Now()
		return
	}
	g.releaseLocked()
	g.acquireLocked()
}

// Close stops polling and releases the wake lock.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	close(g.done)
	g.releaseLocked()
	lock := g.lock
	g.mu.Unlock()

	g.wg.Wait()
	if lock != nil {
		if err := lock.Close(); err != nil {
			g.logger.Debug("wake lock close failed", "err", err)
		}
	}
	return nil
}

func (g *Guard) poll() {
	defer g.wg.Done()
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.check()
		}
	}
}

// check resumes a suspended graph while a track should be playing, and
// suspends one that has been idle for longer than idleAfter.
func (g *Guard) check() {
	g.mu.Lock()
	if g.playing {
		g.mu.Unlock()
		g.resume("poll")
		return
	}
	defer g.mu.Unlock()
	// suspend under mu: a concurrent SetPlaying(true) resumes after this
	if g.closed || g.idleAfter == 0 || time.Since(g.idleSince) < g.idleAfter || g.graph.Suspended() {
		return
	}
	if err := g.graph.Suspend(); err != nil {
		g.logger.Debug("idle suspend failed", "err", err)
		return
	}
	g.logger.Debug("graph suspended while idle")
}

func (g *Guard) resume(reason string) {
	if !g.graph.Suspended() {
		return
	}
	if err := g.graph.Resume(); err != nil {
		g.logger.Warn("resume rejected", "reason", reason, "err", err)
		return
	}
	g.logger.Debug("graph resumed", "reason", reason)
}

func (g *Guard) acquireLocked() {
	if g.lock == nil || g.held {
		return
	}
	if err := g.lock.Acquire(); err != nil {
		g.logger.Debug("wake lock unavailable", "err", err)
		return
	}
	g.held = true
}

func (g *Guard) releaseLocked() {
	if g.lock == nil || !g.held {
		return
	}
	g.held = false
	if err := g.lock.Release(); err != nil {
		g.logger.Debug("wake lock release failed", "err", err)
	}
}
