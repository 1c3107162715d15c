package main

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavelane/internal/dsp"
	"github.com/llehouerou/wavelane/internal/playback"
	"github.com/llehouerou/wavelane/internal/player"
	"github.com/llehouerou/wavelane/internal/playlist"
	"github.com/llehouerou/wavelane/internal/state"
)

// engine is the part of *playback.Engine the UI drives.
type engine interface {
	Play(ctx context.Context, t playback.Track, crossfade, silence time.Duration) error
	Toggle()
	Seek(pos time.Duration)
	State() playback.State
	CurrentTrack() *playback.Track
	Position() time.Duration
	Duration() time.Duration
	ActiveLane() player.LaneID
	SetVolume(level float64)
	Volume() float64
	SetEQ(bands []float64)
	EQ() []float64
	SetNormalization(enabled bool)
	Normalization() bool
	Energy() float64
	Spectrum() []float64
	SetVisible(visible bool)
}

// announcer shows now-playing notifications.
type announcer interface {
	Announce(t playback.Track) error
}

type modelDeps struct {
	engine    engine
	sub       *playback.Subscription
	remote    <-chan remoteMsg
	queue     *playlist.Queue
	prefs     state.Interface
	announcer announcer
	logger    *log.Logger
}

type model struct {
	ctx       context.Context
	engine    engine
	sub       *playback.Subscription
	remote    <-chan remoteMsg
	queue     *playlist.Queue
	prefs     state.Interface
	announcer announcer
	logger    *log.Logger

	crossfade time.Duration
	silence   time.Duration

	// version identifies the latest start; results and retries carrying an
	// older one are dropped.
	version  int
	started  bool
	handoff  bool // next track requested ahead of the current one's end
	failures int
	errText  string

	width  int
	height int
}

func newModel(ctx context.Context, d modelDeps, s settings) model {
	return model{
		ctx:       ctx,
		engine:    d.engine,
		sub:       d.sub,
		remote:    d.remote,
		queue:     d.queue,
		prefs:     d.prefs,
		announcer: d.announcer,
		logger:    d.logger,
		crossfade: s.crossfade,
		silence:   s.silence,
		width:     80,
		height:    24,
	}
}

// Init starts the first track, the event watcher and the frame ticker.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.watchEvents(), tickCmd(), func() tea.Msg { return beginMsg{} })
}

// start begins t on the engine. The silence gap is applied only between
// tracks and never on a retry.
func (m *model) start(t playback.Track, attempt int) tea.Cmd {
	m.version++
	silence := m.silence
	if !m.started || attempt > 0 {
		silence = 0
	}
	m.started = true
	m.logger.Debug("start", "track", t.DisplayName(), "attempt", attempt, "version", m.version)
	return playCmd(m.ctx, m.engine, t, m.crossfade, silence, attempt, m.version)
}

// advance moves to the next queued track. It returns nil at the end of a
// non-repeating queue.
func (m *model) advance() tea.Cmd {
	t := m.queue.Next()
	if t == nil {
		return nil
	}
	return m.start(*t, 0)
}

// rewind restarts the current track when past the first few seconds,
// otherwise moves to the previous one.
func (m *model) rewind() tea.Cmd {
	if m.engine.Position() > rewindThreshold {
		m.engine.Seek(0)
		return nil
	}
	t := m.queue.Previous()
	if t == nil {
		m.engine.Seek(0)
		return nil
	}
	return m.start(*t, 0)
}

// savePreferences persists the engine's current settings.
func (m *model) savePreferences() {
	m.prefs.SavePreferences(state.Preferences{
		Volume:    m.engine.Volume(),
		Normalize: m.engine.Normalization(),
		Crossfade: m.crossfade,
		Silence:   m.silence,
		EQ:        m.engine.EQ(),
		EQPreset:  dsp.MatchPreset(m.engine.EQ()),
	})
}
