package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/wavelane/internal/output"
	"github.com/llehouerou/wavelane/internal/player"
	"github.com/llehouerou/wavelane/internal/source"
)

const testRate = beep.SampleRate(8000)

// tone is a constant-level source.
type tone struct {
	n, pos int
	closed bool
}

func (s *tone) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.n {
		return 0, false
	}
	k := min(len(samples), s.n-s.pos)
	for i := range k {
		samples[i] = [2]float64{0.5, 0.5}
	}
	s.pos += k
	return k, true
}

func (s *tone) Err() error    { return nil }
func (s *tone) Len() int      { return s.n }
func (s *tone) Position() int { return s.pos }
func (s *tone) Seek(p int) error {
	s.pos = p
	return nil
}
func (s *tone) Close() error {
	s.closed = true
	return nil
}

type fakeLoader struct {
	mu      sync.Mutex
	frames  map[string]int
	errs    map[string]error
	gates   map[string]chan struct{}
	opened  []string
	sources map[string]*tone
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		frames:  map[string]int{},
		errs:    map[string]error{},
		gates:   map[string]chan struct{}{},
		sources: map[string]*tone{},
	}
}

func (l *fakeLoader) Open(ctx context.Context, url string) (*source.Source, error) {
	l.mu.Lock()
	l.opened = append(l.opened, url)
	gate := l.gates[url]
	err := l.errs[url]
	n, ok := l.frames[url]
	if !ok {
		n = testRate.N(10 * time.Second)
	}
	l.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	src := &tone{n: n}
	l.mu.Lock()
	l.sources[url] = src
	l.mu.Unlock()
	return &source.Source{
		Streamer: src,
		Format:   beep.Format{SampleRate: testRate, NumChannels: 2, Precision: 2},
		Codec:    source.CodecWAV,
	}, nil
}

func (l *fakeLoader) Opened() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.opened...)
}

func (l *fakeLoader) Source(url string) *tone {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sources[url]
}

type recorder struct {
	mu        sync.Mutex
	states    []State
	progress  []time.Duration
	durations []time.Duration
	errs      []error
	next      int
	previous  int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnState: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		OnProgress: func(d time.Duration) {
			r.mu.Lock()
			r.progress = append(r.progress, d)
			r.mu.Unlock()
		},
		OnDuration: func(d time.Duration) {
			r.mu.Lock()
			r.durations = append(r.durations, d)
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
		OnNext: func() {
			r.mu.Lock()
			r.next++
			r.mu.Unlock()
		},
		OnPrevious: func() {
			r.mu.Lock()
			r.previous++
			r.mu.Unlock()
		},
	}
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *recorder) Progress() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.progress...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

type fakeSession struct {
	mu        sync.Mutex
	metadata  []Track
	statuses  []State
	positions []time.Duration
	cmds      Commands
}

func (s *fakeSession) SetMetadata(t Track) {
	s.mu.Lock()
	s.metadata = append(s.metadata, t)
	s.mu.Unlock()
}

func (s *fakeSession) SetStatus(st State) {
	s.mu.Lock()
	s.statuses = append(s.statuses, st)
	s.mu.Unlock()
}

func (s *fakeSession) SetPosition(pos, _ time.Duration) {
	s.mu.Lock()
	s.positions = append(s.positions, pos)
	s.mu.Unlock()
}

func (s *fakeSession) Bind(c Commands) {
	s.mu.Lock()
	s.cmds = c
	s.mu.Unlock()
}

func (s *fakeSession) LastStatus() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.statuses) == 0 {
		return StateIdle
	}
	return s.statuses[len(s.statuses)-1]
}

func (s *fakeSession) LastPosition() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.positions) == 0 {
		return 0
	}
	return s.positions[len(s.positions)-1]
}

func (s *fakeSession) LastMetadata() Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.metadata) == 0 {
		return Track{}
	}
	return s.metadata[len(s.metadata)-1]
}

type fakeKeepAlive struct {
	mu      sync.Mutex
	playing bool
	visible []bool
}

func (k *fakeKeepAlive) Signal() beep.Streamer { return beep.Silence(-1) }

func (k *fakeKeepAlive) SetPlaying(p bool) {
	k.mu.Lock()
	k.playing = p
	k.mu.Unlock()
}

func (k *fakeKeepAlive) SetVisible(v bool) {
	k.mu.Lock()
	k.visible = append(k.visible, v)
	k.mu.Unlock()
}

func (k *fakeKeepAlive) Playing() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.playing
}

type harness struct {
	e       *Engine
	out     *output.Fake
	loader  *fakeLoader
	rec     *recorder
	session *fakeSession
	alive   *fakeKeepAlive
}

// newHarness builds an engine on fakes. Must be called inside a synctest
// bubble; the engine is closed when the test ends.
func newHarness(t *testing.T, cb ...func(*harness) Callbacks) *harness {
	t.Helper()
	h := &harness{
		out:     output.NewFake(testRate),
		loader:  newFakeLoader(),
		rec:     &recorder{},
		session: &fakeSession{},
		alive:   &fakeKeepAlive{},
	}
	callbacks := h.rec.callbacks()
	if len(cb) > 0 {
		callbacks = cb[0](h)
	}
	e, err := New(h.out, h.loader, callbacks, WithSession(h.session), WithKeepAlive(h.alive))
	require.NoError(t, err)
	h.e = e
	t.Cleanup(func() { _ = e.Close() })
	return h
}

func track(id string) Track {
	return Track{ID: id, Title: id, AudioURL: id}
}

// pull streams d worth of audio through the graph.
func (h *harness) pull(d time.Duration) {
	h.out.Pull(testRate.N(d))
}

// fade returns the fade gain of a lane.
func (h *harness) fade(id player.LaneID) float64 {
	h.out.Lock()
	defer h.out.Unlock()
	return h.e.lanes[id].Fade()
}

func (h *harness) loaded(id player.LaneID) bool {
	h.out.Lock()
	defer h.out.Unlock()
	return h.e.lanes[id].Loaded()
}

func (h *harness) closed(url string) bool {
	src := h.loader.Source(url)
	h.out.Lock()
	defer h.out.Unlock()
	return src != nil && src.closed
}
