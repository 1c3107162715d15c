//go:build linux

// Package mpris publishes the engine on D-Bus as an MPRIS2 media player.
package mpris

import (
	"fmt"
	"hash/fnv"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/wavelane/internal/playback"
)

var _ playback.MediaSession = (*Session)(nil)

// seekTolerance is how far a reported position may drift from the
// extrapolated one before it counts as a seek.
const seekTolerance = time.Second

// signaler emits the player interface's change signals.
type signaler interface {
	OnPlayPause() error
	OnTitle() error
	OnSeek(position types.Microseconds) error
}

// Session is an MPRIS2 media session. OS commands are forwarded to the
// commands bound by the engine. Metadata and status changes are announced
// with PropertiesChanged, position jumps with Seeked.
type Session struct {
	server  *server.Server
	player  *playerAdapter
	signals signaler
	logger  *log.Logger
}

// New creates and starts a session registered as org.mpris.MediaPlayer2.<name>.
func New(name string, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Session{
		player: &playerAdapter{now: time.Now},
		logger: logger,
	}
	s.server = server.NewServer(name, &rootAdapter{identity: name}, s.player)
	s.signals = events.NewEventHandler(s.server).Player

	go func() {
		if err := s.server.Listen(); err != nil {
			logger.Warn("mpris listen failed", "err", err)
		}
	}()
	return s, nil
}

// Bind sets the commands invoked by the operating system.
func (s *Session) Bind(c playback.Commands) {
	s.player.mu.Lock()
	defer s.player.mu.Unlock()
	s.player.cmds = c
}

// SetMetadata publishes the now-playing track.
func (s *Session) SetMetadata(t playback.Track) {
	s.player.mu.Lock()
	s.player.track = &t
	s.player.dur = t.Duration
	s.player.newTrack = true
	s.player.mu.Unlock()

	s.emit("metadata", func(sig signaler) error { return sig.OnTitle() })
}

// SetStatus publishes the transport state.
func (s *Session) SetStatus(st playback.State) {
	s.player.mu.Lock()
	s.player.rebaseLocked()
	changed := s.player.status != st
	s.player.status = st
	s.player.mu.Unlock()

	if changed {
		s.emit("status", func(sig signaler) error { return sig.OnPlayPause() })
	}
}

// SetPosition publishes the scrubber position. A position away from where
// playback should be by now is announced as a seek, except right after a
// track change.
func (s *Session) SetPosition(pos, dur time.Duration) {
	s.player.mu.Lock()
	drift := pos - s.player.positionLocked()
	seeked := !s.player.newTrack && (drift > seekTolerance || drift < -seekTolerance)
	s.player.newTrack = false
	s.player.pos = pos
	s.player.posAt = s.player.now()
	if dur > 0 {
		s.player.dur = dur
	}
	s.player.mu.Unlock()

	if seeked {
		us := types.Microseconds(pos.Microseconds())
		s.emit("seeked", func(sig signaler) error { return sig.OnSeek(us) })
	}
}

// emit sends a signal without holding the adapter lock, since the handler
// reads properties back through the adapter. The server connects to the bus
// asynchronously, so a signal sent before that is dropped.
func (s *Session) emit(what string, send func(signaler) error) {
	if s.signals == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("mpris signal dropped", "signal", what, "reason", r)
		}
	}()
	if err := send(s.signals); err != nil {
		s.logger.Debug("mpris signal failed", "signal", what, "err", err)
	}
}

// Close stops the server and releases the bus name.
func (s *Session) Close() error {
	return s.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct {
	identity string
}

func (r *rootAdapter) Raise() error { return nil }

func (r *rootAdapter) Quit() error { return nil }

func (r *rootAdapter) CanQuit() (bool, error) { return false, nil }

func (r *rootAdapter) CanRaise() (bool, error) { return false, nil }

func (r *rootAdapter) HasTrackList() (bool, error) { return false, nil }

func (r *rootAdapter) Identity() (string, error) { return r.identity, nil }

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/mp4", "audio/wav"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter from the last
// values published by the engine. Position is extrapolated while playing.
type playerAdapter struct {
	mu     sync.Mutex
	now    func() time.Time
	cmds   playback.Commands
	track  *playback.Track
	status playback.State
	pos    time.Duration
	posAt  time.Time
	dur    time.Duration

	newTrack bool // metadata changed since the last SetPosition
}

func call(fn func()) error {
	if fn != nil {
		fn()
	}
	return nil
}

func (p *playerAdapter) commands() playback.Commands {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmds
}

func (p *playerAdapter) Next() error { return call(p.commands().Next) }

func (p *playerAdapter) Previous() error { return call(p.commands().Previous) }

func (p *playerAdapter) Pause() error { return call(p.commands().Pause) }

func (p *playerAdapter) PlayPause() error { return call(p.commands().Toggle) }

func (p *playerAdapter) Stop() error { return call(p.commands().Pause) }

func (p *playerAdapter) Play() error { return call(p.commands().Play) }

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	cmds := p.commands()
	if cmds.Seek == nil {
		return nil
	}
	cur := p.position()
	if cmds.Position != nil {
		cur = cmds.Position()
	}
	cmds.Seek(max(cur+time.Duration(offset)*time.Microsecond, 0))
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	cmds := p.commands()
	if cmds.Seek != nil {
		cmds.Seek(time.Duration(position) * time.Microsecond)
	}
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error { return nil }

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.status {
	case playback.StatePlaying, playback.StateBuffering:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused:
		return types.PlaybackStatusPaused, nil
	case playback.StateIdle:
		return types.PlaybackStatusStopped, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetRate(_ float64) error { return nil }

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return types.Metadata{}, nil
	}
	t := p.track
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(formatTrackID(t.ID)),
		Length:  types.Microseconds(p.dur.Microseconds()),
		Title:   t.Title,
		Album:   t.Album,
		ArtUrl:  t.ArtworkURL,
	}
	if t.Artist != "" {
		meta.Artist = []string{t.Artist}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) { return 1.0, nil }

func (p *playerAdapter) SetVolume(_ float64) error { return nil }

func (p *playerAdapter) Position() (int64, error) {
	return p.position().Microseconds(), nil
}

func (p *playerAdapter) position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *playerAdapter) positionLocked() time.Duration {
	pos := p.pos
	if p.status == playback.StatePlaying && !p.posAt.IsZero() {
		pos += p.now().Sub(p.posAt)
	}
	if p.dur > 0 {
		pos = min(pos, p.dur)
	}
	return pos
}

// rebaseLocked freezes the extrapolated position before a status change.
func (p *playerAdapter) rebaseLocked() {
	p.pos = p.positionLocked()
	p.posAt = p.now()
}

func (p *playerAdapter) MinimumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) MaximumRate() (float64, error) { return 1.0, nil }

func (p *playerAdapter) CanGoNext() (bool, error) {
	return p.commands().Next != nil, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return p.commands().Previous != nil, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) { return true, nil }

func (p *playerAdapter) CanSeek() (bool, error) { return true, nil }

func (p *playerAdapter) CanControl() (bool, error) { return true, nil }

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
