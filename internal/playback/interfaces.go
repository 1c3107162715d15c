package playback

import (
	"context"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/wavelane/internal/source"
)

// Output is the audio device the graph is played on. Lock and Unlock guard
// everything the audio goroutine reads.
type Output interface {
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Lock()
	Unlock()
	// Suspended reports whether the device is paused by the system or by
	// Suspend. A suspended device pulls no samples.
	Suspended() bool
}

// Loader opens the audio behind a track URL. Implementations must return
// promptly with ctx.Err() once ctx is cancelled.
type Loader interface {
	Open(ctx context.Context, url string) (*source.Source, error)
}

// KeepAlive keeps the audio graph from being suspended while a track should
// be audible. All methods are best effort.
type KeepAlive interface {
	// Signal is mixed into the graph for the lifetime of the engine.
	Signal() beep.Streamer
	SetPlaying(playing bool)
	SetVisible(visible bool)
}

// MediaSession publishes now-playing information to the operating system and
// relays its transport commands.
type MediaSession interface {
	SetMetadata(t Track)
	SetStatus(s State)
	SetPosition(pos, dur time.Duration)
	Bind(c Commands)
}

// Commands are the engine entry points a media session may invoke.
type Commands struct {
	Play     func()
	Pause    func()
	Toggle   func()
	Seek     func(pos time.Duration)
	Position func() time.Duration
	Next     func()
	Previous func()
}

type nopKeepAlive struct{}

func (nopKeepAlive) Signal() beep.Streamer { return beep.Silence(-1) }
func (nopKeepAlive) SetPlaying(bool)       {}
func (nopKeepAlive) SetVisible(bool)       {}

type nopSession struct{}

func (nopSession) SetMetadata(Track)              {}
func (nopSession) SetStatus(State)                {}
func (nopSession) SetPosition(_, _ time.Duration) {}
func (nopSession) Bind(Commands)                  {}
