package playback

import (
	"time"

	"github.com/charmbracelet/log"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSession publishes playback to a media session.
func WithSession(s MediaSession) Option {
	return func(e *Engine) {
		if s != nil {
			e.session = s
		}
	}
}

// WithKeepAlive attaches the liveness subsystem.
func WithKeepAlive(k KeepAlive) Option {
	return func(e *Engine) {
		if k != nil {
			e.keepAlive = k
		}
	}
}

// WithProgressInterval sets how often progress is reported while playing.
func WithProgressInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.progressEvery = d
		}
	}
}

// WithVolume sets the initial volume level.
func WithVolume(level float64) Option {
	return func(e *Engine) { e.volume = clampLevel(level) }
}
