//go:build !linux

package mpris

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/wavelane/internal/playback"
)

// Session is a no-op on non-Linux platforms.
type Session struct{}

// New returns a no-op session on non-Linux platforms.
func New(_ string, _ *log.Logger) (*Session, error) {
	return &Session{}, nil
}

func (s *Session) Bind(_ playback.Commands)       {}
func (s *Session) SetMetadata(_ playback.Track)   {}
func (s *Session) SetStatus(_ playback.State)     {}
func (s *Session) SetPosition(_, _ time.Duration) {}

// Close is a no-op on non-Linux platforms.
func (s *Session) Close() error {
	return nil
}
