package playback

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidSource is returned by Play for a track without an AudioURL.
	// No lane is touched.
	ErrInvalidSource = errors.New("track has no playable source")

	// ErrAborted marks a start that was abandoned on purpose. Loaders may
	// return it; Play swallows it.
	ErrAborted = errors.New("playback start aborted")

	// ErrClosed is returned by Play after Close.
	ErrClosed = errors.New("engine closed")
)

// StartError reports a track that could not be loaded or started. The active
// lane is left as it was before the attempt.
type StartError struct {
	Track Track
	Err   error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("start %s: %v", e.Track.DisplayName(), e.Err)
}

func (e *StartError) Unwrap() error { return e.Err }

// isAbort reports whether err means the start was abandoned rather than
// rejected.
func isAbort(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}
