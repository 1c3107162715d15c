// Package playlist holds the play queue the CLI advances through as tracks
// end or the media session asks for next/previous.
package playlist

import "github.com/llehouerou/wavelane/internal/playback"

// Queue is an ordered list of tracks with a cursor.
type Queue struct {
	tracks       []playback.Track
	currentIndex int // -1 if nothing playing
	repeat       bool
}

// NewQueue creates a queue holding tracks, positioned before the first one.
func NewQueue(tracks ...playback.Track) *Queue {
	return &Queue{
		tracks:       append([]playback.Track(nil), tracks...),
		currentIndex: -1,
	}
}

// SetRepeat makes Next wrap to the first track and Previous to the last.
func (q *Queue) SetRepeat(repeat bool) { q.repeat = repeat }

// Repeat reports whether the queue wraps around.
func (q *Queue) Repeat() bool { return q.repeat }

// Current returns the currently playing track, or nil if none.
func (q *Queue) Current() *playback.Track {
	if q.currentIndex < 0 || q.currentIndex >= len(q.tracks) {
		return nil
	}
	return &q.tracks[q.currentIndex]
}

// CurrentIndex returns the index of the currently playing track (-1 if none).
func (q *Queue) CurrentIndex() int {
	return q.currentIndex
}

// Next advances to the next track and returns it.
// Returns nil if there is no next track.
func (q *Queue) Next() *playback.Track {
	if !q.HasNext() {
		return nil
	}
	q.currentIndex = (q.currentIndex + 1) % len(q.tracks)
	return q.Current()
}

// HasNext returns true if Next would return a track.
func (q *Queue) HasNext() bool {
	if len(q.tracks) == 0 {
		return false
	}
	return q.repeat || q.currentIndex < len(q.tracks)-1
}

// Previous steps back one track and returns it.
// Returns nil if there is no previous track.
func (q *Queue) Previous() *playback.Track {
	if !q.HasPrevious() {
		return nil
	}
	if q.currentIndex <= 0 {
		q.currentIndex = len(q.tracks)
	}
	q.currentIndex--
	return q.Current()
}

// HasPrevious returns true if Previous would return a track.
func (q *Queue) HasPrevious() bool {
	if len(q.tracks) == 0 {
		return false
	}
	return q.repeat || q.currentIndex > 0
}

// JumpTo sets the current index to the specified position.
// Returns the track at that position, or nil if invalid.
func (q *Queue) JumpTo(index int) *playback.Track {
	if index < 0 || index >= len(q.tracks) {
		return nil
	}
	q.currentIndex = index
	return q.Current()
}

// Add appends tracks to the queue without changing playback.
func (q *Queue) Add(tracks ...playback.Track) {
	q.tracks = append(q.tracks, tracks...)
}

// Replace clears the queue, adds tracks, and sets index to 0.
// Returns the first track to play.
func (q *Queue) Replace(tracks ...playback.Track) *playback.Track {
	q.tracks = append(q.tracks[:0], tracks...)
	q.currentIndex = -1
	if len(tracks) == 0 {
		return nil
	}
	q.currentIndex = 0
	return q.Current()
}

// Tracks returns a copy of all tracks in the queue.
func (q *Queue) Tracks() []playback.Track {
	result := make([]playback.Track, len(q.tracks))
	copy(result, q.tracks)
	return result
}

// Len returns the number of tracks in the queue.
func (q *Queue) Len() int {
	return len(q.tracks)
}
