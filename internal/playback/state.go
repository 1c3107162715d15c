package playback

// State is the engine-level playback state reported to callers. It always
// describes the active lane.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	// StateBuffering is reported only while a scheduled silence is pending.
	StateBuffering
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateBuffering:
		return "Buffering"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track is loaded or about to be (playing, paused
// or waiting out a scheduled silence).
func (s State) IsActive() bool {
	return s != StateIdle
}

// wantsAudio reports whether the graph should be kept running.
func (s State) wantsAudio() bool {
	return s == StatePlaying || s == StateBuffering
}
