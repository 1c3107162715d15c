package playback

import "time"

// Callbacks receive engine events. Any field may be nil. Callbacks run on the
// goroutine that caused the event, never with engine locks held, so they may
// call back into the engine.
type Callbacks struct {
	OnState    func(State)
	OnProgress func(time.Duration)
	OnDuration func(time.Duration)
	OnError    func(error)
	// OnNext and OnPrevious relay media-session skip requests. Queue
	// navigation belongs to the caller.
	OnNext     func()
	OnPrevious func()
}

// StateChange is emitted when the active lane's state changes.
type StateChange struct {
	Previous State
	Current  State
}

// TrackChange is emitted when a new track starts on the active lane.
type TrackChange struct {
	Previous *Track
	Current  *Track
}

// PositionChange is emitted by the progress monitor and after a seek.
type PositionChange struct {
	Position time.Duration
}

// DurationChange is emitted when the active track's length becomes known.
type DurationChange struct {
	Duration time.Duration
}

// ErrorEvent is emitted for failures that cannot be returned to a caller,
// such as a deferred start after a scheduled silence.
type ErrorEvent struct {
	Operation string
	Track     *Track
	Err       error
}
