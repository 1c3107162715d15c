// internal/player/state.go
package player

// State is the lifecycle of a single lane.
//
//	┌─────────┐  load   ┌─────────┐  start  ┌─────────┐  pause  ┌────────┐
//	│ Stopped │ ──────▶ │ Loading │ ──────▶ │ Playing │ ──────▶ │ Paused │
//	└─────────┘         └─────────┘         └─────────┘ ◀────── └────────┘
//	   ▲  ▲                  │                   │        resume     │
//	   │  └──── load failed ─┘                   │                   │
//	   └──────────── ended / retired ────────────┴───────────────────┘
//
// Only the engine moves a lane between states; the lane itself only tracks
// whether its source is started, paused or drained.
type State int

const (
	Stopped State = iota
	Loading
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if the lane holds a started source.
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}
