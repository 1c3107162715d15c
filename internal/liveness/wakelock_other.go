//go:build !linux

package liveness

// NewWakeLock returns nil on platforms without a supported inhibitor. A Guard
// without a wake lock still polls the graph.
func NewWakeLock(_, _ string) WakeLock {
	return nil
}
