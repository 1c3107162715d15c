//go:build !linux

package notify

// New reports ErrUnavailable: only the freedesktop service is supported.
func New() (Notifier, error) {
	return nil, ErrUnavailable
}
