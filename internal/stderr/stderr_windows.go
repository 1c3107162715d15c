//go:build windows

// Package stderr is a pass-through on Windows, where the audio stack does not
// print to the console.
package stderr

import "os"

// Logger receives captured lines.
type Logger interface {
	Warn(msg any, keyvals ...any)
}

// Start does nothing on Windows.
func Start(_ Logger) error { return nil }

// Stop does nothing on Windows.
func Stop() {}

// WriteOriginal writes msg to stderr.
func WriteOriginal(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}
