// Package logging builds the application logger.
//
// The TUI owns the terminal, so logs go to a file under the XDG state
// directory unless the caller passes another writer.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

const logFileName = "wavelane/wavelane.log"

// New creates a logger writing to w at level, with timestamps and the
// "wavelane" prefix. w defaults to os.Stderr.
func New(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "wavelane",
		Level:           level,
	})
	return l
}

// Component returns a child logger tagged with the component name.
func Component(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}

// OpenFile opens path for appending, creating parent directories. An empty
// path uses the default file in the XDG state directory.
func OpenFile(path string) (*os.File, error) {
	if path == "" {
		p, err := xdg.StateFile(logFileName)
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
