//go:build !windows

// Package stderr routes file descriptor 2 into the application log while the
// terminal UI owns the screen. ALSA and the faad2 decoder print there
// directly, bypassing os.Stderr.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Logger receives captured lines.
type Logger interface {
	Warn(msg any, keyvals ...any)
}

type capture struct {
	saved int // duplicate of the original fd 2
	r, w  *os.File
	done  chan struct{}
}

var (
	mu      sync.Mutex
	current *capture
)

// Start redirects fd 2 and logs each non-empty line through l until Stop.
// Call it before any C library initialises. It is a no-op while a capture
// is already running; on error fd 2 is left untouched.
func Start(l Logger) error {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return nil
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}
	fd := int(os.Stderr.Fd())
	saved, err := unix.Dup(fd)
	if err != nil {
		r.Close()
		w.Close()
		return err
	}
	if err := unix.Dup2(int(w.Fd()), fd); err != nil {
		_ = unix.Close(saved)
		r.Close()
		w.Close()
		return err
	}

	c := &capture{saved: saved, r: r, w: w, done: make(chan struct{})}
	go c.forward(l)
	current = c
	return nil
}

func (c *capture) forward(l Logger) {
	defer close(c.done)
	sc := bufio.NewScanner(c.r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			l.Warn("native stderr", "line", line)
		}
	}
}

// Stop restores fd 2 and returns once every captured line has been logged.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	c := current
	if c == nil {
		return
	}
	current = nil

	_ = unix.Dup2(c.saved, int(os.Stderr.Fd()))
	_ = unix.Close(c.saved)
	// fd 2 no longer refers to the pipe, so this is its last writer.
	_ = c.w.Close()
	<-c.done
	_ = c.r.Close()
}

// WriteOriginal writes msg to the terminal's stderr even while capturing.
func WriteOriginal(msg string) {
	mu.Lock()
	defer mu.Unlock()
	fd := int(os.Stderr.Fd())
	if current != nil {
		fd = current.saved
	}
	_, _ = unix.Write(fd, []byte(msg))
}
