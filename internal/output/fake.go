package output

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
)

// ErrResumeRejected is returned by Fake.Resume when RejectResume is set.
var ErrResumeRejected = errors.New("resume rejected")

// Fake is an in-memory output for tests. Samples are pulled explicitly with
// Pull instead of by an audio goroutine.
type Fake struct {
	Rate beep.SampleRate

	mu       sync.Mutex // the output lock
	streamer beep.Streamer

	stateMu      sync.Mutex
	suspended    bool
	rejectResume bool
	resumes      int
	closed       bool
}

// NewFake returns a Fake running at rate.
func NewFake(rate beep.SampleRate) *Fake {
	return &Fake{Rate: rate}
}

func (f *Fake) SampleRate() beep.SampleRate { return f.Rate }

func (f *Fake) Play(s beep.Streamer) {
	f.mu.Lock()
	f.streamer = s
	f.mu.Unlock()
}

func (f *Fake) Lock()   { f.mu.Lock() }
func (f *Fake) Unlock() { f.mu.Unlock() }

// Pull streams n samples from the graph the way the audio goroutine would.
// A suspended or empty output produces nothing.
func (f *Fake) Pull(n int) [][2]float64 {
	if f.Suspended() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streamer == nil {
		return nil
	}
	out := make([][2]float64, n)
	const chunk = 512
	for i := 0; i < n; i += chunk {
		f.streamer.Stream(out[i:min(i+chunk, n)])
	}
	return out
}

func (f *Fake) Suspend() error {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.suspended = true
	return nil
}

func (f *Fake) Resume() error {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	f.resumes++
	if f.rejectResume {
		return ErrResumeRejected
	}
	f.suspended = false
	return nil
}

func (f *Fake) Suspended() bool {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.suspended
}

// RejectResume makes later Resume calls fail.
func (f *Fake) RejectResume(reject bool) {
	f.stateMu.Lock()
	f.rejectResume = reject
	f.stateMu.Unlock()
}

// Resumes returns how many times Resume was called.
func (f *Fake) Resumes() int {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.resumes
}

func (f *Fake) Close() error {
	f.stateMu.Lock()
	f.closed = true
	f.stateMu.Unlock()
	return nil
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	f.stateMu.Lock()
	defer f.stateMu.Unlock()
	return f.closed
}
