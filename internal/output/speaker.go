// Package output adapts the system audio device to the playback engine.
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// DefaultRate is the rate the device is opened at. Sources with a different
// rate are resampled before they reach the graph.
const DefaultRate = beep.SampleRate(44100)

// DefaultBuffer is the device buffer length.
const DefaultBuffer = 100 * time.Millisecond

var initOnce sync.Once

// stallBuffers is how many buffer lengths may pass without a pull before a
// playing device counts as stalled.
const stallBuffers = 8

// Speaker drives the process-wide beep speaker. Only one Speaker should be
// open at a time.
//
// Besides suspensions it started itself, Speaker reports a device that
// stopped pulling samples as suspended, and Resume restarts it.
type Speaker struct {
	rate       beep.SampleRate
	stallAfter time.Duration
	now        func() time.Time

	lastPull atomic.Int64 // unix nanos, 0 before the first Play

	mu        sync.Mutex
	suspended bool
}

// pulse records when the device last pulled from the graph.
type pulse struct {
	s    beep.Streamer
	last *atomic.Int64
	now  func() time.Time
}

func (p *pulse) Stream(samples [][2]float64) (int, bool) {
	p.last.Store(p.now().UnixNano())
	return p.s.Stream(samples)
}

func (p *pulse) Err() error { return p.s.Err() }

// NewSpeaker opens the audio device at rate with a buffer of the given length.
func NewSpeaker(rate beep.SampleRate, buffer time.Duration) (*Speaker, error) {
	var err error
	initOnce.Do(func() {
		err = speaker.Init(rate, rate.N(buffer))
	})
	if err != nil {
		initOnce = sync.Once{}
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	return &Speaker{rate: rate, stallAfter: stallBuffers * buffer, now: time.Now}, nil
}

// SampleRate returns the device rate.
func (s *Speaker) SampleRate() beep.SampleRate { return s.rate }

// Play starts pulling from st on the audio goroutine.
func (s *Speaker) Play(st beep.Streamer) {
	s.lastPull.Store(s.now().UnixNano())
	speaker.Play(&pulse{s: st, last: &s.lastPull, now: s.now})
}

// Lock stops the audio goroutine from pulling samples until Unlock.
func (s *Speaker) Lock() { speaker.Lock() }

// Unlock releases Lock.
func (s *Speaker) Unlock() { speaker.Unlock() }

// Suspend pauses the device. The graph keeps its state.
func (s *Speaker) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return fmt.Errorf("suspend speaker: %w", err)
	}
	s.suspended = true
	return nil
}

// Resume restarts a suspended or stalled device.
func (s *Speaker) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.suspended:
	case s.stalled():
		// cycle the device player to unstick it
		if err := speaker.Suspend(); err != nil {
			return fmt.Errorf("suspend stalled speaker: %w", err)
		}
	default:
		return nil
	}
	if err := speaker.Resume(); err != nil {
		return fmt.Errorf("resume speaker: %w", err)
	}
	s.suspended = false
	s.lastPull.Store(s.now().UnixNano())
	return nil
}

// Suspended reports whether the device is paused or has stopped pulling.
func (s *Speaker) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended || s.stalled()
}

func (s *Speaker) stalled() bool {
	last := s.lastPull.Load()
	if last == 0 || s.stallAfter <= 0 {
		return false
	}
	return s.now().Sub(time.Unix(0, last)) > s.stallAfter
}

// Close clears the graph and closes the device.
func (s *Speaker) Close() error {
	speaker.Clear()
	speaker.Close()
	initOnce = sync.Once{}
	return nil
}
