package dsp

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	// FFTSize is the analysis window length in samples.
	FFTSize = 256
	// BinCount is the number of frequency bins reported by Spectrum.
	BinCount = FFTSize / 2

	smoothing = 0.8
	minDB     = -100.0
	maxDB     = -30.0

	// MaxMagnitude is the value of a bin at or above maxDB.
	MaxMagnitude = 255.0
)

var _ beep.Streamer = (*Analyzer)(nil)

// Analyzer is a pass-through tap that keeps the last FFTSize mono samples in a
// ring buffer and turns them into a byte-scaled magnitude spectrum on demand.
// Stream runs on the audio goroutine, Spectrum and Energy on any other.
// Smoothing advances once per read that follows new audio, so repeated reads
// without audio in between return the same bins.
type Analyzer struct {
	s beep.Streamer

	mu       sync.Mutex
	ring     [FFTSize]float64
	pos      int
	fft      *fourier.FFT
	frame    []float64
	coeffs   []complex128
	smoothed [BinCount]float64
	bins     [BinCount]float64

	written  uint64 // samples captured
	analyzed uint64 // value of written at the last analysis
}

// NewAnalyzer wraps s with an analyzer tap.
func NewAnalyzer(s beep.Streamer) *Analyzer {
	return &Analyzer{
		s:     s,
		fft:   fourier.NewFFT(FFTSize),
		frame: make([]float64, FFTSize),
	}
}

// Stream passes audio through while capturing a mono mix.
func (a *Analyzer) Stream(samples [][2]float64) (int, bool) {
	n, ok := a.s.Stream(samples)
	a.mu.Lock()
	for i := range n {
		a.ring[a.pos] = (samples[i][0] + samples[i][1]) / 2
		a.pos = (a.pos + 1) % FFTSize
	}
	a.written += uint64(n)
	a.mu.Unlock()
	return n, ok
}

// Err implements beep.Streamer.
func (a *Analyzer) Err() error { return a.s.Err() }

// Spectrum returns a copy of the BinCount magnitudes in [0, MaxMagnitude].
func (a *Analyzer) Spectrum() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshLocked()
	out := make([]float64, BinCount)
	copy(out, a.bins[:])
	return out
}

// Energy returns the mean bin magnitude normalized to [0, 1]. It reads the
// same bins Spectrum returns.
func (a *Analyzer) Energy() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshLocked()
	var sum float64
	for _, v := range a.bins {
		sum += v
	}
	return sum / BinCount / MaxMagnitude
}

// Reset forgets captured audio and smoothing history.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	a.ring = [FFTSize]float64{}
	a.smoothed = [BinCount]float64{}
	a.bins = [BinCount]float64{}
	a.pos = 0
	a.written, a.analyzed = 0, 0
	a.mu.Unlock()
}

func (a *Analyzer) refreshLocked() {
	if a.written == a.analyzed {
		return
	}
	a.analyzed = a.written
	a.update()
	for k, v := range a.smoothed {
		a.bins[k] = toByteScale(v)
	}
}

func (a *Analyzer) update() {
	for i := range FFTSize {
		a.frame[i] = a.ring[(a.pos+i)%FFTSize]
	}
	window.Blackman(a.frame)
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)
	for k := range BinCount {
		mag := math.Hypot(real(a.coeffs[k]), imag(a.coeffs[k])) / FFTSize
		a.smoothed[k] = smoothing*a.smoothed[k] + (1-smoothing)*mag
	}
}

// toByteScale maps a linear magnitude onto [0, 255] across [minDB, maxDB].
func toByteScale(mag float64) float64 {
	if mag <= 0 {
		return 0
	}
	db := 20 * math.Log10(mag)
	v := MaxMagnitude * (db - minDB) / (maxDB - minDB)
	return math.Max(0, math.Min(MaxMagnitude, v))
}
