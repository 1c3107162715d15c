package dsp

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// BandCount is the fixed number of equalizer bands.
const BandCount = 5

// BandFrequencies are the center frequencies of the equalizer bands, in Hz.
var BandFrequencies = [BandCount]float64{60, 230, 910, 3600, 14000}

const (
	bandQ = 1.0

	// coefficients are recomputed at most once per block while a gain moves
	eqBlock = 32

	// SmoothingTime is the time constant used by every smoothed setter.
	SmoothingTime = 0.1
)

var _ beep.Streamer = (*Equalizer)(nil)

// biquad is a peaking filter with per-channel state (direct form I).
type biquad struct {
	freq float64
	gain *Param // dB

	appliedGain float64
	b0, b1, b2  float64
	a1, a2      float64

	x1, x2 [2]float64
	y1, y2 [2]float64
}

// Equalizer applies five fixed peaking filters in series.
type Equalizer struct {
	s     beep.Streamer
	rate  beep.SampleRate
	bands [BandCount]*biquad
}

// NewEqualizer wraps s with a flat 5-band equalizer.
func NewEqualizer(s beep.Streamer, rate beep.SampleRate) *Equalizer {
	e := &Equalizer{s: s, rate: rate}
	for i, f := range BandFrequencies {
		b := &biquad{freq: f, gain: NewParam(0)}
		b.design(float64(rate), 0)
		e.bands[i] = b
	}
	return e
}

// SetGain moves band i towards gainDB, smoothed. Out-of-range indices are
// ignored.
func (e *Equalizer) SetGain(i int, gainDB float64) {
	if i < 0 || i >= BandCount {
		return
	}
	e.bands[i].gain.SetTarget(gainDB, SmoothingTime*float64(e.rate))
}

// Gains returns the target gain of every band in dB.
func (e *Equalizer) Gains() [BandCount]float64 {
	var g [BandCount]float64
	for i, b := range e.bands {
		g[i] = b.gain.Target()
	}
	return g
}

// AppliedGains returns the gains the filters currently run with.
func (e *Equalizer) AppliedGains() [BandCount]float64 {
	var g [BandCount]float64
	for i, b := range e.bands {
		g[i] = b.appliedGain
	}
	return g
}

// Stream implements beep.Streamer.
func (e *Equalizer) Stream(samples [][2]float64) (int, bool) {
	n, ok := e.s.Stream(samples)
	for start := 0; start < n; start += eqBlock {
		end := min(start+eqBlock, n)
		for _, b := range e.bands {
			g := b.gain.Skip(end - start)
			if g != b.appliedGain {
				b.design(float64(e.rate), g)
			}
			if g == 0 {
				// a flat peaking filter is the identity, keep state warm
				b.passthrough(samples[start:end])
				continue
			}
			b.process(samples[start:end])
		}
	}
	return n, ok
}

// Err implements beep.Streamer.
func (e *Equalizer) Err() error { return e.s.Err() }

// design computes RBJ cookbook peaking coefficients.
func (b *biquad) design(rate, gainDB float64) {
	a := math.Pow(10, gainDB/40)
	w0 := 2 * math.Pi * b.freq / rate
	alpha := math.Sin(w0) / (2 * bandQ)
	cosw := math.Cos(w0)

	a0 := 1 + alpha/a
	b.b0 = (1 + alpha*a) / a0
	b.b1 = (-2 * cosw) / a0
	b.b2 = (1 - alpha*a) / a0
	b.a1 = (-2 * cosw) / a0
	b.a2 = (1 - alpha/a) / a0
	b.appliedGain = gainDB
}

func (b *biquad) process(samples [][2]float64) {
	for i := range samples {
		for c := range 2 {
			x0 := samples[i][c]
			y0 := b.b0*x0 + b.b1*b.x1[c] + b.b2*b.x2[c] - b.a1*b.y1[c] - b.a2*b.y2[c]
			b.x2[c], b.x1[c] = b.x1[c], x0
			b.y2[c], b.y1[c] = b.y1[c], y0
			samples[i][c] = y0
		}
	}
}

func (b *biquad) passthrough(samples [][2]float64) {
	for i := range samples {
		for c := range 2 {
			x0 := samples[i][c]
			b.x2[c], b.x1[c] = b.x1[c], x0
			b.y2[c], b.y1[c] = b.y1[c], x0
		}
	}
}
