// Package dsp holds the shared signal-processing stages of the playback graph:
// automation parameters, the 5-band equalizer, the loudness normalizer and the
// spectral analyzer tap. Every stage is a beep.Streamer wrapping its input.
//
// None of the stages lock on their own except the analyzer. Parameter changes
// must happen while holding the output lock (speaker.Lock), the same lock the
// audio goroutine holds while pulling samples.
package dsp

import "math"

// settleEpsilon is how close an exponential approach must get to its target
// before it snaps and stops.
const settleEpsilon = 1e-6

// Param is an audio-rate parameter advanced one sample at a time by the
// streamer that owns it. It supports an instant set, a linear ramp over a
// fixed number of samples and an exponential approach to a target.
type Param struct {
	value  float64
	target float64

	// linear ramp
	step float64
	left int

	// exponential approach, 0 when idle
	coeff float64
}

// NewParam returns a parameter resting at v.
func NewParam(v float64) *Param {
	return &Param{value: v, target: v}
}

// Value returns the value the next sample will use.
func (p *Param) Value() float64 { return p.value }

// Target returns the value the parameter is heading to.
func (p *Param) Target() float64 { return p.target }

// Settled reports whether no automation is in progress.
func (p *Param) Settled() bool { return p.left == 0 && p.coeff == 0 }

// Set jumps to v and cancels any automation.
func (p *Param) Set(v float64) {
	p.value = v
	p.target = v
	p.step = 0
	p.left = 0
	p.coeff = 0
}

// LinearRamp moves from the current value to target in exactly n samples.
// A non-positive n behaves like Set.
func (p *Param) LinearRamp(target float64, n int) {
	if n <= 0 {
		p.Set(target)
		return
	}
	p.coeff = 0
	p.target = target
	p.left = n
	p.step = (target - p.value) / float64(n)
}

// SetTarget approaches target exponentially with time constant tau samples.
// After tau samples the parameter has covered ~63% of the distance.
func (p *Param) SetTarget(target float64, tau float64) {
	if tau <= 0 {
		p.Set(target)
		return
	}
	p.left = 0
	p.step = 0
	p.target = target
	p.coeff = 1 - math.Exp(-1/tau)
	if math.Abs(p.target-p.value) < settleEpsilon {
		p.Set(target)
	}
}

// Next returns the value for the current sample and advances by one sample.
func (p *Param) Next() float64 {
	v := p.value
	switch {
	case p.left > 0:
		p.left--
		if p.left == 0 {
			p.value = p.target
			p.step = 0
		} else {
			p.value += p.step
		}
	case p.coeff > 0:
		p.value += (p.target - p.value) * p.coeff
		if math.Abs(p.target-p.value) < settleEpsilon {
			p.value = p.target
			p.coeff = 0
		}
	}
	return v
}

// Skip advances the automation by n samples and returns the value reached.
func (p *Param) Skip(n int) float64 {
	if p.Settled() {
		return p.value
	}
	for range n {
		p.Next()
	}
	return p.value
}
