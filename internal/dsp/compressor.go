package dsp

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// Normalizer thresholds. There are no intermediate levels.
const (
	ThresholdOn  = -24.0
	ThresholdOff = 0.0
)

const (
	compKnee    = 40.0 // dB above threshold where the curve bends
	compRatio   = 12.0
	compRelease = 0.25 // seconds; attack is instantaneous

	// levels below this are treated as silence
	minLevelDB = -120.0
)

var _ beep.Streamer = (*Compressor)(nil)

// Compressor is a feed-forward peak compressor used as the loudness
// normalizer. With the threshold at 0 dBFS it never reduces gain.
type Compressor struct {
	s         beep.Streamer
	rate      beep.SampleRate
	threshold *Param

	release  float64 // per-sample release coefficient
	envelope float64 // current gain reduction in dB, <= 0
}

// NewCompressor wraps s. The normalizer starts enabled.
func NewCompressor(s beep.Streamer, rate beep.SampleRate) *Compressor {
	return &Compressor{
		s:         s,
		rate:      rate,
		threshold: NewParam(ThresholdOn),
		release:   1 - math.Exp(-1/(compRelease*float64(rate))),
	}
}

// SetEnabled switches the threshold between ThresholdOn and ThresholdOff,
// smoothed.
func (c *Compressor) SetEnabled(enabled bool) {
	t := ThresholdOff
	if enabled {
		t = ThresholdOn
	}
	c.threshold.SetTarget(t, SmoothingTime*float64(c.rate))
}

// Enabled reports whether the normalizer is heading to the aggressive
// threshold.
func (c *Compressor) Enabled() bool {
	return c.threshold.Target() == ThresholdOn
}

// Reduction returns the current gain reduction in dB (0 or negative).
func (c *Compressor) Reduction() float64 { return c.envelope }

// Stream implements beep.Streamer.
func (c *Compressor) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.s.Stream(samples)
	for i := range samples[:n] {
		t := c.threshold.Next()
		peak := math.Max(math.Abs(samples[i][0]), math.Abs(samples[i][1]))
		level := minLevelDB
		if peak > 0 {
			level = math.Max(20*math.Log10(peak), minLevelDB)
		}
		want := curve(level, t) - level
		if want < c.envelope {
			c.envelope = want
		} else {
			c.envelope += (want - c.envelope) * c.release
		}
		if c.envelope > -settleEpsilon {
			c.envelope = 0
		}
		if c.envelope == 0 {
			continue
		}
		g := math.Pow(10, c.envelope/20)
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

// Err implements beep.Streamer.
func (c *Compressor) Err() error { return c.s.Err() }

// curve is the static input/output characteristic in dB with a quadratic
// knee spanning [t, t+knee].
func curve(x, t float64) float64 {
	switch {
	case x <= t:
		return x
	case x < t+compKnee:
		d := x - t
		return x + (1/compRatio-1)*d*d/(2*compKnee)
	default:
		top := t + compKnee/2 + compKnee/(2*compRatio)
		return top + (x-t-compKnee)/compRatio
	}
}
