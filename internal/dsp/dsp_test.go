package dsp

import (
	"math"

	"github.com/gopxl/beep/v2"
)

const testRate = beep.SampleRate(44100)

// sineStreamer produces an endless stereo sine wave.
type sineStreamer struct {
	freq  float64
	amp   float64
	phase float64
}

func (s *sineStreamer) Stream(samples [][2]float64) (int, bool) {
	step := 2 * math.Pi * s.freq / float64(testRate)
	for i := range samples {
		v := s.amp * math.Sin(s.phase)
		samples[i] = [2]float64{v, v}
		s.phase += step
	}
	return len(samples), true
}

func (s *sineStreamer) Err() error { return nil }

// pull streams n samples in speaker-sized chunks and returns them.
func pull(s beep.Streamer, n int) [][2]float64 {
	out := make([][2]float64, 0, n)
	buf := make([][2]float64, 512)
	for len(out) < n {
		k := min(len(buf), n-len(out))
		got, _ := s.Stream(buf[:k])
		out = append(out, buf[:got]...)
		if got == 0 {
			break
		}
	}
	return out
}

func peak(samples [][2]float64) float64 {
	var p float64
	for _, s := range samples {
		p = math.Max(p, math.Max(math.Abs(s[0]), math.Abs(s[1])))
	}
	return p
}
