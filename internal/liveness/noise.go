package liveness

import "math/rand/v2"

// noiseAmplitude is low enough to be inaudible but keeps the output from
// ever being digital silence.
const noiseAmplitude = 1e-5

// noise is an endless stream of low-level white noise.
type noise struct {
	rng *rand.Rand
}

func newNoise() *noise {
	return &noise{rng: rand.New(rand.NewPCG(0x5eed, 0x11fe))}
}

func (n *noise) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i][0] = (n.rng.Float64()*2 - 1) * noiseAmplitude
		samples[i][1] = (n.rng.Float64()*2 - 1) * noiseAmplitude
	}
	return len(samples), true
}

func (n *noise) Err() error { return nil }
