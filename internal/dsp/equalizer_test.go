package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settleSamples is long enough for a 0.1s time constant to fully settle.
const settleSamples = 2 * 44100

func TestEqualizer_FlatIsTransparent(t *testing.T) {
	eq := NewEqualizer(&sineStreamer{freq: 1000, amp: 0.5}, testRate)
	ref := &sineStreamer{freq: 1000, amp: 0.5}

	got := pull(eq, 4096)
	want := pull(ref, 4096)

	require.Len(t, got, len(want))
	for i := range got {
		assert.InDelta(t, want[i][0], got[i][0], 1e-12, "sample %d", i)
	}
}

func TestEqualizer_BoostsBandCenter(t *testing.T) {
	eq := NewEqualizer(&sineStreamer{freq: 910, amp: 0.1}, testRate)
	eq.SetGain(2, 12)

	pull(eq, settleSamples)
	out := pull(eq, 4410)

	// +12 dB is a factor of ~3.98
	assert.InDelta(t, 0.1*math.Pow(10, 12.0/20), peak(out), 0.02)
}

func TestEqualizer_GainChangeIsSmoothed(t *testing.T) {
	eq := NewEqualizer(&sineStreamer{freq: 60, amp: 0.1}, testRate)
	eq.SetGain(0, 12)

	pull(eq, 64)
	applied := eq.AppliedGains()
	assert.Greater(t, applied[0], 0.0)
	assert.Less(t, applied[0], 1.0, "gain should not jump to its target")
}

func TestEqualizer_ResetToFlatIsIdempotent(t *testing.T) {
	eq := NewEqualizer(&sineStreamer{freq: 3600, amp: 0.2}, testRate)
	for i, g := range []float64{6, -4, 9, -12, 3} {
		eq.SetGain(i, g)
	}
	pull(eq, settleSamples)

	for i := range BandCount {
		eq.SetGain(i, 0)
	}
	pull(eq, settleSamples)

	assert.Equal(t, [BandCount]float64{}, eq.Gains())
	assert.Equal(t, [BandCount]float64{}, eq.AppliedGains())

	out := pull(eq, 4410)
	assert.InDelta(t, 0.2, peak(out), 0.001)
}

func TestEqualizer_IgnoresOutOfRangeBands(t *testing.T) {
	eq := NewEqualizer(&sineStreamer{freq: 1000, amp: 0.1}, testRate)

	eq.SetGain(-1, 10)
	eq.SetGain(BandCount, 10)
	eq.SetGain(42, 10)

	assert.Equal(t, [BandCount]float64{}, eq.Gains())
}

func TestBandFrequencies_Fixed(t *testing.T) {
	assert.Equal(t, [BandCount]float64{60, 230, 910, 3600, 14000}, BandFrequencies)
}
