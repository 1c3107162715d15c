package output

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestSpeaker_StalledDeviceReadsSuspended(t *testing.T) {
	c := &clock{t: time.Unix(1000, 0)}
	s := &Speaker{rate: DefaultRate, stallAfter: stallBuffers * DefaultBuffer, now: c.now}
	assert.False(t, s.Suspended(), "nothing played yet")

	p := &pulse{s: beep.Silence(-1), last: &s.lastPull, now: c.now}
	p.Stream(make([][2]float64, 16))
	assert.False(t, s.Suspended())

	c.t = c.t.Add(stallBuffers * DefaultBuffer)
	assert.False(t, s.Suspended())

	c.t = c.t.Add(time.Millisecond)
	assert.True(t, s.Suspended())

	p.Stream(make([][2]float64, 16))
	assert.False(t, s.Suspended())
}

func TestPulse_PassesAudioThrough(t *testing.T) {
	c := &clock{t: time.Unix(42, 0)}
	var last atomic.Int64
	p := &pulse{s: beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			samples[i] = [2]float64{0.25, -0.25}
		}
		return len(samples), true
	}), last: &last, now: c.now}

	buf := make([][2]float64, 8)
	n, ok := p.Stream(buf)

	assert.Equal(t, 8, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{0.25, -0.25}, buf[7])
	assert.Equal(t, c.t.UnixNano(), last.Load())
}
