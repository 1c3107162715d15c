package config

import (
	"time"

	"github.com/llehouerou/wavelane/internal/dsp"
)

// Engine holds playback settings with defaults applied.
type Engine struct {
	Crossfade    time.Duration
	Silence      time.Duration
	Normalize    bool
	Volume       float64
	EQ           []float64
	PollInterval time.Duration
	IdleSuspend  time.Duration
	WakeLock     bool
}

const (
	DefaultCrossfade    = 2 * time.Second
	DefaultVolume       = 0.8
	DefaultPollInterval = 2 * time.Second
	DefaultIdleSuspend  = 30 * time.Second

	// MaxGainDB bounds equalizer band gains read from the config.
	MaxGainDB = 12.0
)

// GetEngine returns the playback settings with defaults applied.
func (c *Config) GetEngine() Engine {
	e := Engine{
		Crossfade:    parseDuration(c.Crossfade, DefaultCrossfade),
		Silence:      parseDuration(c.Silence, 0),
		Normalize:    c.Normalize == nil || *c.Normalize,
		Volume:       DefaultVolume,
		EQ:           make([]float64, dsp.BandCount),
		PollInterval: parseDuration(c.Liveness.PollInterval, DefaultPollInterval),
		IdleSuspend:  parseDuration(c.Liveness.IdleSuspend, DefaultIdleSuspend),
		WakeLock:     c.Liveness.WakeLock == nil || *c.Liveness.WakeLock,
	}
	if c.Volume != nil && *c.Volume >= 0 && *c.Volume <= 1 {
		e.Volume = *c.Volume
	}
	copy(e.EQ, c.EQ)
	if p, ok := dsp.LookupPreset(c.EQPreset); ok {
		e.EQ = p.Bands()
	}
	for i, g := range e.EQ {
		e.EQ[i] = min(max(g, -MaxGainDB), MaxGainDB)
	}
	if e.PollInterval <= 0 {
		e.PollInterval = DefaultPollInterval
	}
	return e
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
