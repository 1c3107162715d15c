package dsp

import "strings"

// Preset is a named set of equalizer band gains.
type Preset struct {
	Name  string
	Gains [BandCount]float64 // dB, indexed by band
}

// Bands returns the gains as a slice suitable for SetEQ.
func (p Preset) Bands() []float64 {
	out := make([]float64, BandCount)
	copy(out, p.Gains[:])
	return out
}

// Presets are the built-in equalizer curves, Flat first.
var Presets = []Preset{
	{Name: "Flat", Gains: [BandCount]float64{0, 0, 0, 0, 0}},
	{Name: "Bass Boost", Gains: [BandCount]float64{6, 4, 0, 0, 0}},
	{Name: "Treble Boost", Gains: [BandCount]float64{0, 0, 0, 4, 6}},
	{Name: "Vocal", Gains: [BandCount]float64{-2, 0, 4, 2, 0}},
	{Name: "Electronic", Gains: [BandCount]float64{4, 2, -1, 3, 5}},
}

// LookupPreset finds a preset by name. Case, spaces, hyphens and underscores
// are ignored, so "bass-boost" matches "Bass Boost".
func LookupPreset(name string) (Preset, bool) {
	key := presetKey(name)
	for _, p := range Presets {
		if presetKey(p.Name) == key {
			return p, true
		}
	}
	return Preset{}, false
}

// MatchPreset returns the name of the preset whose gains equal bands, or ""
// when the gains are custom. Missing bands count as 0 dB.
func MatchPreset(bands []float64) string {
	var gains [BandCount]float64
	copy(gains[:], bands)
	for _, p := range Presets {
		if p.Gains == gains {
			return p.Name
		}
	}
	return ""
}

// NextPreset returns the preset after the one named current, wrapping around.
// Unknown or empty names start at the first preset.
func NextPreset(current string) Preset {
	key := presetKey(current)
	for i, p := range Presets {
		if presetKey(p.Name) == key {
			return Presets[(i+1)%len(Presets)]
		}
	}
	return Presets[0]
}

// PresetNames lists the preset names in order.
func PresetNames() []string {
	names := make([]string, len(Presets))
	for i, p := range Presets {
		names[i] = p.Name
	}
	return names
}

func presetKey(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(name)))
}
