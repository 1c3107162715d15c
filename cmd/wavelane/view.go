package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavelane/internal/dsp"
	"github.com/llehouerou/wavelane/internal/ui/playerbar"
	"github.com/llehouerou/wavelane/internal/ui/render"
	"github.com/llehouerou/wavelane/internal/ui/styles"
)

const helpText = "space play/pause · n/p next/prev · ←/→ seek · +/- volume · [/] crossfade · z normalize · 0 flat eq · e eq preset · r repeat · q quit"

// View renders the header, spectrum, player bar and footer.
func (m model) View() string {
	t := styles.T()
	header := styles.ApplyGradient("wavelane", t.Primary, t.Secondary)
	if m.queue.Repeat() {
		header += t.S().Muted.Render("  repeat")
	}

	bar := playerbar.Render(m.barState(), m.width)
	footer := m.footer()

	specHeight := m.height - 1 - lipgloss.Height(footer)
	if bar != "" {
		specHeight -= playerbar.Height
	}
	parts := []string{header}
	if specHeight > 0 {
		parts = append(parts, playerbar.RenderSpectrum(scaleSpectrum(m.engine.Spectrum()), m.engine.Energy(), m.width, specHeight))
	}
	if bar != "" {
		parts = append(parts, bar)
	}
	parts = append(parts, footer)
	return strings.Join(parts, "\n")
}

func (m model) barState() playerbar.State {
	return playerbar.State{
		Status:     m.engine.State(),
		Track:      m.engine.CurrentTrack(),
		Position:   m.engine.Position(),
		Duration:   m.engine.Duration(),
		Volume:     m.engine.Volume(),
		Normalize:  m.engine.Normalization(),
		Crossfade:  m.crossfade,
		EQ:         eqLabel(m.engine.EQ()),
		Lane:       m.engine.ActiveLane().String(),
		QueueIndex: m.queue.CurrentIndex(),
		QueueLen:   m.queue.Len(),
	}
}

func (m model) footer() string {
	s := styles.T().S()
	if m.errText != "" {
		return s.Error.Render(render.TruncateEllipsis(render.Sanitize(m.errText), m.width))
	}
	return s.Subtle.Render(render.TruncateEllipsis(helpText, m.width))
}

// eqLabel names the equalizer curve for the player bar. Flat is not shown.
func eqLabel(bands []float64) string {
	switch name := dsp.MatchPreset(bands); name {
	case "Flat":
		return ""
	case "":
		return "custom"
	default:
		return name
	}
}

// scaleSpectrum maps analyzer magnitudes to 0..1.
func scaleSpectrum(bins []float64) []float64 {
	out := make([]float64, len(bins))
	for i, v := range bins {
		out[i] = v / dsp.MaxMagnitude
	}
	return out
}
