package playerbar

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavelane/internal/ui/styles"
)

// levels are the eighth-block glyphs for one cell, from empty to full.
var levels = []rune(" ▁▂▃▄▅▆▇█")

// RenderSpectrum draws bins (each 0..1) as vertical bars, resampled to width
// columns and height rows. Energy (0..1) brightens the bar gradient.
func RenderSpectrum(bins []float64, energy float64, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	cols := resample(bins, width)

	top := styles.Mix(styles.T().Primary, styles.T().Secondary, energy)
	colors := styles.Gradient(height, top, styles.T().FgSubtle)

	rows := make([]string, height)
	steps := len(levels) - 1
	for r := range height {
		// r = 0 is the top row
		floor := float64(height-1-r) / float64(height)
		var line strings.Builder
		for _, v := range cols {
			cell := (v - floor) * float64(height)
			idx := int(math.Round(min(max(cell, 0), 1) * float64(steps)))
			line.WriteRune(levels[idx])
		}
		rows[r] = lipgloss.NewStyle().Foreground(colors[r]).Render(line.String())
	}
	return strings.Join(rows, "\n")
}

// resample averages or repeats bins to n columns, clamping to 0..1.
func resample(bins []float64, n int) []float64 {
	out := make([]float64, n)
	if len(bins) == 0 {
		return out
	}
	for i := range n {
		lo := i * len(bins) / n
		hi := max((i+1)*len(bins)/n, lo+1)
		var sum float64
		for _, v := range bins[lo:hi] {
			sum += v
		}
		out[i] = min(max(sum/float64(hi-lo), 0), 1)
	}
	return out
}
