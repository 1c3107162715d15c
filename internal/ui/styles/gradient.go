package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"
)

// fallbackGray stands in for colors that are not #rrggbb, such as ANSI
// palette indexes.
var fallbackGray = colorful.Color{R: 0.5, G: 0.5, B: 0.5}

// Gradient returns n colors blended in HCL space from one end to the other.
func Gradient(n int, from, to lipgloss.Color) []lipgloss.Color {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []lipgloss.Color{from}
	}
	a, b := parse(from), parse(to)
	out := make([]lipgloss.Color, n)
	for i := range out {
		out[i] = lipgloss.Color(a.BlendHcl(b, float64(i)/float64(n-1)).Clamped().Hex())
	}
	return out
}

// Mix returns the color t of the way from a to b, t clamped to 0..1.
func Mix(a, b lipgloss.Color, t float64) lipgloss.Color {
	t = min(max(t, 0), 1)
	return lipgloss.Color(parse(a).BlendHcl(parse(b), t).Clamped().Hex())
}

// ApplyGradient colors each grapheme of text along a gradient.
func ApplyGradient(text string, from, to lipgloss.Color) string {
	var clusters []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		clusters = append(clusters, gr.Str())
	}

	var b strings.Builder
	for i, c := range Gradient(len(clusters), from, to) {
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render(clusters[i]))
	}
	return b.String()
}

func parse(c lipgloss.Color) colorful.Color {
	col, err := colorful.Hex(string(c))
	if err != nil {
		return fallbackGray
	}
	return col
}
