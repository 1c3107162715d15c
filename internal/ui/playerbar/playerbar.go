// Package playerbar renders the now-playing bar and the spectrum view.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/llehouerou/wavelane/internal/playback"
	"github.com/llehouerou/wavelane/internal/ui/render"
	"github.com/llehouerou/wavelane/internal/ui/styles"
)

const (
	playSymbol   = "▶"
	pauseSymbol  = "⏸"
	bufferSymbol = "…"
	idleSymbol   = "■"
)

// Height is the rendered height of the bar: top border, two content rows,
// bottom border.
const Height = 4

// State holds everything needed to render the player bar.
type State struct {
	Status     playback.State
	Track      *playback.Track
	Position   time.Duration
	Duration   time.Duration
	Volume     float64
	Normalize  bool
	Crossfade  time.Duration
	EQ         string // preset name, "custom", or empty to hide
	Lane       string
	QueueIndex int // 0-based, -1 if unknown
	QueueLen   int
}

// Render returns the player bar string for the given width.
// Returns empty string when there is no track.
func Render(s State, width int) string {
	if s.Track == nil {
		return ""
	}
	innerWidth := max(width-6, 10)

	return barStyle().Padding(0, 2).Width(max(width-2, 0)).Render(
		renderTrackLine(s, innerWidth) + "\n" + renderStatusLine(s, innerWidth),
	)
}

// renderTrackLine: Title   Artist · Album   ▶ ━━━───   1:23 / 3:58
func renderTrackLine(s State, innerWidth int) string {
	title := s.Track.Title
	if title == "" {
		title = "Unknown Track"
	}
	var infoParts []string
	if s.Track.Artist != "" {
		infoParts = append(infoParts, s.Track.Artist)
	}
	if s.Track.Album != "" {
		infoParts = append(infoParts, s.Track.Album)
	}
	info := strings.Join(infoParts, " · ")

	status := statusSymbol(s.Status)
	timeStr := fmt.Sprintf("%s / %s", formatDuration(s.Position), formatDuration(s.Duration))

	separator := "   "
	sepWidth := lipgloss.Width(separator)
	timeWidth := lipgloss.Width(timeStr)
	statusWidth := lipgloss.Width(status + "  ")
	minBarWidth := 10

	available := innerWidth - statusWidth - timeWidth - sepWidth*2 - minBarWidth
	titleWidth := lipgloss.Width(title)
	infoWidth := lipgloss.Width(info)

	var styledTitle, styledInfo string
	var used int
	switch {
	case info != "" && titleWidth+sepWidth+infoWidth <= available:
		styledTitle = titleStyle().Render(render.Sanitize(title))
		styledInfo = artistStyle().Render(render.Sanitize(info))
		used = titleWidth + sepWidth + infoWidth
	case info != "" && titleWidth+sepWidth < available:
		maxInfo := available - titleWidth - sepWidth
		styledTitle = titleStyle().Render(render.Sanitize(title))
		styledInfo = artistStyle().Render(render.TruncateEllipsis(info, maxInfo))
		used = titleWidth + sepWidth + lipgloss.Width(render.TruncateEllipsis(info, maxInfo))
	default:
		maxTitle := max(available, 10)
		t := render.TruncateEllipsis(title, maxTitle)
		styledTitle = titleStyle().Render(t)
		used = lipgloss.Width(t)
	}

	barWidth := max(innerWidth-used-statusWidth-timeWidth-sepWidth*2, 5)
	var ratio float64
	if s.Duration > 0 {
		ratio = min(float64(s.Position)/float64(s.Duration), 1)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	var b strings.Builder
	b.WriteString(styledTitle)
	if styledInfo != "" {
		b.WriteString(separator)
		b.WriteString(styledInfo)
	}
	b.WriteString(separator)
	b.WriteString(status)
	b.WriteString("  ")
	b.WriteString(progressBarFilled().Render(strings.Repeat("━", filled)))
	b.WriteString(progressBarEmpty().Render(strings.Repeat("─", barWidth-filled)))
	b.WriteString(separator)
	b.WriteString(progressTimeStyle().Render(timeStr))
	return b.String()
}

// renderStatusLine: FLAC hi-res · lane B · vol 80% · norm · xfade 2s · 3rd of 12
func renderStatusLine(s State, innerWidth int) string {
	var parts []string
	if s.Track.Format != "" {
		f := string(s.Track.Format)
		if s.Track.HiRes {
			f += " hi-res"
		}
		parts = append(parts, f)
	}
	if s.Status == playback.StateBuffering {
		parts = append(parts, styles.T().S().Warning.Render("waiting"))
	}
	if s.Lane != "" {
		parts = append(parts, "lane "+s.Lane)
	}
	parts = append(parts, fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5)))
	if s.Normalize {
		parts = append(parts, "norm")
	}
	if s.Crossfade > 0 {
		parts = append(parts, "xfade "+humanize.FtoaWithDigits(s.Crossfade.Seconds(), 1)+"s")
	} else {
		parts = append(parts, "cut")
	}
	if s.EQ != "" {
		parts = append(parts, "eq "+s.EQ)
	}
	if s.QueueLen > 1 && s.QueueIndex >= 0 {
		parts = append(parts, fmt.Sprintf("%s of %d", humanize.Ordinal(s.QueueIndex+1), s.QueueLen))
	}
	return metaStyle().Render(render.TruncateEllipsis(strings.Join(parts, " · "), innerWidth))
}

func statusSymbol(st playback.State) string {
	switch st {
	case playback.StatePlaying:
		return styles.T().S().Success.Render(playSymbol)
	case playback.StatePaused:
		return pauseSymbol
	case playback.StateBuffering:
		return styles.T().S().Warning.Render(bufferSymbol)
	case playback.StateIdle:
	}
	return idleSymbol
}

func formatDuration(d time.Duration) string {
	d = max(d, 0)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
