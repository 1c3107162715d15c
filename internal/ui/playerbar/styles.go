package playerbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/wavelane/internal/ui/styles"
)

func barStyle() lipgloss.Style { return styles.T().S().Bar }

func titleStyle() lipgloss.Style { return styles.T().S().Playing }

func artistStyle() lipgloss.Style { return styles.T().S().Base }

func metaStyle() lipgloss.Style { return styles.T().S().Muted }

func progressBarFilled() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().Primary)
}

func progressBarEmpty() lipgloss.Style { return styles.T().S().Subtle }

func progressTimeStyle() lipgloss.Style { return styles.T().S().Muted }
