package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/wizmerge/internal/model"
)

// Color palette.
var (
	colorRed    = lipgloss.Color("#ff5555")
	colorGreen  = lipgloss.Color("#50fa7b")
	colorYellow = lipgloss.Color("#f1fa8c")
	colorBlue   = lipgloss.Color("#8be9fd")
	colorPurple = lipgloss.Color("#bd93f9")
	colorDim    = lipgloss.Color("#6272a4")
	colorFg     = lipgloss.Color("#f8f8f2")
	colorOrange = lipgloss.Color("#ffb86c")
)

// Style definitions.
var (
	// Merged content, by line origin
	baseLineStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	oursLineStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	theirsLineStyle = lipgloss.NewStyle().
			Foreground(colorBlue)

	mergedLineStyle = lipgloss.NewStyle().
			Foreground(colorPurple)

	markerStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(5).
			Align(lipgloss.Right)

	// Report
	headerStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	conflictHeaderStyle = lipgloss.NewStyle().
				Foreground(colorOrange).
				Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	cleanStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	riskLowStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	riskMediumStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	riskHighStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	riskCriticalStyle = lipgloss.NewStyle().
				Foreground(colorFg).
				Background(colorRed).
				Bold(true)
)

func originStyle(origin string) lipgloss.Style {
	switch origin {
	case model.OriginOurs.String():
		return oursLineStyle
	case model.OriginTheirs.String():
		return theirsLineStyle
	case model.OriginMerged.String():
		return mergedLineStyle
	default:
		return baseLineStyle
	}
}

func riskStyle(level string) lipgloss.Style {
	switch level {
	case "critical":
		return riskCriticalStyle
	case "high":
		return riskHighStyle
	case "medium":
		return riskMediumStyle
	default:
		return riskLowStyle
	}
}
