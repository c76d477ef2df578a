package render

import "github.com/charmbracelet/lipgloss"

var (
	ColorCritical = lipgloss.Color("#FF4040")
	ColorWarning  = lipgloss.Color("#FFB800")
	ColorOptimize = lipgloss.Color("#00BFFF")
	ColorInfo     = lipgloss.Color("#AAAAAA")
	ColorMuted    = lipgloss.Color("#666666")
)

var (
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorOptimize).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorOptimize)
	LabelStyle = lipgloss.NewStyle().Foreground(ColorInfo).Width(20)
	MutedText  = lipgloss.NewStyle().Foreground(ColorMuted)

	GradeStyleA = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	GradeStyleF = lipgloss.NewStyle().Bold(true).Foreground(ColorCritical)
)

func severityStyle(color string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(color))
}
