package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/svp/internal/models"
)

// Colors
var (
	primaryColor   = lipgloss.Color("212")
	secondaryColor = lipgloss.Color("141")
	successColor   = lipgloss.Color("42")
	warningColor   = lipgloss.Color("214")
	errorColor     = lipgloss.Color("196")
	cyanColor      = lipgloss.Color("45")
	mutedColor     = lipgloss.Color("241")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	navStyle       = lipgloss.NewStyle().Foreground(cyanColor)
	bannerStyle    = lipgloss.NewStyle().Foreground(warningColor)
	sortStyle      = lipgloss.NewStyle().Foreground(secondaryColor)
	headerStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	headerFocus    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(primaryColor)
	cursorRowStyle = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	pulseRowStyle  = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	disabledStyle  = lipgloss.NewStyle().Foreground(mutedColor).Strikethrough(true)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)

	primaryBtnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("25"))
	chevronStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("24"))
	currentPage     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	dropdownHeader = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	dropdownHover  = lipgloss.NewStyle().Background(lipgloss.Color("238"))

	statusOKStyle    = lipgloss.NewStyle().Foreground(successColor)
	statusErrorStyle = lipgloss.NewStyle().Foreground(errorColor)

	filterLabelStyle = lipgloss.NewStyle().Foreground(mutedColor)
	filterValueStyle = lipgloss.NewStyle().Foreground(cyanColor)
)

// statusColor returns the cell color of a plan status
func statusColor(s models.PlanStatus) lipgloss.Color {
	switch s {
	case models.StatusComplete:
		return successColor
	case models.StatusInProgress:
		return cyanColor
	case models.StatusNotComplete:
		return warningColor
	case models.StatusCanceled:
		return errorColor
	default:
		return mutedColor
	}
}
