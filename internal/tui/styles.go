package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/leadgen/internal/domain"
)

var (
	// TitleStyle is used for screen titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")). // Purple
			MarginBottom(1)

	// SelectedItemStyle is used for highlighted/selected items.
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("170")). // Light purple
				Bold(true)

	// NormalItemStyle is used for non-selected items.
	NormalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Light gray

	// ErrorStyle is used for error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// HelpStyle is used for help text.
	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Dark gray
			MarginTop(1)

	// SuccessStyle is used for confirmations.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")) // Green
)

// Shared building blocks for the screens.
var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	errorBannerStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("196")).
				Foreground(lipgloss.Color("196")).
				Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPanelStyle = panelStyle.
				BorderForeground(lipgloss.Color("205"))
)

// statusColors maps a pipeline status to its badge color. Statuses not
// listed fall back to the info color.
var statusColors = map[string]lipgloss.Color{
	domain.StatusNew:       lipgloss.Color("39"),  // info
	domain.StatusContacted: lipgloss.Color("214"), // warning
	domain.StatusEngaged:   lipgloss.Color("34"),  // success
	domain.StatusQualified: lipgloss.Color("34"),
	domain.StatusWon:       lipgloss.Color("34"),
	domain.StatusLost:      lipgloss.Color("196"), // error
}

// statusBadge renders status in its badge color.
func statusBadge(status string) string {
	color, ok := statusColors[status]
	if !ok {
		color = statusColors[domain.StatusNew]
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(status)
}
