package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

var (
	// HelpOverlayStyle defines the style for the help overlay container.
	HelpOverlayStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		MarginTop(2)
)

// HelpModel wraps the bubbles help component for any screen key map.
type HelpModel struct {
	help   help.Model
	keymap help.KeyMap
}

// NewHelpModel creates a new help overlay model.
func NewHelpModel(keymap help.KeyMap) HelpModel {
	h := help.New()
	h.ShowAll = true

	return HelpModel{
		help:   h,
		keymap: keymap,
	}
}

// View renders the help overlay.
func (m HelpModel) View(width int) string {
	m.help.Width = width - 8 // Account for padding and border
	return HelpOverlayStyle.Render(m.help.View(m.keymap))
}

// ShortView renders the one-line key hint.
func (m HelpModel) ShortView(width int) string {
	h := m.help
	h.ShowAll = false
	h.Width = width
	return h.View(m.keymap)
}
