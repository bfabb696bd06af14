package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/leadgen/internal/domain"
)

// PickPurpose says what a status pick is for.
type PickPurpose int

const (
	// PickFilter narrows the leads list; it offers "All Statuses".
	PickFilter PickPurpose = iota
	// PickBulk applies a status to the selected leads.
	PickBulk
	// PickLead changes the status of the lead in the detail view.
	PickLead
)

// allStatusesLabel is the filter entry that clears the status filter.
const allStatusesLabel = "All Statuses"

// statusItem wraps a status for use in bubbles/list.
type statusItem struct {
	status  string // empty for "All Statuses"
	count   int
	current bool
}

func (i statusItem) FilterValue() string {
	return i.Title()
}

func (i statusItem) Title() string {
	if i.status == "" {
		return allStatusesLabel
	}
	return i.status
}

func (i statusItem) Description() string {
	switch {
	case i.current:
		return "current"
	case i.count > 0:
		return fmt.Sprintf("%d loaded", i.count)
	default:
		return ""
	}
}

// statusDelegate is a custom item delegate for status items.
type statusDelegate struct{}

func (d statusDelegate) Height() int                             { return 1 }
func (d statusDelegate) Spacing() int                            { return 0 }
func (d statusDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d statusDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	i, ok := item.(statusItem)
	if !ok {
		return
	}

	str := fmt.Sprintf("%d. %s", index+1, i.Title())
	if desc := i.Description(); desc != "" {
		str += " " + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("("+desc+")")
	}

	if index == m.Index() {
		fmt.Fprint(w, SelectedItemStyle.Render("> "+str))
	} else {
		fmt.Fprint(w, NormalItemStyle.Render("  "+str))
	}
}

// StatusPickerModel displays the pipeline statuses for the user to pick one.
type StatusPickerModel struct {
	list    list.Model
	purpose PickPurpose
}

// NewStatusPickerModel creates a picker. current is marked in the list and
// preselected; counts annotates statuses with the number of loaded leads.
func NewStatusPickerModel(title string, purpose PickPurpose, current string, counts []domain.StatusCount) StatusPickerModel {
	byStatus := make(map[string]int, len(counts))
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	var items []list.Item
	if purpose == PickFilter {
		items = append(items, statusItem{current: current == ""})
	}
	selected := 0
	for _, s := range domain.LeadStatuses {
		if s == current {
			selected = len(items)
		}
		items = append(items, statusItem{status: s, count: byStatus[s], current: s == current})
	}

	l := list.New(items, statusDelegate{}, 40, len(items)+4)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle
	l.Select(selected)

	return StatusPickerModel{list: l, purpose: purpose}
}

// Purpose returns what the picker was opened for.
func (m StatusPickerModel) Purpose() PickPurpose {
	return m.purpose
}

// Init initializes the model.
func (m StatusPickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m StatusPickerModel) Update(msg tea.Msg) (StatusPickerModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "esc":
			return m, func() tea.Msg { return pickerClosedMsg{} }
		case "enter":
			if item, ok := m.list.SelectedItem().(statusItem); ok {
				purpose := m.purpose
				return m, func() tea.Msg {
					return StatusSelectedMsg{Status: item.status, Purpose: purpose}
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m StatusPickerModel) View() string {
	return focusedPanelStyle.Render(m.list.View())
}
