package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SidebarWidth is the fixed width of the navigation column.
const SidebarWidth = 22

// Icon is a navigation glyph.
type Icon int

const (
	IconChart Icon = iota
	IconDatabase
	IconGlobe
	IconLinkedIn
	IconMail
	IconUsers
	IconSettings
)

// iconTags maps the icon names used in navigation entries to icons.
var iconTags = map[string]Icon{
	"BarChart3": IconChart,
	"Database":  IconDatabase,
	"Globe":     IconGlobe,
	"Linkedin":  IconLinkedIn,
	"Mail":      IconMail,
	"Users":     IconUsers,
	"Settings":  IconSettings,
}

var iconGlyphs = map[Icon]string{
	IconChart:    "▥",
	IconDatabase: "☰",
	IconGlobe:    "◍",
	IconLinkedIn: "in",
	IconMail:     "✉",
	IconUsers:    "☺",
	IconSettings: "⚙",
}

// ParseIcon maps an icon name such as "Database" to its Icon.
func ParseIcon(tag string) (Icon, error) {
	icon, ok := iconTags[tag]
	if !ok {
		return 0, fmt.Errorf("unknown icon %q", tag)
	}
	return icon, nil
}

// Glyph returns the terminal glyph for the icon.
func (i Icon) Glyph() string {
	if g, ok := iconGlyphs[i]; ok {
		return g
	}
	return "?"
}

func (i Icon) String() string {
	for tag, icon := range iconTags {
		if icon == i {
			return tag
		}
	}
	return "Icon(" + strconv.Itoa(int(i)) + ")"
}

// NavEntry declares one sidebar item.
type NavEntry struct {
	Screen AppScreen
	Label  string
	Icon   string // one of the iconTags names
}

// DefaultNavEntries returns the sidebar items of the dashboard.
func DefaultNavEntries() []NavEntry {
	return []NavEntry{
		{Screen: ScreenDashboard, Label: "Dashboard", Icon: "BarChart3"},
		{Screen: ScreenLeads, Label: "Lead Database", Icon: "Database"},
	}
}

// navItem represents an entry in the list.
type navItem struct {
	entry  NavEntry
	icon   Icon
	active bool
}

func (i navItem) FilterValue() string { return i.entry.Label }

// navItemDelegate handles rendering of sidebar items.
type navItemDelegate struct{}

func (d navItemDelegate) Height() int                             { return 1 }
func (d navItemDelegate) Spacing() int                            { return 0 }
func (d navItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d navItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(navItem)
	if !ok {
		return
	}

	marker := " "
	if i.active {
		marker = "●"
	}
	str := fmt.Sprintf("%s %s %s", marker, i.icon.Glyph(), i.entry.Label)

	fn := NormalItemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return SelectedItemStyle.Render("> " + s[0])
		}
	}

	fmt.Fprint(w, fn(str))
}

// SidebarModel is the navigation column.
type SidebarModel struct {
	list    list.Model
	items   []navItem
	focused bool
}

// NewSidebarModel builds the sidebar. Entries with an unknown icon are
// rejected.
func NewSidebarModel(entries []NavEntry) (SidebarModel, error) {
	items := make([]navItem, 0, len(entries))
	for _, e := range entries {
		icon, err := ParseIcon(e.Icon)
		if err != nil {
			return SidebarModel{}, fmt.Errorf("nav entry %q: %w", e.Label, err)
		}
		items = append(items, navItem{entry: e, icon: icon})
	}

	l := list.New(toListItems(items), navItemDelegate{}, SidebarWidth, 10)
	l.Title = "Leadgen"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = TitleStyle
	l.Styles.PaginationStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	return SidebarModel{list: l, items: items}, nil
}

func toListItems(items []navItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = it
	}
	return out
}

// SetActive marks screen as the one being shown.
func (m *SidebarModel) SetActive(screen AppScreen) {
	for i := range m.items {
		m.items[i].active = m.items[i].entry.Screen == screen
	}
	m.list.SetItems(toListItems(m.items))
}

// SetHeight sizes the list to the terminal height.
func (m *SidebarModel) SetHeight(h int) {
	m.list.SetSize(SidebarWidth, max(h-2, 3))
}

// Focus gives the sidebar the keyboard.
func (m *SidebarModel) Focus() { m.focused = true }

// Blur returns the keyboard to the screen.
func (m *SidebarModel) Blur() { m.focused = false }

// Focused reports whether the sidebar has the keyboard.
func (m SidebarModel) Focused() bool { return m.focused }

// Init initializes the model.
func (m SidebarModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m SidebarModel) Update(msg tea.Msg) (SidebarModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(navItem); ok {
				screen := item.entry.Screen
				return m, func() tea.Msg { return NavigateMsg{Screen: screen} }
			}
			return m, nil
		case "esc", "tab":
			return m, func() tea.Msg { return sidebarClosedMsg{} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the model.
func (m SidebarModel) View() string {
	style := panelStyle
	if m.focused {
		style = focusedPanelStyle
	}
	return style.Width(SidebarWidth).Render(m.list.View())
}
