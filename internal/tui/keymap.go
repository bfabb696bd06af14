package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the leads view.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Sidebar  key.Binding
	Pipeline key.Binding

	// Actions
	Search      key.Binding
	Sort        key.Binding
	Select      key.Binding
	SelectAll   key.Binding
	LoadMore    key.Binding
	StatusPick  key.Binding
	Filters     key.Binding
	BulkStatus  key.Binding
	Export      key.Binding
	Open        key.Binding
	View        key.Binding
	Refresh     key.Binding
	Help        key.Binding
	Quit        key.Binding
	ApplyFilter key.Binding
	Cancel      key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous lead"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next lead"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "sidebar"),
		),
		Pipeline: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "table/pipeline"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "sort by column"),
		),
		Select: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select lead"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("L", "]"),
			key.WithHelp("L/]", "load more"),
		),
		StatusPick: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "filter by status"),
		),
		Filters: key.NewBinding(
			key.WithKeys("F"),
			key.WithHelp("F", "filter panel"),
		),
		BulkStatus: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "set status of selected"),
		),
		Export: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "export csv"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open website"),
		),
		View: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view lead"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ApplyFilter: key.NewBinding(
			key.WithKeys("enter"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Sidebar, k.Pipeline, k.View},
		{k.Search, k.Sort, k.StatusPick, k.Filters, k.LoadMore},
		{k.Select, k.SelectAll, k.BulkStatus, k.Export, k.Open},
		{k.Refresh, k.Help, k.Quit},
	}
}

// DashboardKeyMap defines the key bindings for the dashboard.
type DashboardKeyMap struct {
	Refresh    key.Binding
	TogglePoll key.Binding
	Sidebar    key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultDashboardKeyMap returns the default dashboard bindings.
func DefaultDashboardKeyMap() DashboardKeyMap {
	return DashboardKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		TogglePoll: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause/resume health polling"),
		),
		Sidebar: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "sidebar"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.TogglePoll, k.Sidebar, k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.TogglePoll}, {k.Sidebar, k.Help, k.Quit}}
}
