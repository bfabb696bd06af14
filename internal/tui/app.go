package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robby/leadgen/internal/store"
)

// AppScreen represents the different screens in the application.
type AppScreen int

const (
	ScreenDashboard AppScreen = iota
	ScreenLeads
	ScreenDetail
)

func (s AppScreen) String() string {
	switch s {
	case ScreenDashboard:
		return "dashboard"
	case ScreenLeads:
		return "leads"
	case ScreenDetail:
		return "detail"
	default:
		return fmt.Sprintf("AppScreen(%d)", int(s))
	}
}

// Options configures the app.
type Options struct {
	PageSize     int
	PollInterval time.Duration
	// Status, when set, filters the leads screen and opens it first.
	Status string
	// Nav overrides the sidebar entries.
	Nav []NavEntry
}

// AppModel is the root Bubble Tea model. It owns the sidebar and routes
// messages to the screens, which are kept alive across navigation.
type AppModel struct {
	// Dependencies
	ctx     context.Context
	backend Backend
	store   *store.Store

	// Screens
	currentScreen    AppScreen
	sidebar          SidebarModel
	dashboard        DashboardModel
	leads            LeadsModel
	detail           DetailModel
	dashboardStarted bool
	leadsStarted     bool
	detailOpen       bool

	err    error
	width  int
	height int
}

// NewAppModel creates the app.
func NewAppModel(ctx context.Context, backend Backend, s *store.Store, opts Options) (AppModel, error) {
	nav := opts.Nav
	if nav == nil {
		nav = DefaultNavEntries()
	}
	sidebar, err := NewSidebarModel(nav)
	if err != nil {
		return AppModel{}, err
	}

	leads, err := NewLeadsModel(ctx, backend, s, opts.PageSize, opts.Status)
	if err != nil {
		return AppModel{}, err
	}

	first := ScreenDashboard
	if opts.Status != "" {
		first = ScreenLeads
	}
	sidebar.SetActive(first)

	return AppModel{
		ctx:              ctx,
		backend:          backend,
		store:            s,
		currentScreen:    first,
		sidebar:          sidebar,
		dashboard:        NewDashboardModel(ctx, backend, opts.PollInterval),
		leads:            leads,
		dashboardStarted: first == ScreenDashboard,
		leadsStarted:     first == ScreenLeads,
	}, nil
}

// CurrentScreen returns the screen being shown.
func (m AppModel) CurrentScreen() AppScreen {
	return m.currentScreen
}

// Init starts the first screen.
func (m AppModel) Init() tea.Cmd {
	if m.currentScreen == ScreenLeads {
		return m.leads.Init()
	}
	return m.dashboard.Init()
}

// startScreen returns the Init command of screen the first time it is
// shown and marks it started.
func (m *AppModel) startScreen(screen AppScreen) tea.Cmd {
	switch screen {
	case ScreenDashboard:
		if !m.dashboardStarted {
			m.dashboardStarted = true
			return m.dashboard.Init()
		}
	case ScreenLeads:
		if !m.leadsStarted {
			m.leadsStarted = true
			return m.leads.Init()
		}
	}
	return nil
}

// Update handles messages and transitions between screens.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sidebar.SetHeight(msg.Height)
		return m.broadcast(m.screenSize())

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.sidebar.Focused() {
			var cmd tea.Cmd
			m.sidebar, cmd = m.sidebar.Update(msg)
			return m, cmd
		}
		if msg.String() == "tab" && !m.capturingText() {
			m.sidebar.Focus()
			return m, nil
		}

	case ErrorMsg:
		m.err = msg.Err
		return m, nil

	case QuitMsg:
		return m.quit()

	case NavigateMsg:
		m.sidebar.Blur()
		return m.navigate(msg.Screen)

	case sidebarClosedMsg:
		m.sidebar.Blur()
		return m, nil

	case openDetailMsg:
		m.detail = NewDetailModel(m.ctx, m.backend, m.store, msg.lead)
		m.detailOpen = true
		m.currentScreen = ScreenDetail
		return m, m.detail.Init()

	case closeDetailMsg:
		m.detailOpen = false
		m.currentScreen = ScreenLeads
		return m, tea.WindowSize()

	case leadUpdatedMsg, leadRemovedMsg:
		return m.updateLeads(msg)

	case spinner.TickMsg:
		return m.broadcast(msg)

	case healthChangedMsg, statsSettledMsg, pollToggledMsg:
		return m.updateDashboard(msg)

	case leadsChangedMsg, batchProgressMsg, batchDoneMsg, exportDoneMsg, pipelineFailedMsg:
		return m.updateLeads(msg)

	case contactsLoadedMsg, interactionsLoadedMsg, notePostedMsg, leadStatusSettledMsg,
		leadReloadedMsg, tagsAddedMsg, leadDeleteSettledMsg:
		if !m.detailOpen {
			return m, nil
		}
		return m.updateDetail(msg)
	}

	return m.updateCurrent(msg)
}

// capturingText reports whether the screen is taking free text input.
func (m AppModel) capturingText() bool {
	switch m.currentScreen {
	case ScreenLeads:
		return m.leads.searchMode
	case ScreenDetail:
		return m.detail.noteMode || m.detail.tagMode
	}
	return false
}

func (m AppModel) navigate(screen AppScreen) (tea.Model, tea.Cmd) {
	if screen == ScreenDetail {
		return m, nil
	}
	m.detailOpen = false
	m.currentScreen = screen
	m.sidebar.SetActive(screen)

	cmd := (&m).startScreen(screen)
	return m, tea.Batch(cmd, tea.WindowSize())
}

func (m AppModel) quit() (tea.Model, tea.Cmd) {
	m.dashboard.Close()
	return m, tea.Quit
}

// screenSize is the size left to a screen beside the sidebar.
func (m AppModel) screenSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{
		Width:  max(m.width-SidebarWidth-4, 20),
		Height: m.height,
	}
}

// broadcast delivers msg to every live screen.
func (m AppModel) broadcast(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var next tea.Model
	var cmd tea.Cmd

	next, cmd = m.dashboard.Update(msg)
	m.dashboard = next.(DashboardModel)
	cmds = append(cmds, cmd)

	next, cmd = m.leads.Update(msg)
	m.leads = next.(LeadsModel)
	cmds = append(cmds, cmd)

	if m.detailOpen {
		next, cmd = m.detail.Update(msg)
		m.detail = next.(DetailModel)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m AppModel) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.dashboard.Update(msg)
	m.dashboard = next.(DashboardModel)
	return m, cmd
}

func (m AppModel) updateLeads(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.leads.Update(msg)
	m.leads = next.(LeadsModel)
	return m, cmd
}

func (m AppModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.detail.Update(msg)
	m.detail = next.(DetailModel)
	return m, cmd
}

func (m AppModel) updateCurrent(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.currentScreen {
	case ScreenDashboard:
		return m.updateDashboard(msg)
	case ScreenLeads:
		return m.updateLeads(msg)
	case ScreenDetail:
		if m.detailOpen {
			return m.updateDetail(msg)
		}
	}
	return m, nil
}

// View renders the sidebar beside the current screen.
func (m AppModel) View() string {
	if m.err != nil {
		return ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress Ctrl+C to quit", m.err))
	}

	var screen string
	switch m.currentScreen {
	case ScreenDashboard:
		screen = m.dashboard.View()
	case ScreenLeads:
		screen = m.leads.View()
	case ScreenDetail:
		screen = m.detail.View()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), screen)
}
