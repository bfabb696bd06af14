package tui

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/logging"
	"github.com/robby/leadgen/internal/resource"
)

const (
	statCardWidth = 24
	maxBarWidth   = 30
)

var (
	statValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true)
)

// dashboardStats is what the stats panel shows; both halves load together.
type dashboardStats struct {
	Leads     domain.LeadStats
	Campaigns domain.CampaignStats
}

// loadDashboardStats fetches lead and campaign analytics concurrently. A
// rejection of either half rejects the whole.
func loadDashboardStats(b Backend) resource.Call[struct{}, dashboardStats] {
	return func(ctx context.Context, _ struct{}) (resource.Result[dashboardStats], error) {
		var (
			leads     resource.Result[domain.LeadStats]
			campaigns resource.Result[domain.CampaignStats]
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) {
			leads, err = b.LeadStats(gctx)
			return err
		})
		g.Go(func() (err error) {
			campaigns, err = b.CampaignStats(gctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return resource.Result[dashboardStats]{}, err
		}

		switch {
		case !leads.Success:
			return resource.Result[dashboardStats]{Message: leads.Message, Error: leads.Error}, nil
		case !campaigns.Success:
			return resource.Result[dashboardStats]{Message: campaigns.Message, Error: campaigns.Error}, nil
		}
		return resource.OK(dashboardStats{Leads: leads.Data, Campaigns: campaigns.Data}), nil
	}
}

// DashboardModel shows pipeline analytics and the backend health.
type DashboardModel struct {
	// Dependencies
	ctx    context.Context
	logger zerolog.Logger

	// Resources
	stats        *resource.Executor[struct{}, dashboardStats]
	health       *resource.Poller[domain.Health]
	healthSignal chan struct{}
	pollInterval time.Duration

	// UI components
	keymap  DashboardKeyMap
	help    HelpModel
	spinner spinner.Model

	// View state
	width    int
	height   int
	showHelp bool
}

// NewDashboardModel creates the dashboard. Health is polled every
// pollInterval once Init runs; a non-positive interval uses the default.
func NewDashboardModel(ctx context.Context, backend Backend, pollInterval time.Duration) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if pollInterval <= 0 {
		pollInterval = resource.DefaultPollInterval
	}
	logger := logging.NewLogger("dashboard")

	// Capacity 1: a pending signal already tells Update to re-read state.
	signal := make(chan struct{}, 1)
	health := resource.NewPoller(backend.Health,
		resource.WithInterval[domain.Health](pollInterval),
		resource.WithLogger[domain.Health](logger),
		resource.WithOnResult(func(resource.State[domain.Health]) {
			select {
			case signal <- struct{}{}:
			default:
			}
		}),
	)

	keymap := DefaultDashboardKeyMap()
	return DashboardModel{
		ctx:          ctx,
		logger:       logger,
		stats:        resource.NewExecutor(loadDashboardStats(backend)),
		health:       health,
		healthSignal: signal,
		pollInterval: pollInterval,
		keymap:       keymap,
		help:         NewHelpModel(keymap),
		spinner:      sp,
	}
}

// Dashboard messages
type (
	statsSettledMsg  struct{}
	healthChangedMsg struct{}
	pollToggledMsg   struct{}
)

// Init loads the stats and starts health polling.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.loadStats(),
		m.startPolling(),
		m.waitForHealth(),
	)
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statsSettledMsg, pollToggledMsg:
		return m, nil

	case healthChangedMsg:
		return m, m.waitForHealth()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

func (m DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, func() tea.Msg { return QuitMsg{} }
	case "?":
		m.showHelp = true
	case "r":
		return m, tea.Batch(m.loadStats(), m.refreshHealth())
	case "p":
		return m, m.togglePolling()
	}
	return m, nil
}

// loadStats runs the stats executor. Errors land in its state.
func (m DashboardModel) loadStats() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.stats.Execute(m.ctx, struct{}{}); err != nil {
			m.logger.Debug().Err(err).Msg("stats load failed")
		}
		return statsSettledMsg{}
	}
}

func (m DashboardModel) startPolling() tea.Cmd {
	return func() tea.Msg {
		m.health.Start(m.ctx)
		return nil
	}
}

func (m DashboardModel) refreshHealth() tea.Cmd {
	return func() tea.Msg {
		m.health.Refresh(m.ctx)
		return nil
	}
}

func (m DashboardModel) togglePolling() tea.Cmd {
	return func() tea.Msg {
		if m.health.IsPolling() {
			m.health.Stop()
		} else {
			m.health.Start(m.ctx)
		}
		return pollToggledMsg{}
	}
}

// waitForHealth blocks until the poller delivers. Exactly one wait is
// outstanding at a time: each healthChangedMsg re-arms it.
func (m DashboardModel) waitForHealth() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.healthSignal:
			return healthChangedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Close stops health polling.
func (m DashboardModel) Close() {
	m.health.Stop()
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	width := m.width
	if width == 0 {
		width = 100
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))

	if m.showHelp {
		sections = append(sections, m.help.View(width))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	state := m.stats.State()
	switch {
	case state.Loading() && state.Data.Leads.TotalLeads == 0:
		sections = append(sections, m.spinner.View()+" Loading analytics...")
	case state.Failed():
		sections = append(sections, errorBannerStyle.Render(
			fmt.Sprintf("Error loading analytics: %s\nPress r to retry", state.Err)))
	case state.Succeeded():
		sections = append(sections, m.renderStats(state.Data, width))
	}

	sections = append(sections, m.renderHealth(width))
	sections = append(sections, HelpStyle.Render(m.help.ShortView(width)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderHeader(width int) string {
	title := titleStyle.Render("Dashboard")
	status := ""
	if m.stats.State().Loading() {
		status = m.spinner.View() + "refreshing"
	}
	padding := width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return title + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

func (m DashboardModel) renderStats(s dashboardStats, width int) string {
	email, linkedin := s.Campaigns.Email, s.Campaigns.LinkedIn
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		statCard("Total Leads", fmt.Sprintf("%d", s.Leads.TotalLeads), ""),
		statCard("Email Campaigns", fmt.Sprintf("%d", email.Active), fmt.Sprintf("%d emails sent", email.EmailsSent)),
		statCard("LinkedIn Connections", fmt.Sprintf("%d", linkedin.ConnectionsSent), fmt.Sprintf("%d%% acceptance rate", percent(linkedin.AcceptanceRate))),
		statCard("Conversion Rate", fmt.Sprintf("%d%%", percent(email.ReplyRate)), "email replies"),
	)

	barWidth := min(maxBarWidth, max(width/4, 10))
	status := make([]countRow, 0, len(s.Leads.LeadsByStatus))
	for _, c := range s.Leads.LeadsByStatus {
		status = append(status, countRow{label: c.Status, count: c.Count})
	}
	sources := make([]countRow, 0, len(s.Leads.LeadsBySource))
	for _, c := range s.Leads.LeadsBySource {
		sources = append(sources, countRow{label: c.Source, count: c.Count})
	}
	industries := make([]countRow, 0, len(s.Leads.LeadsByIndustry))
	for _, c := range s.Leads.LeadsByIndustry {
		industries = append(industries, countRow{label: c.Industry, count: c.Count})
	}
	sort.SliceStable(industries, func(i, j int) bool { return industries[i].count > industries[j].count })
	if len(industries) > 5 {
		industries = industries[:5]
	}

	breakdown := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(renderBars("Leads by Status", status, s.Leads.TotalLeads, barWidth)),
		panelStyle.Render(renderBars("Leads by Source", sources, s.Leads.TotalLeads, barWidth)),
		panelStyle.Render(renderBars("Top Industries", industries, s.Leads.TotalLeads, barWidth)),
	)

	performance := panelStyle.Render(strings.Join([]string{
		titleStyle.Render("Campaign Performance"),
		fmt.Sprintf("Email open rate      %3d%%", percent(email.OpenRate)),
		fmt.Sprintf("Email click rate     %3d%%", percent(email.ClickRate)),
		fmt.Sprintf("LinkedIn acceptance  %3d%%", percent(linkedin.AcceptanceRate)),
		fmt.Sprintf("LinkedIn reply rate  %3d%%", percent(linkedin.ReplyRate)),
	}, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left, cards, breakdown, performance)
}

func statCard(title, value, note string) string {
	lines := []string{dimStyle.Render(title), statValueStyle.Render(value)}
	if note != "" {
		lines = append(lines, dimStyle.Render(note))
	}
	return panelStyle.Width(statCardWidth).Render(strings.Join(lines, "\n"))
}

type countRow struct {
	label string
	count int
}

// renderBars draws one horizontal bar per row, scaled against total.
func renderBars(title string, rows []countRow, total, width int) string {
	lines := []string{titleStyle.Render(title)}
	if len(rows) == 0 {
		return strings.Join(append(lines, dimStyle.Render("(no data)")), "\n")
	}
	if total <= 0 {
		total = 1
	}
	labelWidth := 0
	for _, r := range rows {
		labelWidth = max(labelWidth, lipgloss.Width(r.label))
	}
	for _, r := range rows {
		n := int(math.Round(float64(r.count) / float64(total) * float64(width)))
		if r.count > 0 && n == 0 {
			n = 1
		}
		label := r.label + strings.Repeat(" ", labelWidth-lipgloss.Width(r.label))
		lines = append(lines, fmt.Sprintf("%s %s %d", label, barStyle.Render(strings.Repeat("█", n)), r.count))
	}
	return strings.Join(lines, "\n")
}

// percent turns a [0, 1] rate into a whole percentage.
func percent(rate float64) int {
	return int(math.Round(rate * 100))
}

func (m DashboardModel) renderHealth(width int) string {
	state := m.health.State()

	polling := dimStyle.Render("polling paused (p to resume)")
	if m.health.IsPolling() {
		polling = dimStyle.Render(fmt.Sprintf("polling every %s (p to pause)", m.pollInterval))
	}

	var body string
	switch {
	case state.Failed():
		body = ErrorStyle.Render("Unreachable: " + state.Err)
	case state.Data.Status == "":
		body = m.spinner.View() + " Checking..."
	case state.Data.Healthy():
		body = healthyStyle.Render("● " + state.Data.Status)
	default:
		body = ErrorStyle.Render("● " + state.Data.Status)
	}

	lines := []string{titleStyle.Render("System Health"), body}
	names := make([]string, 0, len(state.Data.Components))
	for name := range state.Data.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s: %s", name, state.Data.Components[name]))
	}
	lines = append(lines, polling)

	return panelStyle.Width(min(width-4, 60)).Render(strings.Join(lines, "\n"))
}
