package tui

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/logging"
	"github.com/robby/leadgen/internal/resource"
	"github.com/robby/leadgen/internal/store"
	"github.com/robby/leadgen/internal/table"
)

// Layout constants
const (
	minColumnWidth = 20
	maxColumnWidth = 35
	pageJumpSize   = 10 // Number of items to jump with Ctrl+D/U
	checkboxWidth  = 3
)

// Styles for the leads view
var (
	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	moveModeStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("205")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)
)

// Filter keys understood by the leads endpoint.
const (
	filterStatus   = "status"
	filterIndustry = "industry"
	filterSize     = "company_size"
	filterSearch   = "search"
	filterSort     = "sort"
	filterOrder    = "order"
)

// leadColumnWidths sizes the table columns by key.
var leadColumnWidths = map[string]int{
	"company_name":    24,
	"website":         26,
	"industry":        22,
	"company_size":    16,
	"status":          14,
	"score":           8,
	"current_chatbot": 12,
	"location":        18,
	"created_at":      13,
}

// leadColumns declares the leads table.
func leadColumns() []table.Column[domain.Lead] {
	return []table.Column[domain.Lead]{
		{Key: "company_name", Label: "Company", Sortable: true, Value: func(l domain.Lead) any { return l.CompanyName }},
		{Key: "website", Label: "Website", Kind: table.KindLink, Value: func(l domain.Lead) any { return l.Website }},
		{Key: "industry", Label: "Industry", Sortable: true, Value: func(l domain.Lead) any { return l.Industry }},
		{Key: "company_size", Label: "Size", Value: func(l domain.Lead) any { return l.CompanySize }},
		{Key: "status", Label: "Status", Sortable: true, Kind: table.KindBadge, Value: func(l domain.Lead) any { return l.EffectiveStatus() }},
		{Key: "score", Label: "Score", Sortable: true, Kind: table.KindScore, Value: func(l domain.Lead) any { return l.Score }},
		{Key: "current_chatbot", Label: "Chatbot", Value: func(l domain.Lead) any { return l.CurrentChatbot },
			Render: func(v any, _ domain.Lead) string {
				if s := table.Stringify(v); s != "" {
					return s
				}
				return "None"
			}},
		{Key: "location", Label: "Location", Value: func(l domain.Lead) any { return l.Location() }},
		{Key: "created_at", Label: "Created", Sortable: true, Kind: table.KindDate, Value: func(l domain.Lead) any { return l.CreatedAt }},
	}
}

// leadEvents collects presenter callbacks until Update turns them into
// commands. It is shared by every copy of the model.
type leadEvents struct {
	sortKey string
	sortDir table.Direction
	sorted  bool
	page    int
	search  *string
}

// LeadsModel is the lead database: a searchable, sortable, selectable
// table over the paginated lead list, with a pipeline view grouped by
// status.
type LeadsModel struct {
	// Dependencies
	ctx     context.Context
	backend Backend
	store   *store.Store
	logger  zerolog.Logger

	// Resources
	leads       *resource.Accumulator[domain.Lead]
	presenter   *table.Presenter[domain.Lead]
	events      *leadEvents
	export      *resource.Executor[map[string]string, domain.Export]
	batch       *resource.BatchRunner[api.StatusUpdate, domain.Lead]
	batchSignal chan struct{}

	// UI components
	keymap      KeyMap
	help        HelpModel
	spinner     spinner.Model
	searchInput textinput.Model
	table       btable.Model
	progress    progress.Model
	picker      StatusPickerModel

	// Pipeline state
	pipeline       bool
	selectedColumn int
	columnOffset   int
	selectedCard   map[string]int
	scrollOffset   map[string]int
	moveMode       bool

	// View state
	width         int
	height        int
	showHelp      bool
	searchMode    bool
	picking       bool
	batchRunning  bool
	batchWaiting  bool
	batchProgress float64
	toast         string
	errorToast    string
}

// NewLeadsModel creates the leads screen. status, when set, is the initial
// status filter.
func NewLeadsModel(ctx context.Context, backend Backend, s *store.Store, pageSize int, status string) (LeadsModel, error) {
	events := &leadEvents{}
	presenter, err := table.NewPresenter(leadColumns(), table.Options[domain.Lead]{
		OnSort: func(col string, dir table.Direction) {
			events.sortKey, events.sortDir, events.sorted = col, dir, true
		},
		OnPageChange: func(page int) { events.page = page },
		OnSearch:     func(q string) { events.search = &q },
	})
	if err != nil {
		return LeadsModel{}, fmt.Errorf("leads table: %w", err)
	}

	filters := map[string]string{}
	if status != "" {
		if err := store.ValidateStatus(status); err != nil {
			return LeadsModel{}, err
		}
		filters[filterStatus] = status
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Search leads..."
	ti.Prompt = "/ "

	tbl := btable.New(btable.WithFocused(true), btable.WithKeyMap(leadTableKeyMap()))

	signal := make(chan struct{}, 1)
	batch := resource.NewBatchRunner(backend.UpdateLeadStatus,
		resource.WithOnProgress(func(*resource.BatchResult[domain.Lead], float64) {
			select {
			case signal <- struct{}{}:
			default:
			}
		}),
	)

	m := LeadsModel{
		ctx:          ctx,
		backend:      backend,
		store:        s,
		logger:       logging.NewLogger("leads"),
		leads:        resource.NewAccumulator(backend.ListLeads, resource.NewPageParams(pageSize, filters)),
		presenter:    presenter,
		events:       events,
		export:       resource.NewExecutor(backend.ExportLeads),
		batch:        batch,
		batchSignal:  signal,
		keymap:       DefaultKeyMap(),
		help:         NewHelpModel(DefaultKeyMap()),
		spinner:      sp,
		searchInput:  ti,
		table:        tbl,
		progress:     progress.New(progress.WithDefaultGradient()),
		selectedCard: make(map[string]int),
		scrollOffset: make(map[string]int),
	}
	m.rebuildTable()
	return m, nil
}

// leadTableKeyMap keeps the table to row movement so the screen's letter
// bindings reach the screen.
func leadTableKeyMap() btable.KeyMap {
	return btable.KeyMap{
		LineUp:       key.NewBinding(key.WithKeys("up", "k")),
		LineDown:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		GotoTop:      key.NewBinding(key.WithKeys("home", "g")),
		GotoBottom:   key.NewBinding(key.WithKeys("end", "G")),
	}
}

// Leads messages
type (
	// leadsChangedMsg says the accumulator settled. replaced is set when
	// page 1 was fetched and the row set was replaced wholesale.
	leadsChangedMsg   struct{ replaced bool }
	batchProgressMsg  struct{}
	batchDoneMsg      struct{ result *resource.BatchResult[domain.Lead] }
	exportDoneMsg     struct{ err error }
	pipelineFailedMsg struct {
		leadID   int
		previous string
		err      error
	}
)

// Init loads the first page.
func (m LeadsModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.refresh())
}

// Update handles messages
func (m LeadsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTable()
		return m, nil

	case leadsChangedMsg:
		(&m).syncLeads(msg.replaced)
		return m, nil

	case leadUpdatedMsg:
		m.moveMode = false
		(&m).applyLeadUpdate(msg.lead)
		return m, nil

	case leadRemovedMsg:
		(&m).removeLead(msg.id)
		return m, nil

	case StatusSelectedMsg:
		m.picking = false
		return m.handleStatusPick(msg)

	case pickerClosedMsg:
		m.picking = false
		return m, nil

	case batchProgressMsg:
		m.batchWaiting = false
		m.batchProgress = m.batch.Progress()
		if m.batchRunning {
			m.batchWaiting = true
			return m, m.waitForBatch()
		}
		return m, nil

	case batchDoneMsg:
		m.batchRunning = false
		m.batchProgress = 100
		(&m).applyBatch(msg.result)
		return m, m.refresh()

	case exportDoneMsg:
		if msg.err != nil {
			m.errorToast = "Export failed: " + msg.err.Error()
		} else {
			m.toast = "Export ready"
		}
		return m, nil

	case pipelineFailedMsg:
		m.moveMode = false
		if _, err := m.store.SetStatus(msg.leadID, msg.previous); err != nil {
			m.logger.Warn().Err(err).Int("lead_id", msg.leadID).Msg("rollback failed")
		}
		m.errorToast = fmt.Sprintf("Move failed: %v", msg.err)
		(&m).clampPipeline()
		return m, nil

	case statusToastMsg:
		m.toast = msg.text
		return m, nil

	case openURLFailedMsg:
		m.errorToast = fmt.Sprintf("Could not open link: %v", msg.err)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// handleKeyPress processes keyboard input
func (m LeadsModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "q" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	if m.searchMode {
		return m.handleSearchMode(msg)
	}

	if m.pipeline {
		return m.handlePipelineKey(msg)
	}

	if m.presenter.ShowFilters() {
		if cmd, handled := m.handleFilterKey(msg); handled {
			return m, cmd
		}
	}

	m.toast, m.errorToast = "", ""

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, func() tea.Msg { return QuitMsg{} }
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = true
	case key.Matches(msg, m.keymap.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.presenter.Search())
		m.searchInput.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keymap.Sort):
		return m, (&m).sortByColumn(int(msg.Runes[0] - '1'))
	case key.Matches(msg, m.keymap.Select):
		if lead, ok := m.cursorLead(); ok {
			m.presenter.ToggleRow(lead.RowID(), !m.presenter.IsSelected(lead.RowID()))
			m.rebuildTable()
		}
	case key.Matches(msg, m.keymap.SelectAll):
		m.presenter.SelectAll(m.presenter.SelectAllState() != table.Checked)
		m.rebuildTable()
	case key.Matches(msg, m.keymap.LoadMore):
		if info := m.store.Pagination(); info != nil {
			m.presenter.NextPage(*info)
		}
		return m, m.drainEvents()
	case key.Matches(msg, m.keymap.StatusPick):
		m.openPicker("Filter by status", PickFilter, m.leads.Params().Filter(filterStatus))
	case key.Matches(msg, m.keymap.Filters):
		m.presenter.ToggleFilters()
	case key.Matches(msg, m.keymap.BulkStatus):
		if m.batchRunning {
			return m, nil
		}
		if m.presenter.SelectedCount() == 0 {
			m.errorToast = "Select leads with space first"
			return m, nil
		}
		m.openPicker(fmt.Sprintf("Set status of %d leads", m.presenter.SelectedCount()), PickBulk, "")
	case key.Matches(msg, m.keymap.Export):
		m.toast = "Exporting..."
		return m, m.exportLeads()
	case key.Matches(msg, m.keymap.Open):
		if lead, ok := m.cursorLead(); ok {
			return m, openWebsite(lead)
		}
	case key.Matches(msg, m.keymap.View):
		if lead, ok := m.cursorLead(); ok {
			return m, func() tea.Msg { return openDetailMsg{lead: lead} }
		}
	case key.Matches(msg, m.keymap.Refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keymap.Pipeline):
		m.pipeline = true
		(&m).clampPipeline()
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleSearchMode filters the loaded rows while typing and sends the
// query to the backend on enter.
func (m LeadsModel) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.ApplyFilter):
		m.searchMode = false
		m.searchInput.Blur()
		m.presenter.SetSearch(strings.TrimSpace(m.searchInput.Value()))
		m.rebuildTable()
		return m, m.drainEvents()
	case key.Matches(msg, m.keymap.Cancel):
		m.searchMode = false
		m.searchInput.Blur()
		m.presenter.SetSearch(m.leads.Params().Filter(filterSearch))
		m.events.search = nil
		m.rebuildTable()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.presenter.SetSearch(m.searchInput.Value())
	m.events.search = nil
	m.rebuildTable()
	return m, cmd
}

// handleFilterKey handles the filter panel keys.
func (m LeadsModel) handleFilterKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	params := m.leads.Params()
	switch msg.String() {
	case "i":
		next := cycle(domain.Industries, params.Filter(filterIndustry))
		return m.updateParams(map[string]string{filterIndustry: next}), true
	case "z":
		next := cycle(domain.CompanySizes, params.Filter(filterSize))
		return m.updateParams(map[string]string{filterSize: next}), true
	case "c":
		return m.updateParams(map[string]string{
			filterStatus:   "",
			filterIndustry: "",
			filterSize:     "",
			filterSearch:   "",
		}), true
	}
	return nil, false
}

// cycle returns the value after current in values, wrapping to "" (all)
// after the last one.
func cycle(values []string, current string) string {
	if current == "" {
		return values[0]
	}
	i := slices.Index(values, current)
	if i < 0 || i == len(values)-1 {
		return ""
	}
	return values[i+1]
}

func (m *LeadsModel) openPicker(title string, purpose PickPurpose, current string) {
	m.picker = NewStatusPickerModel(title, purpose, current, m.store.StatusCounts())
	m.picking = true
}

func (m LeadsModel) handleStatusPick(msg StatusSelectedMsg) (tea.Model, tea.Cmd) {
	switch msg.Purpose {
	case PickFilter:
		return m, m.updateParams(map[string]string{filterStatus: msg.Status})
	case PickBulk:
		if msg.Status == "" {
			return m, nil
		}
		return m.startBatch(msg.Status)
	}
	return m, nil
}

// sortByColumn requests a sort on the idx-th data column.
func (m *LeadsModel) sortByColumn(idx int) tea.Cmd {
	cols := m.presenter.Columns()
	if idx < 0 || idx >= len(cols) {
		return nil
	}
	if err := m.presenter.Sort(cols[idx].Key); err != nil {
		m.errorToast = err.Error()
		return nil
	}
	return m.drainEvents()
}

// drainEvents turns pending presenter events into fetches.
func (m LeadsModel) drainEvents() tea.Cmd {
	ev := *m.events
	*m.events = leadEvents{}

	partial := map[string]string{}
	if ev.sorted {
		partial[filterSort] = ev.sortKey
		partial[filterOrder] = string(ev.sortDir)
	}
	if ev.search != nil {
		partial[filterSearch] = *ev.search
	}
	if len(partial) > 0 {
		return m.updateParams(partial)
	}
	if ev.page > 0 {
		return m.loadMore()
	}
	return nil
}

func (m LeadsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		m.leads.Refresh(m.ctx)
		return leadsChangedMsg{replaced: true}
	}
}

func (m LeadsModel) updateParams(partial map[string]string) tea.Cmd {
	return func() tea.Msg {
		m.leads.UpdateParams(m.ctx, partial)
		return leadsChangedMsg{replaced: true}
	}
}

func (m LeadsModel) loadMore() tea.Cmd {
	return func() tea.Msg {
		m.leads.LoadMore(m.ctx)
		return leadsChangedMsg{}
	}
}

// syncLeads copies the accumulated set into the presenter and the store.
func (m *LeadsModel) syncLeads(replaced bool) {
	snap := m.leads.Snapshot()
	if snap.Status == resource.StatusError {
		m.logger.Debug().Str("error", snap.Err).Msg("lead list failed")
	}
	if snap.Status != resource.StatusSuccess {
		m.rebuildTable()
		return
	}

	if replaced {
		m.presenter.ReplaceRows(snap.Items)
	} else {
		m.presenter.SetRows(snap.Items)
	}
	if !m.searchMode {
		m.presenter.SetSearch(snap.Params.Filter(filterSearch))
		m.events.search = nil
	}
	m.store.Replace(snap.Items)
	m.store.SetPagination(snap.Pagination)
	m.rebuildTable()
	m.clampPipeline()
}

// applyLeadUpdate patches one row after a change made elsewhere.
func (m *LeadsModel) applyLeadUpdate(lead domain.Lead) {
	rows := m.presenter.Rows()
	for i := range rows {
		if rows[i].ID == lead.ID {
			rows[i] = lead
		}
	}
	m.presenter.SetRows(rows)
	m.store.Upsert(lead)
	m.rebuildTable()
}

// removeLead drops a deleted lead from the loaded rows and the store.
func (m *LeadsModel) removeLead(id int) {
	rows := slices.DeleteFunc(m.presenter.Rows(), func(l domain.Lead) bool { return l.ID == id })
	m.presenter.ToggleRow(strconv.Itoa(id), false)
	m.presenter.SetRows(rows)
	m.store.Remove(id)
	m.rebuildTable()
}

// startBatch applies status to every selected lead, one after another.
func (m LeadsModel) startBatch(status string) (tea.Model, tea.Cmd) {
	selected := m.presenter.SelectedRows()
	updates := make([]api.StatusUpdate, 0, len(selected))
	for _, l := range selected {
		updates = append(updates, api.StatusUpdate{LeadID: l.ID, Status: status})
	}

	m.batchRunning = true
	m.batchProgress = 0
	cmds := []tea.Cmd{m.runBatch(updates)}
	if !m.batchWaiting {
		m.batchWaiting = true
		cmds = append(cmds, m.waitForBatch())
	}
	return m, tea.Batch(cmds...)
}

func (m LeadsModel) runBatch(updates []api.StatusUpdate) tea.Cmd {
	return func() tea.Msg {
		res := m.batch.ExecuteBatch(m.ctx, updates, func(u api.StatusUpdate) string {
			return strconv.Itoa(u.LeadID)
		})
		return batchDoneMsg{result: res}
	}
}

func (m LeadsModel) waitForBatch() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.batchSignal:
			return batchProgressMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *LeadsModel) applyBatch(res *resource.BatchResult[domain.Lead]) {
	var failed []string
	for _, k := range res.Keys() {
		o, _ := res.Get(k)
		if o.Success {
			m.store.Upsert(o.Data)
			continue
		}
		failed = append(failed, k+": "+o.Err)
		m.logger.Warn().Str("lead_id", k).Str("error", o.Err).Msg("bulk status update failed")
	}

	m.toast = fmt.Sprintf("Updated %d of %d leads", res.SuccessCount(), res.Len())
	if len(failed) > 0 {
		m.errorToast = fmt.Sprintf("%d failed (%s)", res.ErrorCount(), strings.Join(failed, "; "))
	}
}

func (m LeadsModel) exportLeads() tea.Cmd {
	filters := m.leads.Params().Filters
	return func() tea.Msg {
		e, err := m.export.Execute(m.ctx, filters)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		if err := openURL(m.backend.DownloadURL(e)); err != nil {
			return openURLFailedMsg{err: err}
		}
		return exportDoneMsg{}
	}
}

// openWebsite opens the lead's website in the browser.
func openWebsite(lead domain.Lead) tea.Cmd {
	if lead.Website == "" {
		return func() tea.Msg { return statusToastMsg{text: "No website for " + lead.CompanyName} }
	}
	return func() tea.Msg {
		if err := openURL(lead.Website); err != nil {
			return openURLFailedMsg{err: err}
		}
		return statusToastMsg{text: "Opened " + lead.Website}
	}
}

// cursorLead returns the lead under the table cursor.
func (m LeadsModel) cursorLead() (domain.Lead, bool) {
	visible := m.presenter.Visible()
	i := m.table.Cursor()
	if i < 0 || i >= len(visible) {
		return domain.Lead{}, false
	}
	return visible[i], true
}

// rebuildTable renders the presenter into the table component.
func (m *LeadsModel) rebuildTable() {
	sortKey, sortDir := m.presenter.SortState()

	cols := []btable.Column{{Title: checkboxGlyph(m.presenter.SelectAllState()), Width: checkboxWidth}}
	for i, c := range m.presenter.Columns() {
		title := c.Label
		if i < 9 {
			title = fmt.Sprintf("%d %s", i+1, c.Label)
		}
		if c.Key == sortKey {
			if sortDir == table.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		cols = append(cols, btable.Column{Title: title, Width: leadColumnWidths[c.Key]})
	}

	visible := m.presenter.Visible()
	rows := make([]btable.Row, 0, len(visible))
	for _, lead := range visible {
		row := btable.Row{"[ ]"}
		if m.presenter.IsSelected(lead.RowID()) {
			row[0] = "[x]"
		}
		for _, c := range m.presenter.Columns() {
			row = append(row, m.presenter.Cell(lead, c.Key))
		}
		rows = append(rows, row)
	}

	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func checkboxGlyph(s table.CheckState) string {
	switch s {
	case table.Checked:
		return "[x]"
	case table.Indeterminate:
		return "[-]"
	default:
		return "[ ]"
	}
}

func (m *LeadsModel) resizeTable() {
	h := m.height - 6
	if m.presenter.ShowFilters() {
		h--
	}
	m.table.SetHeight(max(h, 3))
	m.table.SetWidth(max(m.width-2, 20))
	m.progress.Width = max(min(m.width-20, 60), 10)
}

// View renders the leads screen.
func (m LeadsModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 24
	}

	snap := m.leads.Snapshot()
	sections := []string{m.renderHeader(snap, width), m.renderSecondHeader(width)}

	if m.searchMode {
		sections = append(sections, m.searchInput.View())
	}
	if m.presenter.ShowFilters() && !m.pipeline {
		sections = append(sections, m.renderFilterPanel(snap.Params))
	}
	if m.moveMode {
		sections = append(sections, moveModeStyle.Render("MOVE")+" Press 1-9 to pick a status, ESC to cancel")
	}
	if m.batchRunning {
		sections = append(sections, "Updating "+m.progress.ViewAs(m.batchProgress/100))
	}

	bodyHeight := max(height-len(sections)-1, 5)

	switch {
	case m.showHelp:
		helpLines := strings.Split(m.help.View(width), "\n")
		if len(helpLines) > bodyHeight {
			helpLines = helpLines[:bodyHeight]
		}
		sections = append(sections, strings.Join(helpLines, "\n"))
	case m.picking:
		sections = append(sections, m.picker.View())
	case snap.Status == resource.StatusError:
		sections = append(sections, errorBannerStyle.Render(
			fmt.Sprintf("Error loading leads: %s\nPress r to retry", snap.Err)))
	case snap.Status == resource.StatusLoading && len(m.presenter.Rows()) == 0:
		sections = append(sections, lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, m.spinner.View()+" Loading leads..."))
	case m.pipeline:
		sections = append(sections, m.renderBoard(width, bodyHeight))
	case len(m.presenter.Visible()) == 0:
		sections = append(sections, lipgloss.Place(width, bodyHeight, lipgloss.Center, lipgloss.Center, "No leads found"))
	default:
		sections = append(sections, m.table.View())
	}

	sections = append(sections, m.renderFooter(snap, width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title line with status on the right.
func (m LeadsModel) renderHeader(snap resource.AccumulatedSet[domain.Lead], width int) string {
	title := "Lead Database"
	if m.pipeline {
		title += " (pipeline)"
	}

	var statusParts []string
	if snap.Status == resource.StatusLoading {
		statusParts = append(statusParts, m.spinner.View()+"loading")
	}
	if snap.Pagination != nil {
		statusParts = append(statusParts, fmt.Sprintf("%d of %d leads", len(snap.Items), snap.Pagination.Total))
	}
	if n := m.presenter.SelectedCount(); n > 0 {
		statusParts = append(statusParts, fmt.Sprintf("%d selected", n))
	}
	if s := snap.Params.Filter(filterStatus); s != "" {
		statusParts = append(statusParts, "status:"+s)
	}
	if q := m.presenter.Search(); q != "" {
		statusParts = append(statusParts, "/"+q)
	}
	statusParts = append(statusParts, "[?]help")
	status := strings.Join(statusParts, " | ")

	padding := width - lipgloss.Width(title) - lipgloss.Width(status) - 2
	if padding < 1 {
		padding = 1
	}
	return titleStyle.Render(title) + strings.Repeat(" ", padding) + dimStyle.Render(status)
}

// renderSecondHeader renders navigation hints and toasts.
func (m LeadsModel) renderSecondHeader(width int) string {
	left := "space:select 1-9:sort f:status F:filters u:bulk x:export enter:view"
	if m.pipeline {
		left = "h/l:col j/k:lead m:move enter:view P:table"
	}

	right := ""
	switch {
	case m.errorToast != "":
		right = ErrorStyle.Render(m.errorToast)
	case m.toast != "":
		right = SuccessStyle.Render(m.toast)
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return dimStyle.Render(left) + strings.Repeat(" ", padding) + right
}

func (m LeadsModel) renderFilterPanel(p resource.PageParams) string {
	show := func(v string) string {
		if v == "" {
			return "All"
		}
		return v
	}
	return panelStyle.Render(fmt.Sprintf("Status: %s  Industry: %s  Size: %s   %s",
		accentStyle.Render(show(p.Filter(filterStatus))),
		accentStyle.Render(show(p.Filter(filterIndustry))),
		accentStyle.Render(show(p.Filter(filterSize))),
		dimStyle.Render("[f]status [i]industry [z]size [c]clear"),
	))
}

func (m LeadsModel) renderFooter(snap resource.AccumulatedSet[domain.Lead], width int) string {
	left := ""
	if snap.Pagination != nil {
		w := table.Window(*snap.Pagination)
		left = fmt.Sprintf("%s (page %d of %d)", w, w.Page, max(w.TotalPages, 1))
		if snap.HasMore {
			left += "  [L] load more"
		}
	}
	return dimStyle.Render(left) + strings.Repeat(" ", max(width-lipgloss.Width(left)-2, 1))
}

// Pipeline view

func (m LeadsModel) handlePipelineKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.moveMode {
		return m.handleMoveMode(msg)
	}

	m.toast, m.errorToast = "", ""

	switch msg.String() {
	case "q":
		return m, func() tea.Msg { return QuitMsg{} }
	case "?":
		m.showHelp = true
	case "P", "esc":
		m.pipeline = false
	case "h", "left":
		if m.selectedColumn > 0 {
			m.selectedColumn--
			(&m).adjustColumnScroll()
		}
	case "l", "right":
		if m.selectedColumn < len(domain.LeadStatuses)-1 {
			m.selectedColumn++
			(&m).adjustColumnScroll()
		}
	case "j", "down":
		(&m).moveCardSelection(1)
	case "k", "up":
		(&m).moveCardSelection(-1)
	case "g":
		(&m).jumpToCard(0)
	case "G":
		(&m).jumpToCard(-1)
	case "ctrl+d":
		(&m).moveCardSelection(pageJumpSize)
	case "ctrl+u":
		(&m).moveCardSelection(-pageJumpSize)
	case "m":
		if _, ok := m.selectedPipelineLead(); ok {
			m.moveMode = true
		}
	case "o":
		if lead, ok := m.selectedPipelineLead(); ok {
			return m, openWebsite(lead)
		}
	case "r":
		return m, m.refresh()
	case "enter":
		if lead, ok := m.selectedPipelineLead(); ok {
			return m, func() tea.Msg { return openDetailMsg{lead: lead} }
		}
	}
	return m, nil
}

// handleMoveMode handles key presses in move mode
func (m LeadsModel) handleMoveMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.moveMode = false
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(domain.LeadStatuses) {
			return m, m.moveLead(domain.LeadStatuses[idx])
		}
	}
	return m, nil
}

// moveLead moves the selected lead to status, updating the store before
// the backend answers. A failure rolls the store back.
func (m LeadsModel) moveLead(status string) tea.Cmd {
	lead, ok := m.selectedPipelineLead()
	if !ok {
		return nil
	}

	previous, err := m.store.SetStatus(lead.ID, status)
	if err != nil {
		return func() tea.Msg { return pipelineFailedMsg{leadID: lead.ID, previous: lead.Status, err: err} }
	}

	return func() tea.Msg {
		res, err := m.backend.UpdateLeadStatus(m.ctx, api.StatusUpdate{LeadID: lead.ID, Status: status})
		if err == nil && !res.Success {
			err = &resource.RejectedError{Message: resource.ErrorMessage(res, nil)}
		}
		if err != nil {
			return pipelineFailedMsg{leadID: lead.ID, previous: previous, err: err}
		}
		return leadUpdatedMsg{lead: res.Data}
	}
}

// renderBoard renders the status columns within the given dimensions,
// scrolling horizontally when they overflow.
func (m LeadsModel) renderBoard(totalWidth, totalHeight int) string {
	numCols := len(domain.LeadStatuses)

	colContentHeight := max(totalHeight-2, 3)
	visibleCols := min(max(totalWidth/minColumnWidth, 1), numCols)
	colWidth := min(max(totalWidth/visibleCols, minColumnWidth), maxColumnWidth)
	innerWidth := max(colWidth-4, 10)
	maxCardLines := max(colContentHeight-1, 1)

	startCol := m.columnOffset
	endCol := startCol + visibleCols
	if endCol > numCols {
		endCol = numCols
		startCol = max(endCol-visibleCols, 0)
	}

	columnViews := make([]string, 0, visibleCols+2)
	indicator := lipgloss.NewStyle().
		Width(2).
		Height(colContentHeight+2).
		Foreground(lipgloss.Color("205")).
		Align(lipgloss.Center, lipgloss.Center)
	if startCol > 0 {
		columnViews = append(columnViews, indicator.Render("◀"))
	}
	for i := startCol; i < endCol; i++ {
		columnViews = append(columnViews, m.renderColumn(domain.LeadStatuses[i], i == m.selectedColumn, colWidth, colContentHeight, innerWidth, maxCardLines, i+1))
	}
	if endCol < numCols {
		columnViews = append(columnViews, indicator.Render("▶"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, columnViews...)
}

// renderColumn renders one status column. innerHeight excludes the border.
func (m LeadsModel) renderColumn(status string, selected bool, width, innerHeight, innerWidth, maxCardLines, colNum int) string {
	ids := m.store.ColumnLeadIDs(status)

	headerText := fmt.Sprintf("[%d] %s (%d)", colNum, status, len(ids))
	if lipgloss.Width(headerText) > innerWidth {
		headerText = truncate(headerText, innerWidth)
	}

	scrollOffset := m.scrollOffset[status]
	selectedIdx := m.selectedCard[status]

	availableSlots := max(maxCardLines-1, 1)
	needUp := scrollOffset > 0
	if needUp {
		availableSlots--
	}
	endIdx := min(scrollOffset+availableSlots, len(ids))
	needDown := false
	if endIdx < len(ids) {
		needDown = true
		availableSlots--
		endIdx = min(scrollOffset+availableSlots, len(ids))
	}

	lines := []string{columnHeaderStyle.Render(headerText)}
	if needUp {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↑ %d more", scrollOffset)))
	}
	for i := scrollOffset; i < endIdx; i++ {
		lead, err := m.store.GetLead(ids[i])
		if err != nil {
			continue
		}
		text := formatCardText(lead, innerWidth-3)
		if selected && i == selectedIdx {
			lines = append(lines, selectedCardStyle.Render("> "+text))
		} else {
			lines = append(lines, cardStyle.Render("  "+text))
		}
	}
	if remaining := len(ids) - endIdx; needDown && remaining > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("↓ %d more", remaining)))
	}
	if len(ids) == 0 {
		lines = append(lines, dimStyle.Render("(empty)"))
	}

	borderColor := lipgloss.Color("240")
	if selected {
		borderColor = lipgloss.Color("205")
	}
	return lipgloss.NewStyle().
		Width(width-2).
		Height(innerHeight).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Render(strings.Join(lines, "\n"))
}

// formatCardText fits a lead into maxWidth, right-aligning its score.
func formatCardText(lead domain.Lead, maxWidth int) string {
	title := lead.CompanyName
	suffix := ""
	if lead.Score != nil {
		suffix = strconv.Itoa(*lead.Score)
	}
	if suffix == "" {
		return truncate(title, maxWidth)
	}

	title = truncate(title, max(maxWidth-len(suffix)-1, 5))
	padding := max(maxWidth-lipgloss.Width(title)-len(suffix), 1)
	return title + strings.Repeat(" ", padding) + dimStyle.Render(suffix)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 1 {
		return s
	}
	return string(r[:n-1]) + "…"
}

// clampPipeline keeps the pipeline selection inside the columns.
func (m *LeadsModel) clampPipeline() {
	m.selectedColumn = min(max(m.selectedColumn, 0), len(domain.LeadStatuses)-1)
	for _, status := range domain.LeadStatuses {
		n := len(m.store.ColumnLeadIDs(status))
		if m.selectedCard[status] >= n {
			m.selectedCard[status] = max(n-1, 0)
		}
		if m.scrollOffset[status] > m.selectedCard[status] {
			m.scrollOffset[status] = m.selectedCard[status]
		}
	}
}

// moveCardSelection moves the lead selection up or down by delta
func (m *LeadsModel) moveCardSelection(delta int) {
	status := domain.LeadStatuses[m.selectedColumn]
	n := len(m.store.ColumnLeadIDs(status))
	if n == 0 {
		return
	}
	m.selectedCard[status] = min(max(m.selectedCard[status]+delta, 0), n-1)
	m.adjustScroll(status)
}

// jumpToCard jumps to a lead index. Use -1 to jump to the last lead.
func (m *LeadsModel) jumpToCard(idx int) {
	status := domain.LeadStatuses[m.selectedColumn]
	n := len(m.store.ColumnLeadIDs(status))
	if n == 0 {
		return
	}
	if idx < 0 || idx >= n {
		idx = n - 1
	}
	m.selectedCard[status] = idx
	m.adjustScroll(status)
}

// adjustScroll keeps the selected lead visible.
func (m *LeadsModel) adjustScroll(status string) {
	visible := max(m.height-8, 3)
	sel := m.selectedCard[status]
	if sel < m.scrollOffset[status] {
		m.scrollOffset[status] = sel
	}
	if sel >= m.scrollOffset[status]+visible {
		m.scrollOffset[status] = sel - visible + 1
	}
}

// adjustColumnScroll keeps the selected column on screen.
func (m *LeadsModel) adjustColumnScroll() {
	if m.width == 0 {
		return
	}
	visibleCols := min(max(m.width/minColumnWidth, 1), len(domain.LeadStatuses))
	if m.selectedColumn < m.columnOffset {
		m.columnOffset = m.selectedColumn
	}
	if m.selectedColumn >= m.columnOffset+visibleCols {
		m.columnOffset = m.selectedColumn - visibleCols + 1
	}
}

func (m LeadsModel) selectedPipelineLead() (domain.Lead, bool) {
	status := domain.LeadStatuses[m.selectedColumn]
	ids := m.store.ColumnLeadIDs(status)
	if len(ids) == 0 {
		return domain.Lead{}, false
	}
	idx := m.selectedCard[status]
	if idx >= len(ids) {
		idx = 0
	}
	lead, err := m.store.GetLead(ids[idx])
	if err != nil {
		return domain.Lead{}, false
	}
	return lead, true
}
