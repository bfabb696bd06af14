package tui

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/store"
	mock "github.com/robby/leadgen/internal/testutil"
)

// newTestBackend starts a fake backend and a client pointed at it.
func newTestBackend(t *testing.T) (*api.Client, *mock.MockAPI) {
	t.Helper()
	backend := mock.NewMockAPI()
	t.Cleanup(backend.Close)

	cfg := api.DefaultConfig()
	cfg.BaseURL = backend.URL()
	client, err := api.New(cfg)
	require.NoError(t, err)
	return client, backend
}

// newTestLeads creates a leads screen over n seeded leads and loads page 1.
func newTestLeads(t *testing.T, n, pageSize int) (LeadsModel, *mock.MockAPI) {
	t.Helper()
	client, backend := newTestBackend(t)
	backend.SeedLeads(n)

	m, err := NewLeadsModel(context.Background(), client, store.New(), pageSize, "")
	require.NoError(t, err)
	m = updateLeads(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	return runLeads(t, m, m.refresh()), backend
}

func updateLeads(t *testing.T, m LeadsModel, msg tea.Msg) LeadsModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(LeadsModel)
}

// runLeads executes cmd and feeds its message back into the model.
func runLeads(t *testing.T, m LeadsModel, cmd tea.Cmd) LeadsModel {
	t.Helper()
	require.NotNil(t, cmd)
	return updateLeads(t, m, cmd())
}

// pressLeads sends a key and returns the resulting command.
func pressLeads(t *testing.T, m LeadsModel, msg tea.KeyMsg) (LeadsModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(LeadsModel), cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// collect runs cmd, expanding batches, and returns every message produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}
	return out
}

// stubOpenURL records the links the screens try to open.
func stubOpenURL(t *testing.T) *[]string {
	t.Helper()
	var (
		mu     sync.Mutex
		opened []string
	)
	prev := openURL
	openURL = func(u string) error {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, u)
		return nil
	}
	t.Cleanup(func() { openURL = prev })
	return &opened
}

func rowNames(m LeadsModel) []string {
	var names []string
	for _, l := range m.presenter.Visible() {
		names = append(names, l.CompanyName)
	}
	return names
}

// TestLeadsModel_InitialLoad verifies page 1 lands in the table and the store.
func TestLeadsModel_InitialLoad(t *testing.T) {
	m, _ := newTestLeads(t, 30, 25)

	assert.Len(t, m.presenter.Rows(), 25)
	assert.Equal(t, 25, m.store.Len())
	require.NotNil(t, m.store.Pagination())
	assert.Equal(t, 30, m.store.Pagination().Total)

	view := m.View()
	assert.Contains(t, view, "Company 1")
	assert.Contains(t, view, "Showing 1 to 25 of 30 results")
	assert.Contains(t, view, "load more")
}

// TestLeadsModel_LoadMoreKeepsSelection verifies a second page appends
// without clearing the selection.
func TestLeadsModel_LoadMoreKeepsSelection(t *testing.T) {
	m, _ := newTestLeads(t, 30, 25)

	m, _ = pressLeads(t, m, runeKey(' '))
	require.Equal(t, 1, m.presenter.SelectedCount())

	m, cmd := pressLeads(t, m, runeKey('L'))
	m = runLeads(t, m, cmd)

	assert.Len(t, m.presenter.Rows(), 30)
	assert.Equal(t, 1, m.presenter.SelectedCount())
	assert.False(t, m.leads.HasMore())

	// Nothing left to load
	_, cmd = pressLeads(t, m, runeKey('L'))
	assert.Nil(t, cmd)
}

// TestLeadsModel_SortRefetches verifies sort keys toggle direction and
// refetch from the backend.
func TestLeadsModel_SortRefetches(t *testing.T) {
	m, backend := newTestLeads(t, 12, 25)

	m, cmd := pressLeads(t, m, runeKey('1'))
	m = runLeads(t, m, cmd)
	q := backend.LastRequest().Query
	assert.Equal(t, "company_name", q.Get("sort"))
	assert.Equal(t, "asc", q.Get("order"))
	assert.Equal(t, []string{"Company 1", "Company 2", "Company 3"}, rowNames(m)[:3])

	m, cmd = pressLeads(t, m, runeKey('1'))
	m = runLeads(t, m, cmd)
	assert.Equal(t, "desc", backend.LastRequest().Query.Get("order"))
	assert.Equal(t, "Company 12", rowNames(m)[0])
	assert.Contains(t, m.View(), "Company ▼")
}

// TestLeadsModel_UnsortableColumn verifies a sort on a plain column is refused.
func TestLeadsModel_UnsortableColumn(t *testing.T) {
	m, backend := newTestLeads(t, 3, 25)
	before := backend.RequestCount()

	m, cmd := pressLeads(t, m, runeKey('2')) // website
	assert.Nil(t, cmd)
	assert.Contains(t, m.errorToast, "not sortable")
	assert.Equal(t, before, backend.RequestCount())
}

// TestLeadsModel_Search verifies typing filters locally and enter searches
// the backend.
func TestLeadsModel_Search(t *testing.T) {
	m, backend := newTestLeads(t, 30, 25)

	m, _ = pressLeads(t, m, runeKey('/'))
	require.True(t, m.searchMode)

	m, _ = pressLeads(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Company 2")})
	// Company 2 and 20-25 are loaded
	assert.Len(t, m.presenter.Visible(), 7)

	m, cmd := pressLeads(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = runLeads(t, m, cmd)

	assert.False(t, m.searchMode)
	assert.Equal(t, "Company 2", backend.LastRequest().Query.Get("search"))
	// Company 2 and 20-29
	assert.Len(t, m.presenter.Visible(), 11)
}

// TestLeadsModel_SearchCancel verifies esc restores the committed query.
func TestLeadsModel_SearchCancel(t *testing.T) {
	m, backend := newTestLeads(t, 30, 25)
	before := backend.RequestCount()

	m, _ = pressLeads(t, m, runeKey('/'))
	m, _ = pressLeads(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zzz")})
	assert.Empty(t, m.presenter.Visible())

	m, cmd := pressLeads(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, cmd)
	assert.Len(t, m.presenter.Visible(), 25)
	assert.Equal(t, before, backend.RequestCount())
}

// TestLeadsModel_StatusFilter verifies a status pick refetches page 1.
func TestLeadsModel_StatusFilter(t *testing.T) {
	m, backend := newTestLeads(t, 30, 25)

	m, _ = pressLeads(t, m, runeKey('f'))
	require.True(t, m.picking)
	assert.Contains(t, m.View(), allStatusesLabel)

	next, cmd := m.Update(StatusSelectedMsg{Status: domain.StatusWon, Purpose: PickFilter})
	m = runLeads(t, next.(LeadsModel), cmd)

	assert.False(t, m.picking)
	assert.Equal(t, domain.StatusWon, backend.LastRequest().Query.Get("status"))
	require.Len(t, m.presenter.Rows(), 3)
	for _, l := range m.presenter.Rows() {
		assert.Equal(t, domain.StatusWon, l.EffectiveStatus())
	}

	// All Statuses clears the filter
	next, cmd = m.Update(StatusSelectedMsg{Status: "", Purpose: PickFilter})
	m = runLeads(t, next.(LeadsModel), cmd)
	assert.False(t, backend.LastRequest().Query.Has("status"))
	assert.Len(t, m.presenter.Rows(), 25)
}

// TestLeadsModel_FilterPanel verifies the panel cycles filters and clears them.
func TestLeadsModel_FilterPanel(t *testing.T) {
	m, backend := newTestLeads(t, 40, 25)

	m, _ = pressLeads(t, m, runeKey('F'))
	require.True(t, m.presenter.ShowFilters())
	assert.Contains(t, m.View(), "Industry: All")

	m, cmd := pressLeads(t, m, runeKey('i'))
	m = runLeads(t, m, cmd)
	assert.Equal(t, domain.Industries[0], backend.LastRequest().Query.Get("industry"))
	for _, l := range m.presenter.Rows() {
		assert.Equal(t, domain.Industries[0], l.Industry)
	}

	m, cmd = pressLeads(t, m, runeKey('z'))
	m = runLeads(t, m, cmd)
	assert.Equal(t, domain.CompanySizes[0], backend.LastRequest().Query.Get("company_size"))

	m, cmd = pressLeads(t, m, runeKey('c'))
	m = runLeads(t, m, cmd)
	q := backend.LastRequest().Query
	assert.False(t, q.Has("industry"))
	assert.False(t, q.Has("company_size"))
	assert.Len(t, m.presenter.Rows(), 25)
}

func TestCycle(t *testing.T) {
	values := []string{"a", "b"}
	assert.Equal(t, "a", cycle(values, ""))
	assert.Equal(t, "b", cycle(values, "a"))
	assert.Equal(t, "", cycle(values, "b"))
	assert.Equal(t, "", cycle(values, "unknown"))
}

// TestLeadsModel_SelectAll verifies the tri-state select-all control.
func TestLeadsModel_SelectAll(t *testing.T) {
	m, _ := newTestLeads(t, 5, 25)

	m, _ = pressLeads(t, m, runeKey(' '))
	assert.Contains(t, m.View(), "[-]")

	m, _ = pressLeads(t, m, runeKey('a'))
	assert.Equal(t, 5, m.presenter.SelectedCount())
	assert.Contains(t, m.View(), "5 selected")

	m, _ = pressLeads(t, m, runeKey('a'))
	assert.Zero(t, m.presenter.SelectedCount())
}

// TestLeadsModel_ReplaceClearsSelection verifies a refetch of page 1 drops
// the selection.
func TestLeadsModel_ReplaceClearsSelection(t *testing.T) {
	m, _ := newTestLeads(t, 5, 25)

	m, _ = pressLeads(t, m, runeKey('a'))
	require.Equal(t, 5, m.presenter.SelectedCount())

	m, cmd := pressLeads(t, m, runeKey('r'))
	m = runLeads(t, m, cmd)
	assert.Zero(t, m.presenter.SelectedCount())
}

// TestLeadsModel_BulkStatus verifies a bulk update reports each lead and
// keeps going past failures.
func TestLeadsModel_BulkStatus(t *testing.T) {
	m, backend := newTestLeads(t, 3, 25)
	backend.FailStatusUpdate(2, "lead is locked")

	// Without a selection nothing opens
	m, _ = pressLeads(t, m, runeKey('u'))
	assert.False(t, m.picking)
	assert.NotEmpty(t, m.errorToast)

	m, _ = pressLeads(t, m, runeKey('a'))
	m, _ = pressLeads(t, m, runeKey('u'))
	require.True(t, m.picking)

	next, cmd := m.Update(StatusSelectedMsg{Status: domain.StatusQualified, Purpose: PickBulk})
	m = next.(LeadsModel)
	assert.True(t, m.batchRunning)
	assert.Contains(t, m.View(), "Updating")

	var done *batchDoneMsg
	for _, msg := range collect(cmd) {
		if d, ok := msg.(batchDoneMsg); ok {
			done = &d
		}
	}
	require.NotNil(t, done)

	next, cmd = m.Update(*done)
	m = next.(LeadsModel)
	assert.False(t, m.batchRunning)
	assert.Equal(t, "Updated 2 of 3 leads", m.toast)
	assert.Contains(t, m.errorToast, "lead is locked")

	l1, _ := backend.Lead(1)
	l2, _ := backend.Lead(2)
	assert.Equal(t, domain.StatusQualified, l1.Status)
	assert.NotEqual(t, domain.StatusQualified, l2.Status)

	// The done message refreshes the list
	m = runLeads(t, m, cmd)
	assert.Zero(t, m.presenter.SelectedCount())
}

// TestLeadsModel_Export verifies the export link is opened.
func TestLeadsModel_Export(t *testing.T) {
	opened := stubOpenURL(t)
	m, backend := newTestLeads(t, 3, 25)

	m, cmd := pressLeads(t, m, runeKey('x'))
	m = runLeads(t, m, cmd)

	assert.Equal(t, "Export ready", m.toast)
	assert.Equal(t, []string{backend.URL() + "/exports/leads.csv"}, *opened)
}

// TestLeadsModel_OpenWebsite verifies o opens the lead under the cursor.
func TestLeadsModel_OpenWebsite(t *testing.T) {
	opened := stubOpenURL(t)
	m, _ := newTestLeads(t, 3, 25)

	m, cmd := pressLeads(t, m, runeKey('o'))
	m = runLeads(t, m, cmd)

	assert.Equal(t, []string{"https://company1.example.com"}, *opened)
	assert.Contains(t, m.toast, "Opened")
}

// TestLeadsModel_EnterOpensDetail verifies enter asks the app for the detail view.
func TestLeadsModel_EnterOpensDetail(t *testing.T) {
	m, _ := newTestLeads(t, 3, 25)

	m, _ = pressLeads(t, m, runeKey('j'))
	_, cmd := pressLeads(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(openDetailMsg)
	require.True(t, ok)
	assert.Equal(t, "Company 2", msg.lead.CompanyName)
}

// TestLeadsModel_ErrorBanner verifies a failed load offers a retry.
func TestLeadsModel_ErrorBanner(t *testing.T) {
	client, backend := newTestBackend(t)
	backend.SetResponse("/leads", mock.MockResponse{StatusCode: 500, Body: `{"error":"database unavailable"}`})

	m, err := NewLeadsModel(context.Background(), client, store.New(), 25, "")
	require.NoError(t, err)
	m = runLeads(t, m, m.refresh())

	view := m.View()
	assert.Contains(t, view, "database unavailable")
	assert.Contains(t, view, "Press r to retry")
	assert.Zero(t, m.store.Len())
}

func TestNewLeadsModel_InvalidStatus(t *testing.T) {
	client, _ := newTestBackend(t)
	_, err := NewLeadsModel(context.Background(), client, store.New(), 25, "Maybe")
	assert.ErrorIs(t, err, store.ErrInvalidStatus)
}

// TestLeadsModel_LeadUpdated verifies a change made elsewhere patches the row.
func TestLeadsModel_LeadUpdated(t *testing.T) {
	m, _ := newTestLeads(t, 3, 25)

	lead, err := m.store.GetLead(1)
	require.NoError(t, err)
	lead.Status = domain.StatusLost

	m = updateLeads(t, m, leadUpdatedMsg{lead: lead})
	assert.Equal(t, domain.StatusLost, m.presenter.Rows()[0].Status)
	got, _ := m.store.GetLead(1)
	assert.Equal(t, domain.StatusLost, got.Status)
}

// TestLeadsModel_LeadRemoved verifies a deleted lead leaves the rows, the
// selection and the store.
func TestLeadsModel_LeadRemoved(t *testing.T) {
	m, _ := newTestLeads(t, 3, 25)
	m.presenter.ToggleRow("2", true)
	require.Equal(t, 1, m.presenter.SelectedCount())

	m = updateLeads(t, m, leadRemovedMsg{id: 2})

	assert.Equal(t, []string{"Company 1", "Company 3"}, rowNames(m))
	assert.Zero(t, m.presenter.SelectedCount())
	_, err := m.store.GetLead(2)
	assert.ErrorIs(t, err, store.ErrLeadNotFound)
}

// TestLeadsModel_PipelineColumns verifies leads are grouped by status in
// pipeline order.
func TestLeadsModel_PipelineColumns(t *testing.T) {
	m, _ := newTestLeads(t, 30, 25)

	m, _ = pressLeads(t, m, runeKey('P'))
	require.True(t, m.pipeline)

	view := m.renderBoard(200, 30)
	assert.Contains(t, view, "[1] New")
	assert.Contains(t, view, "Company 1")

	// Statuses cycle, so New holds leads 1, 10 and 19 of the first 25
	assert.Equal(t, []int{1, 10, 19}, m.store.ColumnLeadIDs(domain.StatusNew))
}

// TestLeadsModel_PipelineNavigation verifies column and lead movement.
func TestLeadsModel_PipelineNavigation(t *testing.T) {
	m, _ := newTestLeads(t, 30, 25)
	m, _ = pressLeads(t, m, runeKey('P'))

	assert.Equal(t, 0, m.selectedColumn)
	m, _ = pressLeads(t, m, runeKey('l'))
	m, _ = pressLeads(t, m, runeKey('l'))
	assert.Equal(t, 2, m.selectedColumn)
	m, _ = pressLeads(t, m, runeKey('h'))
	assert.Equal(t, 1, m.selectedColumn)

	m, _ = pressLeads(t, m, runeKey('j'))
	assert.Equal(t, 1, m.selectedCard[domain.StatusContacted])
	m, _ = pressLeads(t, m, runeKey('k'))
	m, _ = pressLeads(t, m, runeKey('k'))
	assert.Equal(t, 0, m.selectedCard[domain.StatusContacted])

	m, _ = pressLeads(t, m, runeKey('G'))
	assert.Equal(t, 2, m.selectedCard[domain.StatusContacted])

	// Leftmost stays put
	m, _ = pressLeads(t, m, runeKey('h'))
	m, _ = pressLeads(t, m, runeKey('h'))
	assert.Equal(t, 0, m.selectedColumn)

	m, _ = pressLeads(t, m, runeKey('P'))
	assert.False(t, m.pipeline)
}

// TestLeadsModel_PipelineMove verifies a move updates the store before the
// backend answers and confirms it after.
func TestLeadsModel_PipelineMove(t *testing.T) {
	m, backend := newTestLeads(t, 30, 25)
	m, _ = pressLeads(t, m, runeKey('P'))

	m, _ = pressLeads(t, m, runeKey('m'))
	require.True(t, m.moveMode)
	assert.Contains(t, m.View(), "MOVE")

	m, cmd := pressLeads(t, m, runeKey('7')) // Won
	lead, _ := m.store.GetLead(1)
	assert.Equal(t, domain.StatusWon, lead.Status)
	assert.Contains(t, m.store.ColumnLeadIDs(domain.StatusWon), 1)

	m = runLeads(t, m, cmd)
	assert.False(t, m.moveMode)
	remote, _ := backend.Lead(1)
	assert.Equal(t, domain.StatusWon, remote.Status)
}

// TestLeadsModel_PipelineMoveRollback verifies a failed move restores the
// previous status.
func TestLeadsModel_PipelineMoveRollback(t *testing.T) {
	m, backend := newTestLeads(t, 30, 25)
	backend.FailStatusUpdate(1, "lead is locked")
	m, _ = pressLeads(t, m, runeKey('P'))

	m, _ = pressLeads(t, m, runeKey('m'))
	m, cmd := pressLeads(t, m, runeKey('7'))
	m = runLeads(t, m, cmd)

	lead, _ := m.store.GetLead(1)
	assert.Equal(t, domain.StatusNew, lead.Status)
	assert.Contains(t, m.errorToast, "Move failed")
	assert.Equal(t, []int{1, 10, 19}, m.store.ColumnLeadIDs(domain.StatusNew))
}

// TestLeadsModel_View_NotPanic verifies rendering in every mode.
func TestLeadsModel_View_NotPanic(t *testing.T) {
	client, _ := newTestBackend(t)
	m, err := NewLeadsModel(context.Background(), client, store.New(), 25, "")
	require.NoError(t, err)

	// Before any load or resize
	require.NotPanics(t, func() { m.View() })

	m, _ = newTestLeads(t, 30, 25)
	for _, k := range []rune{'?', '?', 'F', 'P', 'm'} {
		m, _ = pressLeads(t, m, runeKey(k))
		require.NotPanics(t, func() {
			assert.NotEmpty(t, m.View())
		})
	}

	// Narrow terminal
	m = updateLeads(t, m, tea.WindowSizeMsg{Width: 30, Height: 8})
	require.NotPanics(t, func() { m.View() })
}

func TestFormatCardText_Truncation(t *testing.T) {
	score := 87
	lead := domain.Lead{
		CompanyName: "This is a very long company name that should be truncated",
		Score:       &score,
	}

	rendered := formatCardText(lead, 30)
	assert.Contains(t, rendered, "…")
	assert.Contains(t, rendered, "87")

	lead.Score = nil
	assert.Equal(t, "Short", formatCardText(domain.Lead{CompanyName: "Short"}, 30))
	assert.True(t, strings.HasSuffix(formatCardText(lead, 10), "…"))
}
