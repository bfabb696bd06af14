package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/robby/leadgen/internal/api"
	"github.com/robby/leadgen/internal/domain"
	"github.com/robby/leadgen/internal/resource"
	"github.com/robby/leadgen/internal/store"
)

// Layout constants
const (
	leftPanelRatio = 0.4 // Left panel takes 40% of width
	minLeftWidth   = 30
	maxLeftWidth   = 56
	headerHeight   = 1
	footerHeight   = 1
	borderSize     = 2 // Top + bottom border

	noteInteractionType = "Follow Up"
	noteChannel         = "Email"
)

// Detail view styles
var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	detailLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	detailValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	interactionTypeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("212")).
				Bold(true)

	interactionTimeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("241"))

	interactionBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Italic(true)

	panelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	focusedPanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("205"))

	scrollIndicatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228")).
			Bold(true)
)

// setStatus derives the speculative lead for a status change. An unchanged
// status shows nothing speculative.
func setStatus(confirmed domain.Lead, u api.StatusUpdate) (domain.Lead, bool) {
	if confirmed.EffectiveStatus() == u.Status {
		return confirmed, false
	}
	confirmed.Status = u.Status
	if u.NextAction != "" {
		confirmed.NextAction = u.NextAction
	}
	if u.NextActionDate != "" {
		confirmed.NextActionDate = u.NextActionDate
	}
	return confirmed, true
}

// DetailModel is the split-screen lead view: company facts and contacts on
// the left, the interaction history on the right.
type DetailModel struct {
	// Dependencies
	ctx   context.Context
	store *store.Store

	// Resources
	leadID       int
	lead         *resource.Overlay[api.StatusUpdate, domain.Lead]
	contacts     *resource.Executor[int, []domain.Contact]
	interactions *resource.Executor[int, []domain.Interaction]
	addNote      *resource.Executor[domain.Interaction, domain.Interaction]
	reload       *resource.Executor[int, domain.Lead]
	addTags      *resource.Executor[api.TagUpdate, struct{}]
	remove       *resource.Executor[int, struct{}]

	// UI components
	spinner   spinner.Model
	noteInput textarea.Model
	tagInput  textinput.Model
	viewport  viewport.Model
	picker    StatusPickerModel

	// State
	noteMode      bool
	tagMode       bool
	confirmExit   bool // Show "unsaved changes" prompt
	confirmDelete bool
	picking       bool
	errorMsg    string
	successMsg  string

	// View dimensions
	width  int
	height int
}

// NewDetailModel creates a detail view for lead.
func NewDetailModel(ctx context.Context, backend Backend, s *store.Store, lead domain.Lead) DetailModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ta := textarea.New()
	ta.Placeholder = "Write a note about this lead..."
	ta.CharLimit = 4000
	ta.SetHeight(6)
	ta.SetWidth(40) // Will be resized
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("228"))
	ta.BlurredStyle.Base = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240"))

	ti := textinput.New()
	ti.Placeholder = "hot, q3, follow-up"
	ti.Prompt = "Tags: "
	ti.CharLimit = 200

	vp := viewport.New(40, 10) // Will be resized in WindowSizeMsg
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	return DetailModel{
		ctx:          ctx,
		store:        s,
		leadID:       lead.ID,
		lead:         resource.NewOverlay(backend.UpdateLeadStatus, setStatus, lead),
		contacts:     resource.NewExecutor(backend.ListContacts),
		interactions: resource.NewExecutor(backend.ListInteractions),
		addNote:      resource.NewExecutor(backend.CreateInteraction),
		reload:       resource.NewExecutor(backend.GetLead),
		addTags:      resource.NewExecutor(backend.AddLeadTags),
		remove:       resource.NewExecutor(backend.DeleteLead),
		spinner:      sp,
		noteInput:    ta,
		tagInput:     ti,
		viewport:     vp,
	}
}

// Detail messages
type (
	contactsLoadedMsg     struct{}
	interactionsLoadedMsg struct{}
	notePostedMsg         struct{ err error }
	tagsAddedMsg          struct{ err error }
	leadDeleteSettledMsg  struct{ err error }
	leadStatusSettledMsg  struct {
		lead domain.Lead
		err  error
	}
	leadReloadedMsg struct {
		lead domain.Lead
		err  error
	}
)

// Init loads contacts and interactions.
func (m DetailModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.WindowSize(), m.loadContacts(), m.loadInteractions())
}

// Update handles messages
func (m DetailModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeComponents()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case contactsLoadedMsg:
		return m, nil

	case interactionsLoadedMsg:
		m.updateViewportContent()
		return m, nil

	case notePostedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Failed: %v", msg.err)
			return m, nil
		}
		m.noteMode = false
		m.successMsg = "Note saved!"
		m.noteInput.Reset()
		m.noteInput.Blur()
		return m, m.loadInteractions()

	case leadReloadedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Reload failed: %v", msg.err)
			return m, nil
		}
		m.lead.SetConfirmed(msg.lead)
		m.store.Upsert(msg.lead)
		lead := msg.lead
		return m, func() tea.Msg { return leadUpdatedMsg{lead: lead} }

	case tagsAddedMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Adding tags failed: %v", msg.err)
			return m, nil
		}
		m.tagMode = false
		m.tagInput.Reset()
		m.tagInput.Blur()
		m.successMsg = "Tags added"
		return m, m.reloadLead()

	case leadDeleteSettledMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Delete failed: %v", msg.err)
			return m, nil
		}
		m.store.Remove(m.leadID)
		id := m.leadID
		return m, tea.Batch(
			func() tea.Msg { return leadRemovedMsg{id: id} },
			func() tea.Msg { return closeDetailMsg{} },
		)

	case StatusSelectedMsg:
		m.picking = false
		if msg.Purpose != PickLead || msg.Status == "" {
			return m, nil
		}
		m.errorMsg, m.successMsg = "", ""
		return m, m.changeStatus(msg.Status)

	case pickerClosedMsg:
		m.picking = false
		return m, nil

	case leadStatusSettledMsg:
		if msg.err != nil {
			m.errorMsg = fmt.Sprintf("Status update failed: %v", msg.err)
			return m, nil
		}
		m.store.Upsert(msg.lead)
		m.successMsg = "Status set to " + msg.lead.EffectiveStatus()
		lead := msg.lead
		return m, func() tea.Msg { return leadUpdatedMsg{lead: lead} }

	case statusToastMsg:
		m.successMsg = msg.text
		return m, nil

	case openURLFailedMsg:
		m.errorMsg = fmt.Sprintf("Could not open link: %v", msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		if !m.noteMode {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Update textarea when in note mode (for blink, etc.)
	if m.noteMode {
		var cmd tea.Cmd
		m.noteInput, cmd = m.noteInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	if m.tagMode {
		var cmd tea.Cmd
		m.tagInput, cmd = m.tagInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// resizeComponents calculates and sets component dimensions
func (m *DetailModel) resizeComponents() {
	leftWidth := min(max(int(float64(m.width)*leftPanelRatio), minLeftWidth), maxLeftWidth)
	rightWidth := max(m.width-leftWidth-3, 30)
	contentHeight := max(m.height-headerHeight-footerHeight-borderSize, 10)

	m.viewport.Width = rightWidth - borderSize - 2
	m.viewport.Height = max(contentHeight-borderSize-2, 3)
	m.noteInput.SetWidth(rightWidth - borderSize - 4)

	m.updateViewportContent()
}

// handleKeyPress processes keyboard input
func (m DetailModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	// Confirm exit dialog
	if m.confirmExit {
		switch msg.String() {
		case "y", "Y":
			m.confirmExit = false
			m.noteMode = false
			m.noteInput.Reset()
			m.noteInput.Blur()
			return m, func() tea.Msg { return closeDetailMsg{} }
		case "n", "N", "esc":
			m.confirmExit = false
			return m, nil
		case "s", "S":
			m.confirmExit = false
			if note := strings.TrimSpace(m.noteInput.Value()); note != "" {
				return m, m.postNote(note)
			}
			return m, nil
		}
		return m, nil
	}

	if m.confirmDelete {
		switch msg.String() {
		case "y", "Y":
			m.confirmDelete = false
			return m, m.deleteLead()
		case "n", "N", "esc":
			m.confirmDelete = false
		}
		return m, nil
	}

	if m.tagMode {
		switch msg.String() {
		case "esc":
			m.tagMode = false
			m.tagInput.Reset()
			m.tagInput.Blur()
			return m, nil
		case "enter":
			if tags := parseTags(m.tagInput.Value()); len(tags) > 0 {
				return m, m.postTags(tags)
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.tagInput, cmd = m.tagInput.Update(msg)
			return m, cmd
		}
	}

	// Note mode - textarea gets all key events except special ones
	if m.noteMode {
		switch msg.String() {
		case "esc":
			if strings.TrimSpace(m.noteInput.Value()) != "" {
				m.confirmExit = true
				return m, nil
			}
			m.noteMode = false
			m.noteInput.Blur()
			return m, nil
		case "ctrl+s":
			if note := strings.TrimSpace(m.noteInput.Value()); note != "" {
				return m, m.postNote(note)
			}
			return m, nil
		default:
			var cmd tea.Cmd
			m.noteInput, cmd = m.noteInput.Update(msg)
			return m, cmd
		}
	}

	switch msg.String() {
	case "q", "esc":
		return m, func() tea.Msg { return closeDetailMsg{} }
	case "o":
		return m, openWebsite(m.lead.View().Visible)
	case "s":
		counts := m.store.StatusCounts()
		m.picker = NewStatusPickerModel("Change status", PickLead, m.lead.View().Visible.EffectiveStatus(), counts)
		m.picking = true
	case "c":
		m.noteMode = true
		m.noteInput.Focus()
		m.errorMsg = ""
		m.successMsg = ""
		return m, textarea.Blink
	case "t":
		m.tagMode = true
		m.errorMsg = ""
		m.successMsg = ""
		cmd := m.tagInput.Focus()
		return m, tea.Batch(cmd, textinput.Blink)
	case "D":
		m.confirmDelete = true
		m.errorMsg = ""
		m.successMsg = ""
	case "r":
		return m, tea.Batch(m.reloadLead(), m.loadContacts(), m.loadInteractions())
	case "j", "down":
		m.viewport.LineDown(1)
	case "k", "up":
		m.viewport.LineUp(1)
	case "ctrl+d":
		m.viewport.HalfViewDown()
	case "ctrl+u":
		m.viewport.HalfViewUp()
	case "g":
		m.viewport.GotoTop()
	case "G":
		m.viewport.GotoBottom()
	}

	return m, nil
}

// View renders the split-screen detail view
func (m DetailModel) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 100
	}
	if height == 0 {
		height = 30
	}

	leftWidth := min(max(int(float64(width)*leftPanelRatio), minLeftWidth), maxLeftWidth)
	rightWidth := max(width-leftWidth-1, 20) // 1 char gap
	contentHeight := max(height-headerHeight-footerHeight, 10)

	header := m.renderHeader()

	if m.picking {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.picker.View())
	}

	leftPanel := panelBorderStyle.
		Width(leftWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderLeftPanel(leftWidth-borderSize, contentHeight-borderSize))

	rightBorder := focusedPanelBorderStyle
	if m.noteMode {
		rightBorder = panelBorderStyle
	}
	rightPanel := rightBorder.
		Width(rightWidth - borderSize).
		Height(contentHeight - borderSize).
		Render(m.renderRightPanel())

	panels := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, " ", rightPanel)
	return lipgloss.JoinVertical(lipgloss.Left, header, panels, m.renderFooter(width))
}

// renderHeader renders the top help bar
func (m DetailModel) renderHeader() string {
	if m.confirmExit {
		return warningStyle.Render("Unsaved note! [Y]discard [N]cancel [S]save and exit")
	}
	if m.confirmDelete {
		return warningStyle.Render("Delete this lead? [Y]delete [N]cancel")
	}
	if m.tagMode {
		return dimStyle.Render("[Enter]add [ESC]cancel") + "  " + m.tagInput.View()
	}
	if m.noteMode {
		return dimStyle.Render("[Ctrl+S]save [ESC]cancel") + "  " +
			interactionTypeStyle.Render("Writing note...")
	}
	return dimStyle.Render("[q]back [o]open website [s]status [c]note [t]tags [D]delete [r]reload [j/k]scroll [g/G]top/bottom")
}

// renderFooter renders the bottom status bar
func (m DetailModel) renderFooter(width int) string {
	var left, right string

	view := m.lead.View()
	switch {
	case view.Loading():
		left = m.spinner.View() + " Saving status..."
	case m.addNote.State().Loading():
		left = m.spinner.View() + " Saving note..."
	case m.addTags.State().Loading():
		left = m.spinner.View() + " Adding tags..."
	case m.remove.State().Loading():
		left = m.spinner.View() + " Deleting lead..."
	case m.successMsg != "":
		left = SuccessStyle.Render("✓ " + m.successMsg)
	case m.errorMsg != "":
		left = ErrorStyle.Render("✗ " + m.errorMsg)
	case m.noteMode:
		left = fmt.Sprintf("%d chars", len(m.noteInput.Value()))
	}

	if m.interactions.State().Succeeded() && !m.noteMode {
		switch {
		case m.viewport.AtTop():
			right = "TOP"
		case m.viewport.AtBottom():
			right = "END"
		default:
			right = fmt.Sprintf("%d%%", int(m.viewport.ScrollPercent()*100))
		}
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return left + strings.Repeat(" ", padding) + dimStyle.Render(right)
}

// renderLeftPanel renders company facts and contacts
func (m DetailModel) renderLeftPanel(width, height int) string {
	view := m.lead.View()
	lead := view.Visible

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(wordwrap.String(lead.CompanyName, width-2)))
	b.WriteString("\n\n")

	status := statusBadge(lead.EffectiveStatus())
	if view.Optimistic {
		status += " " + pendingStyle.Render("(saving)")
	}
	writeField(&b, "Status", status)
	writeField(&b, "Industry", detailValueStyle.Render(lead.Industry))
	writeField(&b, "Size", detailValueStyle.Render(lead.CompanySize))
	writeField(&b, "Location", detailValueStyle.Render(lead.Location()))
	writeField(&b, "Website", detailValueStyle.Render(lead.Website))
	if lead.Score != nil {
		writeField(&b, "Score", detailValueStyle.Render(fmt.Sprintf("%d/100", *lead.Score)))
	}
	chatbot := lead.CurrentChatbot
	if chatbot == "" {
		chatbot = "None"
	}
	writeField(&b, "Chatbot", detailValueStyle.Render(chatbot))
	writeField(&b, "Source", detailValueStyle.Render(lead.Source))
	if lead.NextAction != "" {
		next := lead.NextAction
		if lead.NextActionDate != "" {
			next += " (" + formatTimeAgo(lead.NextActionDate) + ")"
		}
		writeField(&b, "Next", detailValueStyle.Render(next))
	}
	if len(lead.Tags) > 0 {
		writeField(&b, "Tags", detailValueStyle.Render(truncate(strings.Join(lead.Tags, ", "), width-8)))
	}

	b.WriteString("\n")
	b.WriteString(detailLabelStyle.Render("Contacts"))
	b.WriteString("\n")
	contacts := m.contacts.State()
	switch {
	case contacts.Loading():
		b.WriteString(m.spinner.View() + " Loading contacts...\n")
	case contacts.Failed():
		b.WriteString(ErrorStyle.Render("Error: "+contacts.Err) + "\n")
	case len(contacts.Data) == 0:
		b.WriteString(dimStyle.Render("No contacts yet") + "\n")
	default:
		for _, c := range contacts.Data {
			line := c.FullName()
			if c.Position != "" {
				line += ", " + c.Position
			}
			b.WriteString(detailValueStyle.Render(truncate(line, width-2)) + "\n")
			if c.Email != "" {
				b.WriteString(dimStyle.Render("  "+truncate(c.Email, width-4)) + "\n")
			}
		}
	}

	if lead.Description != "" {
		b.WriteString("\n")
		b.WriteString(detailLabelStyle.Render("Description:"))
		b.WriteString("\n")
		if maxLines := height - strings.Count(b.String(), "\n") - 1; maxLines > 0 {
			lines := strings.Split(wordwrap.String(lead.Description, width-2), "\n")
			if len(lines) > maxLines {
				lines = append(lines[:maxLines-1], "...")
			}
			b.WriteString(strings.Join(lines, "\n"))
		}
	}

	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(detailLabelStyle.Render(label + ": "))
	b.WriteString(value)
	b.WriteString("\n")
}

// renderRightPanel renders the interaction history with viewport
func (m DetailModel) renderRightPanel() string {
	var b strings.Builder

	state := m.interactions.State()
	title := "Interactions"
	if state.Succeeded() {
		title = fmt.Sprintf("Interactions (%d)", len(state.Data))
	}

	scrollHint := ""
	if state.Succeeded() && !m.noteMode && m.viewport.TotalLineCount() > m.viewport.Height {
		switch {
		case m.viewport.AtTop():
			scrollHint = " ↓"
		case m.viewport.AtBottom():
			scrollHint = " ↑"
		default:
			scrollHint = " ↕"
		}
	}

	b.WriteString(detailLabelStyle.Render(title))
	b.WriteString(scrollIndicatorStyle.Render(scrollHint))
	b.WriteString("\n")

	if m.noteMode {
		b.WriteString("\n")
		b.WriteString(interactionTypeStyle.Render("New Note"))
		b.WriteString("\n\n")
		b.WriteString(m.noteInput.View())
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("Ctrl+S to save • ESC to cancel"))
		return b.String()
	}

	switch {
	case state.Loading():
		b.WriteString("\n" + m.spinner.View() + " Loading interactions...")
	case state.Failed():
		b.WriteString("\n" + ErrorStyle.Render("Error: "+state.Err))
	case len(state.Data) == 0:
		b.WriteString("\n" + dimStyle.Render("No interactions recorded"))
		b.WriteString("\n\n" + dimStyle.Render("Press 'c' to add a note"))
	default:
		b.WriteString(m.viewport.View())
	}
	return b.String()
}

// updateViewportContent formats the interactions for viewport display
func (m *DetailModel) updateViewportContent() {
	state := m.interactions.State()
	if !state.Succeeded() {
		return
	}

	wrapWidth := max(m.viewport.Width-4, 30)
	var b strings.Builder
	for i, in := range state.Data {
		if i > 0 {
			b.WriteString("\n\n")
			b.WriteString(dimStyle.Render(strings.Repeat("─", min(20, wrapWidth))))
			b.WriteString("\n\n")
		}
		b.WriteString(interactionTypeStyle.Render(in.InteractionType))
		if in.Channel != "" {
			b.WriteString(" " + dimStyle.Render("via "+in.Channel))
		}
		b.WriteString(" ")
		b.WriteString(interactionTimeStyle.Render(formatTimeAgo(in.InteractionDate)))
		b.WriteString("\n")
		if in.Notes != "" {
			b.WriteString(interactionBodyStyle.Render(wordwrap.String(in.Notes, wrapWidth)))
		}
	}
	m.viewport.SetContent(b.String())
}

func (m DetailModel) loadContacts() tea.Cmd {
	return func() tea.Msg {
		_, _ = m.contacts.Execute(m.ctx, m.leadID)
		return contactsLoadedMsg{}
	}
}

func (m DetailModel) loadInteractions() tea.Cmd {
	return func() tea.Msg {
		_, _ = m.interactions.Execute(m.ctx, m.leadID)
		return interactionsLoadedMsg{}
	}
}

// changeStatus runs the status change through the overlay so the new
// status shows while the request is in flight.
func (m DetailModel) changeStatus(status string) tea.Cmd {
	return func() tea.Msg {
		lead, err := m.lead.Execute(m.ctx, api.StatusUpdate{LeadID: m.leadID, Status: status})
		return leadStatusSettledMsg{lead: lead, err: err}
	}
}

func (m DetailModel) postNote(note string) tea.Cmd {
	in := domain.Interaction{
		CompanyID:       m.leadID,
		InteractionType: noteInteractionType,
		Channel:         noteChannel,
		InteractionDate: time.Now().UTC().Format(time.RFC3339),
		Notes:           note,
	}
	return func() tea.Msg {
		_, err := m.addNote.Execute(m.ctx, in)
		return notePostedMsg{err: err}
	}
}

func (m DetailModel) reloadLead() tea.Cmd {
	return func() tea.Msg {
		lead, err := m.reload.Execute(m.ctx, m.leadID)
		return leadReloadedMsg{lead: lead, err: err}
	}
}

func (m DetailModel) postTags(tags []string) tea.Cmd {
	u := api.TagUpdate{LeadID: m.leadID, Tags: tags}
	return func() tea.Msg {
		_, err := m.addTags.Execute(m.ctx, u)
		return tagsAddedMsg{err: err}
	}
}

func (m DetailModel) deleteLead() tea.Cmd {
	return func() tea.Msg {
		_, err := m.remove.Execute(m.ctx, m.leadID)
		return leadDeleteSettledMsg{err: err}
	}
}

// parseTags splits a comma separated list, dropping blanks and repeats.
func parseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(tags, t) {
			tags = append(tags, t)
		}
	}
	return tags
}

// formatTimeAgo converts an ISO8601 timestamp to relative time. Future
// times, such as a scheduled next action, are shown as dates.
func formatTimeAgo(timestamp string) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		if len(timestamp) >= 10 {
			return timestamp[:10]
		}
		return timestamp
	}

	duration := time.Since(t)

	switch {
	case duration < 0:
		return t.Format("Jan 2, 2006")
	case duration < time.Minute:
		return "just now"
	case duration < time.Hour:
		mins := int(duration.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case duration < 24*time.Hour:
		hours := int(duration.Hours())
		if hours == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hours)
	case duration < 7*24*time.Hour:
		days := int(duration.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	case duration < 30*24*time.Hour:
		weeks := int(duration.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	case duration < 365*24*time.Hour:
		months := int(duration.Hours() / 24 / 30)
		if months == 1 {
			return "1mo ago"
		}
		return fmt.Sprintf("%dmo ago", months)
	default:
		years := int(duration.Hours() / 24 / 365)
		if years == 1 {
			return "1y ago"
		}
		return fmt.Sprintf("%dy ago", years)
	}
}
