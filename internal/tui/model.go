// Package tui is the terminal front-end: a bubbletea program driving one
// local browsing session.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/evcraddock/rentshed/internal/listing"
	"github.com/evcraddock/rentshed/internal/session"
)

type focus int

const (
	focusTable focus = iota
	focusSearch
)

var (
	categoryCycle = browseCategories()
	locationCycle = append([]string{listing.All}, listing.BrowseLocations...)
)

func browseCategories() []string {
	out := []string{listing.All}
	for _, c := range listing.BrowseCategories {
		out = append(out, string(c))
	}
	return out
}

// Model is the bubbletea model for the browse screen.
type Model struct {
	ctrl *session.Controller

	table  table.Model
	search textinput.Model
	input  textinput.Model // chat message or map API key
	focus  focus
	feed   *chatFeed

	status    string
	statusErr bool
	width     int
	height    int
	styles    styles
}

// New creates the browse model over ctrl.
func New(ctrl *session.Controller) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Title", Width: 38},
			{Title: "Price", Width: 14},
			{Title: "Per hour", Width: 12},
			{Title: "Location", Width: 14},
			{Title: "Status", Width: 11},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "What do you want to rent?"
	search.CharLimit = 60
	search.Width = 40
	search.SetValue(ctrl.Filter().Query)

	m := Model{
		ctrl:   ctrl,
		table:  t,
		search: search,
		styles: defaultStyles(),
	}
	m.refresh()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctrl *session.Controller) error {
	final, err := tea.NewProgram(New(ctrl), tea.WithAltScreen()).Run()
	if fm, ok := final.(Model); ok {
		fm.stopFeed()
	}
	if err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.table.SetHeight(max(msg.Height-14, 3))
		return m, nil

	case chatMsg:
		if m.feed == nil {
			return m, nil
		}
		return m, m.feed.wait()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.stopFeed()
			return m, tea.Quit
		}
		switch m.ctrl.Modal() {
		case session.ModalDetail:
			return m.updateDetail(msg)
		case session.ModalChat:
			return m.updateChat(msg)
		case session.ModalMap:
			return m.updateMap(msg)
		case session.ModalAPIKeySetting:
			return m.updateSettings(msg)
		default:
			return m.updateBoard(msg)
		}
	}
	return m, nil
}

func (m Model) updateBoard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusSearch {
		switch msg.String() {
		case "enter", "esc":
			m.focus = focusTable
			m.search.Blur()
			m.table.Focus()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.ctrl.SetQuery(m.search.Value())
		m.refresh()
		return m, cmd
	}

	m.setStatus("")
	switch msg.String() {
	case "q":
		m.stopFeed()
		return m, tea.Quit
	case "/":
		m.focus = focusSearch
		m.table.Blur()
		return m, m.search.Focus()
	case "c":
		m.ctrl.SetCategory(next(categoryCycle, m.ctrl.Filter().Category))
		m.refresh()
		return m, nil
	case "l":
		m.ctrl.SetLocation(next(locationCycle, m.ctrl.Filter().Location))
		m.refresh()
		return m, nil
	case "x":
		m.ctrl.ResetFilter()
		m.search.SetValue("")
		m.refresh()
		return m, nil
	case "s":
		if err := m.ctrl.OpenSettings(); err != nil {
			m.setError(err)
			return m, nil
		}
		return m, m.resetInput("Map API key", true)
	}

	id, ok := m.highlighted()
	switch msg.String() {
	case "enter":
		if ok {
			if err := m.ctrl.OpenDetail(id); err != nil {
				m.setError(err)
			}
		}
		return m, nil
	case "t":
		if ok {
			return m.openChat(id)
		}
		return m, nil
	case "m":
		if !ok {
			return m, nil
		}
		modal, err := m.ctrl.OpenMap(id)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		if modal == session.ModalAPIKeySetting {
			m.setStatus("Save a map API key to see the map.")
			return m, m.resetInput("Map API key", true)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sel, ok := m.ctrl.Selected()
	switch msg.String() {
	case "esc", "q":
		m.ctrl.Close()
	case "r":
		if !ok {
			return m, nil
		}
		if m.ctrl.ConfirmRental(sel.ID) {
			m.setStatus(fmt.Sprintf("Rental confirmed: %s", sel.Title))
		} else {
			m.setStatus("This item is already rented out.")
		}
		m.refresh()
	case "t":
		if ok {
			return m.openChat(sel.ID)
		}
	}
	return m, nil
}

func (m Model) openChat(id string) (tea.Model, tea.Cmd) {
	chat, err := m.ctrl.OpenChat(id)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.stopFeed()
	m.feed = subscribe(chat)
	return m, tea.Batch(m.feed.wait(), m.resetInput("Type a message", false))
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		if chat := m.ctrl.Chat(); chat != nil {
			if _, ok := chat.Send(m.input.Value()); ok {
				m.input.SetValue("")
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateMap(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.ctrl.Close()
	}
	return m, nil
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeModal()
		return m, nil
	case "enter":
		if err := m.ctrl.SaveMapAPIKey(m.input.Value()); err != nil {
			m.setError(err)
			return m, nil
		}
		m.input.Blur()
		m.setStatus("Map API key saved.")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeModal() {
	m.stopFeed()
	m.ctrl.Close()
	m.input.Blur()
}

func (m *Model) stopFeed() {
	if m.feed != nil {
		m.feed.stop()
		m.feed = nil
	}
}

func (m *Model) resetInput(placeholder string, secret bool) tea.Cmd {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 200
	in.Width = 50
	if secret {
		in.EchoMode = textinput.EchoPassword
	}
	m.input = in
	return m.input.Focus()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// refresh rebuilds the table rows from the controller's current view.
func (m *Model) refresh() {
	view := m.ctrl.View()
	rows := make([]table.Row, 0, len(view))
	for _, l := range view {
		status := "Available"
		if !l.Available {
			status = "Rented out"
		}
		rows = append(rows, table.Row{
			l.ID,
			l.Title,
			formatPrice(l.Price),
			formatRate(l.HourlyRate),
			l.Location,
			status,
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m Model) highlighted() (string, bool) {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return "", false
	}
	return row[0], true
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("rentshed"))
	b.WriteString("  ")
	b.WriteString(m.styles.muted.Render(m.filterSummary()))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	st := m.ctrl.Snapshot()
	b.WriteString(fmt.Sprintf("%d items\n", len(st.Visible)))
	if len(st.Visible) == 0 {
		b.WriteString(m.styles.muted.Render("No items match your search."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}

	if modal := m.modalView(st); modal != "" {
		b.WriteString(m.styles.modal.Render(modal))
		b.WriteString("\n")
	}

	if m.status != "" {
		style := m.styles.status
		if m.statusErr {
			style = m.styles.err
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.muted.Render(m.help(st.Modal)))
	return b.String()
}

func (m Model) filterSummary() string {
	f := m.ctrl.Filter()
	category := "All categories"
	if f.Category != "" && f.Category != listing.All {
		category = listing.Category(f.Category).Label()
	}
	location := "All locations"
	if label, ok := listing.DistrictLabel(f.Location); ok {
		location = label
	}
	return category + " · " + location
}

func (m Model) modalView(st session.State) string {
	switch st.Modal {
	case session.ModalDetail:
		if st.Selected == nil {
			return ""
		}
		return m.detailView(*st.Selected)
	case session.ModalChat:
		return m.chatView(st)
	case session.ModalMap:
		if st.Selected == nil {
			return ""
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.title.Render("Map"),
			fmt.Sprintf("%s is in %s.", st.Selected.Title, st.Selected.Location),
			m.styles.muted.Render("Using map API key "+maskKey(st.MapKey)),
		)
	case session.ModalAPIKeySetting:
		return lipgloss.JoinVertical(lipgloss.Left,
			m.styles.title.Render("Map settings"),
			"Enter the API key used to show item locations.",
			m.input.View(),
		)
	}
	return ""
}

func (m Model) detailView(l listing.Listing) string {
	status := m.styles.available.Render("Available")
	if !l.Available {
		status = m.styles.rented.Render("Rented out")
	}
	lines := []string{
		m.styles.title.Render(l.Title),
		fmt.Sprintf("Price:    %s", formatPrice(l.Price)),
		fmt.Sprintf("Per hour: %s", formatRate(l.HourlyRate)),
		fmt.Sprintf("Category: %s", l.Category.Label()),
		fmt.Sprintf("Location: %s", l.Location),
	}
	if l.TimeAgo != "" {
		lines = append(lines, fmt.Sprintf("Posted:   %s", l.TimeAgo))
	}
	lines = append(lines, "Status:   "+status)
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) chatView(st session.State) string {
	var b strings.Builder
	title := "Chat"
	if st.Selected != nil {
		title = "Chat about " + st.Selected.Title
	}
	b.WriteString(m.styles.title.Render(title))
	b.WriteString("\n")
	for _, msg := range st.Messages {
		who := m.styles.user.Render("you")
		if msg.Sender == session.SenderOwner {
			who = m.styles.owner.Render("owner")
		}
		b.WriteString(fmt.Sprintf("%s %s: %s\n", msg.Time.Format("15:04"), who, msg.Text))
	}
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) help(modal session.Modal) string {
	switch modal {
	case session.ModalDetail:
		return "r rent · t chat · esc close"
	case session.ModalChat:
		return "enter send · esc close"
	case session.ModalMap:
		return "esc close"
	case session.ModalAPIKeySetting:
		return "enter save · esc close"
	}
	if m.focus == focusSearch {
		return "type to search · enter done"
	}
	return "/ search · c category · l location · x reset · enter details · t chat · m map · s settings · q quit"
}

func next(cycle []string, cur string) string {
	for i, v := range cycle {
		if v == cur {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

func formatPrice(v int64) string {
	return humanize.Comma(v) + " won"
}

func formatRate(v *int64) string {
	if v == nil {
		return "-"
	}
	return humanize.Comma(*v) + " won"
}

func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-4)
}
