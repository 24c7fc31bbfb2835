package inboxlist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-dashboard/internal/keys"
	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// MessagesLoadedMsg replaces the list contents with a fresh inbox snapshot.
type MessagesLoadedMsg struct {
	Messages []model.Message
}

// SelectedMessageMsg is sent when a user opens a message to view details.
type SelectedMessageMsg struct {
	MessageID string
}

// Model is the inbox list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	messages    []model.Message
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new inbox list model.
func New(k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "filter by sender or subject..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command for the list. Contents arrive via
// MessagesLoadedMsg, so there is nothing to start.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inbox list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MessagesLoadedMsg:
		m.messages = msg.Messages
		cmd := m.applyFilter()
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	// Delegate to list model for other messages
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in filter mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = m.searchInput.Value()
		cmd := m.applyFilter()
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		cmd := m.applyFilter()
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-filter) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(MessageItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedMessageMsg{MessageID: item.Message.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Back):
		if m.query != "" {
			m.query = ""
			m.searchInput.Reset()
			cmd := m.applyFilter()
			return m, cmd
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// applyFilter rebuilds the visible items from the current message set
// and query. The backend order is preserved.
func (m *Model) applyFilter() tea.Cmd {
	items := make([]list.Item, 0, len(m.messages))
	for _, message := range m.messages {
		if m.query != "" && !matchesQuery(message, m.query) {
			continue
		}
		items = append(items, MessageItem{Message: message})
	}
	return m.list.SetItems(items)
}

// matchesQuery reports whether a message matches a case-insensitive
// substring query against the sender and subject.
func matchesQuery(message model.Message, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(message.FromDisplay), q) ||
		strings.Contains(strings.ToLower(message.Subject), q)
}

// SearchActive reports whether the filter input currently owns the
// keyboard, so global shortcuts can step aside.
func (m Model) SearchActive() bool {
	return m.searchMode
}

// View renders the inbox list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no messages are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" {
		return style.Render("No matching messages.\nPress / to change the filter, esc to clear it.")
	}

	return style.Render("Inbox is empty.\n\nPress ctrl+r to refresh.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
