package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-dashboard/internal/keys"
	"github.com/nhle/mail-dashboard/internal/mailaddr"
	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ActionMsg signals the parent to open a panel for the current message.
type ActionMsg struct {
	Action    string
	MessageID string
}

// Panel actions emitted by the detail view.
const (
	ActionOptions = "options"
	ActionReply   = "reply"
	ActionAIReply = "ai-reply"
)

// Model is the message detail view component.
type Model struct {
	message  *model.Message
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Select):
			if m.message != nil {
				return m, m.actionCmd(ActionOptions)
			}

		case key.Matches(msg, m.keys.Reply):
			if m.message != nil {
				return m, m.actionCmd(ActionReply)
			}

		case key.Matches(msg, m.keys.AIReply):
			if m.message != nil {
				return m, m.actionCmd(ActionAIReply)
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// actionCmd wraps an ActionMsg for the currently displayed message.
func (m Model) actionCmd(action string) tea.Cmd {
	id := m.message.ID
	return func() tea.Msg {
		return ActionMsg{Action: action, MessageID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.message == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.message == nil {
		return ""
	}

	msg := m.message
	var sections []string

	// Subject as the title line
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(msg.Subject))
	sections = append(sections, "")

	// Header table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sender := msg.FromDisplay
	if msg.FromAddress != "" {
		sender = mailaddr.FormatAddress(msg.FromDisplay, msg.FromAddress)
	}
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("From:"),
		valStyle.Render(sender),
	))
	sections = append(sections, fmt.Sprintf(
		"%s    %s",
		metaStyle.Render("To:"),
		valStyle.Render(msg.ToDisplay),
	))

	date := msg.DisplayDate
	if msg.DisplayTime != "" {
		date = fmt.Sprintf("%s  %s", msg.DisplayDate, msg.DisplayTime)
	}
	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Date:"),
		valStyle.Render(date),
	))

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Body preview
	body := msg.BodyPreview
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No preview available")
	}
	sections = append(sections, body)

	// Hint line for panel actions
	sections = append(sections, "")
	sections = append(sections, theme.HelpStyle.Render(
		"enter actions · r reply · a AI reply · esc back",
	))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetMessage updates the message being displayed and re-renders the content.
func (m *Model) SetMessage(msg *model.Message) {
	m.message = msg
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.message != nil {
		m.viewport.SetContent(m.renderContent())
	}
}
