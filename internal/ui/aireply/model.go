package aireply

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "github.com/nhle/mail-dashboard/internal/ai"
	"github.com/nhle/mail-dashboard/internal/keys"
	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// AIPanelCloseMsg signals the parent to close the AI reply panel.
type AIPanelCloseMsg struct{}

// AIResponseChunkMsg carries a suggested draft from the assistant.
type AIResponseChunkMsg struct {
	Text string
	Done bool
}

// DraftAcceptedMsg hands the suggested body to the manual reply form
// for editing before sending.
type DraftAcceptedMsg struct {
	Body string
}

// SendDraftMsg asks the parent to send the suggested body as-is.
type SendDraftMsg struct {
	Body string
}

// Model is the AI reply panel. The user describes the reply they want,
// the assistant drafts it, and the draft can be revised, edited in the
// manual form, or sent directly.
type Model struct {
	assistant *aiservice.Assistant
	message   *model.Message
	input     textarea.Model
	viewport  viewport.Model
	draft     string
	streaming bool
	keys      *keys.KeyMap
	width     int
	height    int
	noAPIKey  bool
}

// New creates a new AI reply panel model. If assistant is nil or has no
// API key, the panel displays a configuration prompt instead.
func New(
	assistant *aiservice.Assistant,
	k *keys.KeyMap,
	width, height int,
) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe the reply you want..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vpHeight := height - 8 // space for input area + borders
	if vpHeight < 4 {
		vpHeight = 4
	}

	vp := viewport.New(width-4, vpHeight)
	vp.Style = lipgloss.NewStyle()

	return Model{
		assistant: assistant,
		input:     ta,
		viewport:  vp,
		keys:      k,
		width:     width,
		height:    height,
		noAPIKey:  assistant == nil || !assistant.Configured(),
	}
}

// Init returns the initial command for the AI reply panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Start resets the panel for a new message. The assistant conversation
// is cleared so revisions only relate to the current message.
func (m *Model) Start(msg *model.Message) tea.Cmd {
	m.message = msg
	m.draft = ""
	m.streaming = false
	m.input.Reset()
	if m.assistant != nil {
		m.assistant.Reset()
	}
	m.refreshViewport()
	return m.input.Focus()
}

// Update handles messages for the AI reply panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AIResponseChunkMsg:
		return m.handleResponseChunk(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	// Delegate to textarea and viewport
	var cmds []tea.Cmd

	var taCmd tea.Cmd
	m.input, taCmd = m.input.Update(msg)
	if taCmd != nil {
		cmds = append(cmds, taCmd)
	}

	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	if vpCmd != nil {
		cmds = append(cmds, vpCmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input for the AI reply panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.streaming {
			return m, nil
		}
		return m, func() tea.Msg {
			return AIPanelCloseMsg{}
		}

	case "enter":
		if m.noAPIKey || m.streaming || m.message == nil {
			return m, nil
		}

		instructions := strings.TrimSpace(m.input.Value())
		if instructions == "" {
			instructions = "Draft a reply to this email."
		}

		m.input.Reset()
		m.streaming = true
		m.refreshViewport()
		return m, m.suggestCmd(instructions)

	case "tab":
		if m.streaming || m.draft == "" {
			return m, nil
		}
		body := m.draft
		return m, func() tea.Msg {
			return DraftAcceptedMsg{Body: body}
		}

	case "ctrl+s":
		if m.streaming || m.draft == "" {
			return m, nil
		}
		body := m.draft
		return m, func() tea.Msg {
			return SendDraftMsg{Body: body}
		}
	}

	// Let textarea handle other keys
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResponseChunk replaces the draft with the assistant's suggestion.
func (m Model) handleResponseChunk(msg AIResponseChunkMsg) (Model, tea.Cmd) {
	m.draft = msg.Text
	if msg.Done {
		m.streaming = false
	}
	m.refreshViewport()
	return m, nil
}

// suggestCmd returns a command that asks the assistant for a draft and
// collapses the streamed chunks into a single response message.
func (m Model) suggestCmd(instructions string) tea.Cmd {
	assistant := m.assistant
	message := *m.message
	return func() tea.Msg {
		ch, err := assistant.SuggestReply(context.Background(), message, instructions)
		if err != nil {
			return AIResponseChunkMsg{
				Text: fmt.Sprintf("Error: %v", err),
				Done: true,
			}
		}

		var b strings.Builder
		for chunk := range ch {
			b.WriteString(chunk.Text)
		}
		return AIResponseChunkMsg{Text: b.String(), Done: true}
	}
}

// refreshViewport re-renders the draft area and scrolls to the top.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderDraft())
	m.viewport.GotoTop()
}

// renderDraft builds the draft display string.
func (m Model) renderDraft() string {
	if m.streaming {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Drafting...")
	}

	if m.draft == "" {
		return lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("Describe the reply you want, then press enter. " +
				"Revisions build on the previous draft.")
	}

	return lipgloss.NewStyle().
		Foreground(theme.ColorWhite).
		Render(m.draft)
}

// View renders the AI reply panel.
func (m Model) View() string {
	if m.noAPIKey {
		return m.renderNoAPIKey()
	}

	title := theme.PanelTitleStyle.MarginBottom(1).Render("AI Reply")

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(
		strings.Repeat("─", min(m.width-6, 80)),
	)

	hint := theme.HelpStyle.Render(
		"enter draft · tab edit in form · ctrl+s send · esc close",
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		m.viewport.View(),
		separator,
		m.input.View(),
		hint,
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// renderNoAPIKey shows a message when the API key is not configured.
func (m Model) renderNoAPIKey() string {
	style := lipgloss.NewStyle().
		Width(m.width - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "AI replies require an Anthropic API key.\n\n" +
		"To configure, store your API key in the system keyring:\n" +
		"  Key name: claude-api-key\n\n" +
		"Or set the ANTHROPIC_API_KEY environment variable.\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the AI reply panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 4)

	vpHeight := height - 8
	if vpHeight < 4 {
		vpHeight = 4
	}
	m.viewport.Width = width - 4
	m.viewport.Height = vpHeight
}
