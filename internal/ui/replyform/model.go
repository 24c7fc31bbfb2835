package replyform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// ReplySubmittedMsg is dispatched when the user submits the reply form.
type ReplySubmittedMsg struct {
	Draft model.ReplyDraft
}

// ReplyFormCancelMsg is dispatched when the user cancels the form.
type ReplyFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to      string
	subject string
	body    string
}

// Model is the Bubble Tea model for the reply compose form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new reply form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form with a prefilled draft. The draft may come
// from the selected message or from an accepted AI suggestion.
func (m *Model) Start(draft model.ReplyDraft) tea.Cmd {
	m.fb.to = draft.To
	m.fb.subject = draft.Subject
	m.fb.body = draft.Body
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the reply form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return ReplyFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the reply form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	content := theme.PanelTitleStyle.MarginBottom(1).Render("Reply") +
		"\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("To").
			Placeholder("Leave empty to reply to the sender address").
			Value(&m.fb.to),
		huh.NewInput().
			Title("Subject").
			Value(&m.fb.subject),
		huh.NewText().
			Title("Body").
			Placeholder("Write your reply...").
			Value(&m.fb.body).
			Validate(validateRequired("Body")),
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	draft := model.ReplyDraft{
		To:      m.fb.to,
		Subject: m.fb.subject,
		Body:    m.fb.body,
	}
	return func() tea.Msg { return ReplySubmittedMsg{Draft: draft} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
