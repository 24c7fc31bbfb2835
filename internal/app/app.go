package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "github.com/nhle/mail-dashboard/internal/ai"
	"github.com/nhle/mail-dashboard/internal/inbox"
	"github.com/nhle/mail-dashboard/internal/keys"
	"github.com/nhle/mail-dashboard/internal/model"
	appsync "github.com/nhle/mail-dashboard/internal/sync"
	"github.com/nhle/mail-dashboard/internal/theme"
	"github.com/nhle/mail-dashboard/internal/ui"
	"github.com/nhle/mail-dashboard/internal/ui/aireply"
	"github.com/nhle/mail-dashboard/internal/ui/command"
	"github.com/nhle/mail-dashboard/internal/ui/detail"
	"github.com/nhle/mail-dashboard/internal/ui/helpview"
	"github.com/nhle/mail-dashboard/internal/ui/inboxlist"
	"github.com/nhle/mail-dashboard/internal/ui/replyform"
	"github.com/nhle/mail-dashboard/internal/ui/settings"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewDetail
	ViewHelp
	ViewCommand
	ViewSettings
)

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the inbox view-model. All inbox state lives in the
// view-model; this model only translates messages into its operations
// and renders from snapshots.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	vm           *inbox.ViewModel
	keys         *keys.KeyMap
	inboxList    inboxlist.Model
	detailView   detail.Model
	replyForm    replyform.Model
	aiReply      aireply.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settings.Model
	poller       *appsync.Poller
	spinner      spinner.Model
	notice       string
	noticeSeq    int
	ready        bool
}

// New creates a new root application model. The assistant may be nil
// when no API key is configured; the AI panel then shows setup help.
// cfg and cfgPath feed the settings editor.
func New(
	cfg *model.AppConfig,
	cfgPath string,
	vm *inbox.ViewModel,
	poller *appsync.Poller,
	assistant *aiservice.Assistant,
) Model {
	k := keys.DefaultKeyMap()
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		currentView:  ViewInbox,
		vm:           vm,
		keys:         k,
		inboxList:    inboxlist.New(k, 80, 24),
		detailView:   detail.New(k, 80, 24),
		replyForm:    replyform.New(80, 24),
		aiReply:      aireply.New(assistant, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settings.New(cfg, cfgPath, 80, 24),
		poller:       poller,
		spinner:      sp,
	}
}

// Init subscribes to the poller's results; the poller is already running
// and performing the initial inbox fetch.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.inboxList.Init(),
		m.aiReply.Init(),
		m.listenForRefresh(),
		m.spinner.Tick,
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.inboxList.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.replyForm.SetSize(contentWidth, contentHeight)
		m.aiReply.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.RefreshResultMsg:
		// The view-model already holds the outcome; sync the list rows
		// and keep listening for the next cycle.
		listCmd := m.pushMessages()
		return m, tea.Batch(listCmd, m.poller.WaitForNextResult())

	case appsync.RefreshRequestedMsg:
		// The poller picks the trigger up on its own; restarting the
		// spinner here covers every manually triggered refresh.
		return m, m.spinner.Tick

	case spinner.TickMsg:
		if m.vm.Snapshot().Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case inboxlist.SelectedMessageMsg:
		if err := m.vm.SelectMessage(msg.MessageID); err != nil {
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		snap := m.vm.Snapshot()
		m.detailView.SetMessage(snap.Selected)
		// Selection marked the message read; repaint its list row.
		listCmd := m.pushMessages()
		return m, listCmd

	case detail.BackMsg:
		m.vm.CloseDetail()
		m.currentView = ViewInbox
		return m, nil

	case detail.ActionMsg:
		return m.handlePanelAction(msg.Action)

	case replyform.ReplySubmittedMsg:
		return m, tea.Batch(m.sendReplyCmd(msg.Draft), m.spinner.Tick)

	case replyform.ReplyFormCancelMsg:
		m.vm.CloseReplyPanel()
		return m, nil

	case aireply.AIPanelCloseMsg:
		m.vm.CloseReplyPanel()
		return m, nil

	case aireply.DraftAcceptedMsg:
		return m.openReplyForm(msg.Body)

	case aireply.SendDraftMsg:
		draft, err := m.vm.NewReplyDraft()
		if err != nil {
			return m, nil
		}
		draft.Body = msg.Body
		return m, tea.Batch(m.sendReplyCmd(draft), m.spinner.Tick)

	case aireply.AIResponseChunkMsg:
		if m.vm.Snapshot().Panel == inbox.PanelAIReply {
			var cmd tea.Cmd
			m.aiReply, cmd = m.aiReply.Update(msg)
			return m, cmd
		}
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case settings.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case settings.SavedMsg:
		m.currentView = m.previousView
		noticeCmd := m.setNotice("Settings saved. Changes apply on next launch.")
		return m, noticeCmd

	case replySentMsg:
		text := "Reply sent"
		if msg.err != nil {
			text = inbox.SendFailureText(msg.err)
		}
		noticeCmd := m.setNotice(text)
		listCmd := m.pushMessages()
		return m, tea.Batch(noticeCmd, listCmd)

	case noticeExpiredMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.InterruptMsg:
		m.poller.Stop()
		return m, tea.Quit

	case tea.KeyMsg:
		typing := m.typingActive()

		switch {
		case msg.String() == "ctrl+c":
			m.poller.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Quit) && !typing:
			if m.currentView == ViewInbox {
				m.poller.Stop()
				return m, tea.Quit
			}

		case key.Matches(msg, m.keys.Help) && !typing:
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
			} else {
				m.previousView = m.currentView
				m.currentView = ViewHelp
			}
			return m, nil

		case key.Matches(msg, m.keys.Back) &&
			(m.currentView == ViewHelp || m.currentView == ViewCommand):
			m.currentView = m.previousView
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			return m, m.poller.TriggerNow()

		case key.Matches(msg, m.keys.Settings) && !typing:
			if m.currentView == ViewInbox {
				m.previousView = m.currentView
				m.currentView = ViewSettings
				startCmd := m.settingsView.Start()
				return m, startCmd
			}

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			if !typing {
				m.previousView = m.currentView
				m.currentView = ViewCommand
				focusCmd := m.commandView.Focus()
				return m, focusCmd
			}
		}

		// While the options strip is open, r / a / esc operate on the
		// panel; remaining keys still scroll the detail view below.
		if m.currentView == ViewDetail &&
			m.vm.Snapshot().Panel == inbox.PanelOptions {
			switch {
			case key.Matches(msg, m.keys.Reply):
				return m.openReplyForm("")

			case key.Matches(msg, m.keys.AIReply):
				return m.handlePanelAction(detail.ActionAIReply)

			case key.Matches(msg, m.keys.Back):
				m.vm.CloseReplyPanel()
				return m, nil
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handlePanelAction opens the requested panel for the selected message.
func (m Model) handlePanelAction(action string) (tea.Model, tea.Cmd) {
	switch action {
	case detail.ActionOptions:
		if err := m.vm.OpenReplyOptions(); err != nil {
			return m, nil
		}
		return m, nil

	case detail.ActionReply:
		return m.openReplyForm("")

	case detail.ActionAIReply:
		if err := m.vm.OpenAIReply(); err != nil {
			return m, nil
		}
		snap := m.vm.Snapshot()
		cmd := m.aiReply.Start(snap.Selected)
		return m, cmd
	}

	return m, nil
}

// openReplyForm opens the manual reply form with a prefilled draft.
// A non-empty body overrides the empty prefill, which is how accepted
// AI drafts arrive.
func (m Model) openReplyForm(body string) (tea.Model, tea.Cmd) {
	draft, err := m.vm.NewReplyDraft()
	if err != nil {
		return m, nil
	}
	if err := m.vm.OpenReply(); err != nil {
		return m, nil
	}
	if body != "" {
		draft.Body = body
	}
	cmd := m.replyForm.Start(draft)
	return m, cmd
}

// typingActive reports whether a text input currently owns the
// keyboard, so single-letter shortcuts must not fire.
func (m Model) typingActive() bool {
	switch m.currentView {
	case ViewInbox:
		return m.inboxList.SearchActive()
	case ViewDetail:
		panel := m.vm.Snapshot().Panel
		return panel == inbox.PanelReply || panel == inbox.PanelAIReply
	case ViewCommand, ViewSettings:
		return true
	}
	return false
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync":
		return m.poller.TriggerNow()
	case "settings", "config":
		m.previousView = m.currentView
		m.currentView = ViewSettings
		return m.settingsView.Start()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit", "q":
		m.poller.Stop()
		return tea.Quit
	default:
		return m.setNotice(fmt.Sprintf("Unknown command: %s", cmd))
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.inboxList, cmd = m.inboxList.Update(msg)
	case ViewDetail:
		switch m.vm.Snapshot().Panel {
		case inbox.PanelReply:
			m.replyForm, cmd = m.replyForm.Update(msg)
		case inbox.PanelAIReply:
			m.aiReply, cmd = m.aiReply.Update(msg)
		default:
			m.detailView, cmd = m.detailView.Update(msg)
		}
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	snap := m.vm.Snapshot()

	headerTitle := "Mail Dashboard"
	if n := snap.UnreadCount(); n > 0 {
		headerTitle = fmt.Sprintf("Mail Dashboard [%d unread]", n)
	}
	header := m.layout.RenderHeader(headerTitle, m.fetchStatus(snap))

	content := m.renderContent(snap)
	if banner := m.layout.RenderErrorBanner(snap.ErrorText); banner != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, banner, content)
	}

	statusBar := m.layout.RenderStatusBar(m.statusLine(snap))

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent(snap inbox.Snapshot) string {
	switch m.currentView {
	case ViewInbox:
		return m.inboxList.View()
	case ViewDetail:
		switch snap.Panel {
		case inbox.PanelOptions:
			return lipgloss.JoinVertical(
				lipgloss.Left,
				m.detailView.View(),
				m.renderOptionsStrip(),
			)
		case inbox.PanelReply:
			return m.replyForm.View()
		case inbox.PanelAIReply:
			return m.aiReply.View()
		default:
			return m.detailView.View()
		}
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// renderOptionsStrip draws the action strip shown below the detail view
// while the options panel is open.
func (m Model) renderOptionsStrip() string {
	title := theme.PanelTitleStyle.Render("Reply to this message?")
	hints := theme.HelpStyle.Render("r reply yourself · a AI reply · esc close")

	return theme.BorderStyle.
		Width(m.layout.ContentWidth() - 2).
		Padding(0, 1).
		Render(title + "  " + hints)
}

// fetchStatus returns a short string describing the backend activity,
// shown on the right side of the header.
func (m Model) fetchStatus(snap inbox.Snapshot) string {
	// A refresh raises both flags, so check refreshing first.
	switch {
	case snap.Refreshing:
		return m.spinner.View() + " refreshing"
	case snap.Loading:
		return m.spinner.View() + " loading"
	case snap.Sending:
		return m.spinner.View() + " sending"
	}

	if st := m.poller.Status(); !st.LastRefresh.IsZero() {
		return "updated " + st.LastRefresh.Format("15:04")
	}
	return "idle"
}

// statusLine returns the status bar text: a transient notice when one
// is active, otherwise keyboard hints for the current view.
func (m Model) statusLine(snap inbox.Snapshot) string {
	if m.notice != "" {
		return theme.NoticeStyle.Render(m.notice)
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close | enter execute | esc back"
	case ViewSettings:
		return "enter next field | esc cancel"
	case ViewDetail:
		switch snap.Panel {
		case inbox.PanelOptions:
			return "r reply | a AI reply | esc close"
		case inbox.PanelReply:
			return "enter next field | esc cancel"
		case inbox.PanelAIReply:
			return "enter draft | tab edit in form | ctrl+s send | esc close"
		default:
			return "enter actions | r reply | a AI reply | esc back | j/k scroll"
		}
	default:
		return "q quit | ? help | enter open | / filter | ctrl+r refresh | c settings | : commands"
	}
}
