package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/ui/inboxlist"
)

// noticeDuration is how long a transient status bar notice stays visible.
const noticeDuration = 4 * time.Second

// replySentMsg reports the outcome of a reply submission.
type replySentMsg struct {
	err error
}

// noticeExpiredMsg clears the status bar notice with the matching
// sequence number. The sequence keeps an old timer from wiping a
// notice that replaced it.
type noticeExpiredMsg struct {
	seq int
}

// listenForRefresh subscribes to the poller's result stream. The poller
// itself is started by main under the process-lifetime context.
func (m Model) listenForRefresh() tea.Cmd {
	return m.poller.WaitForNextResult()
}

// pushMessages feeds the current view-model snapshot into the list
// component so row state (contents, read markers) matches it.
func (m *Model) pushMessages() tea.Cmd {
	snap := m.vm.Snapshot()
	var cmd tea.Cmd
	m.inboxList, cmd = m.inboxList.Update(inboxlist.MessagesLoadedMsg{
		Messages: snap.Messages,
	})
	return cmd
}

// sendReplyCmd submits the draft through the view-model off the UI
// goroutine and reports the outcome.
func (m Model) sendReplyCmd(draft model.ReplyDraft) tea.Cmd {
	vm := m.vm
	return func() tea.Msg {
		return replySentMsg{err: vm.SendReply(context.Background(), draft)}
	}
}

// setNotice shows a transient status bar notice and schedules its expiry.
func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}
