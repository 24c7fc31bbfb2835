package inboxlist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// senderColumnWidth fixes the sender column so subjects line up.
const senderColumnWidth = 22

// MessageItem wraps a model.Message so it can be used in a bubbles/list.
type MessageItem struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i MessageItem) FilterValue() string {
	return i.Message.FromDisplay + " " + i.Message.Subject
}

// Title returns the message subject for the list.
func (i MessageItem) Title() string { return i.Message.Subject }

// Description returns a short summary line for the list.
func (i MessageItem) Description() string {
	parts := []string{
		i.Message.FromDisplay,
		i.Message.DisplayDate,
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering message rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	mi, ok := item.(MessageItem)
	if !ok {
		return
	}

	msg := mi.Message
	isSelected := index == m.Index()

	// Unread marker
	marker := " "
	rowStyle := theme.ReadStyle
	if !msg.IsRead {
		marker = theme.UnreadStyle.Render("●")
		rowStyle = theme.UnreadStyle
	}

	sender := rowStyle.Render(padRight(truncate(msg.FromDisplay, senderColumnWidth), senderColumnWidth))
	subject := rowStyle.Render(msg.Subject)

	dateStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(msg.DisplayDate)

	line := fmt.Sprintf("%s %s %s  %s", marker, sender, subject, dateStr)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to max runes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// padRight pads s with spaces up to width runes.
func padRight(s string, width int) string {
	if n := width - len([]rune(s)); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
