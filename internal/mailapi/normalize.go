package mailapi

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mail-dashboard/internal/mailaddr"
	"github.com/nhle/mail-dashboard/internal/model"
)

// Fixed labels applied during normalization. The UI renders these
// verbatim; it never re-derives them.
const (
	unknownSenderLabel = "Unknown Sender"
	defaultToLabel     = "me"
	defaultSubject     = "(no subject)"
	fallbackDate       = "Unknown date"
)

// dateLayouts are tried in order when parsing backend dates. Backends
// serve either JSON timestamps or raw mail header dates, so both shapes
// are covered.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	"2 Jan 2006 15:04:05 -0700",
}

// Normalize converts a raw backend message into its display-ready form.
// Every defaulting rule lives here: fallback ID, sender label, recipient
// placeholder, subject placeholder, and the date fallbacks.
func Normalize(raw RawMessage) model.Message {
	msg := model.Message{
		ID:          raw.MessageID,
		ThreadID:    raw.ThreadID,
		From:        raw.From,
		ToDisplay:   raw.To,
		Subject:     raw.Subject,
		BodyPreview: raw.Snippet,
		DisplayDate: fallbackDate,
	}

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}

	if name, ok := mailaddr.DisplayName(raw.From); ok {
		msg.FromDisplay = name
	} else {
		msg.FromDisplay = unknownSenderLabel
	}
	if address, ok := mailaddr.ExtractAddress(raw.From); ok {
		msg.FromAddress = address
	}

	if msg.ToDisplay == "" {
		msg.ToDisplay = defaultToLabel
	}
	if msg.Subject == "" {
		msg.Subject = defaultSubject
	}

	if ts, ok := parseDate(raw.Date); ok {
		msg.DisplayDate = ts.Format("Jan 2, 2006")
		msg.DisplayTime = ts.Format("3:04 PM")
	}

	return msg
}

// parseDate attempts each known date layout in order. ok is false when
// none match; callers keep the fixed fallbacks rather than formatting a
// zero time.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
