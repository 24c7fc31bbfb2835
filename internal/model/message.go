package model

// Message is the display-ready representation of a single inbox entry.
// It is produced by normalizing a raw backend message once, at fetch time;
// the UI layers never re-derive any of these fields.
type Message struct {
	// ID uniquely identifies the message. Never empty: when the backend
	// omits its identifier a generated fallback is assigned.
	ID string `json:"id"`

	// ThreadID groups the message into a conversation for reply threading.
	// Empty when the backend supplied none.
	ThreadID string `json:"thread_id,omitempty"`

	// From is the raw sender header exactly as the backend sent it.
	// Reply-target resolution operates on this value at send time.
	From string `json:"from"`

	// FromDisplay is the sender label shown in the from column. Always
	// non-empty: a sender header without a display name yields the fixed
	// "Unknown Sender" label.
	FromDisplay string `json:"from_display"`

	// FromAddress is the address extracted from the sender header.
	// Empty when no address could be extracted.
	FromAddress string `json:"from_address,omitempty"`

	// ToDisplay is the recipient label, defaulted to a placeholder when
	// the backend omits the field.
	ToDisplay string `json:"to_display"`

	// Subject is the message subject, defaulted when absent.
	Subject string `json:"subject"`

	// BodyPreview is the short body excerpt supplied by the backend.
	BodyPreview string `json:"body_preview"`

	// DisplayDate and DisplayTime are pre-formatted from the backend date.
	// A malformed or missing date yields fixed fallbacks, never a
	// formatted zero value.
	DisplayDate string `json:"display_date"`
	DisplayTime string `json:"display_time"`

	// IsRead tracks whether the user has opened the message in this
	// session. The backend does not report read state, so the flag is
	// purely local and resets on every refresh.
	IsRead bool `json:"is_read"`
}

// ReplyDraft holds the user-editable fields of a reply before it is sent.
// To may contain a bare display label rather than an address; the reply
// target is resolved from the original sender at send time.
type ReplyDraft struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
