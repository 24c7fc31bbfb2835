package mailapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFullMessage(t *testing.T) {
	raw := RawMessage{
		MessageID: "m-123",
		ThreadID:  "t-9",
		From:      "Jane Doe <jane@x.com>",
		To:        "bob@y.com",
		Subject:   "Quarterly numbers",
		Date:      "2026-03-14T09:30:00Z",
		Snippet:   "Here are the figures you asked for",
	}

	msg := Normalize(raw)

	assert.Equal(t, "m-123", msg.ID)
	assert.Equal(t, "t-9", msg.ThreadID)
	assert.Equal(t, "Jane Doe <jane@x.com>", msg.From)
	assert.Equal(t, "Jane Doe", msg.FromDisplay)
	assert.Equal(t, "jane@x.com", msg.FromAddress)
	assert.Equal(t, "bob@y.com", msg.ToDisplay)
	assert.Equal(t, "Quarterly numbers", msg.Subject)
	assert.Equal(t, "Here are the figures you asked for", msg.BodyPreview)
	assert.Equal(t, "Mar 14, 2026", msg.DisplayDate)
	assert.Equal(t, "9:30 AM", msg.DisplayTime)
	assert.False(t, msg.IsRead)
}

func TestNormalizeDefaults(t *testing.T) {
	msg := Normalize(RawMessage{})

	assert.NotEmpty(t, msg.ID, "missing backend IDs get a generated fallback")
	assert.Empty(t, msg.ThreadID)
	assert.Equal(t, "Unknown Sender", msg.FromDisplay)
	assert.Empty(t, msg.FromAddress)
	assert.Equal(t, "me", msg.ToDisplay)
	assert.Equal(t, "(no subject)", msg.Subject)
	assert.Empty(t, msg.BodyPreview)
	assert.Equal(t, "Unknown date", msg.DisplayDate)
	assert.Empty(t, msg.DisplayTime)
	assert.False(t, msg.IsRead)
}

func TestNormalizeGeneratedIDsAreUnique(t *testing.T) {
	first := Normalize(RawMessage{})
	second := Normalize(RawMessage{})
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNormalizeSenderFields(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		wantDisplay string
		wantAddress string
	}{
		{"name and address", "Jane Doe <jane@x.com>", "Jane Doe", "jane@x.com"},
		{"address only in brackets", "<jane@x.com>", "Unknown Sender", "jane@x.com"},
		{"bare address", "jane@x.com", "jane@x.com", "jane@x.com"},
		{"name without address", "Mailer Daemon", "Mailer Daemon", ""},
		{"empty header", "", "Unknown Sender", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Normalize(RawMessage{From: tt.from})
			assert.Equal(t, tt.wantDisplay, msg.FromDisplay)
			assert.Equal(t, tt.wantAddress, msg.FromAddress)
		})
	}
}

func TestNormalizeDateLayouts(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		wantDate string
		wantTime string
	}{
		{"rfc3339", "2026-03-14T09:30:00Z", "Mar 14, 2026", "9:30 AM"},
		{"rfc1123z", "Sat, 14 Mar 2026 18:05:00 +0000", "Mar 14, 2026", "6:05 PM"},
		{"mail header with zone name", "Sat, 14 Mar 2026 09:30:00 +0000 (UTC)", "Mar 14, 2026", "9:30 AM"},
		{"day without weekday", "14 Mar 2026 09:30:00 +0000", "Mar 14, 2026", "9:30 AM"},
		{"malformed", "yesterday-ish", "Unknown date", ""},
		{"empty", "", "Unknown date", ""},
		{"whitespace only", "   ", "Unknown date", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Normalize(RawMessage{Date: tt.date})
			assert.Equal(t, tt.wantDate, msg.DisplayDate)
			assert.Equal(t, tt.wantTime, msg.DisplayTime)
		})
	}
}
