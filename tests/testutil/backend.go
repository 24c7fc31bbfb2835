// Package testutil provides shared test helpers, chiefly a fake mail
// dashboard backend serving the inbox and reply endpoints in memory.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gologme/log"

	"github.com/nhle/mail-dashboard/internal/mailapi"
)

// SessionToken is the session cookie value the fake backend accepts.
const SessionToken = "test-session-token"

// Backend is an in-memory stand-in for the dashboard backend. It serves
// GET /api/email/inbox and POST /api/gmail/reply, records every reply it
// receives, and can be flipped into failure modes per endpoint.
type Backend struct {
	Server *httptest.Server

	mu          sync.Mutex
	messages    []mailapi.RawMessage
	replies     []mailapi.OutgoingReply
	inboxCalls  int
	inboxStatus int
	replyStatus int
	errMessage  string
}

// NewBackend starts a fake backend serving the given raw messages.
// The server shuts down automatically when the test finishes.
func NewBackend(t *testing.T, messages ...mailapi.RawMessage) *Backend {
	t.Helper()

	b := &Backend{messages: messages}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/email/inbox", b.handleInbox)
	mux.HandleFunc("/api/gmail/reply", b.handleReply)

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// Client returns a backend client wired to this fake server with the
// standard test session token.
func (b *Backend) Client() *mailapi.Client {
	return mailapi.NewClient(
		b.Server.URL, "session", SessionToken,
		5*time.Second, log.New(io.Discard, "", 0),
	)
}

// SetMessages replaces the served inbox listing.
func (b *Backend) SetMessages(messages ...mailapi.RawMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = messages
}

// FailInbox makes the inbox endpoint return the given status, with an
// optional JSON error message. A zero status restores normal service.
func (b *Backend) FailInbox(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inboxStatus = status
	b.errMessage = message
}

// FailReply makes the reply endpoint return the given status, with an
// optional JSON error message. A zero status restores normal service.
func (b *Backend) FailReply(status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replyStatus = status
	b.errMessage = message
}

// Replies returns a copy of every reply received so far.
func (b *Backend) Replies() []mailapi.OutgoingReply {
	b.mu.Lock()
	defer b.mu.Unlock()
	replies := make([]mailapi.OutgoingReply, len(b.replies))
	copy(replies, b.replies)
	return replies
}

// InboxCalls reports how many times the inbox endpoint was hit.
func (b *Backend) InboxCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inboxCalls
}

func (b *Backend) handleInbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	b.mu.Lock()
	b.inboxCalls++
	status := b.inboxStatus
	message := b.errMessage
	messages := make([]mailapi.RawMessage, len(b.messages))
	copy(messages, b.messages)
	b.mu.Unlock()

	if status != 0 {
		writeError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(messages)
}

func (b *Backend) handleReply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var reply mailapi.OutgoingReply
	if err := json.NewDecoder(r.Body).Decode(&reply); err != nil {
		writeError(w, http.StatusBadRequest, "malformed reply body")
		return
	}

	b.mu.Lock()
	status := b.replyStatus
	message := b.errMessage
	if status == 0 {
		b.replies = append(b.replies, reply)
	}
	b.mu.Unlock()

	if status != 0 {
		writeError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(mailapi.ReplyAck{Success: true, MessageID: "sent-1"})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message != "" {
		_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
	}
}
