// Package inbox holds the view-model for the mail dashboard: the message
// list, the current selection, the reply-panel mode, and the in-flight
// flags the UI renders. All mutation goes through its methods; consumers
// read state only through Snapshot.
package inbox

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nhle/mail-dashboard/internal/mailaddr"
	"github.com/nhle/mail-dashboard/internal/mailapi"
	"github.com/nhle/mail-dashboard/internal/model"
)

// PanelMode is the reply panel position below the message detail.
// Exactly one position is active at a time.
type PanelMode int

const (
	// PanelClosed hides the reply panel entirely.
	PanelClosed PanelMode = iota

	// PanelOptions shows the reply-mode chooser.
	PanelOptions

	// PanelReply shows the manual reply form.
	PanelReply

	// PanelAIReply shows the AI-assisted reply panel.
	PanelAIReply
)

var (
	// ErrFetchInFlight is returned when a fetch is requested while
	// another one is still running. The rejected call performs no work.
	ErrFetchInFlight = errors.New("inbox fetch already in flight")

	// ErrNoSelection is returned by operations that require a selected
	// message when none is selected.
	ErrNoSelection = errors.New("no message selected")

	// ErrUnknownMessage is returned when a message id is not in the
	// current listing.
	ErrUnknownMessage = errors.New("unknown message id")
)

// User-facing error texts. Fetch failures persist in the snapshot until
// the next successful fetch; send failures are transient notices.
const (
	authErrorText = "Your session has expired. Please log in again."
	loadErrorText = "Failed to load inbox. Please try again."
	sendErrorText = "Failed to send reply. Please try again."
)

// Client is the backend surface the view-model needs.
type Client interface {
	FetchInbox(ctx context.Context) ([]model.Message, error)
	SendReply(ctx context.Context, reply mailapi.OutgoingReply) (*mailapi.ReplyAck, error)
}

// ViewModel is the single state container behind the inbox UI. It is
// safe for concurrent use; the poller and the UI's command goroutines
// call into it freely.
type ViewModel struct {
	client Client

	mu            sync.Mutex
	messages      []model.Message
	selected      *model.Message
	loading       bool
	refreshing    bool
	sending       bool
	errorText     string
	panel         PanelMode
	fetchInFlight bool
}

// NewViewModel creates the inbox view-model. The client must be non-nil;
// a nil client is a wiring error and panics immediately rather than
// failing on first use.
func NewViewModel(client Client) *ViewModel {
	if client == nil {
		panic("inbox: nil backend client")
	}
	return &ViewModel{client: client}
}

// Snapshot is a consistent copy of the view-model state for rendering.
type Snapshot struct {
	Messages   []model.Message
	Selected   *model.Message
	Loading    bool
	Refreshing bool
	Sending    bool
	ErrorText  string
	Panel      PanelMode
}

// Busy reports whether any backend operation is running.
func (s Snapshot) Busy() bool {
	return s.Loading || s.Refreshing || s.Sending
}

// UnreadCount reports how many listed messages are still unread.
func (s Snapshot) UnreadCount() int {
	count := 0
	for _, msg := range s.Messages {
		if !msg.IsRead {
			count++
		}
	}
	return count
}

// Snapshot returns a copy of the current state taken under the lock.
func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	snap := Snapshot{
		Messages:   make([]model.Message, len(vm.messages)),
		Loading:    vm.loading,
		Refreshing: vm.refreshing,
		Sending:    vm.sending,
		ErrorText:  vm.errorText,
		Panel:      vm.panel,
	}
	copy(snap.Messages, vm.messages)
	if vm.selected != nil {
		selected := *vm.selected
		snap.Selected = &selected
	}
	return snap
}

// FetchInbox loads the inbox listing. On success it replaces the message
// list wholesale and clears the error text; on failure it records an
// error text (authentication failures get a distinct one). The loading
// and refreshing flags are always cleared on exit. At most one fetch
// runs at a time: concurrent calls return ErrFetchInFlight and do
// nothing.
func (vm *ViewModel) FetchInbox(ctx context.Context) error {
	return vm.fetch(ctx, false)
}

// Refresh marks the fetch as a refresh, then behaves like FetchInbox.
// The in-flight guard covers the whole operation.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	return vm.fetch(ctx, true)
}

func (vm *ViewModel) fetch(ctx context.Context, asRefresh bool) error {
	vm.mu.Lock()
	if vm.fetchInFlight {
		vm.mu.Unlock()
		return ErrFetchInFlight
	}
	vm.fetchInFlight = true
	vm.loading = true
	if asRefresh {
		vm.refreshing = true
	}
	vm.mu.Unlock()

	messages, err := vm.client.FetchInbox(ctx)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.fetchInFlight = false
	vm.loading = false
	vm.refreshing = false

	if err != nil {
		if mailapi.IsAuthError(err) {
			vm.errorText = authErrorText
		} else {
			vm.errorText = loadErrorText
		}
		return err
	}

	// Wholesale replacement: locally-set read flags do not survive a
	// refresh because the backend never reports read state.
	vm.messages = messages
	vm.errorText = ""
	return nil
}

// SelectMessage selects the message with the given id and optimistically
// marks it read in the local list. The read flag is purely local and is
// lost on the next refresh. Selecting an unknown id changes nothing.
func (vm *ViewModel) SelectMessage(id string) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for i := range vm.messages {
		if vm.messages[i].ID != id {
			continue
		}
		vm.messages[i].IsRead = true
		selected := vm.messages[i]
		vm.selected = &selected
		return nil
	}
	return ErrUnknownMessage
}

// CloseDetail clears the selection and forces the reply panel closed.
func (vm *ViewModel) CloseDetail() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.selected = nil
	vm.panel = PanelClosed
}

// OpenReplyOptions shows the reply-mode chooser for the selected message.
func (vm *ViewModel) OpenReplyOptions() error {
	return vm.setPanel(PanelOptions)
}

// OpenReply shows the manual reply form for the selected message.
func (vm *ViewModel) OpenReply() error {
	return vm.setPanel(PanelReply)
}

// OpenAIReply shows the AI-assisted reply panel for the selected message.
func (vm *ViewModel) OpenAIReply() error {
	return vm.setPanel(PanelAIReply)
}

// CloseReplyPanel closes the reply panel. Valid in any state.
func (vm *ViewModel) CloseReplyPanel() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.panel = PanelClosed
}

func (vm *ViewModel) setPanel(mode PanelMode) error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.selected == nil {
		return ErrNoSelection
	}
	vm.panel = mode
	return nil
}

// NewReplyDraft pre-fills a draft for the selected message: the sender's
// display label in To (the actual address is resolved at send time), a
// Re: subject, and an empty body.
func (vm *ViewModel) NewReplyDraft() (model.ReplyDraft, error) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	if vm.selected == nil {
		return model.ReplyDraft{}, ErrNoSelection
	}
	return model.ReplyDraft{
		To:      vm.selected.FromDisplay,
		Subject: replySubject(vm.selected.Subject),
	}, nil
}

// replySubject prefixes Re: exactly once.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

// SendReply resolves the reply target from the selected message's sender
// and the draft's To field, then posts the reply. Resolution runs before
// any network call; a resolution failure never touches the backend. On
// success the reply panel closes and a refresh is triggered; on failure
// the panel stays open so the draft is not lost. The sending flag is
// always cleared on exit.
func (vm *ViewModel) SendReply(ctx context.Context, draft model.ReplyDraft) error {
	vm.mu.Lock()
	if vm.selected == nil {
		vm.mu.Unlock()
		return ErrNoSelection
	}
	selected := *vm.selected
	vm.sending = true
	vm.mu.Unlock()

	err := vm.postReply(ctx, selected, draft)

	vm.mu.Lock()
	vm.sending = false
	if err == nil {
		vm.panel = PanelClosed
	}
	vm.mu.Unlock()

	if err != nil {
		return err
	}

	// The refresh outcome surfaces through the snapshot's error text,
	// not through the send result: the reply has already gone out.
	_ = vm.Refresh(ctx)
	return nil
}

func (vm *ViewModel) postReply(ctx context.Context, msg model.Message, draft model.ReplyDraft) error {
	target, err := mailaddr.ResolveReplyTarget(msg.From, draft.To)
	if err != nil {
		return err
	}

	_, err = vm.client.SendReply(ctx, mailapi.OutgoingReply{
		To:        target,
		Subject:   draft.Subject,
		Body:      draft.Body,
		MessageID: msg.ID,
		ThreadID:  msg.ThreadID,
	})
	return err
}

// SendFailureText renders a send error for the status line. A
// server-provided message passes through verbatim; resolution and
// authentication failures get their fixed texts.
func SendFailureText(err error) string {
	if errors.Is(err, mailaddr.ErrNoRecipient) {
		return "Missing recipient address"
	}
	if mailapi.IsAuthError(err) {
		return authErrorText
	}
	var apiErr *mailapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return sendErrorText
}
