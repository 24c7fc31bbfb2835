package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-dashboard/internal/mailaddr"
	"github.com/nhle/mail-dashboard/internal/mailapi"
	"github.com/nhle/mail-dashboard/internal/model"
)

// fakeClient implements Client with swappable behavior and call counters.
type fakeClient struct {
	mu         sync.Mutex
	fetchCalls int
	sendCalls  int
	lastReply  mailapi.OutgoingReply
	fetchFn    func(ctx context.Context) ([]model.Message, error)
	sendFn     func(ctx context.Context, reply mailapi.OutgoingReply) (*mailapi.ReplyAck, error)
}

func (f *fakeClient) FetchInbox(ctx context.Context) ([]model.Message, error) {
	f.mu.Lock()
	f.fetchCalls++
	fn := f.fetchFn
	f.mu.Unlock()

	if fn == nil {
		return testMessages(), nil
	}
	return fn(ctx)
}

func (f *fakeClient) SendReply(ctx context.Context, reply mailapi.OutgoingReply) (*mailapi.ReplyAck, error) {
	f.mu.Lock()
	f.sendCalls++
	f.lastReply = reply
	fn := f.sendFn
	f.mu.Unlock()

	if fn == nil {
		return &mailapi.ReplyAck{Success: true}, nil
	}
	return fn(ctx, reply)
}

func (f *fakeClient) counts() (fetches, sends int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls, f.sendCalls
}

// testMessages builds a fresh, unread listing on every call, the way a
// backend that never reports read state would.
func testMessages() []model.Message {
	return []model.Message{
		{
			ID:          "m1",
			ThreadID:    "t1",
			From:        "Jane <jane@x.com>",
			FromDisplay: "Jane",
			FromAddress: "jane@x.com",
			ToDisplay:   "me",
			Subject:     "Hello",
			BodyPreview: "Hi there",
		},
		{
			ID:          "m2",
			From:        "Mailer Daemon",
			FromDisplay: "Mailer Daemon",
			ToDisplay:   "me",
			Subject:     "re: Ping",
		},
	}
}

func TestNewViewModelNilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewViewModel(nil) })
}

func TestFetchInboxSuccessReplacesListAndClearsError(t *testing.T) {
	fake := &fakeClient{}
	fake.fetchFn = func(context.Context) ([]model.Message, error) {
		return nil, errors.New("boom")
	}
	vm := NewViewModel(fake)

	require.Error(t, vm.FetchInbox(context.Background()))
	require.NotEmpty(t, vm.Snapshot().ErrorText)

	fake.mu.Lock()
	fake.fetchFn = nil
	fake.mu.Unlock()

	require.NoError(t, vm.FetchInbox(context.Background()))

	snap := vm.Snapshot()
	assert.Len(t, snap.Messages, 2)
	assert.Empty(t, snap.ErrorText)
	assert.False(t, snap.Loading)
	assert.False(t, snap.Refreshing)
	assert.Equal(t, 2, snap.UnreadCount())
}

func TestFetchInboxAuthErrorIsDistinct(t *testing.T) {
	fake := &fakeClient{}
	fake.fetchFn = func(context.Context) ([]model.Message, error) {
		return nil, &mailapi.AuthError{Endpoint: "/api/email/inbox", Message: "expired"}
	}
	vm := NewViewModel(fake)

	err := vm.FetchInbox(context.Background())
	require.Error(t, err)
	assert.True(t, mailapi.IsAuthError(err))

	snap := vm.Snapshot()
	assert.Contains(t, snap.ErrorText, "log in again")
	assert.NotEqual(t, loadErrorText, snap.ErrorText)
}

func TestFetchInboxFailureKeepsPreviousList(t *testing.T) {
	fake := &fakeClient{}
	vm := NewViewModel(fake)
	require.NoError(t, vm.FetchInbox(context.Background()))

	fake.mu.Lock()
	fake.fetchFn = func(context.Context) ([]model.Message, error) {
		return nil, errors.New("network down")
	}
	fake.mu.Unlock()

	require.Error(t, vm.FetchInbox(context.Background()))

	snap := vm.Snapshot()
	assert.Len(t, snap.Messages, 2, "stale listing survives a failed fetch")
	assert.Equal(t, loadErrorText, snap.ErrorText)
	assert.False(t, snap.Loading)
}

func TestFetchInboxSingleFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fake := &fakeClient{}
	fake.fetchFn = func(context.Context) ([]model.Message, error) {
		close(started)
		<-release
		return testMessages(), nil
	}
	vm := NewViewModel(fake)

	done := make(chan error, 1)
	go func() { done <- vm.FetchInbox(context.Background()) }()
	<-started

	assert.ErrorIs(t, vm.FetchInbox(context.Background()), ErrFetchInFlight)
	assert.ErrorIs(t, vm.Refresh(context.Background()), ErrFetchInFlight)

	close(release)
	require.NoError(t, <-done)

	fetches, _ := fake.counts()
	assert.Equal(t, 1, fetches, "rejected fetches must not reach the backend")

	// The guard releases once the first fetch finishes.
	fake.mu.Lock()
	fake.fetchFn = nil
	fake.mu.Unlock()
	assert.NoError(t, vm.FetchInbox(context.Background()))
}

func TestRefreshSetsRefreshingFlag(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	fake := &fakeClient{}
	fake.fetchFn = func(context.Context) ([]model.Message, error) {
		close(started)
		<-release
		return testMessages(), nil
	}
	vm := NewViewModel(fake)

	done := make(chan error, 1)
	go func() { done <- vm.Refresh(context.Background()) }()
	<-started

	snap := vm.Snapshot()
	assert.True(t, snap.Loading)
	assert.True(t, snap.Refreshing)
	assert.True(t, snap.Busy())

	close(release)
	require.NoError(t, <-done)

	snap = vm.Snapshot()
	assert.False(t, snap.Loading)
	assert.False(t, snap.Refreshing)
}

func TestSelectMessageMarksReadLocally(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	require.NoError(t, vm.SelectMessage("m1"))

	snap := vm.Snapshot()
	require.NotNil(t, snap.Selected)
	assert.Equal(t, "m1", snap.Selected.ID)
	assert.True(t, snap.Selected.IsRead)
	assert.True(t, snap.Messages[0].IsRead)
	assert.False(t, snap.Messages[1].IsRead)
	assert.Equal(t, 1, snap.UnreadCount())
}

func TestSelectMessageUnknownID(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	assert.ErrorIs(t, vm.SelectMessage("nope"), ErrUnknownMessage)
	assert.Nil(t, vm.Snapshot().Selected)
}

func TestReadFlagResetsOnRefresh(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))
	require.NoError(t, vm.SelectMessage("m1"))
	require.True(t, vm.Snapshot().Messages[0].IsRead)

	// The backend never reports read state, so a refresh resets the
	// locally-set flag. Pinned deliberately.
	require.NoError(t, vm.Refresh(context.Background()))
	assert.False(t, vm.Snapshot().Messages[0].IsRead)
	assert.Equal(t, 2, vm.Snapshot().UnreadCount())
}

func TestPanelTransitionsRequireSelection(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	assert.ErrorIs(t, vm.OpenReplyOptions(), ErrNoSelection)
	assert.ErrorIs(t, vm.OpenReply(), ErrNoSelection)
	assert.ErrorIs(t, vm.OpenAIReply(), ErrNoSelection)
	assert.Equal(t, PanelClosed, vm.Snapshot().Panel)

	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReplyOptions())
	assert.Equal(t, PanelOptions, vm.Snapshot().Panel)
	require.NoError(t, vm.OpenReply())
	assert.Equal(t, PanelReply, vm.Snapshot().Panel)
	require.NoError(t, vm.OpenAIReply())
	assert.Equal(t, PanelAIReply, vm.Snapshot().Panel)

	vm.CloseReplyPanel()
	assert.Equal(t, PanelClosed, vm.Snapshot().Panel)
}

func TestCloseDetailClearsSelectionAndPanel(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))
	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReply())

	vm.CloseDetail()

	snap := vm.Snapshot()
	assert.Nil(t, snap.Selected)
	assert.Equal(t, PanelClosed, snap.Panel)
}

func TestNewReplyDraftPrefill(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	_, err := vm.NewReplyDraft()
	assert.ErrorIs(t, err, ErrNoSelection)

	require.NoError(t, vm.SelectMessage("m1"))
	draft, err := vm.NewReplyDraft()
	require.NoError(t, err)
	assert.Equal(t, "Jane", draft.To, "prefill carries the display label only")
	assert.Equal(t, "Re: Hello", draft.Subject)
	assert.Empty(t, draft.Body)

	// An existing Re: prefix is not doubled, regardless of case.
	require.NoError(t, vm.SelectMessage("m2"))
	draft, err = vm.NewReplyDraft()
	require.NoError(t, err)
	assert.Equal(t, "re: Ping", draft.Subject)
}

func TestSendReplyResolutionFailureSkipsNetwork(t *testing.T) {
	fake := &fakeClient{}
	vm := NewViewModel(fake)
	require.NoError(t, vm.FetchInbox(context.Background()))
	require.NoError(t, vm.SelectMessage("m2"))
	require.NoError(t, vm.OpenReply())

	err := vm.SendReply(context.Background(), model.ReplyDraft{To: "Mailer Daemon"})
	assert.ErrorIs(t, err, mailaddr.ErrNoRecipient)

	fetches, sends := fake.counts()
	assert.Equal(t, 0, sends, "resolution failures never reach the backend")
	assert.Equal(t, 1, fetches, "no refresh after a failed send")

	snap := vm.Snapshot()
	assert.Equal(t, PanelReply, snap.Panel, "panel stays open so the draft survives")
	assert.False(t, snap.Sending)
}

func TestSendReplySuccess(t *testing.T) {
	fake := &fakeClient{}
	vm := NewViewModel(fake)
	require.NoError(t, vm.FetchInbox(context.Background()))
	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReply())

	draft := model.ReplyDraft{To: "someone@else.com", Subject: "Re: Hello", Body: "Thanks!"}
	require.NoError(t, vm.SendReply(context.Background(), draft))

	fake.mu.Lock()
	sent := fake.lastReply
	fake.mu.Unlock()
	assert.Equal(t, "Jane <jane@x.com>", sent.To, "sender address wins over the user's To field")
	assert.Equal(t, "Re: Hello", sent.Subject)
	assert.Equal(t, "Thanks!", sent.Body)
	assert.Equal(t, "m1", sent.MessageID)
	assert.Equal(t, "t1", sent.ThreadID)

	fetches, sends := fake.counts()
	assert.Equal(t, 1, sends)
	assert.Equal(t, 2, fetches, "a successful send triggers a refresh")

	snap := vm.Snapshot()
	assert.Equal(t, PanelClosed, snap.Panel)
	assert.False(t, snap.Sending)
}

func TestSendReplyTransportFailure(t *testing.T) {
	fake := &fakeClient{}
	fake.sendFn = func(context.Context, mailapi.OutgoingReply) (*mailapi.ReplyAck, error) {
		return nil, &mailapi.APIError{StatusCode: 400, Message: "quota exceeded"}
	}
	vm := NewViewModel(fake)
	require.NoError(t, vm.FetchInbox(context.Background()))
	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReply())

	err := vm.SendReply(context.Background(), model.ReplyDraft{To: "x"})
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", SendFailureText(err))

	fetches, _ := fake.counts()
	assert.Equal(t, 1, fetches, "no refresh after a failed send")

	snap := vm.Snapshot()
	assert.Equal(t, PanelReply, snap.Panel)
	assert.False(t, snap.Sending)
}

func TestSendReplyWithoutSelection(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	err := vm.SendReply(context.Background(), model.ReplyDraft{To: "bob@y.com"})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSendFailureText(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"missing recipient", mailaddr.ErrNoRecipient, "Missing recipient address"},
		{"auth error", &mailapi.AuthError{Endpoint: "/api/gmail/reply"}, authErrorText},
		{"server message verbatim", &mailapi.APIError{StatusCode: 400, Message: "mailbox full"}, "mailbox full"},
		{"server error without message", &mailapi.APIError{StatusCode: 500}, sendErrorText},
		{"plain error", errors.New("dial tcp: refused"), sendErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SendFailureText(tt.err))
		})
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	vm := NewViewModel(&fakeClient{})
	require.NoError(t, vm.FetchInbox(context.Background()))

	snap := vm.Snapshot()
	snap.Messages[0].IsRead = true
	snap.Messages[0].Subject = "tampered"

	fresh := vm.Snapshot()
	assert.False(t, fresh.Messages[0].IsRead)
	assert.Equal(t, "Hello", fresh.Messages[0].Subject)
}
