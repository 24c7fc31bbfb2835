package inbox_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail-dashboard/internal/inbox"
	"github.com/nhle/mail-dashboard/internal/mailapi"
	"github.com/nhle/mail-dashboard/tests/testutil"
)

// These tests run the view-model against the real HTTP client and a fake
// backend, covering the whole fetch/select/reply path end to end.

func rawInbox() []mailapi.RawMessage {
	return []mailapi.RawMessage{
		{
			MessageID: "m1",
			ThreadID:  "t1",
			From:      "Jane Doe <jane@x.com>",
			To:        "bob@y.com",
			Subject:   "Hello",
			Date:      "2026-03-14T09:30:00Z",
			Snippet:   "Hi Bob, quick question",
		},
		{
			MessageID: "m2",
			From:      "<noreply@system>",
			Subject:   "",
			Date:      "not-a-date",
		},
	}
}

func TestFullReplyFlow(t *testing.T) {
	backend := testutil.NewBackend(t, rawInbox()...)
	vm := inbox.NewViewModel(backend.Client())
	ctx := context.Background()

	require.NoError(t, vm.FetchInbox(ctx))

	snap := vm.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "Jane Doe", snap.Messages[0].FromDisplay)
	assert.Equal(t, "Unknown Sender", snap.Messages[1].FromDisplay)
	assert.Equal(t, "(no subject)", snap.Messages[1].Subject)
	assert.Equal(t, "Unknown date", snap.Messages[1].DisplayDate)

	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReplyOptions())
	require.NoError(t, vm.OpenReply())

	draft, err := vm.NewReplyDraft()
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", draft.To)
	assert.Equal(t, "Re: Hello", draft.Subject)

	draft.Body = "On my way."
	require.NoError(t, vm.SendReply(ctx, draft))

	replies := backend.Replies()
	require.Len(t, replies, 1)
	assert.Equal(t, "Jane Doe <jane@x.com>", replies[0].To)
	assert.Equal(t, "Re: Hello", replies[0].Subject)
	assert.Equal(t, "On my way.", replies[0].Body)
	assert.Equal(t, "m1", replies[0].MessageID)
	assert.Equal(t, "t1", replies[0].ThreadID)

	assert.Equal(t, 2, backend.InboxCalls(), "a successful send refreshes the listing")
	assert.Equal(t, inbox.PanelClosed, vm.Snapshot().Panel)
}

func TestExpiredSessionSurfacesAuthText(t *testing.T) {
	backend := testutil.NewBackend(t, rawInbox()...)
	vm := inbox.NewViewModel(backend.Client())
	ctx := context.Background()

	require.NoError(t, vm.FetchInbox(ctx))

	backend.FailInbox(http.StatusUnauthorized, "")
	err := vm.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, mailapi.IsAuthError(err))

	snap := vm.Snapshot()
	assert.Contains(t, snap.ErrorText, "log in again")
	assert.Len(t, snap.Messages, 2, "stale listing stays visible behind the error")

	backend.FailInbox(0, "")
	require.NoError(t, vm.Refresh(ctx))
	assert.Empty(t, vm.Snapshot().ErrorText)
}

func TestRejectedReplyKeepsDraftOpen(t *testing.T) {
	backend := testutil.NewBackend(t, rawInbox()...)
	vm := inbox.NewViewModel(backend.Client())
	ctx := context.Background()

	require.NoError(t, vm.FetchInbox(ctx))
	require.NoError(t, vm.SelectMessage("m1"))
	require.NoError(t, vm.OpenReply())

	backend.FailReply(http.StatusUnprocessableEntity, "recipient domain is blocked")

	draft, err := vm.NewReplyDraft()
	require.NoError(t, err)
	err = vm.SendReply(ctx, draft)
	require.Error(t, err)
	assert.Equal(t, "recipient domain is blocked", inbox.SendFailureText(err))

	assert.Empty(t, backend.Replies())
	assert.Equal(t, inbox.PanelReply, vm.Snapshot().Panel)
}
