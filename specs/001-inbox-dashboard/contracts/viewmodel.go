// Package contracts (viewmodel) defines the behavior of the inbox
// view-model, the single owner of client-side inbox state. UI layers
// render from immutable snapshots and never mutate state directly.
package contracts

// Key operations:
//
// FetchInbox / Refresh:
//   Fetch the inbox from the backend and replace the message list
//   wholesale. FetchInbox raises the loading flag (blocking first
//   load), Refresh raises the refreshing flag (background update).
//   A single-flight guard rejects either call while any fetch is
//   already running; the rejected call never reaches the backend.
//   Success clears the error text. Failure keeps the previous list
//   and sets the error text: a distinct message for auth (401)
//   failures, a generic one otherwise.
//
// SelectMessage:
//   Marks the message read and stores a copy as the selection.
//   Read flags live only in this session; a refresh rebuilds the
//   list from backend data, so they reset.
//
// Panels:
//   closed -> options -> reply | ai-reply, any -> closed. Opening any
//   panel requires a selection. The three activity flags (loading,
//   refreshing, sending) are orthogonal to the panel mode.
//
// NewReplyDraft:
//   Prefills To with the sender's display name and Subject with
//   "Re: <subject>", without doubling an existing re: prefix
//   (case-insensitive).
//
// SendReply:
//   Resolves the recipient before any network call:
//     1. address extracted from the sender header, if any
//     2. else the user-entered To field
//     3. else fail with a missing-recipient error
//   The display name comes from the sender header, "Recipient" when
//   absent. The sending flag is raised for the duration and always
//   cleared. On success the panel closes and a refresh is triggered;
//   on failure the panel stays open so the draft is not lost.
//
// Address heuristics (no RFC 5322 parsing, no validation):
//   - first <...> pair with non-empty contents wins, kept verbatim
//     (no trimming of whitespace or quotes)
//   - otherwise, a string containing '@' is itself the address
//   - display name is the text before the first '<', trimmed
