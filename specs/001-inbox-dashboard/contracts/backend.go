// Package contracts defines the wire contract between the dashboard and
// its mail backend. The backend terminates the provider OAuth flow and
// exposes two JSON endpoints; the dashboard is a pure client.
//
// Base URL: configurable (backend.base_url)
// Auth: session cookie (backend.session_cookie, default "session")
package contracts

// Endpoints.
//
// GET {base}/api/email/inbox
//   Returns the inbox as a JSON array of RawMessage objects, newest
//   first. The dashboard preserves this order.
//
// POST {base}/api/gmail/reply
//   Body: OutgoingReply. Returns ReplyAck on success.
//
// Status codes:
//   - 200/2xx: success
//   - 401: session expired or invalid; surfaced as a distinct auth error
//   - 429: retried with Retry-After or exponential backoff
//   - other non-2xx: the error envelope's message field is surfaced to
//     the user verbatim when present
//
// Error envelope: {"message": "human-readable description"}

// RawMessage is a message exactly as the backend serves it. Every field
// may be empty; normalization fills display fallbacks client-side.
type RawMessage struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
	From      string `json:"from"` // raw header, e.g. `Jane <jane@x.com>`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Date      string `json:"date"` // RFC 3339 or a mail header date
	Snippet   string `json:"snippet"`
}

// OutgoingReply is the request body for the reply endpoint. The to
// field carries the resolved target as a single "Name <address>" value.
type OutgoingReply struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId,omitempty"`
}

// ReplyAck is the success response for the reply endpoint.
type ReplyAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}
