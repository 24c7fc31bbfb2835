package mailapi

// RawMessage is a single inbox entry from GET /api/email/inbox, exactly
// as the backend returns it. All fields are opaque strings; from and to
// are free-text header values of the form "Display Name <address>" or a
// bare address.
type RawMessage struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Snippet   string `json:"snippet"`
}

// OutgoingReply is the request body for POST /api/gmail/reply. To must
// be a fully resolved "Name <address>" header value.
type OutgoingReply struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId,omitempty"`
}

// ReplyAck acknowledges an accepted reply.
type ReplyAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// errorResponse is the optional JSON body the backend attaches to
// non-2xx responses.
type errorResponse struct {
	Message string `json:"message"`
}
