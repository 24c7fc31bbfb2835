// Package contracts (ai) defines the AI reply assistant interface.
// The assistant drafts reply bodies; it never sends mail itself. The
// user reviews every draft before it goes anywhere.
//
// Provider: Anthropic Messages API (direct HTTP)
// Model: configurable (ai.model)
package contracts

// Key operations:
//
// SuggestReply:
//   Send the message being replied to plus the user's instructions.
//   The system prompt carries the sender, subject, and body excerpt;
//   the instructions become the user turn. Returns a channel of text
//   chunks; the Bubble Tea model receives these via tea.Cmd.
//
// Revisions:
//   Follow-up instructions reuse the same conversation, so the
//   assistant revises its previous draft instead of starting over.
//   The conversation resets when the panel opens for a new message.
//
// System prompt template:
//   "You draft email replies. Reply with the body text only: no
//    subject line, no commentary, no surrounding quotes.
//    Message being replied to:
//    From: {from}
//    Subject: {subject}
//    Excerpt: {snippet}
//    When given follow-up instructions, revise your previous draft
//    rather than writing an unrelated one."
//
// Conversation context:
//   Maintained in-memory as a list of {role, content} messages.
//   Max context: last 20 messages; the first turn is always kept and
//   the middle is trimmed.
//
// Error handling:
//   - API key missing: panel shows a configuration prompt
//   - API/network error: surfaced in the draft area; the app keeps
//     working without AI
//
// Configuration:
//   - api_key: ANTHROPIC_API_KEY or system keychain (claude-api-key)
//   - model: configurable (default: claude-sonnet-4-20250514)
//   - max_tokens: configurable (default: 1024)
