// Package ai drafts reply suggestions for inbox messages via the Claude
// Messages API. The assistant keeps a short conversation history so the
// user can refine a draft over several instructions.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nhle/mail-dashboard/internal/model"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
	apiURL           = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
)

// StreamChunk represents a piece of the AI response being streamed back.
type StreamChunk struct {
	Text string
	Done bool
}

// Assistant talks to the Claude API and manages the refinement
// conversation for the reply currently being drafted.
type Assistant struct {
	apiKey    string
	context   *ConversationContext
	model     string
	maxTokens int
	client    *http.Client
}

// New creates a reply assistant with the given configuration.
func New(apiKey, modelName string, maxTokens int) *Assistant {
	if modelName == "" {
		modelName = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Assistant{
		apiKey:    apiKey,
		context:   NewConversationContext(),
		model:     modelName,
		maxTokens: maxTokens,
		client:    &http.Client{},
	}
}

// Configured reports whether an API key is present.
func (a *Assistant) Configured() bool {
	return a.apiKey != ""
}

// Reset clears the refinement history. Call it when the user switches to
// a different message.
func (a *Assistant) Reset() {
	a.context.Reset()
}

// SuggestReply asks for a reply draft to the given message, following the
// user's instructions ("accept the invite", "shorter", ...). It returns a
// channel that receives response chunks and closes when the draft is
// complete. Earlier instructions for the same message stay in context, so
// follow-ups refine the previous draft.
func (a *Assistant) SuggestReply(
	ctx context.Context,
	msg model.Message,
	instructions string,
) (<-chan StreamChunk, error) {
	if !a.Configured() {
		return nil, fmt.Errorf("no API key configured")
	}

	a.context.AddMessage(RoleUser, instructions)

	ch := make(chan StreamChunk, 16)

	go func() {
		defer close(ch)

		resp, err := a.callAPI(ctx, msg)
		if err != nil {
			ch <- StreamChunk{Text: fmt.Sprintf("Error: %v", err), Done: true}
			return
		}

		var parts []string
		for _, block := range resp.Content {
			if block.Type == "text" {
				parts = append(parts, block.Text)
			}
		}

		draft := strings.Join(parts, "")
		a.context.AddMessage(RoleAssistant, draft)
		ch <- StreamChunk{Text: draft, Done: true}
	}()

	return ch, nil
}

// callAPI makes a single request to the Claude Messages API.
func (a *Assistant) callAPI(ctx context.Context, msg model.Message) (*apiResponse, error) {
	reqBody := apiRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    buildSystemPrompt(msg),
		Messages:  a.buildAPIMessages(),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, apiURL, bytes.NewReader(bodyBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

// buildSystemPrompt grounds the assistant in the message being answered.
func buildSystemPrompt(msg model.Message) string {
	var sb strings.Builder

	sb.WriteString("You are drafting an email reply on behalf of the user. ")
	sb.WriteString("Write only the body of the reply, with no subject line, ")
	sb.WriteString("no headers, and no commentary around it.\n\n")

	sb.WriteString("Message being answered:\n")
	sb.WriteString(fmt.Sprintf("From: %s\n", msg.FromDisplay))
	sb.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	if msg.BodyPreview != "" {
		sb.WriteString(fmt.Sprintf("Excerpt: %s\n", msg.BodyPreview))
	}
	sb.WriteString("\n")

	sb.WriteString("Match the tone of the original message. Keep the reply ")
	sb.WriteString("concise. When the user asks for changes, revise your ")
	sb.WriteString("previous draft rather than starting over.")

	return sb.String()
}

// buildAPIMessages converts the refinement history into the Claude API
// message format.
func (a *Assistant) buildAPIMessages() []apiMessage {
	contextMsgs := a.context.GetMessages()
	messages := make([]apiMessage, 0, len(contextMsgs))

	for _, msg := range contextMsgs {
		messages = append(messages, apiMessage{
			Role: string(msg.Role),
			Content: []apiContentBlock{
				{Type: "text", Text: msg.Content},
			},
		})
	}

	return messages
}

// --- Claude API types ---

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string            `json:"role"`
	Content []apiContentBlock `json:"content"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Role       string            `json:"role"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
}

type apiErrorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
