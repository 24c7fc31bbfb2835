// Package mailapi is the HTTP client for the mail dashboard backend.
// It fetches the raw inbox listing, normalizes it into display-ready
// messages, and posts outgoing replies.
package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gologme/log"

	"github.com/nhle/mail-dashboard/internal/model"
)

const (
	inboxPath = "/api/email/inbox"
	replyPath = "/api/gmail/reply"
)

// Client is a thin HTTP client for the dashboard backend. It attaches
// the session cookie to every request, handles JSON (de)serialization,
// and retries with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	cookieName string
	session    string
	httpClient *http.Client
	maxRetries int
	logger     *log.Logger
}

// NewClient creates a backend client. The baseURL is the root URL of the
// backend without a trailing slash. The session token is sent as a cookie
// named cookieName on every request; an empty token sends no cookie. A
// zero timeout disables the client-side request timeout.
func NewClient(baseURL, cookieName, session string, timeout time.Duration, logger *log.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cookieName: cookieName,
		session:    session,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		logger:     logger,
	}
}

// FetchInbox retrieves the inbox listing and normalizes every entry.
func (c *Client) FetchInbox(ctx context.Context) ([]model.Message, error) {
	var raw []RawMessage
	if err := c.do(ctx, http.MethodGet, inboxPath, nil, &raw); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(raw))
	for _, r := range raw {
		messages = append(messages, Normalize(r))
	}
	return messages, nil
}

// SendReply posts an outgoing reply. The reply's To field must already
// be resolved; this method performs no address logic.
func (c *Client) SendReply(ctx context.Context, reply OutgoingReply) (*ReplyAck, error) {
	var ack ReplyAck
	if err := c.do(ctx, http.MethodPost, replyPath, reply, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// do is the core HTTP method that builds the request, attaches the
// session cookie, handles rate limiting with exponential backoff, and
// maps error responses onto the client's error types.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.session != "" {
			req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.session})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}
		c.logger.Debugf("%s %s -> %d", method, path, resp.StatusCode)

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", method, path)
			c.logger.Warnf("rate limited on %s %s, retrying in %s", method, path, waitDuration)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return &AuthError{
				Endpoint: path,
				Message:  "session expired or invalid",
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode}
			var errBody errorResponse
			if json.Unmarshal(respBody, &errBody) == nil {
				apiErr.Message = errBody.Message
			}
			return apiErr
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
