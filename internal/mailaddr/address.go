// Package mailaddr implements the address heuristics used by the inbox
// dashboard. These are best-effort rules over free-text header values,
// not a validating parser: they do not verify RFC address syntax, do not
// handle multiple addresses in one field, and do not strip whitespace or
// quotes from bracket contents.
package mailaddr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoRecipient is returned by ResolveReplyTarget when neither the
// sender header nor the user-entered "to" field yields an address.
var ErrNoRecipient = errors.New("missing recipient address")

// recipientFallback labels a reply target whose sender header carries
// no display name.
const recipientFallback = "Recipient"

// bracketPattern matches the first angle-bracketed substring in a header,
// the canonical "Display Name <address>" form.
var bracketPattern = regexp.MustCompile(`<([^>]*)>`)

// ExtractAddress extracts an address from a raw header value.
// The first angle-bracketed substring wins when its contents are
// non-empty; otherwise the entire string counts as the address when it
// contains an "@". Bracket contents are taken verbatim, untrimmed.
// ok is false when no address can be extracted.
func ExtractAddress(header string) (address string, ok bool) {
	if header == "" {
		return "", false
	}
	if m := bracketPattern.FindStringSubmatch(header); m != nil && m[1] != "" {
		return m[1], true
	}
	if strings.Contains(header, "@") {
		return header, true
	}
	return "", false
}

// DisplayName extracts a display name from a raw header value: the text
// before the first "<", trimmed. ok is false when the result is empty;
// call sites apply their own fallback labels.
func DisplayName(header string) (name string, ok bool) {
	if idx := strings.Index(header, "<"); idx >= 0 {
		header = header[:idx]
	}
	name = strings.TrimSpace(header)
	return name, name != ""
}

// FormatAddress renders a display name and address as a single
// "Name <address>" header value.
func FormatAddress(name, address string) string {
	return fmt.Sprintf("%s <%s>", name, address)
}

// ResolveReplyTarget decides where a reply is actually sent. The address
// extracted from the original sender header takes priority; only when the
// sender yields none is the user-entered "to" field consulted. When
// neither yields an address it returns ErrNoRecipient. The target's
// display name comes from the sender header, defaulting to "Recipient".
func ResolveReplyTarget(senderHeader, userTo string) (string, error) {
	address, ok := ExtractAddress(senderHeader)
	if !ok {
		address, ok = ExtractAddress(userTo)
	}
	if !ok {
		return "", ErrNoRecipient
	}

	name, hasName := DisplayName(senderHeader)
	if !hasName {
		name = recipientFallback
	}
	return FormatAddress(name, address), nil
}
