package orchestrator

import (
	"strings"
	"unicode"
)

// EchoFilter drops transcript fragments that are the agent hearing its own
// voice on the caller's line. While the agent is speaking, a fragment whose
// normalized text is contained in the current reply text (or vice versa) is
// treated as echo and discarded.
type EchoFilter struct{}

// normalizeEcho lowercases, strips punctuation, and collapses whitespace so
// comparison survives recognition artifacts.
func normalizeEcho(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// IsEcho reports whether fragment should be dropped as self-echo given the
// reply text spoken so far. Never drops when the agent is not speaking.
func (EchoFilter) IsEcho(fragment, baseline string, speaking bool) bool {
	if !speaking {
		return false
	}
	f := normalizeEcho(fragment)
	b := normalizeEcho(baseline)
	if f == "" || b == "" {
		return false
	}
	return strings.Contains(b, f) || strings.Contains(f, b)
}
