package orchestrator

import "strings"

// SentenceChunker slices a streamed reply into speakable fragments at
// sentence boundaries, so synthesis can start before generation finishes.
// The concatenation of all emitted fragments equals the full reply text.
type SentenceChunker struct {
	buf  strings.Builder
	emit func(fragment string) error
}

func NewSentenceChunker(emit func(fragment string) error) *SentenceChunker {
	return &SentenceChunker{emit: emit}
}

func isTerminator(b byte) bool {
	switch b {
	case '.', '!', '?', ':':
		return true
	}
	return false
}

// Write appends one generation token. When the buffer contains a sentence
// terminator followed by whitespace (or a newline), everything through the
// last such boundary is emitted as a fragment, whitespace included.
func (c *SentenceChunker) Write(token string) error {
	c.buf.WriteString(token)
	s := c.buf.String()

	cut := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			cut = i
			continue
		}
		if isTerminator(s[i]) && i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '\n' || s[i+1] == '\t') {
			cut = i + 1
		}
	}
	if cut < 0 {
		return nil
	}

	fragment := s[:cut+1]
	rest := s[cut+1:]
	c.buf.Reset()
	c.buf.WriteString(rest)

	if strings.TrimSpace(fragment) == "" {
		return nil
	}
	return c.emit(fragment)
}

// Flush emits whatever remains in the buffer as the final fragment.
func (c *SentenceChunker) Flush() error {
	s := c.buf.String()
	c.buf.Reset()
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return c.emit(s)
}
