package orchestrator

import "sync"

// Conversation is the mutex-guarded message history for one call. Messages
// are append-only; trimming happens on read so the full transcript survives
// for persistence.
type Conversation struct {
	mu       sync.RWMutex
	messages []Message
}

func NewConversation(systemPrompt string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return c
}

func (c *Conversation) Append(role, content string) {
	if content == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, Message{Role: role, Content: content})
}

// AmendSystem replaces the system message, or installs one if absent.
func (c *Conversation) AmendSystem(content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.messages {
		if c.messages[i].Role == RoleSystem {
			c.messages[i].Content = content
			return
		}
	}
	c.messages = append([]Message{{Role: RoleSystem, Content: content}}, c.messages...)
}

// Context returns the system message plus the most recent max non-system
// messages, as a copy. max <= 0 means no trimming.
func (c *Conversation) Context(max int) []Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var system []Message
	var rest []Message
	for _, m := range c.messages {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}
	if max > 0 && len(rest) > max {
		rest = rest[len(rest)-max:]
	}
	out := make([]Message, 0, len(system)+len(rest))
	out = append(out, system...)
	out = append(out, rest...)
	return out
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

// LastAssistant returns the most recent assistant message, or "".
func (c *Conversation) LastAssistant() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleAssistant {
			return c.messages[i].Content
		}
	}
	return ""
}
