package orchestrator

import (
	"strings"
	"sync"
)

// InterruptionController decides when caller speech should cut off the
// agent's playback. Only one interruption fires per playback window; the
// flag rearms when the window closes (utterance finalized or reply done).
type InterruptionController struct {
	mu          sync.Mutex
	minWords    int
	minChars    int
	interrupted bool
}

func NewInterruptionController(minWords, minChars int) *InterruptionController {
	return &InterruptionController{minWords: minWords, minChars: minChars}
}

// substantial filters out recognition blips ("uh", a cough transcribed as a
// word) so they do not cut off playback.
func (ic *InterruptionController) substantial(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	if len(t) > ic.minChars {
		return true
	}
	return len(strings.Fields(t)) >= ic.minWords
}

// ShouldInterrupt reports whether this fragment, partial or final, triggers
// an interruption. Returns true at most once per playback window.
func (ic *InterruptionController) ShouldInterrupt(text string, speaking bool) bool {
	if !speaking {
		return false
	}
	ic.mu.Lock()
	defer ic.mu.Unlock()
	if ic.interrupted {
		return false
	}
	if !ic.substantial(text) {
		return false
	}
	ic.interrupted = true
	return true
}

// Rearm re-enables interruption for the next playback window.
func (ic *InterruptionController) Rearm() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.interrupted = false
}
