package orchestrator

import (
	"strings"
	"sync"
	"time"
)

// TurnAggregator collects final transcript fragments and decides when the
// caller has finished a turn. Each final fragment restarts the debounce
// timer; when the window elapses with no new fragment, the buffered
// fragments are joined into one utterance and handed to the callback.
type TurnAggregator struct {
	mu        sync.Mutex
	window    time.Duration
	fragments []string
	// minConfidence tracks the weakest fragment in the pending turn.
	minConfidence float64
	timer         *time.Timer
	onUtterance   func(text string, confidence float64)
}

func NewTurnAggregator(window time.Duration, onUtterance func(text string, confidence float64)) *TurnAggregator {
	return &TurnAggregator{
		window:      window,
		onUtterance: onUtterance,
	}
}

// AddFinal buffers one final fragment and restarts the debounce timer.
// Whitespace-only fragments are ignored.
func (a *TurnAggregator) AddFinal(text string, confidence float64) {
	if strings.TrimSpace(text) == "" {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.fragments) == 0 || confidence < a.minConfidence {
		a.minConfidence = confidence
	}
	a.fragments = append(a.fragments, text)

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.window, a.fire)
}

func (a *TurnAggregator) fire() {
	a.mu.Lock()
	if len(a.fragments) == 0 {
		a.mu.Unlock()
		return
	}
	parts := make([]string, 0, len(a.fragments))
	for _, f := range a.fragments {
		if t := strings.TrimSpace(f); t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.Join(parts, " ")
	confidence := a.minConfidence
	a.fragments = nil
	a.timer = nil
	a.mu.Unlock()

	// Callback runs outside the lock so it can feed back into the session.
	if text != "" {
		a.onUtterance(text, confidence)
	}
}

// Reset discards any buffered fragments and the pending timer without
// emitting. Used when an interruption replaces the turn in progress.
func (a *TurnAggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.fragments = nil
}

// Pending reports whether fragments are buffered awaiting the window.
func (a *TurnAggregator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fragments) > 0
}
