package orchestrator

import (
	"context"
	"strings"
	"sync"
)

// ReplyTask is one in-flight agent reply: a cancellable context, a
// monotonically increasing generation id, and the text spoken so far. The
// accumulated text doubles as the echo-suppression baseline, and survives
// cancellation so an interrupted reply is still recorded in history.
type ReplyTask struct {
	id     uint64
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	text strings.Builder
	done bool
}

func newReplyTask(parent context.Context, id uint64) *ReplyTask {
	ctx, cancel := context.WithCancel(parent)
	return &ReplyTask{id: id, ctx: ctx, cancel: cancel}
}

func (t *ReplyTask) ID() uint64 { return t.id }

func (t *ReplyTask) Context() context.Context { return t.ctx }

func (t *ReplyTask) Cancel() { t.cancel() }

func (t *ReplyTask) Cancelled() bool {
	return t.ctx.Err() != nil
}

func (t *ReplyTask) AppendText(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text.WriteString(s)
}

// Text returns the reply text accumulated so far, partial or complete.
func (t *ReplyTask) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text.String()
}

func (t *ReplyTask) markDone() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
}

func (t *ReplyTask) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
