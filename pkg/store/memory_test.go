package store

import (
	"context"
	"testing"
	"time"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

func TestMemoryStoreOutboundLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	created, err := m.CreateCall(ctx, NewCall{
		CallSID:      "CA1",
		Direction:    DirectionOutbound,
		ToNumber:     "+15550001111",
		SystemPrompt: "be nice",
		ContextURL:   "https://example.com/ctx",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.Status != orchestrator.StatusInitiated {
		t.Errorf("status = %q, want initiated", created.Status)
	}

	if err := m.UpdateStatus(ctx, "CA1", orchestrator.StatusRinging); err != nil {
		t.Fatal(err)
	}

	rec, err := m.LoadOrCreateSession(ctx, "CA1", "MZ1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.SystemPrompt != "be nice" || rec.ContextURL != "https://example.com/ctx" {
		t.Errorf("record = %+v, lost call setup fields", rec)
	}
	if rec.Status != orchestrator.StatusInProgress {
		t.Errorf("status = %q, want in_progress", rec.Status)
	}

	if err := m.AppendMessage(ctx, "CA1", "user", "hello"); err != nil {
		t.Fatal(err)
	}
	if err := m.LogEvent(ctx, "CA1", "call_started", ""); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkEnded(ctx, "CA1", orchestrator.StatusCompleted, 42*time.Second); err != nil {
		t.Fatal(err)
	}

	s, msgs, evs, err := m.GetSession(ctx, "CA1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != orchestrator.StatusCompleted || s.Duration != 42*time.Second || s.EndedAt == nil {
		t.Errorf("ended session = %+v", s)
	}
	if len(msgs) != 1 || msgs[0].Content != "hello" {
		t.Errorf("messages = %+v", msgs)
	}
	if len(evs) != 1 || evs[0].Kind != "call_started" {
		t.Errorf("events = %+v", evs)
	}
}

func TestMemoryStoreTerminalStatusSticky(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if _, err := m.CreateCall(ctx, NewCall{CallSID: "CA1", Direction: DirectionOutbound}); err != nil {
		t.Fatal(err)
	}
	if err := m.MarkEnded(ctx, "CA1", orchestrator.StatusCompleted, time.Second); err != nil {
		t.Fatal(err)
	}
	// A late ringing callback after completion must not resurrect the call.
	if err := m.UpdateStatus(ctx, "CA1", orchestrator.StatusRinging); err != nil {
		t.Fatal(err)
	}
	s, _, _, err := m.GetSession(ctx, "CA1")
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != orchestrator.StatusCompleted {
		t.Errorf("status = %q, want completed to stick", s.Status)
	}
}

func TestMemoryStoreInboundAutoCreate(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	rec, err := m.LoadOrCreateSession(ctx, "CA9", "MZ9")
	if err != nil {
		t.Fatal(err)
	}
	if rec.CallID != "CA9" || rec.StreamID != "MZ9" {
		t.Errorf("record = %+v", rec)
	}
	s, _, _, err := m.GetSession(ctx, "CA9")
	if err != nil {
		t.Fatal(err)
	}
	if s.Direction != DirectionInbound {
		t.Errorf("direction = %q, want inbound", s.Direction)
	}
}

func TestMemoryStoreDuplicateCreateRejected(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	if _, err := m.CreateCall(ctx, NewCall{CallSID: "CA1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.CreateCall(ctx, NewCall{CallSID: "CA1"}); err == nil {
		t.Error("duplicate call sid accepted")
	}
	if _, err := m.CreateCall(ctx, NewCall{}); err == nil {
		t.Error("empty call sid accepted")
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for _, sid := range []string{"CA1", "CA2", "CA3"} {
		if _, err := m.CreateCall(ctx, NewCall{CallSID: sid}); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	got, err := m.ListSessions(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].CallSID != "CA3" || got[1].CallSID != "CA2" {
		t.Errorf("list = %+v", got)
	}
}
