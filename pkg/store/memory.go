package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

// MemoryStore keeps everything in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	messages map[string][]MessageRecord
	events   map[string][]EventRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		messages: make(map[string][]MessageRecord),
		events:   make(map[string][]EventRecord),
	}
}

var _ Repository = (*MemoryStore)(nil)

func (m *MemoryStore) CreateCall(ctx context.Context, call NewCall) (Session, error) {
	if call.CallSID == "" {
		return Session{}, fmt.Errorf("call sid required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[call.CallSID]; ok {
		return Session{}, fmt.Errorf("session for call %s already exists", call.CallSID)
	}
	s := &Session{
		ID:             uuid.NewString(),
		CallSID:        call.CallSID,
		Direction:      call.Direction,
		FromNumber:     call.FromNumber,
		ToNumber:       call.ToNumber,
		Status:         orchestrator.StatusInitiated,
		SystemPrompt:   call.SystemPrompt,
		ContextURL:     call.ContextURL,
		ContextHeaders: call.ContextHeaders,
		CreatedAt:      time.Now(),
	}
	m.sessions[call.CallSID] = s
	return *s, nil
}

func (m *MemoryStore) LoadOrCreateSession(ctx context.Context, callID, streamID string) (orchestrator.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callID]
	if !ok {
		s = &Session{
			ID:        uuid.NewString(),
			CallSID:   callID,
			Direction: DirectionInbound,
			CreatedAt: time.Now(),
		}
		m.sessions[callID] = s
	}
	s.StreamSID = streamID
	s.Status = orchestrator.StatusInProgress
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	return orchestrator.CallRecord{
		ID:             s.ID,
		CallID:         s.CallSID,
		StreamID:       s.StreamSID,
		Status:         s.Status,
		SystemPrompt:   s.SystemPrompt,
		ContextURL:     s.ContextURL,
		ContextHeaders: s.ContextHeaders,
		ContextData:    s.ContextData,
		StartedAt:      s.StartedAt,
	}, nil
}

func (m *MemoryStore) AppendMessage(ctx context.Context, callID, role, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[callID] = append(m.messages[callID], MessageRecord{
		ID:        uuid.NewString(),
		CallSID:   callID,
		Role:      role,
		Content:   text,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *MemoryStore) LogEvent(ctx context.Context, callID, kind, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[callID] = append(m.events[callID], EventRecord{
		ID:        uuid.NewString(),
		CallSID:   callID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *MemoryStore) MarkEnded(ctx context.Context, callID, status string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callID]
	if !ok {
		return fmt.Errorf("no session for call %s", callID)
	}
	now := time.Now()
	s.Status = status
	s.EndedAt = &now
	s.Duration = duration
	return nil
}

func (m *MemoryStore) UpdateStatus(ctx context.Context, callSID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[callSID]
	if !ok {
		return fmt.Errorf("no session for call %s", callSID)
	}
	// Terminal statuses are sticky; a late ringing callback must not undo
	// completion.
	if isTerminalStatus(s.Status) && !isTerminalStatus(status) {
		return nil
	}
	s.Status = status
	return nil
}

func isTerminalStatus(status string) bool {
	switch status {
	case orchestrator.StatusCompleted, orchestrator.StatusFailed, orchestrator.StatusNoAnswer:
		return true
	}
	return false
}

func (m *MemoryStore) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) GetSession(ctx context.Context, callSID string) (Session, []MessageRecord, []EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[callSID]
	if !ok {
		return Session{}, nil, nil, fmt.Errorf("no session for call %s", callSID)
	}
	msgs := append([]MessageRecord(nil), m.messages[callSID]...)
	evs := append([]EventRecord(nil), m.events[callSID]...)
	return *s, msgs, evs, nil
}
