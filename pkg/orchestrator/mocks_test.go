package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type mockRecognizer struct {
	mu        sync.Mutex
	handler   TranscriptHandler
	failStart bool
	sent      [][]byte
	finished  bool
}

func (m *mockRecognizer) Start(ctx context.Context, h TranscriptHandler) (RecognitionStream, error) {
	if m.failStart {
		return nil, errors.New("stt unavailable")
	}
	m.mu.Lock()
	m.handler = h
	m.mu.Unlock()
	return m, nil
}

func (m *mockRecognizer) Send(audio []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, audio)
	return nil
}

func (m *mockRecognizer) Finish() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
	return nil
}

func (m *mockRecognizer) Name() string { return "mock-stt" }

// deliver feeds a transcript event to the session as the live stream would.
func (m *mockRecognizer) deliver(text string, final bool, confidence float64) {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	if h != nil {
		_ = h.OnTranscript(TranscriptEvent{Text: text, IsFinal: final, Confidence: confidence, Timestamp: time.Now()})
	}
}

type mockGenerator struct {
	mu sync.Mutex
	// scripts are popped one per StreamComplete call.
	scripts [][]string
	err     error
	// blockFirst keeps the first stream open after its tokens until the
	// context dies, so tests can interrupt mid-reply.
	blockFirst bool
	calls      int
	seen       [][]Message
}

func (g *mockGenerator) StreamComplete(ctx context.Context, messages []Message, onToken func(string) error) error {
	g.mu.Lock()
	g.calls++
	g.seen = append(g.seen, messages)
	var tokens []string
	if len(g.scripts) > 0 {
		tokens = g.scripts[0]
		g.scripts = g.scripts[1:]
	}
	err := g.err
	block := g.blockFirst && g.calls == 1
	g.mu.Unlock()

	if err != nil {
		return err
	}
	for _, tok := range tokens {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if e := onToken(tok); e != nil {
			return e
		}
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (g *mockGenerator) Name() string { return "mock-llm" }

func (g *mockGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type mockSynthesizer struct {
	mu        sync.Mutex
	name      string
	fail      bool
	fragments []string
	// bytesPerChar scales how much audio a fragment produces.
	bytesPerChar int
}

func (m *mockSynthesizer) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	m.mu.Lock()
	if m.fail {
		m.mu.Unlock()
		return errors.New("synth down")
	}
	m.fragments = append(m.fragments, text)
	scale := m.bytesPerChar
	m.mu.Unlock()
	if scale <= 0 {
		scale = 1
	}
	// Audio is the fragment text itself, so transport packets can be traced
	// back to the reply that produced them.
	return onChunk([]byte(strings.Repeat(text, scale)))
}

func (m *mockSynthesizer) Name() string {
	if m.name != "" {
		return m.name
	}
	return "mock-tts"
}

func (m *mockSynthesizer) spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fragments...)
}

type mockTransport struct {
	mu        sync.Mutex
	ops       []string
	failMedia bool
	onMark    func(name string)
}

func (m *mockTransport) SendMedia(audio []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMedia {
		return errors.New("socket closed")
	}
	m.ops = append(m.ops, "media:"+string(audio))
	return nil
}

func (m *mockTransport) SendClear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "clear")
	return nil
}

func (m *mockTransport) SendMark(name string) error {
	m.mu.Lock()
	m.ops = append(m.ops, "mark:"+name)
	cb := m.onMark
	m.mu.Unlock()
	if cb != nil {
		cb(name)
	}
	return nil
}

func (m *mockTransport) opLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

type mockStore struct {
	mu       sync.Mutex
	record   CallRecord
	messages []Message
	events   []string
	ended    bool
	status   string
	duration time.Duration
}

func (m *mockStore) LoadOrCreateSession(ctx context.Context, callID, streamID string) (CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.record.CallID == "" {
		m.record = CallRecord{CallID: callID, StreamID: streamID, Status: StatusInProgress}
	}
	return m.record, nil
}

func (m *mockStore) AppendMessage(ctx context.Context, callID, role, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Role: role, Content: text})
	return nil
}

func (m *mockStore) LogEvent(ctx context.Context, callID, kind, detail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, kind)
	return nil
}

func (m *mockStore) MarkEnded(ctx context.Context, callID, status string, duration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended = true
	m.status = status
	m.duration = duration
	return nil
}

func (m *mockStore) endState() (bool, string, time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ended, m.status, m.duration
}

func (m *mockStore) savedMessages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.messages...)
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.DebounceWindow = 25 * time.Millisecond
	cfg.PacketBytes = 16
	cfg.Greeting = "Hello there."
	cfg.Goodbye = "Goodbye now."
	cfg.Reprompt = "Say again?"
	cfg.Apology = "Sorry, trouble here."
	return cfg
}
