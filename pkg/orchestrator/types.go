package orchestrator

import (
	"context"
	"encoding/json"
	"time"
)

type Logger interface {
	Debug(msg string, args ...interface{})

	Info(msg string, args ...interface{})

	Warn(msg string, args ...interface{})

	Error(msg string, args ...interface{})
}

type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, args ...interface{}) {}
func (n *NoOpLogger) Info(msg string, args ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, args ...interface{})  {}
func (n *NoOpLogger) Error(msg string, args ...interface{}) {}

// TranscriptEvent is one recognition result, partial or final.
type TranscriptEvent struct {
	Text       string
	IsFinal    bool
	Confidence float64
	Timestamp  time.Time
}

// TranscriptHandler receives recognition events in arrival order.
type TranscriptHandler interface {
	OnTranscript(ev TranscriptEvent) error
}

// Recognizer opens live speech-to-text streams. Events are delivered to the
// handler until Finish is called on the stream.
type Recognizer interface {
	Start(ctx context.Context, h TranscriptHandler) (RecognitionStream, error)
	Name() string
}

type RecognitionStream interface {
	Send(audio []byte) error
	Finish() error
}

// Generator streams completion tokens for the given message history.
type Generator interface {
	StreamComplete(ctx context.Context, messages []Message, onToken func(token string) error) error
	Name() string
}

// Synthesizer streams synthesized audio for one text fragment, already in the
// transport's wire encoding (mu-law 8kHz for telephony).
type Synthesizer interface {
	StreamSynthesize(ctx context.Context, text string, onChunk func(chunk []byte) error) error
	Name() string
}

// Transport is the outbound half of the duplex media connection.
type Transport interface {
	// SendMedia delivers one audio packet to the caller.
	SendMedia(audio []byte) error
	// SendClear discards any audio the transport has buffered but not played.
	SendClear() error
	// SendMark asks the transport to echo a marker when playback reaches it.
	SendMark(name string) error
}

// Store is the persistence collaborator. Failures are logged by the caller,
// never fatal to a live call.
type Store interface {
	LoadOrCreateSession(ctx context.Context, callID, streamID string) (CallRecord, error)
	AppendMessage(ctx context.Context, callID, role, text string) error
	LogEvent(ctx context.Context, callID, kind, detail string) error
	MarkEnded(ctx context.Context, callID, status string, duration time.Duration) error
}

// ContextFetcher retrieves an optional external context blob for the call.
type ContextFetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (json.RawMessage, error)
}

// CallRecord mirrors the persisted call session row.
type CallRecord struct {
	ID             string
	CallID         string
	StreamID       string
	Status         string
	SystemPrompt   string
	ContextURL     string
	ContextHeaders map[string]string
	ContextData    json.RawMessage
	StartedAt      time.Time
}

// Call lifecycle statuses. Transitions only move forward, except that
// in_progress may be entered from either initiated or ringing.
const (
	StatusInitiated  = "initiated"
	StatusRinging    = "ringing"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusNoAnswer   = "no_answer"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type EventType string

const (
	CallStarted       EventType = "CALL_STARTED"
	TranscriptPartial EventType = "TRANSCRIPT_PARTIAL"
	TranscriptFinal   EventType = "TRANSCRIPT_FINAL"
	UtteranceComplete EventType = "UTTERANCE_COMPLETE"
	BotThinking       EventType = "BOT_THINKING"
	BotSpeaking       EventType = "BOT_SPEAKING"
	// ReplyDone carries the assistant text that was actually spoken.
	ReplyDone   EventType = "REPLY_DONE"
	Interrupted EventType = "INTERRUPTED"
	CallEnded   EventType = "CALL_ENDED"
	ErrorEvent  EventType = "ERROR"
)

type Event struct {
	Type   EventType   `json:"type"`
	CallID string      `json:"call_id"`
	Data   interface{} `json:"data,omitempty"`
}

type Config struct {
	SampleRate int
	Channels   int
	// Encoding is the transport wire codec. Telephony uses mu-law.
	Encoding string
	// DebounceWindow is how long to wait after the last final transcript
	// fragment before treating the utterance as complete.
	DebounceWindow time.Duration
	// PacketBytes is the fixed outbound audio packet size.
	PacketBytes int
	// A fragment interrupts playback when it has at least MinWordsToInterrupt
	// words or more than MinCharsToInterrupt characters after trimming.
	MinWordsToInterrupt int
	MinCharsToInterrupt int
	// Finalized utterances below this recognition confidence get a fixed
	// re-prompt instead of a generated reply. Zero disables the check.
	LowConfidenceThreshold float64
	MaxContextMessages     int
	ContextFetchTimeout    time.Duration

	SystemPrompt string
	Greeting     string
	Goodbye      string
	Reprompt     string
	Apology      string
}

func DefaultConfig() Config {
	return Config{
		SampleRate:             8000,
		Channels:               1,
		Encoding:               "mulaw",
		DebounceWindow:         400 * time.Millisecond,
		PacketBytes:            8000,
		MinWordsToInterrupt:    2,
		MinCharsToInterrupt:    12,
		LowConfidenceThreshold: 0.6,
		MaxContextMessages:     20,
		ContextFetchTimeout:    5 * time.Second,
		SystemPrompt:           "You are a helpful, brief, and friendly AI phone assistant. Keep answers short and conversational; they will be spoken aloud.",
		Greeting:               "Hello! How can I help you today?",
		Goodbye:                "Thank you for calling. Goodbye!",
		Reprompt:               "I didn't catch that clearly. Could you please repeat?",
		Apology:                "I'm sorry, I'm having trouble responding right now.",
	}
}
