package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/haguro/elevenlabs-go"
)

// ElevenLabs streams synthesis over ElevenLabs' HTTP streaming endpoint,
// requesting mu-law 8kHz output directly.
type ElevenLabs struct {
	apiKey  string
	voiceID string
	modelID string
	timeout time.Duration
}

func NewElevenLabs(apiKey, voiceID string) *ElevenLabs {
	if voiceID == "" {
		voiceID = "21m00Tcm4TlvDq8ikWAM" // Rachel
	}
	return &ElevenLabs{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: "eleven_turbo_v2_5",
		timeout: 30 * time.Second,
	}
}

func (t *ElevenLabs) Name() string {
	return "elevenlabs"
}

// chunkWriter adapts the streaming response body to the onChunk callback.
type chunkWriter struct {
	ctx     context.Context
	onChunk func([]byte) error
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	if err := w.ctx.Err(); err != nil {
		return 0, err
	}
	chunk := make([]byte, len(p))
	copy(chunk, p)
	if err := w.onChunk(chunk); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *ElevenLabs) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	client := elevenlabs.NewClient(ctx, t.apiKey, t.timeout)
	req := elevenlabs.TextToSpeechRequest{
		Text:    text,
		ModelID: t.modelID,
	}
	err := client.TextToSpeechStream(
		&chunkWriter{ctx: ctx, onChunk: onChunk},
		t.voiceID,
		req,
		elevenlabs.OutputFormat("ulaw_8000"),
	)
	if err != nil {
		return fmt.Errorf("elevenlabs synthesis: %w", err)
	}
	return nil
}
