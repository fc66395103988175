// Package stt adapts speech-to-text services to the orchestrator's
// Recognizer interface.
package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	"github.com/deepgram/deepgram-go-sdk/pkg/client/listen"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
)

// Deepgram opens live transcription streams against the Deepgram websocket
// API, tuned for telephone audio: mu-law, 8kHz, interim results on.
type Deepgram struct {
	apiKey   string
	model    string
	language string
	logger   orchestrator.Logger
}

func NewDeepgram(apiKey string, logger orchestrator.Logger) *Deepgram {
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	return &Deepgram{
		apiKey:   apiKey,
		model:    "nova-2",
		language: "en-US",
		logger:   logger,
	}
}

func (d *Deepgram) Name() string {
	return "deepgram"
}

func (d *Deepgram) Start(ctx context.Context, h orchestrator.TranscriptHandler) (orchestrator.RecognitionStream, error) {
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:          d.model,
		Language:       d.language,
		Punctuate:      true,
		SmartFormat:    true,
		Encoding:       "mulaw",
		Channels:       1,
		SampleRate:     8000,
		InterimResults: true,
	}
	cOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}

	client, err := listen.NewWebSocket(ctx, d.apiKey, cOptions, tOptions, &deepgramHandler{
		handler: h,
		logger:  d.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram client: %w", err)
	}
	if ok := client.Connect(); !ok {
		return nil, fmt.Errorf("deepgram connect failed")
	}
	return &deepgramStream{client: client}, nil
}

type deepgramStream struct {
	client *listen.LiveClient
}

func (s *deepgramStream) Send(audio []byte) error {
	if err := s.client.WriteBinary(audio); err != nil {
		return fmt.Errorf("deepgram write: %w", err)
	}
	return nil
}

func (s *deepgramStream) Finish() error {
	s.client.Stop()
	return nil
}

// deepgramHandler receives Deepgram websocket callbacks and forwards
// transcript results.
type deepgramHandler struct {
	handler orchestrator.TranscriptHandler
	logger  orchestrator.Logger
}

func (dh *deepgramHandler) Open(or *api.OpenResponse) error {
	dh.logger.Debug("deepgram stream open")
	return nil
}

func (dh *deepgramHandler) Message(mr *api.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	alt := mr.Channel.Alternatives[0]
	text := strings.TrimSpace(alt.Transcript)
	if text == "" {
		return nil
	}
	return dh.handler.OnTranscript(orchestrator.TranscriptEvent{
		Text:       text,
		IsFinal:    mr.IsFinal,
		Confidence: alt.Confidence,
		Timestamp:  time.Now(),
	})
}

func (dh *deepgramHandler) Metadata(md *api.MetadataResponse) error {
	return nil
}

func (dh *deepgramHandler) SpeechStarted(ssr *api.SpeechStartedResponse) error {
	return nil
}

func (dh *deepgramHandler) UtteranceEnd(ur *api.UtteranceEndResponse) error {
	return nil
}

func (dh *deepgramHandler) Close(cr *api.CloseResponse) error {
	dh.logger.Debug("deepgram stream closed")
	return nil
}

func (dh *deepgramHandler) Error(er *api.ErrorResponse) error {
	dh.logger.Error("deepgram stream error", "type", er.Type, "description", er.Description)
	return nil
}

func (dh *deepgramHandler) UnhandledEvent(byData []byte) error {
	return nil
}
