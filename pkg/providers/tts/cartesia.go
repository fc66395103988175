// Package tts adapts text-to-speech services to the orchestrator's
// Synthesizer interface. Audio is produced in the telephony wire format,
// mu-law at 8kHz, so it can go straight out on the media stream.
package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const cartesiaVersion = "2024-06-10"

// Cartesia streams synthesis over Cartesia's websocket API. The connection
// is reused across fragments; a failed request drops it and the next call
// redials.
type Cartesia struct {
	apiKey  string
	host    string
	scheme  string
	modelID string
	voiceID string

	nextCtxID atomic.Uint64
	mu        sync.Mutex
	conn      *websocket.Conn
}

func NewCartesia(apiKey, voiceID string) *Cartesia {
	return &Cartesia{
		apiKey:  apiKey,
		host:    "api.cartesia.ai",
		scheme:  "wss",
		modelID: "sonic-english",
		voiceID: voiceID,
	}
}

func (t *Cartesia) Name() string {
	return "cartesia"
}

func (t *Cartesia) getConn(ctx context.Context) (*websocket.Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return t.conn, nil
	}

	q := url.Values{}
	q.Set("api_key", t.apiKey)
	q.Set("cartesia_version", cartesiaVersion)
	u := url.URL{Scheme: t.scheme, Host: t.host, Path: "/tts/websocket", RawQuery: q.Encode()}

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cartesia: %w", err)
	}
	conn.SetReadLimit(10 * 1024 * 1024)

	t.conn = conn
	return conn, nil
}

type cartesiaRequest struct {
	ContextID    string              `json:"context_id"`
	ModelID      string              `json:"model_id"`
	Transcript   string              `json:"transcript"`
	Voice        cartesiaVoice       `json:"voice"`
	OutputFormat cartesiaAudioFormat `json:"output_format"`
	Continue     bool                `json:"continue"`
}

type cartesiaVoice struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type cartesiaAudioFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

type cartesiaResponse struct {
	Type      string `json:"type"`
	ContextID string `json:"context_id"`
	Data      string `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (t *Cartesia) StreamSynthesize(ctx context.Context, text string, onChunk func([]byte) error) error {
	conn, err := t.getConn(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ctxID := fmt.Sprintf("ctx-%d", t.nextCtxID.Add(1))
	req := cartesiaRequest{
		ContextID:  ctxID,
		ModelID:    t.modelID,
		Transcript: text,
		Voice:      cartesiaVoice{Mode: "id", ID: t.voiceID},
		OutputFormat: cartesiaAudioFormat{
			Container:  "raw",
			Encoding:   "pcm_mulaw",
			SampleRate: 8000,
		},
	}

	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.conn = nil
		conn.Close(websocket.StatusAbnormalClosure, "failed to write json")
		return fmt.Errorf("failed to send synthesis request: %w", err)
	}

	for {
		var resp cartesiaResponse
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			t.conn = nil
			conn.Close(websocket.StatusAbnormalClosure, "failed to read")
			return fmt.Errorf("failed to read from cartesia: %w", err)
		}
		if resp.ContextID != "" && resp.ContextID != ctxID {
			// Stale frame from an aborted request on the shared connection.
			continue
		}

		switch resp.Type {
		case "chunk":
			audio, err := base64.StdEncoding.DecodeString(resp.Data)
			if err != nil {
				return fmt.Errorf("cartesia sent bad audio payload: %w", err)
			}
			if err := onChunk(audio); err != nil {
				return err
			}
		case "done":
			return nil
		case "error":
			return fmt.Errorf("cartesia error: %s", resp.Error)
		}
	}
}

func (t *Cartesia) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		err := t.conn.Close(websocket.StatusNormalClosure, "")
		t.conn = nil
		return err
	}
	return nil
}
