// Package twilio implements the Twilio Media Streams wire protocol: the
// JSON frames exchanged over the bidirectional websocket and a connection
// wrapper that plugs into the orchestrator as its media transport.
package twilio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Frame event names, as Twilio sends them.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventStop      = "stop"
	EventMark      = "mark"
	EventClear     = "clear"
)

// Frame is one websocket message in either direction. Only the fields for
// the named event are populated.
type Frame struct {
	Event     string      `json:"event"`
	StreamSID string      `json:"streamSid,omitempty"`
	Start     *StartFrame `json:"start,omitempty"`
	Media     *MediaFrame `json:"media,omitempty"`
	Mark      *MarkFrame  `json:"mark,omitempty"`
	Stop      *StopFrame  `json:"stop,omitempty"`
}

// StartFrame announces a new media stream and identifies the call.
type StartFrame struct {
	StreamSID   string      `json:"streamSid"`
	AccountSID  string      `json:"accountSid,omitempty"`
	CallSID     string      `json:"callSid"`
	Tracks      []string    `json:"tracks,omitempty"`
	MediaFormat MediaFormat `json:"mediaFormat,omitempty"`
}

type MediaFormat struct {
	Encoding   string `json:"encoding,omitempty"`
	SampleRate int    `json:"sampleRate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
}

// MediaFrame carries base64 mu-law audio.
type MediaFrame struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

type MarkFrame struct {
	Name string `json:"name"`
}

type StopFrame struct {
	AccountSID string `json:"accountSid,omitempty"`
	CallSID    string `json:"callSid,omitempty"`
}

// DecodeFrame parses one inbound websocket message.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("malformed media stream frame: %w", err)
	}
	if f.Event == "" {
		return Frame{}, fmt.Errorf("media stream frame missing event")
	}
	return f, nil
}

// Audio returns the decoded audio payload of a media frame.
func (f Frame) Audio() ([]byte, error) {
	if f.Event != EventMedia || f.Media == nil {
		return nil, fmt.Errorf("frame %q carries no audio", f.Event)
	}
	audio, err := base64.StdEncoding.DecodeString(f.Media.Payload)
	if err != nil {
		return nil, fmt.Errorf("bad media payload: %w", err)
	}
	return audio, nil
}

// NewMediaFrame builds an outbound audio frame on the outbound track.
func NewMediaFrame(streamSID string, audio []byte) Frame {
	return Frame{
		Event:     EventMedia,
		StreamSID: streamSID,
		Media: &MediaFrame{
			Track:   "outbound",
			Payload: base64.StdEncoding.EncodeToString(audio),
		},
	}
}

// NewClearFrame builds the frame that discards Twilio's buffered audio.
func NewClearFrame(streamSID string) Frame {
	return Frame{Event: EventClear, StreamSID: streamSID}
}

// NewMarkFrame builds a playback marker frame. Twilio echoes it back once
// all audio queued before it has been played.
func NewMarkFrame(streamSID, name string) Frame {
	return Frame{Event: EventMark, StreamSID: streamSID, Mark: &MarkFrame{Name: name}}
}
