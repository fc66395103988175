package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/coder/websocket"
)

// Conn wraps one accepted media-stream websocket. It satisfies the
// orchestrator's Transport interface for the outbound direction and exposes
// ReadFrame for the inbound pump. Writes are serialized; reads belong to a
// single goroutine.
type Conn struct {
	ws  *websocket.Conn
	ctx context.Context

	mu        sync.Mutex
	streamSID string
}

func NewConn(ctx context.Context, ws *websocket.Conn) *Conn {
	return &Conn{ws: ws, ctx: ctx}
}

// SetStreamSID records the stream id from the start frame; outbound frames
// carry it.
func (c *Conn) SetStreamSID(sid string) {
	c.mu.Lock()
	c.streamSID = sid
	c.mu.Unlock()
}

func (c *Conn) StreamSID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamSID
}

// ReadFrame blocks for the next inbound frame.
func (c *Conn) ReadFrame() (Frame, error) {
	_, data, err := c.ws.Read(c.ctx)
	if err != nil {
		return Frame{}, fmt.Errorf("media stream read: %w", err)
	}
	return DecodeFrame(data)
}

func (c *Conn) writeFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.Write(c.ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("media stream write: %w", err)
	}
	return nil
}

func (c *Conn) SendMedia(audio []byte) error {
	return c.writeFrame(NewMediaFrame(c.StreamSID(), audio))
}

func (c *Conn) SendClear() error {
	return c.writeFrame(NewClearFrame(c.StreamSID()))
}

func (c *Conn) SendMark(name string) error {
	return c.writeFrame(NewMarkFrame(c.StreamSID(), name))
}

// Close closes the websocket with a normal status.
func (c *Conn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "call ended")
}
