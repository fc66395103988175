package httpapi

import (
	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
	twtransport "github.com/voxwire-ai/voxwire/pkg/transport/twilio"
)

// handleMediaStream owns one call's websocket for its whole life: it pumps
// inbound frames into the session and the session writes outbound frames
// back on the same socket.
func (s *Server) handleMediaStream(c echo.Context) error {
	ws, err := websocket.Accept(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Error("media stream upgrade failed", "error", err)
		return nil
	}

	ctx := c.Request().Context()
	conn := twtransport.NewConn(ctx, ws)
	defer conn.Close()

	var session *orchestrator.CallSession
	defer func() {
		if session != nil {
			session.Stop()
			s.registry.Remove(session)
		}
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if session != nil {
				s.logger.Info("media stream closed", "callSid", session.CallID())
			}
			return nil
		}

		switch frame.Event {
		case twtransport.EventConnected:
			// Handshake frame, nothing to do yet.

		case twtransport.EventStart:
			if frame.Start == nil {
				s.logger.Warn("start frame without payload")
				continue
			}
			conn.SetStreamSID(frame.Start.StreamSID)
			session = s.orch.NewCallSession(ctx, frame.Start.CallSID, frame.Start.StreamSID, conn)
			s.registry.Add(session)
			if err := session.Start(); err != nil {
				s.logger.Error("call session start failed", "callSid", frame.Start.CallSID, "error", err)
				s.registry.Remove(session)
				session = nil
				return nil
			}

		case twtransport.EventMedia:
			if session == nil {
				continue
			}
			audio, err := frame.Audio()
			if err != nil {
				s.logger.Warn("bad media frame", "callSid", session.CallID(), "error", err)
				continue
			}
			if err := session.WriteAudio(audio); err != nil {
				s.logger.Error("audio forwarding failed", "callSid", session.CallID(), "error", err)
				return nil
			}

		case twtransport.EventMark:
			if session != nil && frame.Mark != nil {
				session.HandleMark(frame.Mark.Name)
			}

		case twtransport.EventStop:
			if session != nil {
				session.Stop()
				s.registry.Remove(session)
				session = nil
			}
			return nil
		}
	}
}
