package httpapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/twiml"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
	"github.com/voxwire-ai/voxwire/pkg/store"
)

type makeCallRequest struct {
	ToNumber       string            `json:"to_number"`
	SystemPrompt   string            `json:"system_prompt,omitempty"`
	ContextURL     string            `json:"context_url,omitempty"`
	ContextHeaders map[string]string `json:"context_headers,omitempty"`
}

func (s *Server) handleMakeCall(c echo.Context) error {
	if s.dialer == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "outbound dialing not configured")
	}
	var req makeCallRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ToNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "to_number is required")
	}

	ctx := c.Request().Context()
	twimlURL := fmt.Sprintf("https://%s/twiml/outbound", s.publicHost)
	statusURL := fmt.Sprintf("https://%s/call-status", s.publicHost)

	callSID, err := s.dialer.PlaceCall(ctx, req.ToNumber, twimlURL, statusURL)
	if err != nil {
		s.logger.Error("outbound call failed", "to", req.ToNumber, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "failed to place call")
	}

	session, err := s.repo.CreateCall(ctx, store.NewCall{
		CallSID:        callSID,
		Direction:      store.DirectionOutbound,
		ToNumber:       req.ToNumber,
		SystemPrompt:   req.SystemPrompt,
		ContextURL:     req.ContextURL,
		ContextHeaders: req.ContextHeaders,
	})
	if err != nil {
		s.logger.Error("call session create failed", "callSid", callSID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "call placed but session not recorded")
	}

	s.logger.Info("outbound call placed", "callSid", callSID, "to", req.ToNumber)
	return c.JSON(http.StatusCreated, session)
}

// streamTwiml answers a call by connecting its audio to the media-stream
// websocket.
func (s *Server) streamTwiml() (string, error) {
	stream := &twiml.VoiceStream{
		Url: fmt.Sprintf("wss://%s/media-stream", s.publicHost),
	}
	connect := &twiml.VoiceConnect{
		InnerElements: []twiml.Element{stream},
	}
	return twiml.Voice([]twiml.Element{connect})
}

func (s *Server) handleTwimlOutbound(c echo.Context) error {
	doc, err := s.streamTwiml()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "twiml generation failed")
	}
	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

func (s *Server) handleTwimlInbound(c echo.Context) error {
	callSID := c.FormValue("CallSid")
	from := c.FormValue("From")
	s.logger.Info("inbound call", "callSid", callSID, "from", from)

	if callSID != "" {
		if _, err := s.repo.CreateCall(c.Request().Context(), store.NewCall{
			CallSID:    callSID,
			Direction:  store.DirectionInbound,
			FromNumber: from,
		}); err != nil {
			// The media stream handler will auto-create the session.
			s.logger.Debug("inbound session precreate skipped", "callSid", callSID, "error", err)
		}
	}

	doc, err := s.streamTwiml()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "twiml generation failed")
	}
	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

// mapTwilioStatus translates Twilio call status callback values into the
// session lifecycle statuses.
func mapTwilioStatus(twilioStatus string) string {
	switch twilioStatus {
	case "queued", "initiated":
		return orchestrator.StatusInitiated
	case "ringing":
		return orchestrator.StatusRinging
	case "in-progress", "answered":
		return orchestrator.StatusInProgress
	case "completed":
		return orchestrator.StatusCompleted
	case "busy", "failed", "canceled":
		return orchestrator.StatusFailed
	case "no-answer":
		return orchestrator.StatusNoAnswer
	}
	return ""
}

func (s *Server) handleCallStatus(c echo.Context) error {
	callSID := c.FormValue("CallSid")
	twilioStatus := c.FormValue("CallStatus")
	if callSID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "CallSid is required")
	}

	status := mapTwilioStatus(twilioStatus)
	if status == "" {
		s.logger.Warn("unknown call status", "callSid", callSID, "status", twilioStatus)
		return c.NoContent(http.StatusOK)
	}

	if err := s.repo.UpdateStatus(c.Request().Context(), callSID, status); err != nil {
		s.logger.Warn("status update failed", "callSid", callSID, "status", status, "error", err)
	}
	s.logger.Debug("call status updated", "callSid", callSID, "status", status)
	return c.NoContent(http.StatusOK)
}

func (s *Server) handleListSessions(c echo.Context) error {
	sessions, err := s.repo.ListSessions(c.Request().Context(), 100)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"sessions": sessions})
}

func (s *Server) handleGetSession(c echo.Context) error {
	callSID := c.Param("callSid")
	session, messages, events, err := s.repo.GetSession(c.Request().Context(), callSID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session":  session,
		"messages": messages,
		"events":   events,
	})
}
