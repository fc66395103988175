// Package httpapi exposes the phone agent over HTTP: call initiation, the
// TwiML webhooks Twilio hits, the media-stream websocket, and session
// inspection endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/voxwire-ai/voxwire/pkg/orchestrator"
	"github.com/voxwire-ai/voxwire/pkg/store"
)

// CallPlacer abstracts the Twilio REST client for outbound dialing.
type CallPlacer interface {
	PlaceCall(ctx context.Context, toNumber, twimlURL, statusCallbackURL string) (callSID string, err error)
}

// Server wires the HTTP surface to the orchestrator and its collaborators.
type Server struct {
	echo     *echo.Echo
	orch     *orchestrator.Orchestrator
	registry *orchestrator.Registry
	repo     store.Repository
	dialer   CallPlacer
	// publicHost is the externally reachable host Twilio calls back to.
	publicHost string
	logger     orchestrator.Logger
}

type Config struct {
	Orchestrator *orchestrator.Orchestrator
	Registry     *orchestrator.Registry
	Repository   store.Repository
	Dialer       CallPlacer
	PublicHost   string
	Logger       orchestrator.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = &orchestrator.NoOpLogger{}
	}
	s := &Server{
		orch:       cfg.Orchestrator,
		registry:   cfg.Registry,
		repo:       cfg.Repository,
		dialer:     cfg.Dialer,
		publicHost: cfg.PublicHost,
		logger:     logger,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	e.GET("/health", s.handleHealth)
	e.POST("/calls", s.handleMakeCall)
	e.GET("/sessions", s.handleListSessions)
	e.GET("/sessions/:callSid", s.handleGetSession)
	e.POST("/twiml/outbound", s.handleTwimlOutbound)
	e.POST("/twiml/inbound", s.handleTwimlInbound)
	e.POST("/call-status", s.handleCallStatus)
	e.GET("/media-stream", s.handleMediaStream)

	s.echo = e
	return s
}

func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.registry.EndAll(orchestrator.StatusFailed)
	return s.echo.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"time":         time.Now().UTC(),
		"active_calls": s.registry.Len(),
		"providers":    s.orch.Providers(),
	})
}
