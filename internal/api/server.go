package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/issuebot/internal/chat"
)

// Server exposes the chat webhook over HTTP. Each inbound message is one
// request; echo runs them on separate goroutines, so commands for different
// conversation contexts execute concurrently.
type Server struct {
	echo       *echo.Echo
	port       int
	dispatcher *chat.Dispatcher
}

// ChatMessage is the inbound webhook payload from the chat bridge.
type ChatMessage struct {
	Network string `json:"network"`
	Channel string `json:"channel"`
	Sender  string `json:"sender"`
	Text    string `json:"text"`
}

// ChatReply is the webhook response; an empty reply means the line was not
// a bot command and nothing should be posted back.
type ChatReply struct {
	Reply string `json:"reply"`
}

// NewServer creates the webhook server.
func NewServer(port int, dispatcher *chat.Dispatcher) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	server := &Server{
		echo:       e,
		port:       port,
		dispatcher: dispatcher,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	// Health check endpoint
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	s.echo.POST("/webhook/chat", s.handleChat)
}

// handleChat runs one chat line through the dispatcher and returns the
// reply synchronously.
func (s *Server) handleChat(c echo.Context) error {
	var msg ChatMessage
	if err := c.Bind(&msg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if msg.Network == "" || msg.Channel == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "network and channel are required"})
	}

	requestID := uuid.NewString()
	log.Debug().
		Str("request_id", requestID).
		Str("network", msg.Network).
		Str("channel", msg.Channel).
		Str("sender", msg.Sender).
		Msg("Inbound chat message")

	reply := s.dispatcher.HandleLine(c.Request().Context(), chat.Context{
		Network: msg.Network,
		Channel: msg.Channel,
	}, msg.Text)

	if reply != "" {
		log.Info().Str("request_id", requestID).Str("reply", reply).Msg("Command handled")
	}

	return c.JSON(http.StatusOK, ChatReply{Reply: reply})
}

// Start begins serving and blocks until interrupted, then shuts down
// gracefully.
func (s *Server) Start() error {
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.port)); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
