// Package server provides the HTTP API for meetingd: the meeting webhook,
// question answering, health and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/meetingd/internal/meeting"
	"github.com/fyrsmithlabs/meetingd/internal/pipeline"
)

// Processor runs a meeting submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, in meeting.Intake) (*pipeline.Result, error)
}

// Answerer answers free-text questions from the knowledge base.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Server provides HTTP endpoints for meetingd.
type Server struct {
	echo      *echo.Echo
	processor Processor
	answerer  Answerer
	logger    *zap.Logger
	port      int
}

// Config holds HTTP server configuration.
type Config struct {
	Port int
}

// NewServer creates the HTTP server.
func NewServer(cfg Config, processor Processor, answerer Answerer, gatherer prometheus.Gatherer, logger *zap.Logger) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor is required")
	}
	if answerer == nil {
		return nil, fmt.Errorf("answerer is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:      e,
		processor: processor,
		answerer:  answerer,
		logger:    logger,
		port:      cfg.Port,
	}

	e.GET("/", s.handleHealth)
	e.GET("/health", s.handleHealth)
	e.POST("/webhooks/meetings", s.handleMeeting)
	e.POST("/ask", s.handleAsk)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	return s, nil
}

// MeetingResponse is the response body for POST /webhooks/meetings.
type MeetingResponse struct {
	Status    string `json:"status"`
	MeetingID string `json:"meeting_id"`
}

// AskRequest is the request body for POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the response body for POST /ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleMeeting accepts a meeting submission from the note-taking service
// webhook. Duplicate submissions return 200 with status already_processed so
// the sender does not retry.
func (s *Server) handleMeeting(c echo.Context) error {
	var in meeting.Intake
	if err := c.Bind(&in); err != nil {
		s.logger.Warn("invalid meeting payload", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "id field is required")
	}

	result, err := s.processor.Process(c.Request().Context(), in)
	if err != nil {
		s.logger.Error("meeting processing failed",
			zap.String("meeting_id", in.ID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, "meeting processing failed")
	}

	return c.JSON(http.StatusOK, MeetingResponse{
		Status:    string(result.Status),
		MeetingID: in.ID,
	})
}

func (s *Server) handleAsk(c echo.Context) error {
	var req AskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question field is required")
	}

	answer, err := s.answerer.Answer(c.Request().Context(), req.Question)
	if err != nil {
		s.logger.Error("question answering failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "question answering failed")
	}
	return c.JSON(http.StatusOK, AskResponse{Answer: answer})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
