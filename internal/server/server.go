package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/nettable/internal/config"
	"github.com/nfrund/nettable/internal/table"
)

// Server exposes one table instance over HTTP: a JSON API for introspection
// and writes, and a WebSocket stream of topic events.
type Server struct {
	E    *echo.Echo
	cfg  *config.Config
	inst *table.Instance

	mu   sync.Mutex
	pubs map[string]*table.Publisher
}

// CustomValidator wraps the go-playground/validator library to implement
// Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a server around an existing instance. The caller keeps
// ownership of the instance.
func New(cfg *config.Config, inst *table.Instance) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Validator = &CustomValidator{validator: validator.New()}

	s := &Server{E: e, cfg: cfg, inst: inst, pubs: make(map[string]*table.Publisher)}
	s.registerRoutes()
	return s
}

// Start runs the HTTP server until an interrupt or terminate signal arrives,
// then shuts it down gracefully.
func (s *Server) Start() {
	go func() {
		if err := s.E.Start(s.cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.E.Shutdown(ctx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}
}
