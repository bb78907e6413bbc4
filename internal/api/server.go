// Package api provides the HTTP REST API and WebSocket server for the
// WordClock bridge.
//
// It exposes the mirrored clock state, accepts state mutations, serves
// the state change history, and broadcasts state_changed events to
// WebSocket subscribers.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-wordclock/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-wordclock/internal/wordclock"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ClockService is the coordinator surface the API consumes.
// Satisfied by *wordclock.Coordinator.
type ClockService interface {
	ClockID() string
	ClockName() string
	Snapshot() (wordclock.Snapshot, bool)
	OnChange(fn wordclock.ChangeFunc) *wordclock.Subscription
	RequestMutation(ctx context.Context, fields wordclock.Snapshot) bool
	State() wordclock.State
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Logger  *logging.Logger
	Clock   ClockService
	History wordclock.HistoryRepository // optional; history endpoint 404s without it
	Version string
}

// Server is the HTTP API server for the WordClock bridge.
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	logger  *logging.Logger
	clock   ClockService
	history wordclock.HistoryRepository
	version string

	server   *http.Server
	hub      *Hub
	stateSub *wordclock.Subscription
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Clock == nil {
		return nil, fmt.Errorf("clock service is required")
	}

	return &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		logger:  deps.Logger,
		clock:   deps.Clock,
		history: deps.History,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, attaches to the clock's change feed for
// real-time broadcast, and launches the HTTP listener in a background
// goroutine. The server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	// Relay snapshot changes to WebSocket subscribers.
	s.stateSub = s.clock.OnChange(func(snap wordclock.Snapshot) {
		s.hub.Broadcast(ChannelStateChanged, map[string]any{
			"clock_id": s.clock.ClockID(),
			"state":    snap,
		})
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It detaches from the clock's change feed, waits up to 10 seconds for
// in-flight requests, then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.stateSub != nil {
		s.stateSub.Unsubscribe()
		s.stateSub = nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
