package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
// There is no authentication layer; the bridge is meant for trusted
// local networks, the same trust model as the clock's own HTTP API.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/state", func(r chi.Router) {
			r.Get("/", s.handleGetState)
			r.Patch("/", s.handlePatchState)
			r.Get("/history", s.handleGetHistory)
		})
	})

	r.Get("/ws", s.handleWebSocket)

	return r
}

// handleHealth returns the server health status and the stream state.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"clock_id":   s.clock.ClockID(),
		"connection": s.clock.State(),
		"ws_clients": s.hub.ClientCount(),
	})
}
