package api

import "net/http"

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(s *Server) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /estado", s.handleStatus)
	mux.HandleFunc("GET /activar", s.handleActivate)
	mux.HandleFunc("GET /desactivar", s.handleDeactivate)
	mux.HandleFunc("POST /analizar", s.handleAnalyze)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", s.hub.HandleWS)

	return withCORS(withTrace(s.instrument(mux)))
}
