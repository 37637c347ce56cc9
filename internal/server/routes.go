package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Generation (immediate path)
	mux.HandleFunc("/api/generate", s.app.GenerateHandler.GenerateHandler) // POST - run generation synchronously

	// API routes - Queue (deferred path)
	mux.HandleFunc("/api/queue", s.handleQueueRoute)                        // GET (list), POST (enqueue)
	mux.HandleFunc("/api/queue/process", s.app.QueueHandler.ProcessHandler) // POST - trigger one processing cycle
	mux.HandleFunc("/api/queue/batch/", s.app.QueueHandler.BatchHandler)    // GET /{id} - batch detail

	// API routes - Backend selection
	mux.HandleFunc("/api/backend/status", s.app.BackendHandler.StatusHandler) // GET - availability snapshot
	mux.HandleFunc("/api/backend/mode", s.app.BackendHandler.ModeHandler)     // PUT - change mode preference

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleQueueRoute dispatches /api/queue by method
func (s *Server) handleQueueRoute(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") != "/api/queue" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.app.QueueHandler.ListHandler(w, r)
	case http.MethodPost:
		s.app.QueueHandler.EnqueueHandler(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
