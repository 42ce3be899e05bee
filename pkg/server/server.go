package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/weframe/weframe-server/pkg/logger"
)

// Default read/write deadlines for the websocket transport, used by
// cmd/server when no override is wired in from configuration.
const (
	DefaultReadTimeout  = 60 * time.Second
	DefaultWriteTimeout = 10 * time.Second
)

// Server is the HTTP surface that bootstraps sessions and upgrades
// WebSocket connections at /ws/{session_id}.
type Server struct {
	manager *Manager
	mux     *http.ServeMux

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewServer creates a new HTTP server wired to manager.
func NewServer(manager *Manager, readTimeout, writeTimeout time.Duration) *Server {
	s := &Server{
		manager:      manager,
		mux:          http.NewServeMux(),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}

	s.mux.HandleFunc("/ws/", s.handleSocket)
	s.mux.HandleFunc("/stats", s.handleStats)

	return s
}

// ServeHTTP implements http.Handler, applying CORS headers for any
// origin on GET/POST/OPTIONS with a Content-Type header.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	withCORS(s.mux).ServeHTTP(w, r)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleSocket handles WebSocket upgrades for collaborative editing.
// Route: GET /ws/{session_id}
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/ws/")
	if sessionID == "" {
		http.Error(w, "session id required", http.StatusBadRequest)
		return
	}

	logger.Info("websocket upgrade request for session: %s", sessionID)

	session := s.manager.GetOrCreate(sessionID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		logger.Error("websocket upgrade failed: %v", err)
		return
	}

	clientID := uuid.NewString()
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "anonymous"
	}

	connHandler := NewConnection(clientID, session, conn, s.readTimeout, s.writeTimeout)
	if err := connHandler.Handle(r.Context(), name); err != nil {
		logger.Error("connection error (client=%s session=%s): %v", clientID, sessionID, err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

// Stats reports server-wide counters.
type Stats struct {
	NumSessions int `json:"numSessions"`
}

// handleStats returns server statistics. Route: GET /stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := Stats{NumSessions: s.manager.Count()}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	logger.Info("server listening on %s", addr)
	return http.ListenAndServe(addr, s)
}

// Shutdown kills all active sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.Shutdown()
	return nil
}
