package internal

import (
	"encoding/json"
	"net"
	"net/http"
	"time"

	"chatpane/internal/storage"
)

const (
	mutationRateLimit  = 30
	mutationRateWindow = time.Minute
)

// Server bundles the store, the feed hub, and the supporting trackers behind
// the HTTP handlers. Construct one with NewServer and register its handlers
// on a mux.
type Server struct {
	store           *storage.Store
	hub             *Hub
	metrics         *Metrics
	presence        *PresenceTracker
	mutationLimiter *RateLimiter
	attachmentDir   string
}

func NewServer(store *storage.Store, attachmentDir string) *Server {
	return &Server{
		store:           store,
		hub:             NewHub(),
		metrics:         NewMetrics(),
		presence:        NewPresenceTracker(),
		mutationLimiter: NewRateLimiter(mutationRateLimit, mutationRateWindow),
		attachmentDir:   attachmentDir,
	}
}

// MetricsHandler exposes the counter snapshot as JSON.
func (s *Server) MetricsHandler() http.Handler {
	return s.metrics
}

// HandleHealthz reports liveness; it says nothing about the store.
func (s *Server) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleConversationExists answers whether a conversation feed currently has
// viewers. Cheap poll target for the client before dialing the socket.
func (s *Server) HandleConversationExists(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("conversation")
	if key == "" {
		http.Error(w, "missing conversation", http.StatusBadRequest)
		return
	}
	if s.hub.Exists(key) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	}
	http.Error(w, "not found", http.StatusNotFound)
}

// broadcastEvent pushes a change envelope to the conversation's feed, if any
// viewer is connected.
func (s *Server) broadcastEvent(event ChangeEvent) {
	if event.Ts == 0 {
		event.Ts = time.Now().Unix()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	s.hub.Broadcast(event.ConversationKey, payload)
}

func (s *Server) clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func decodeJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
