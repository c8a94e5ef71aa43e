package status

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Server serves the status report over HTTP.
type Server struct {
	collector *Collector
	logger    *zap.Logger
}

func NewServer(collector *Collector, logger *zap.Logger) *Server {
	return &Server{collector: collector, logger: logger.Named("status_http")}
}

// Handler returns the routes wrapped with permissive CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	return cors.Default().Handler(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	recent := 0
	if raw := r.URL.Query().Get("recent"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid recent")
			return
		}
		recent = n
	}

	report, err := s.collector.Collect(recent)
	if err != nil {
		s.logger.Error("failed to collect status", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "status unavailable")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
