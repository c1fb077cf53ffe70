package uiapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wattnudge/wattnudge/internal/monitor"
)

// Server exposes the monitor's state to the menu-bar frontend over a
// local HTTP API.
type Server struct {
	mon *monitor.Monitor
}

// NewServer creates a server backed by the given monitor.
func NewServer(mon *monitor.Monitor) *Server {
	return &Server{mon: mon}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(30 * time.Second)).Group(func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Get("/prices", s.handlePrices)
			r.Get("/weather", s.handleWeather)
			r.Get("/recommendations", s.handleRecommendations)
			r.Post("/refresh", s.handleRefresh)
		})
		// The event stream stays open until the client disconnects
		r.Get("/events", s.handleEvents)
	})

	return r
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.mon.Snapshot())
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	view := s.mon.Snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"current":  view.Current,
		"today":    view.Today,
		"tomorrow": view.Tomorrow,
	})
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	view := s.mon.Snapshot()
	if view.Sun == nil {
		respondError(w, http.StatusNotFound, "no weather data yet")
		return
	}
	respondJSON(w, http.StatusOK, view.Sun)
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.mon.Snapshot().Recommendations)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mon.Refresh(r.Context())
	respondJSON(w, http.StatusOK, s.mon.Snapshot())
}

// handleEvents streams bus events as server-sent events until the client
// disconnects.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	events, cancel := s.mon.Bus().Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, payload)
			flusher.Flush()
		}
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
