// Package dashboard streams live prediction activity to the interactive
// frontend. It provides a summary endpoint over the prediction archive and a
// WebSocket feed that pushes every new prediction as it is made.
package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"exoscan/internal/ensemble"
	"exoscan/internal/storage"
)

// summaryWindow bounds how far back the summary endpoint looks.
const summaryWindow = 24 * time.Hour

// Hub fans archived prediction records out to connected WebSocket clients.
type Hub struct {
	archive  *storage.Store
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
}

// NewHub builds a hub over the prediction archive (which may be nil; the
// live feed still works, the summary endpoint reports empty).
func NewHub(archive *storage.Store) *Hub {
	return &Hub{
		archive:  archive,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:  make(map[*websocket.Conn]bool),
	}
}

// Register attaches the dashboard routes to the API router.
func (h *Hub) Register(r *mux.Router) {
	r.HandleFunc("/api/v1/dashboard/summary", h.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/dashboard/ws", h.handleWS)
}

// Broadcast pushes one prediction record to every connected client,
// dropping clients whose connection has gone away.
func (h *Hub) Broadcast(rec storage.PredictionRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal prediction event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Debug().Err(err).Msg("dropping stale dashboard client")
			client.Close()
			delete(h.clients, client)
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	log.Info().Str("remote", conn.RemoteAddr().String()).Msg("dashboard client connected")

	// Reader loop exists only to observe the close.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// summary is the dashboard roll-up of recent activity.
type summary struct {
	Window       string         `json:"window"`
	Total        int            `json:"total"`
	ByLabel      map[string]int `json:"by_label"`
	WithWarnings int            `json:"with_warnings"`
	WarningRate  float64        `json:"warning_rate"`
}

func (h *Hub) handleSummary(w http.ResponseWriter, r *http.Request) {
	s := summary{Window: summaryWindow.String(), ByLabel: map[string]int{}}

	if h.archive != nil {
		recs, err := h.archive.PredictionsSince(time.Now().Add(-summaryWindow))
		if err != nil {
			http.Error(w, "archive unavailable", http.StatusInternalServerError)
			return
		}
		for _, rec := range recs {
			s.Total++
			s.ByLabel[rec.Result.Label]++
			if len(rec.Result.Warnings) > 0 && rec.Result.Label != ensemble.ErrorLabel {
				s.WithWarnings++
			}
		}
		if s.Total > 0 {
			s.WarningRate = float64(s.WithWarnings) / float64(s.Total)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		log.Error().Err(err).Msg("failed to encode summary")
	}
}
