// Package api exposes the prediction engine over HTTP for the dashboard.
// It is thin glue: request decoding, CSV upload parsing, and CORS, with all
// decisions delegated to the ensemble engine.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"exoscan/internal/cfg"
	"exoscan/internal/ensemble"
	"exoscan/internal/metrics"
	"exoscan/internal/storage"
)

// Server serves the prediction API.
type Server struct {
	engine  *ensemble.Engine
	archive *storage.Store // optional
	metrics *metrics.Metrics
	hub     Broadcaster // optional live feed
	maxRows int
	router  *mux.Router
	server  *http.Server
}

// Broadcaster receives every archived prediction for live streaming.
type Broadcaster interface {
	Broadcast(rec storage.PredictionRecord)
}

// NewServer wires the API routes. archive and hub may be nil.
func NewServer(engine *ensemble.Engine, archive *storage.Store, m *metrics.Metrics, hub Broadcaster, settings cfg.Settings) *Server {
	s := &Server{
		engine:  engine,
		archive: archive,
		metrics: m,
		hub:     hub,
		maxRows: settings.MaxBatchSize,
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware(settings.AllowedOrigins))
	r.HandleFunc("/api/v1/predict", s.handlePredict).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/v1/batch-predict", s.handleBatchPredict).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/model/info", s.handleModelInfo).Methods(http.MethodGet)
	s.router = r

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", settings.APIPort),
		Handler:      r,
		ReadTimeout:  settings.RequestTimeout,
		WriteTimeout: settings.RequestTimeout,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Router exposes the underlying router so collaborators (the dashboard hub)
// can attach their own routes before Start.
func (s *Server) Router() *mux.Router { return s.router }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// decodeObservation tolerates JSON null values and non-numeric noise by
// dropping those keys; the engine substitutes defaults for anything absent.
func decodeObservation(raw map[string]*float64) ensemble.Observation {
	obs := make(ensemble.Observation, len(raw))
	for k, v := range raw {
		if v == nil || math.IsNaN(*v) {
			continue
		}
		obs[k] = *v
	}
	return obs
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	s.metrics.RequestsTotal.Inc()

	var raw map[string]*float64
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	obs := decodeObservation(raw)

	pred, err := s.engine.Predict(obs)
	record := ensemble.Outcome{Prediction: pred, Err: err}.Record()
	if err != nil {
		log.Warn().Err(err).Msg("prediction failed")
	}
	s.archiveRecord("api", obs, record)

	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	status := "healthy"
	code := http.StatusOK
	if !store.Ready() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, map[string]any{
		"status":      status,
		"model_state": store.State().String(),
		"version":     store.Version(),
		"loaded_at":   store.LoadedAt(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Store()
	wA, wB := store.Weights()
	labels := store.Labels()
	s.writeJSON(w, http.StatusOK, map[string]any{
		"version":            store.Version(),
		"state":              store.State().String(),
		"blend_weights":      map[string]float64{"forest": wA, "softmax": wB},
		"class_labels":       labels[:],
		"feature_order":      ensemble.FeatureNames(),
		"feature_importance": s.engine.TopFeatures(),
	})
}

func (s *Server) archiveRecord(source string, obs ensemble.Observation, record ensemble.Prediction) {
	if s.archive == nil {
		return
	}
	rec := storage.PredictionRecord{
		Ts:          time.Now(),
		Source:      source,
		Observation: obs,
		Result:      record,
	}
	if err := s.archive.StorePrediction(rec); err != nil {
		log.Warn().Err(err).Msg("failed to archive prediction")
	}
	if s.hub != nil {
		s.hub.Broadcast(rec)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.metrics.ErrorsTotal.Inc()
	s.writeJSON(w, code, map[string]string{"detail": msg})
}

// corsMiddleware allows the dashboard origins to call the API directly.
func corsMiddleware(origins []string) mux.MiddlewareFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
