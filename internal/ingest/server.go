// Package ingest is the reference receiver for field uploads: it accepts
// record batches over HTTP and stores them with an upload timestamp.
package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alexanderramin/dftlog/internal/domain"
	"github.com/alexanderramin/dftlog/internal/upload"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
	maxBodyBytes     = 8 << 20
)

// Server handles the ingest HTTP API.
type Server struct {
	store    *Store
	metrics  *Metrics
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	now      func() time.Time
}

// NewServer wires a receiver over store. Metrics are registered with a
// private registry served on /metrics.
func NewServer(store *Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	reg := prometheus.NewRegistry()
	return &Server{
		store:    store,
		metrics:  NewMetrics(reg),
		gatherer: reg,
		logger:   logger,
		now:      time.Now,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	s.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the receiver routes on router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/measurements").Subrouter()
	api.HandleFunc("/batch", s.PostBatch).Methods(http.MethodPost)
	api.HandleFunc("", s.ListRecent).Methods(http.MethodGet)

	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// PostBatch stores a batch of records.
// POST /api/measurements/batch
func (s *Server) PostBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req upload.BatchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.ObserveBatch("invalid", 0, time.Since(start))
		respondBatchError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for _, rec := range req.Records {
		if err := validateRecord(rec); err != nil {
			s.metrics.ObserveBatch("invalid", 0, time.Since(start))
			respondBatchError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	inserted, err := s.store.InsertBatch(r.Context(), req.Records, s.now())
	if err != nil {
		s.logger.Error("storing batch failed", "records", len(req.Records), "error", err)
		s.metrics.ObserveBatch("error", 0, time.Since(start))
		respondBatchError(w, http.StatusInternalServerError, "failed to store batch")
		return
	}

	s.logger.Info("batch stored", "records", len(req.Records), "inserted", inserted)
	s.metrics.ObserveBatch("ok", inserted, time.Since(start))
	respondJSON(w, http.StatusOK, upload.BatchResponse{Success: true, Count: len(req.Records)})
}

// ListRecent returns the most recent uploads.
// GET /api/measurements?limit=50
func (s *Server) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := getQueryInt(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing uploads failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}
	if records == nil {
		records = []StoredRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
		"limit":   limit,
	})
}

// Health reports whether the database is reachable.
// GET /healthz
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": string(s.store.Dialect())})
}

// validateRecord checks the shape of an uploaded record. Averages and
// snapshots are taken as sent.
func validateRecord(r domain.MeasurementRecord) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("record without id")
	case r.PointID == "":
		return fmt.Errorf("record %s: pointId is required", r.ID)
	case len(r.Values) < domain.MinValues || len(r.Values) > domain.MaxValues:
		return fmt.Errorf("record %s: values must hold %d to %d readings, got %d",
			r.ID, domain.MinValues, domain.MaxValues, len(r.Values))
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondBatchError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, upload.BatchResponse{Success: false, Error: message})
}

func getQueryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
