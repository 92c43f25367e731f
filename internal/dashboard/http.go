// Package dashboard exposes the read-only HTTP status API consumed by the
// web UI. It only projects snapshots from the ingestion pipeline and holds
// no state of its own.
package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/your-org/mediasink/internal/ingest"
)

// StatusSource is the slice of the ingestion service the dashboard reads.
type StatusSource interface {
	Snapshot() []ingest.VideoRecord
	Counters() ingest.Counters
	QueueStatus() ingest.QueueStatus
}

// Handler serves the dashboard endpoints.
type Handler struct {
	source StatusSource
	logger *zap.Logger
	router chi.Router
}

// NewHandler constructs the handler and wires routes.
func NewHandler(source StatusSource, logger *zap.Logger) *Handler {
	h := &Handler{
		source: source,
		logger: logger,
	}
	h.buildRouter()
	return h
}

func (h *Handler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.handleHealth)
	r.Get("/api/v1/statistics", h.handleStatistics)
	r.Get("/api/v1/queue", h.handleQueue)
	r.Get("/api/v1/videos", h.handleVideos)

	h.router = r
}

// Router exposes the configured chi router.
func (h *Handler) Router() http.Handler {
	return h.router
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	c := h.source.Counters()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_received":   c.Received,
		"total_processed":  c.Processed,
		"total_dropped":    c.Dropped,
		"total_duplicates": c.Duplicates,
	})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.source.QueueStatus())
}

func (h *Handler) handleVideos(w http.ResponseWriter, r *http.Request) {
	records := h.source.Snapshot()
	h.logger.Debug("serving video snapshot", zap.Int("records", len(records)))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(records),
		"videos": records,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
