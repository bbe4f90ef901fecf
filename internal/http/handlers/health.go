package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/finanbot/finanbot/internal/http/respond"
)

// Pinger is the database connectivity probe, satisfied by the storage
// layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober verifies a filesystem dependency is writable, satisfied by the
// attachments store.
type Prober interface {
	Probe() error
}

// HealthHandler reports uptime plus database and filesystem status.
type HealthHandler struct {
	startedAt time.Time
	db        Pinger
	fs        Prober
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, db Pinger, fs Prober) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, db: db, fs: fs}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{
		"database":   "ok",
		"filesystem": "ok",
	}
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			checks["database"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	if h.fs != nil {
		if err := h.fs.Probe(); err != nil {
			checks["filesystem"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	respond.JSON(w, status, "health", map[string]any{
		"status": checks,
		"uptime": time.Since(h.startedAt).Truncate(time.Second).String(),
	})
}
