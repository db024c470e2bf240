package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hyperengineering/fastline/internal/events"
	"github.com/hyperengineering/fastline/internal/remote"
)

// DefaultEventWindow bounds how old a completion may be and still be announced.
const DefaultEventWindow = 24 * time.Hour

// maxAnnounced caps the in-memory set of fast IDs already published.
const maxAnnounced = 10000

// Handler implements the API handlers
type Handler struct {
	remote  remote.Store
	events  events.Publisher
	version string
	window  time.Duration
	now     func() time.Time

	mu        sync.Mutex
	announced map[string]struct{}
}

// NewHandler creates a Handler. A nil publisher drops events.
func NewHandler(rs remote.Store, pub events.Publisher, version string) *Handler {
	if pub == nil {
		pub = events.Noop{}
	}
	return &Handler{
		remote:    rs,
		events:    pub,
		version:   version,
		window:    DefaultEventWindow,
		now:       time.Now,
		announced: make(map[string]struct{}),
	}
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Remote  string `json:"remote"`
}

// Health reports gateway health. A gateway without a backend is healthy
// because it accepts and discards writes; an unreachable backend is not.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Version: h.version, Remote: "ok"}
	status := http.StatusOK

	if err := h.remote.Ping(r.Context()); err != nil {
		if errors.Is(err, remote.ErrNotConfigured) {
			resp.Remote = "not_configured"
		} else {
			slog.Warn("remote ping failed",
				"component", "api",
				"error", err,
			)
			resp.Status = "degraded"
			resp.Remote = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "component", "api", "error", err)
	}
}
