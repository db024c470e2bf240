package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hyperengineering/fastline/internal/remote"
	"github.com/hyperengineering/fastline/internal/types"
	"github.com/hyperengineering/fastline/internal/validation"
)

// maxBodyBytes bounds request bodies. Payloads carry full family snapshots.
const maxBodyBytes = 8 << 20

// FamilyStatus reports the outcome of one family's upsert.
type FamilyStatus struct {
	OK      bool   `json:"ok"`
	Count   int    `json:"count"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SyncResponse is the body of POST /api/v1/sync.
type SyncResponse struct {
	OK       bool                          `json:"ok"`
	Families map[types.Family]FamilyStatus `json:"families"`
}

// SyncAll handles POST /api/v1/sync. Families are written independently;
// the response flags each one. 502 only when every present family failed.
func (h *Handler) SyncAll(w http.ResponseWriter, r *http.Request) {
	var p types.SyncPayload
	if err := decodeBody(w, r, &p); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validatePayload(p); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Payload contains invalid records", errs)
		return
	}

	resp := SyncResponse{OK: true, Families: make(map[types.Family]FamilyStatus)}
	attempted, failed := 0, 0
	for _, f := range types.Families {
		if !p.Has(f) {
			continue
		}
		attempted++
		st := h.upsert(r.Context(), f, p)
		resp.Families[f] = st
		if !st.OK {
			failed++
			resp.OK = false
		}
	}

	status := http.StatusOK
	if attempted > 0 && failed == attempted {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// SyncFamily handles POST /api/v1/sync/{family} with a JSON array of logs.
func (h *Handler) SyncFamily(w http.ResponseWriter, r *http.Request) {
	f := types.Family(chi.URLParam(r, "family"))

	var p types.SyncPayload
	var err error
	switch f {
	case types.FamilyFasting:
		err = decodeBody(w, r, &p.FastingLogs)
	case types.FamilyWater:
		err = decodeBody(w, r, &p.WaterLogs)
	case types.FamilyWeight:
		err = decodeBody(w, r, &p.WeightLogs)
	default:
		WriteProblem(w, r, http.StatusNotFound, "Unknown log family")
		return
	}
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if errs := validatePayload(p); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Payload contains invalid records", errs)
		return
	}

	st := h.upsert(r.Context(), f, p)
	if !st.OK {
		WriteProblem(w, r, http.StatusBadGateway, "Remote write failed")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// upsert writes one family. With no backend configured the write is accepted
// and discarded so offline-capable clients can drain their queues.
func (h *Handler) upsert(ctx context.Context, f types.Family, p types.SyncPayload) FamilyStatus {
	count := familyCount(p, f)
	err := remote.Upsert(ctx, h.remote, f, p)
	switch {
	case err == nil:
		if f == types.FamilyFasting {
			h.announceCompleted(ctx, p.FastingLogs)
		}
		return FamilyStatus{OK: true, Count: count}
	case errors.Is(err, remote.ErrNotConfigured):
		slog.Info("no remote configured, write accepted",
			"component", "api",
			"action", "sync_skipped",
			"family", f,
			"count", count,
		)
		return FamilyStatus{OK: true, Count: count, Skipped: true}
	default:
		slog.Error("remote write failed",
			"component", "api",
			"action", "sync_failed",
			"family", f,
			"error", err,
		)
		return FamilyStatus{OK: false, Count: count, Error: "write failed"}
	}
}

type moodRequest struct {
	Mood string `json:"mood"`
}

// UpdateMood handles PATCH /api/v1/fasting/{id}/mood.
func (h *Handler) UpdateMood(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req moodRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if err := types.ValidateMood(req.Mood); err != nil {
		MapError(w, r, err)
		return
	}

	err := h.remote.UpdateMood(r.Context(), id, req.Mood)
	if errors.Is(err, remote.ErrNotConfigured) {
		slog.Info("no remote configured, mood discarded",
			"component", "api",
			"fast_id", id,
		)
		err = nil
	}
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			slog.Error("mood update failed", "component", "api", "fast_id", id, "error", err)
		}
		MapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pushRequest struct {
	Subscription json.RawMessage `json:"subscription"`
	UserID       string          `json:"userId"`
}

// PushSubscribe handles POST /api/v1/push/subscribe.
func (h *Handler) PushSubscribe(w http.ResponseWriter, r *http.Request) {
	var req pushRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return
	}
	if len(req.Subscription) == 0 || string(req.Subscription) == "null" {
		WriteProblem(w, r, http.StatusBadRequest, "Missing subscription")
		return
	}

	sub := remote.PushSubscription{UserID: req.UserID, Subscription: req.Subscription}
	if sub.UserID == "" {
		sub.UserID, _ = remote.UserIDFrom(r.Context())
	}
	if err := h.remote.SavePushSubscription(r.Context(), sub); err != nil {
		slog.Error("save push subscription failed", "component", "api", "error", err)
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// announceCompleted publishes recently completed fasts once per process.
// Clients resend full fasting history, so older or already announced
// completions are skipped; consumers dedupe on fastId across restarts.
func (h *Handler) announceCompleted(ctx context.Context, logs []types.FastingLog) {
	user, _ := remote.UserIDFrom(ctx)
	cutoff := h.now().Add(-h.window)

	for _, l := range logs {
		if l.Status != types.StatusCompleted || l.End == nil || l.End.Before(cutoff) {
			continue
		}
		if !h.markAnnounced(l.ID) {
			continue
		}
		if err := h.events.FastingCompleted(ctx, user, l); err != nil {
			h.forget(l.ID)
			eventsPublished.WithLabelValues("error").Inc()
			slog.Warn("publish completion failed",
				"component", "api",
				"fast_id", l.ID,
				"error", err,
			)
			continue
		}
		eventsPublished.WithLabelValues("ok").Inc()
	}
}

func (h *Handler) markAnnounced(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.announced[id]; ok {
		return false
	}
	if len(h.announced) >= maxAnnounced {
		h.announced = make(map[string]struct{})
	}
	h.announced[id] = struct{}{}
	return true
}

func (h *Handler) forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.announced, id)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func familyCount(p types.SyncPayload, f types.Family) int {
	switch f {
	case types.FamilyFasting:
		return len(p.FastingLogs)
	case types.FamilyWater:
		return len(p.WaterLogs)
	case types.FamilyWeight:
		return len(p.WeightLogs)
	}
	return 0
}

// validatePayload checks every record, collecting all failures.
func validatePayload(p types.SyncPayload) []validation.ValidationError {
	c := &validation.Collector{}
	statuses := []string{string(types.StatusIdle), string(types.StatusRunning), string(types.StatusCompleted)}

	for i, l := range p.FastingLogs {
		prefix := fmt.Sprintf("fastingLogs[%d].", i)
		c.Add(validation.ValidateUUID(prefix+"id", l.ID))
		c.Add(validation.ValidateEnum(prefix+"status", string(l.Status), statuses))
		c.Add(validation.ValidateIntRange(prefix+"targetHours", l.TargetHours, types.MinTargetHours, types.MaxTargetHours))
		if l.Start.IsZero() {
			c.Add(&validation.ValidationError{Field: prefix + "start", Message: "is required"})
		}
		if l.Status == types.StatusCompleted && l.End == nil {
			c.Add(&validation.ValidationError{Field: prefix + "end", Message: "is required for completed fasts"})
		}
		if l.End != nil && l.End.Before(l.Start) {
			c.Add(&validation.ValidationError{Field: prefix + "end", Message: "must not precede start"})
		}
		if l.Mood != "" {
			c.Add(validation.ValidateMaxLength(prefix+"mood", l.Mood, types.MaxMoodLength))
		}
	}
	for i, l := range p.WaterLogs {
		prefix := fmt.Sprintf("waterLogs[%d].", i)
		c.Add(validation.ValidateUUID(prefix+"id", l.ID))
		c.Add(validation.ValidateDay(prefix+"date", string(l.Date)))
		c.Add(validation.ValidateIntRange(prefix+"ml", l.ML, 1, types.MaxWaterML))
	}
	for i, l := range p.WeightLogs {
		prefix := fmt.Sprintf("weightLogs[%d].", i)
		c.Add(validation.ValidateUUID(prefix+"id", l.ID))
		c.Add(validation.ValidateDay(prefix+"date", string(l.Date)))
		c.Add(validation.ValidateRange(prefix+"weight", l.Weight, types.MinWeightKG, types.MaxWeightKG))
	}
	return c.Errors()
}
