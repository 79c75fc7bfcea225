package sample

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"labportal/internal/api"
)

type Handlers struct {
	Repo *Repository
	// Recompute re-derives the parent booking's status after a sample moves.
	// Injected as a function to keep this package independent of the booking
	// engine.
	Recompute func(ctx context.Context, bookingID string) error
	Log       zerolog.Logger
}

type patchStatusRequest struct {
	Status string `json:"status"`
}

// PatchStatus advances a sample's lab-processing state and triggers the
// booking lifecycle recompute. Lab staff and admin only (enforced by the
// router group).
func (h Handlers) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "missing id")
		return
	}

	var req patchStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	next, err := ParseStatus(req.Status)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid sample status")
		return
	}

	t, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		api.WriteFault(w, err)
		return
	}

	if err := h.Repo.UpdateStatus(r.Context(), id, next); err != nil {
		api.WriteFault(w, err)
		return
	}
	t.Status = next

	if err := h.Recompute(r.Context(), t.BookingRequestID); err != nil {
		// The sample update stands; the next trigger will converge the
		// booking status.
		h.Log.Error().Err(err).Str("booking_id", t.BookingRequestID).Msg("lifecycle recompute failed")
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"sample": t})
}
