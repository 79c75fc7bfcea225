package booking

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"labportal/internal/api"
	"labportal/internal/sample"
	"labportal/internal/serviceitem"
	"labportal/internal/workspace"
)

type Handlers struct {
	Svc     *Service
	Repo    *Repository
	Items   *serviceitem.Repository
	Slots   *workspace.Repository
	Samples *sample.Repository
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var (
		items []BookingRequest
		err   error
	)
	if u.IsAdmin() {
		items, err = h.Repo.ListAll(r.Context())
	} else {
		items, err = h.Repo.ListByUser(r.Context(), u.ID)
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"items": items})
}

func (h Handlers) Get(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	b, err := h.Repo.GetBooking(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	if !u.IsAdmin() && b.UserID != u.ID {
		// Hide other users' bookings rather than confirming they exist.
		api.WriteError(w, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}

	items, err := h.Items.ListByBooking(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	slots, err := h.Slots.ListByBooking(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	samples, err := h.Samples.ListByBooking(r.Context(), b.ID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"booking":    b,
		"items":      items,
		"workspaces": slots,
		"samples":    samples,
	})
}

func (h Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	b, err := h.Svc.Submit(r.Context(), chi.URLParam(r, "id"), u.ID)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"booking": b})
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel is the customer path. The admin variant lives under /admin and
// additionally may cancel completed bookings.
func (h Handlers) Cancel(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req cancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b, err := h.Svc.CancelByUser(r.Context(), chi.URLParam(r, "id"), u.ID, req.Reason)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"booking": b})
}

func (h Handlers) AdminCancel(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req cancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b, err := h.Svc.CancelByAdmin(r.Context(), chi.URLParam(r, "id"), u.ID, req.Reason)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"booking": b})
}

type timelineRequest struct {
	PreferredStartDate *time.Time `json:"preferredStartDate"`
	PreferredEndDate   *time.Time `json:"preferredEndDate"`
}

func (h Handlers) PatchTimeline(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	id := chi.URLParam(r, "id")
	b, err := h.Repo.GetBooking(r.Context(), id)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	if !u.IsAdmin() && b.UserID != u.ID {
		api.WriteError(w, http.StatusNotFound, "BOOKING_NOT_FOUND", "Booking not found")
		return
	}

	var req timelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	if err := h.Svc.UpdateTimeline(r.Context(), id, req.PreferredStartDate, req.PreferredEndDate); err != nil {
		api.WriteFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}

func (h Handlers) Review(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	b, err := h.Svc.Review(r.Context(), chi.URLParam(r, "id"), u.ID, ReviewAction(req.Action), req.Notes)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"booking": b})
}

type forceCompleteRequest struct {
	Reason string `json:"reason"`
}

func (h Handlers) ForceComplete(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req forceCompleteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	res, err := h.Svc.ForceComplete(r.Context(), chi.URLParam(r, "id"), u.ID, req.Reason)
	if err != nil {
		api.WriteFault(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
