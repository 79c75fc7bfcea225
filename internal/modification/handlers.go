package modification

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"labportal/internal/api"
)

type Handlers struct {
	Workflow *Workflow
}

type createRequest struct {
	NewQuantity int    `json:"newQuantity"`
	Reason      string `json:"reason"`
}

// CreateByUser proposes a quantity change on the caller's own booking; an
// admin must approve it.
func (h Handlers) CreateByUser(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, SideCustomer)
}

// CreateByAdmin proposes a quantity change on behalf of the lab; the booking
// owner must approve it. Admin role is enforced by the router group.
func (h Handlers) CreateByAdmin(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, SideAdmin)
}

func (h Handlers) create(w http.ResponseWriter, r *http.Request, side Side) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	m, err := h.Workflow.Create(r.Context(), chi.URLParam(r, "id"), u, side, req.NewQuantity, req.Reason)
	if err != nil {
		api.WriteFault(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"modification": m})
}

type respondRequest struct {
	Approved bool `json:"approved"`
}

// Respond resolves a pending modification. The same handler serves both
// routes; CanRespond decides who the legitimate counterparty is.
func (h Handlers) Respond(w http.ResponseWriter, r *http.Request) {
	u := api.UserFromContext(r.Context())
	if u == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	m, err := h.Workflow.Respond(r.Context(), chi.URLParam(r, "id"), req.Approved, u)
	if err != nil {
		api.WriteFault(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"modification": m})
}
