package api

import (
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

// POST /api/v1/requests
func (h *Handler) createRequest(w http.ResponseWriter, r *http.Request) {
	var in directory.RequestInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "api create request")
	defer cancel()

	res, err := h.Svc.CreateEmergencyRequest(ctx, in)
	if err != nil {
		h.writeError(w, r, "create request", err)
		return
	}
	w.Header().Set("Location", "/api/v1/requests/"+res.ID())
	writeJSON(w, http.StatusCreated, map[string]any{
		"request":         toRequestView(res.Request),
		"matching_donors": res.MatchingDonors,
	})
}

// GET /api/v1/requests[?blood_group=]
//
// Without a group every request is returned newest first; with one, only
// that group's requests in store order.
func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api list requests")
	defer cancel()

	var (
		reqs []models.EmergencyRequest
		err  error
	)
	if g := normalize.QueryParam(query.Get(r, "blood_group")); g != "" {
		reqs, err = h.Svc.ListRequestsMatchingBloodGroup(ctx, models.BloodGroup(g))
	} else {
		reqs, err = h.Svc.ListEmergencyRequests(ctx)
	}
	if err != nil {
		h.writeError(w, r, "list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(reqs),
		"requests": toRequestViews(reqs),
	})
}

// DELETE /api/v1/requests/{id}
func (h *Handler) resolveRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "api resolve request")
	defer cancel()

	if err := h.Svc.ResolveEmergencyRequest(ctx, chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, "resolve request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/stats
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api stats")
	defer cancel()

	s, err := h.Svc.Stats(ctx)
	if err != nil {
		h.writeError(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
