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

// POST /api/v1/donors
func (h *Handler) createDonor(w http.ResponseWriter, r *http.Request) {
	var in directory.DonorInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api register donor")
	defer cancel()

	d, err := h.Svc.RegisterDonor(ctx, in)
	if err != nil {
		h.writeError(w, r, "register donor", err)
		return
	}
	w.Header().Set("Location", "/api/v1/donors/"+d.ID.Hex())
	writeJSON(w, http.StatusCreated, toDonorView(d))
}

// GET /api/v1/donors?blood_group=&city=
func (h *Handler) searchDonors(w http.ResponseWriter, r *http.Request) {
	f := directory.SearchFilter{
		BloodGroup: models.BloodGroup(normalize.QueryParam(query.Get(r, "blood_group"))),
		City:       normalize.QueryParam(query.Get(r, "city")),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api search donors")
	defer cancel()

	donors, err := h.Svc.SearchDonors(ctx, f)
	if err != nil {
		h.writeError(w, r, "search donors", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(donors),
		"donors": toDonorViews(donors),
	})
}

// GET /api/v1/donors/lookup?phone=
func (h *Handler) lookupDonor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "api lookup donor")
	defer cancel()

	d, err := h.Svc.FindDonorByPhone(ctx, query.Get(r, "phone"))
	if err != nil {
		h.writeError(w, r, "lookup donor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorView(d))
}

// GET /api/v1/donors/{id}
func (h *Handler) getDonor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "api get donor")
	defer cancel()

	d, err := h.Svc.GetDonor(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get donor", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorView(d))
}

type availabilityInput struct {
	Available *bool `json:"available"`
}

// PATCH /api/v1/donors/{id}/availability
func (h *Handler) setAvailability(w http.ResponseWriter, r *http.Request) {
	var in availabilityInput
	if !decode(w, r, &in) {
		return
	}
	if in.Available == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "Available is required.",
			Field:  "available",
			Fields: map[string]string{"available": "Available is required."},
		})
		return
	}

	id := chi.URLParam(r, "id")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "api set availability")
	defer cancel()

	if err := h.Svc.UpdateDonorAvailability(ctx, id, *in.Available); err != nil {
		h.writeError(w, r, "set availability", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "available": *in.Available})
}

// PUT /api/v1/donors/{id}
func (h *Handler) updateDonor(w http.ResponseWriter, r *http.Request) {
	var in directory.ProfileInput
	if !decode(w, r, &in) {
		return
	}

	id := chi.URLParam(r, "id")
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "api update donor")
	defer cancel()

	if err := h.Svc.UpdateDonorProfile(ctx, id, in); err != nil {
		h.writeError(w, r, "update donor", err)
		return
	}
	d, err := h.Svc.GetDonor(ctx, id)
	if err != nil {
		h.writeError(w, r, "update donor: reload", err)
		return
	}
	writeJSON(w, http.StatusOK, toDonorView(d))
}
