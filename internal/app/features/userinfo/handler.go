// Package userinfo reports which donor, if any, the browser session belongs to.
package userinfo

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/system/auth"
)

// Handler serves the session's donor identity.
type Handler struct{}

// NewHandler creates a new userinfo handler.
func NewHandler() *Handler {
	return &Handler{}
}

// ServeUserInfo returns JSON describing the signed-in donor.
//
// Response format:
//
//	{ "isAuthenticated": bool, "donor_id": "...", "name": "...", "blood_group": "...", "city": "..." }
//
// Fields are empty strings when no donor is signed in.
func (h *Handler) ServeUserInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	d, ok := auth.CurrentDonor(r)
	if !ok {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"isAuthenticated": false,
			"donor_id":        "",
			"name":            "",
			"blood_group":     "",
			"city":            "",
		})
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"isAuthenticated": true,
		"donor_id":        d.DonorID,
		"name":            d.Name,
		"blood_group":     string(d.BloodGroup),
		"city":            d.City,
	})
}
