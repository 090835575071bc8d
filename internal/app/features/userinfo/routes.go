// internal/app/features/userinfo/routes.go
package userinfo

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /api/me on the supplied router.
// The handler reads the donor placed in context by auth.LoadDonor, so the
// router must run that middleware.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/api/me", h.ServeUserInfo)
}
