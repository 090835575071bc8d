package dashboard

import (
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the donor dashboard under whatever mount point the top-level
// router chooses (e.g., "/dashboard").
//
// GET / shows the phone login form to anonymous visitors and the dashboard
// to a signed-in donor. Mutations require a signed-in donor.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeDashboard)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireDonor)
		pr.Post("/availability", h.HandleAvailability)
		pr.Post("/profile", h.HandleProfile)
	})

	return r
}
