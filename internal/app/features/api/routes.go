package api

import (
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Options configures the cross-cutting middleware of the API router.
type Options struct {
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// Limiter throttles each client IP. Nil disables rate limiting.
	Limiter *ratelimit.Limiter
	// Sessions reads the dashboard cookie for donor self-service routes.
	// Nil leaves those routes answering 401.
	Sessions *auth.SessionManager
}

// Routes builds the /api/v1 router. Registration, search, requests and stats
// are open. Changing a donor record needs the donor's own dashboard session;
// the cookie is SameSite=Lax, so cross-site PUT and PATCH arrive without it.
func Routes(h *Handler, opts Options) chi.Router {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if opts.Limiter != nil {
		r.Use(ratelimit.Middleware(opts.Limiter))
	}

	r.Route("/donors", func(r chi.Router) {
		r.Post("/", h.createDonor)
		r.Get("/", h.searchDonors)
		r.Get("/lookup", h.lookupDonor)
		r.Get("/{id}", h.getDonor)
		r.Group(func(r chi.Router) {
			if opts.Sessions != nil {
				r.Use(opts.Sessions.LoadDonor)
			}
			r.Use(ownDonorOnly)
			r.Put("/{id}", h.updateDonor)
			r.Patch("/{id}/availability", h.setAvailability)
		})
	})
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.createRequest)
		r.Get("/", h.listRequests)
		r.Delete("/{id}", h.resolveRequest)
	})
	r.Get("/stats", h.stats)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	return r
}

// ownDonorOnly lets a request through only when the signed-in donor is the
// one named by {id}.
func ownDonorOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur, ok := auth.CurrentDonor(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "sign in to the donor dashboard first"})
			return
		}
		if cur.DonorID != chi.URLParam(r, "id") {
			writeJSON(w, http.StatusForbidden, errorBody{Error: "you can only change your own donor record"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
