package emergency

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeBoard)
	r.Post("/", h.HandleCreate)
	r.Post("/{id}/resolve", h.HandleResolve)
	return r
}
