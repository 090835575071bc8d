// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/bloodlink/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the basic view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Heading   string
	Message   string
	Reference string
}

// Handler is the errors feature handler.
// No DB needed; it just renders templates.
type Handler struct{}

// NewHandler constructs an errors Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound renders the 404 page for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	RenderNotFound(w, r, "The page you were looking for does not exist.", "/")
}

// Forbidden renders the 403 page. The CSRF middleware uses it when a form
// token is missing or stale.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, "Form expired",
		"Your form session expired or the request could not be verified. Please go back, reload the page and try again.", "", "/")
}

// RenderNotFound shows a 404 page with msg. Used for unknown donors and
// requests as well as unknown routes.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	render(w, r, http.StatusNotFound, "Not found", msg, "", backURL)
}

func render(w http.ResponseWriter, r *http.Request, status int, heading, msg, ref, backURL string) {
	if backURL == "" {
		backURL = "/"
	}
	data := pageData{
		BaseVM:    viewdata.NewBaseVM(r, heading, backURL),
		Heading:   heading,
		Message:   msg,
		Reference: ref,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}
