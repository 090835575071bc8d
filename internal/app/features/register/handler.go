// Package register serves the donor registration form.
package register

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/formutil"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// SuccessMessage is shown after a redirect with ?registered=1.
const SuccessMessage = "🎉 Registration successful! You are now a donor."

type Handler struct {
	Svc    *directory.Service
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *directory.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		ErrLog: errLog,
		Log:    logger,
	}
}

type formData struct {
	formutil.Base
	Input  directory.DonorInput
	Groups formutil.GroupSelect
}

func (h *Handler) newForm(r *http.Request, in directory.DonorInput) formData {
	data := formData{Input: in, Groups: formutil.BloodGroups(in.BloodGroup)}
	formutil.SetBase(&data.Base, r, "Register as a Donor", "/")
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /register                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeForm(w http.ResponseWriter, r *http.Request) {
	data := h.newForm(r, directory.DonorInput{})
	if r.URL.Query().Get("registered") == "1" {
		data.Success = SuccessMessage
	}
	templates.Render(w, r, "register", data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /register                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse registration form", err, "Invalid form submission.", "/register")
		return
	}

	in := directory.DonorInput{
		Name:       strings.TrimSpace(r.FormValue("name")),
		BloodGroup: strings.TrimSpace(r.FormValue("blood_group")),
		Phone:      strings.TrimSpace(r.FormValue("phone")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		City:       strings.TrimSpace(r.FormValue("city")),
		Area:       strings.TrimSpace(r.FormValue("area")),
		Lat:        formutil.OptionalFloat(r, "lat"),
		Lng:        formutil.OptionalFloat(r, "lng"),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register donor")
	defer cancel()

	_, err := h.Svc.RegisterDonor(ctx, in)
	if err == nil {
		http.Redirect(w, r, "/register?registered=1", http.StatusSeeOther)
		return
	}

	data := h.newForm(r, in)
	if ve, ok := directory.AsValidation(err); ok {
		data.SetFieldErrors(ve.ByField())
		data.SetError("Please fix the highlighted fields.")
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "register", data)
		return
	}
	if errors.Is(err, directory.ErrDuplicatePhone) {
		data.SetFieldErrors(map[string]string{"phone": err.Error()})
		data.SetError("This phone number is already registered!")
		w.WriteHeader(http.StatusConflict)
		templates.Render(w, r, "register", data)
		return
	}
	h.ErrLog.LogUnavailable(w, r, "register donor", err, "Registration failed. Please try again shortly.", "/register")
}
