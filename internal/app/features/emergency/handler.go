// Package emergency serves the emergency request board: posting a request,
// listing open requests, and resolving them.
package emergency

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/features/shared"
	"github.com/dalemusser/bloodlink/internal/app/system/contactlink"
	"github.com/dalemusser/bloodlink/internal/app/system/formutil"
	"github.com/dalemusser/bloodlink/internal/app/system/navigation"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	ResolvedMessage = "Request marked as resolved!"
	noMatchMessage  = "⚠️ Emergency request created. No matching donors currently available."
)

// CreatedMessage is the confirmation shown after posting a request.
func CreatedMessage(matches int64) string {
	if matches <= 0 {
		return noMatchMessage
	}
	return fmt.Sprintf("🚨 Emergency request sent! %d matching donor(s) found.", matches)
}

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

type urgencyOption struct {
	Value    string
	Label    string
	Selected bool
}

type boardData struct {
	formutil.Base
	Input     directory.RequestInput
	Groups    formutil.GroupSelect
	Urgencies []urgencyOption
	Requests  []shared.RequestCard
	ListError string
}

func urgencyOptions(selected string) []urgencyOption {
	if selected == "" {
		selected = string(models.UrgencyUrgent)
	}
	out := make([]urgencyOption, 0, len(models.Urgencies))
	for _, u := range models.Urgencies {
		out = append(out, urgencyOption{Value: string(u), Label: u.Label(), Selected: string(u) == selected})
	}
	return out
}

// render loads the open requests and renders the board. A failing list
// degrades to a notice instead of hiding the form.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, data boardData) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list emergency requests")
	defer cancel()

	reqs, err := h.Svc.ListEmergencyRequests(ctx)
	if err != nil {
		h.Log.Warn("emergency board: list failed", zap.Error(err))
		data.ListError = "Open requests could not be loaded right now."
	} else {
		data.Requests = shared.RequestCards(reqs, shared.CardOptions{
			Message:   contactlink.RequestReplyMessage,
			Resolve:   true,
			ReturnURL: "/emergency",
			CSRFToken: data.CSRFToken,
		})
	}
	templates.Render(w, r, "emergency", data)
}

func (h *Handler) newBoard(r *http.Request, in directory.RequestInput) boardData {
	data := boardData{
		Input:     in,
		Groups:    formutil.BloodGroups(in.BloodGroup),
		Urgencies: urgencyOptions(in.Urgency),
	}
	formutil.SetBase(&data.Base, r, "Emergency Requests", "/")
	return data
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /emergency                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	data := h.newBoard(r, directory.RequestInput{})
	switch {
	case query.Get(r, "created") == "1":
		n, _ := strconv.ParseInt(query.Get(r, "matches"), 10, 64)
		data.Success = CreatedMessage(n)
	case query.Get(r, "resolved") == "1":
		data.Success = ResolvedMessage
	}
	h.render(w, r, data)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /emergency                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse emergency form", err, "Invalid form submission.", "/emergency")
		return
	}

	in := directory.RequestInput{
		PatientName:   strings.TrimSpace(r.FormValue("patient_name")),
		BloodGroup:    strings.TrimSpace(r.FormValue("blood_group")),
		Hospital:      strings.TrimSpace(r.FormValue("hospital")),
		City:          strings.TrimSpace(r.FormValue("city")),
		ContactNumber: strings.TrimSpace(r.FormValue("contact_number")),
		Urgency:       strings.TrimSpace(r.FormValue("urgency")),
		Notes:         strings.TrimSpace(r.FormValue("notes")),
	}

	// Count and insert run back to back.
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "create emergency request")
	defer cancel()

	res, err := h.Svc.CreateEmergencyRequest(ctx, in)
	if err == nil {
		v := url.Values{"created": {"1"}, "matches": {strconv.FormatInt(res.MatchingDonors, 10)}}
		http.Redirect(w, r, "/emergency?"+v.Encode(), http.StatusSeeOther)
		return
	}

	if ve, ok := directory.AsValidation(err); ok {
		data := h.newBoard(r, in)
		data.SetFieldErrors(ve.ByField())
		data.SetError("Please fix the highlighted fields.")
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.render(w, r, data)
		return
	}
	h.ErrLog.LogUnavailable(w, r, "create emergency request", err, "Failed to send emergency request. Please try again shortly.", "/emergency")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /emergency/{id}/resolve                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleResolve deletes the request and returns to the page it was resolved
// from (the board or the dashboard).
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	back := navigation.SafeBackURL(r, navigation.EmergencyBackURL)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "resolve emergency request")
	defer cancel()

	err := h.Svc.ResolveEmergencyRequest(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "This request was already resolved or does not exist.", back)
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "resolve emergency request", err, "Failed to resolve request.", back)
		return
	}

	http.Redirect(w, r, navigation.WithQuery(back, "resolved", "1"), http.StatusSeeOther)
}
