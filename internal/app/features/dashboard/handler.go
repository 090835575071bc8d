// Package dashboard serves the donor dashboard: phone sign-in, the
// availability toggle, profile edits, and requests matching the donor's
// blood group.
package dashboard

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/features/shared"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/contactlink"
	"github.com/dalemusser/bloodlink/internal/app/system/formutil"
	"github.com/dalemusser/bloodlink/internal/app/system/navigation"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodlink/internal/app/system/timeouts"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const (
	msgNoDonor   = "No donor found with this phone number. Please register first."
	msgGone      = "Your donor record no longer exists. Please register again."
	msgLoggedOut = "Logged out successfully"
)

// notices maps the ?notice= key set by our own redirects to its message.
// Unknown keys show nothing.
var notices = map[string]string{
	"available": "🟢 You are now available",
	"busy":      "🟠 You are now busy",
	"profile":   "✅ Profile updated successfully!",
}

type Handler struct {
	Svc      *directory.Service
	Sessions *auth.SessionManager
	Limiter  *ratelimit.LoginLimiter
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(svc *directory.Service, sm *auth.SessionManager, limiter *ratelimit.LoginLimiter, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Sessions: sm,
		Limiter:  limiter,
		ErrLog:   errLog,
		Log:      logger,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type loginData struct {
	formutil.Base
	Phone     string
	ReturnURL string
}

type dashboardData struct {
	formutil.Base
	Donor        models.Donor
	Available    bool
	Profile      directory.ProfileInput
	EditOpen     bool
	Requests     []shared.RequestCard
	RequestsNote string
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, phone, errMsg, success string) {
	data := loginData{Phone: phone, ReturnURL: query.Get(r, "return")}
	if data.ReturnURL == "" {
		data.ReturnURL = strings.TrimSpace(r.FormValue("return"))
	}
	formutil.SetBase(&data.Base, r, "Donor Dashboard", "/")
	if errMsg != "" {
		data.SetFieldErrors(map[string]string{"phone": errMsg})
	}
	data.Success = success
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	templates.Render(w, r, "dashboard_login", data)
}

// loadDashboard builds the signed-in view. A failing request list degrades
// to a note; a failing donor read is returned to the caller.
func (h *Handler) loadDashboard(ctx context.Context, r *http.Request, donorID string) (dashboardData, error) {
	d, err := h.Svc.GetDonor(ctx, donorID)
	if err != nil {
		return dashboardData{}, err
	}

	data := dashboardData{
		Donor:     d,
		Available: d.IsAvailable(),
		Profile: directory.ProfileInput{
			Name:  d.Name,
			Email: d.Email,
			City:  d.City,
			Area:  d.Area,
		},
	}
	formutil.SetBase(&data.Base, r, "Donor Dashboard", "/")

	reqs, err := h.Svc.ListRequestsMatchingBloodGroup(ctx, d.BloodGroup)
	if err != nil {
		h.Log.Warn("dashboard: matching requests unavailable", zap.String("donor_id", donorID), zap.Error(err))
		data.RequestsNote = "Matching requests could not be loaded right now."
		return data, nil
	}
	data.Requests = shared.RequestCards(reqs, shared.CardOptions{Message: contactlink.DonorOfferMessage})
	return data, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /dashboard                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	cur, ok := auth.CurrentDonor(r)
	if !ok {
		success := ""
		if query.Get(r, "notice") == "logout" {
			success = msgLoggedOut
		}
		h.renderLogin(w, r, http.StatusOK, "", "", success)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load dashboard")
	defer cancel()

	data, err := h.loadDashboard(ctx, r, cur.DonorID)
	if errors.Is(err, directory.ErrNotFound) {
		h.signOutGone(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "load dashboard", err, "", "/")
		return
	}

	switch n := query.Get(r, "notice"); n {
	case "welcome":
		data.Success = "Welcome back, " + data.Donor.Name + "!"
	default:
		data.Success = notices[n]
	}
	templates.Render(w, r, "dashboard", data)
}

// signOutGone clears a session whose donor was deleted and shows the login
// form.
func (h *Handler) signOutGone(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		h.Log.Warn("clear stale donor session", zap.Error(err))
	}
	h.renderLogin(w, r, http.StatusOK, "", msgGone, "")
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /dashboard/login                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLogin signs a donor in by phone number. There is no password: the
// dashboard is a convenience view over public directory data.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse login form", err, "Invalid form submission.", "/dashboard")
		return
	}
	phone := strings.TrimSpace(r.FormValue("phone"))

	if h.Limiter != nil {
		if allowed, reason := h.Limiter.Check(r, phone); !allowed {
			h.Log.Warn("dashboard login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
			h.renderLogin(w, r, http.StatusTooManyRequests, phone, reason, "")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "dashboard login")
	defer cancel()

	d, err := h.Svc.FindDonorByPhone(ctx, phone)
	if ve, ok := directory.AsValidation(err); ok {
		h.renderLogin(w, r, http.StatusUnprocessableEntity, phone, ve.Message(), "")
		return
	}
	if errors.Is(err, directory.ErrNotFound) {
		h.renderLogin(w, r, http.StatusUnauthorized, phone, msgNoDonor, "")
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "dashboard login", err, "Login failed. Please try again shortly.", "/dashboard")
		return
	}

	if err := h.Sessions.Login(w, r, d); err != nil {
		h.ErrLog.LogServerError(w, r, "save donor session", err, "Login failed. Please try again.", "/dashboard")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetPhone(phone)
	}
	h.Log.Info("donor signed in", zap.String("donor_id", d.ID.Hex()))

	back := navigation.SafeBackURL(r, navigation.DashboardBackURL)
	http.Redirect(w, r, navigation.WithQuery(back, "notice", "welcome"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /dashboard/logout                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(w, r); err != nil {
		h.Log.Warn("logout: save session", zap.Error(err))
	}
	http.Redirect(w, r, "/dashboard?notice=logout", http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /dashboard/availability                                                |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleAvailability sets the donor's available flag from the "available"
// field: "true" or "on" means available, anything else means busy.
func (h *Handler) HandleAvailability(w http.ResponseWriter, r *http.Request) {
	cur, _ := auth.CurrentDonor(r)
	v := strings.ToLower(strings.TrimSpace(r.FormValue("available")))
	available := v == "true" || v == "on"

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update availability")
	defer cancel()

	err := h.Svc.UpdateDonorAvailability(ctx, cur.DonorID, available)
	if errors.Is(err, directory.ErrNotFound) {
		h.signOutGone(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "update availability", err, "Failed to update availability.", "/dashboard")
		return
	}

	notice := "busy"
	if available {
		notice = "available"
	}
	http.Redirect(w, r, "/dashboard?notice="+notice, http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /dashboard/profile                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	cur, _ := auth.CurrentDonor(r)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse profile form", err, "Invalid form submission.", "/dashboard")
		return
	}
	in := directory.ProfileInput{
		Name:  strings.TrimSpace(r.FormValue("name")),
		Email: strings.TrimSpace(r.FormValue("email")),
		City:  strings.TrimSpace(r.FormValue("city")),
		Area:  strings.TrimSpace(r.FormValue("area")),
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update profile")
	defer cancel()

	err := h.Svc.UpdateDonorProfile(ctx, cur.DonorID, in)
	if ve, ok := directory.AsValidation(err); ok {
		data, lerr := h.loadDashboard(ctx, r, cur.DonorID)
		if lerr != nil {
			h.ErrLog.LogUnavailable(w, r, "reload dashboard", lerr, "", "/dashboard")
			return
		}
		data.Profile = in
		data.EditOpen = true
		data.SetFieldErrors(ve.ByField())
		data.SetError(ve.Message())
		w.WriteHeader(http.StatusUnprocessableEntity)
		templates.Render(w, r, "dashboard", data)
		return
	}
	if errors.Is(err, directory.ErrNotFound) {
		h.signOutGone(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogUnavailable(w, r, "update profile", err, "Failed to update profile.", "/dashboard")
		return
	}

	// Keep the header name and city in step with the edit.
	if d, err := h.Svc.GetDonor(ctx, cur.DonorID); err == nil {
		if err := h.Sessions.Refresh(w, r, d); err != nil {
			h.Log.Warn("refresh donor session", zap.Error(err))
		}
	}
	http.Redirect(w, r, "/dashboard?notice=profile", http.StatusSeeOther)
}
