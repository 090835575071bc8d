package dashboard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/directory/directorytest"
	uierrors "github.com/dalemusser/bloodlink/internal/app/features/errors"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	h        *Handler
	sm       *auth.SessionManager
	donors   *directorytest.MemDonors
	requests *directorytest.MemRequests
}

func newEnv(t *testing.T) env {
	t.Helper()
	svc, donors, requests := directorytest.NewService()
	logger := zap.NewNop()
	sm, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	limiter := ratelimit.NewLoginLimiter()
	t.Cleanup(limiter.Stop)
	return env{
		h:        NewHandler(svc, sm, limiter, uierrors.NewErrorLogger(logger), logger),
		sm:       sm,
		donors:   donors,
		requests: requests,
	}
}

func (e env) seedDonor() models.Donor {
	available := true
	return e.donors.Seed(models.Donor{
		Name:       "Meera Joshi",
		BloodGroup: models.BloodGroupABPos,
		Phone:      "9988776655",
		City:       "Nagpur",
		Available:  &available,
	})
}

func loginForm(phone string) url.Values {
	return url.Values{"phone": {phone}}
}

func TestHandleLogin_Success(t *testing.T) {
	e := newEnv(t)
	e.seedDonor()

	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm(" 9988776655 ")))

	rec.AssertRedirect(t, "/dashboard?notice=welcome")
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "test-session=") {
		t.Errorf("Set-Cookie = %q, want session cookie", rec.Header().Get("Set-Cookie"))
	}
}

func TestHandleLogin_HonorsReturn(t *testing.T) {
	e := newEnv(t)
	e.seedDonor()
	form := loginForm("9988776655")
	form.Set("return", "/dashboard?tab=requests")

	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", form))

	rec.AssertRedirect(t, "/dashboard?notice=welcome&tab=requests")
}

func TestHandleLogin_UnknownPhone(t *testing.T) {
	e := newEnv(t)

	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm("9000000000")))

	rec.AssertStatus(t, http.StatusUnauthorized)
	if rec.Header().Get("Set-Cookie") != "" {
		t.Error("failed login should not set a cookie")
	}
}

func TestHandleLogin_ShortPhone(t *testing.T) {
	e := newEnv(t)

	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm("12345")))

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
}

func TestHandleLogin_RateLimited(t *testing.T) {
	e := newEnv(t)

	for i := 0; i < 5; i++ {
		rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm("9000000000")))
		rec.AssertStatus(t, http.StatusUnauthorized)
	}
	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm("9000000000")))

	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestHandleLogin_StoreDown(t *testing.T) {
	e := newEnv(t)
	e.donors.Fail = directorytest.ErrConnRefused

	rec := testutil.Serve(e.h.HandleLogin, testutil.PostForm("/dashboard/login", loginForm("9988776655")))

	rec.AssertStatus(t, http.StatusServiceUnavailable)
}

func TestHandleLogout(t *testing.T) {
	e := newEnv(t)

	rec := testutil.Serve(e.h.HandleLogout, testutil.PostForm("/dashboard/logout", nil))

	rec.AssertRedirect(t, "/dashboard?notice=logout")
}

func TestHandleAvailability(t *testing.T) {
	tests := []struct {
		value  string
		want   bool
		notice string
	}{
		{"false", false, "busy"},
		{"true", true, "available"},
		{"on", true, "available"},
		{"", false, "busy"},
	}
	for _, tt := range tests {
		t.Run(tt.notice+"_"+tt.value, func(t *testing.T) {
			e := newEnv(t)
			d := e.seedDonor()
			req := testutil.SignedIn(testutil.PostForm("/dashboard/availability", url.Values{"available": {tt.value}}), d)

			rec := testutil.Serve(e.h.HandleAvailability, req)

			rec.AssertRedirect(t, "/dashboard?notice="+tt.notice)
			got, _ := e.donors.GetByID(t.Context(), d.ID)
			if got.IsAvailable() != tt.want {
				t.Errorf("IsAvailable = %v, want %v", got.IsAvailable(), tt.want)
			}
		})
	}
}

func TestHandleAvailability_DeletedDonor(t *testing.T) {
	e := newEnv(t)
	ghost := models.Donor{ID: primitive.NewObjectID(), Name: "Ghost"}
	req := testutil.SignedIn(testutil.PostForm("/dashboard/availability", url.Values{"available": {"true"}}), ghost)

	rec := testutil.Serve(e.h.HandleAvailability, req)

	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("Set-Cookie = %q, want expired session", rec.Header().Get("Set-Cookie"))
	}
}

func TestHandleProfile(t *testing.T) {
	e := newEnv(t)
	d := e.seedDonor()
	form := url.Values{"name": {"Meera J"}, "email": {"Meera@Example.com"}, "city": {"PUNE"}, "area": {"Baner"}}

	rec := testutil.Serve(e.h.HandleProfile, testutil.SignedIn(testutil.PostForm("/dashboard/profile", form), d))

	rec.AssertRedirect(t, "/dashboard?notice=profile")
	got, _ := e.donors.GetByID(t.Context(), d.ID)
	if got.Name != "Meera J" || got.City != "Pune" || got.Area != "Baner" {
		t.Errorf("donor = %+v", got)
	}
	if got.Phone != d.Phone || got.BloodGroup != d.BloodGroup {
		t.Error("profile edit must not touch phone or blood group")
	}
}

func TestHandleProfile_BlankName(t *testing.T) {
	e := newEnv(t)
	d := e.seedDonor()
	form := url.Values{"name": {"  "}, "city": {"Pune"}}

	rec := testutil.Serve(e.h.HandleProfile, testutil.SignedIn(testutil.PostForm("/dashboard/profile", form), d))

	rec.AssertStatus(t, http.StatusUnprocessableEntity)
	got, _ := e.donors.GetByID(t.Context(), d.ID)
	if got.Name != d.Name || got.City != d.City {
		t.Errorf("donor changed on invalid edit: %+v", got)
	}
}

func TestLoadDashboard_MatchingRequests(t *testing.T) {
	e := newEnv(t)
	d := e.seedDonor()
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "Match", BloodGroup: models.BloodGroupABPos, ContactNumber: "9111111111"})
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "Other", BloodGroup: models.BloodGroupONeg})

	data, err := e.h.loadDashboard(t.Context(), httptest.NewRequest("GET", "/dashboard", nil), d.ID.Hex())
	if err != nil {
		t.Fatalf("loadDashboard: %v", err)
	}
	if len(data.Requests) != 1 || data.Requests[0].PatientName != "Match" {
		t.Fatalf("Requests = %+v, want only the AB+ request", data.Requests)
	}
	if data.Requests[0].ResolveURL != "" {
		t.Error("dashboard cards should not offer resolve")
	}
	if !strings.Contains(data.Requests[0].Links.WhatsApp, "wa.me/9111111111") {
		t.Errorf("WhatsApp = %q", data.Requests[0].Links.WhatsApp)
	}
	if !data.Available {
		t.Error("Available = false, want true")
	}
}

func TestLoadDashboard_RequestsDegrade(t *testing.T) {
	e := newEnv(t)
	d := e.seedDonor()
	e.requests.Fail = directorytest.ErrConnRefused

	data, err := e.h.loadDashboard(t.Context(), httptest.NewRequest("GET", "/dashboard", nil), d.ID.Hex())
	if err != nil {
		t.Fatalf("loadDashboard: %v", err)
	}
	if data.RequestsNote == "" {
		t.Error("expected a note when requests fail to load")
	}
}

func TestRoutes_MutationsRequireDonor(t *testing.T) {
	e := newEnv(t)
	router := Routes(e.h, e.sm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.PostForm("/availability", url.Values{"available": {"true"}}))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServeDashboard_Anonymous(t *testing.T) {
	e := newEnv(t)
	rec := testutil.Serve(e.h.ServeDashboard, testutil.NewRequest("GET", "/dashboard"))
	if rec.Code == http.StatusSeeOther {
		t.Error("anonymous visit should show the login form, not redirect")
	}
}
