package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/directory/directorytest"
	"github.com/dalemusser/bloodlink/internal/app/features/api"
	"github.com/dalemusser/bloodlink/internal/app/system/auth"
	"github.com/dalemusser/bloodlink/internal/app/system/ratelimit"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	router   chi.Router
	sessions *auth.SessionManager
	donors   *directorytest.MemDonors
	requests *directorytest.MemRequests
}

func newEnv(t *testing.T, opts api.Options) env {
	t.Helper()
	svc, donors, requests := directorytest.NewService()
	sm, err := auth.NewSessionManager(strings.Repeat("k", 40), "test-session", "", time.Hour, false, zap.NewNop())
	require.NoError(t, err)
	if opts.Sessions == nil {
		opts.Sessions = sm
	}
	return env{
		router:   api.Routes(api.NewHandler(svc, zap.NewNop()), opts),
		sessions: sm,
		donors:   donors,
		requests: requests,
	}
}

// sessionCookies signs d in and returns the cookies the dashboard would set.
func (e env) sessionCookies(t *testing.T, d models.Donor) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, e.sessions.Login(rec, httptest.NewRequest(http.MethodPost, "/dashboard/login", nil), d))
	return rec.Result().Cookies()
}

func (e env) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return e.send(t, method, target, body, nil)
}

// doAs sends the request with d's dashboard session cookie.
func (e env) doAs(t *testing.T, d models.Donor, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	return e.send(t, method, target, body, e.sessionCookies(t, d))
}

func (e env) send(t *testing.T, method, target string, body any, cookies []*http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	}
	return rec, out
}

func donorBody() map[string]any {
	return map[string]any{
		"name":        "Asha Rao",
		"blood_group": "O+",
		"phone":       "9876543210",
		"email":       "asha@example.com",
		"city":        "pune",
		"lat":         18.5,
		"lng":         73.8,
	}
}

func TestCreateDonor(t *testing.T) {
	e := newEnv(t, api.Options{})

	rec, body := e.do(t, http.MethodPost, "/donors", donorBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Pune", body["city"])
	assert.Equal(t, true, body["available"])
	assert.Contains(t, rec.Header().Get("Location"), "/api/v1/donors/")
	contact := body["contact"].(map[string]any)
	assert.Equal(t, "tel:9876543210", contact["tel"])
}

func TestCreateDonor_Duplicate(t *testing.T) {
	e := newEnv(t, api.Options{})
	rec, _ := e.do(t, http.MethodPost, "/donors", donorBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := e.do(t, http.MethodPost, "/donors", donorBody())

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "phone", body["field"])
	assert.Equal(t, 1, e.donors.Writes())
}

func TestCreateDonor_Validation(t *testing.T) {
	e := newEnv(t, api.Options{})
	in := donorBody()
	in["phone"] = "123"

	rec, body := e.do(t, http.MethodPost, "/donors", in)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", body["field"])
	assert.NotEmpty(t, body["error"])
	assert.Zero(t, e.donors.Writes())
}

func TestCreateDonor_BadJSON(t *testing.T) {
	e := newEnv(t, api.Options{})
	req := httptest.NewRequest(http.MethodPost, "/donors", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()

	e.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailure_Returns503WithReference(t *testing.T) {
	e := newEnv(t, api.Options{})
	e.donors.Fail = directorytest.ErrConnRefused

	rec, body := e.do(t, http.MethodPost, "/donors", donorBody())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Len(t, body["reference"], 8)
	assert.NotContains(t, body["error"], "connection refused")
}

func TestSearchDonors(t *testing.T) {
	e := newEnv(t, api.Options{})
	e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001", City: "Pune"})
	e.donors.Seed(models.Donor{Name: "B", BloodGroup: models.BloodGroupOPos, Phone: "9000000002", City: "Mumbai"})
	e.donors.Seed(models.Donor{Name: "C", BloodGroup: models.BloodGroupAPos, Phone: "9000000003", City: "Pune"})

	tests := []struct {
		target string
		want   float64
	}{
		{"/donors?blood_group=O%2B&city=pune", 1},
		{"/donors?blood_group=O%2B", 2},
		{"/donors?city=Pune", 2},
		{"/donors", 3},
		{"/donors?blood_group=B-", 0},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, body := e.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, body["count"])
			assert.NotNil(t, body["donors"])
		})
	}
}

func TestSearchDonors_InvalidGroup(t *testing.T) {
	e := newEnv(t, api.Options{})

	rec, body := e.do(t, http.MethodGet, "/donors?blood_group=Z", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "blood_group", body["field"])
}

func TestLookupAndGetDonor(t *testing.T) {
	e := newEnv(t, api.Options{})
	d := e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001", City: "Pune"})

	rec, body := e.do(t, http.MethodGet, "/donors/lookup?phone=9000000001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, d.ID.Hex(), body["id"])

	rec, _ = e.do(t, http.MethodGet, "/donors/lookup?phone=9999999999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = e.do(t, http.MethodGet, "/donors/lookup?phone=12", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = e.do(t, http.MethodGet, "/donors/"+d.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", body["name"])

	rec, _ = e.do(t, http.MethodGet, "/donors/not-an-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetAvailability(t *testing.T) {
	e := newEnv(t, api.Options{})
	d := e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001"})

	rec, body := e.doAs(t, d, http.MethodPatch, "/donors/"+d.ID.Hex()+"/availability", map[string]any{"available": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["available"])
	got, _ := e.donors.GetByID(t.Context(), d.ID)
	assert.False(t, got.IsAvailable())

	rec, body = e.doAs(t, d, http.MethodPatch, "/donors/"+d.ID.Hex()+"/availability", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "available", body["field"])

	// A session for a donor record that no longer exists.
	gone := models.Donor{ID: primitive.NewObjectID(), Name: "Gone"}
	rec, _ = e.doAs(t, gone, http.MethodPatch, "/donors/"+gone.ID.Hex()+"/availability", map[string]any{"available": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateDonor(t *testing.T) {
	e := newEnv(t, api.Options{})
	d := e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001", City: "Pune"})

	rec, body := e.doAs(t, d, http.MethodPut, "/donors/"+d.ID.Hex(), map[string]any{"name": "Anil", "city": "MUMBAI"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anil", body["name"])
	assert.Equal(t, "Mumbai", body["city"])
	assert.Equal(t, "O+", body["blood_group"])

	rec, _ = e.doAs(t, d, http.MethodPut, "/donors/"+d.ID.Hex(), map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDonorMutations_RequireOwnSession(t *testing.T) {
	e := newEnv(t, api.Options{})
	victim := e.donors.Seed(models.Donor{Name: "Asha", BloodGroup: models.BloodGroupOPos, Phone: "9876543210", Email: "asha@example.com", City: "Pune"})
	other := e.donors.Seed(models.Donor{Name: "Ravi", BloodGroup: models.BloodGroupAPos, Phone: "9000000002", City: "Pune"})
	edit := map[string]any{"name": "Hijacked", "email": "x@evil.io", "city": "nowhere"}

	tests := []struct {
		name   string
		send   func() *httptest.ResponseRecorder
		status int
	}{
		{"anonymous profile edit", func() *httptest.ResponseRecorder {
			rec, _ := e.do(t, http.MethodPut, "/donors/"+victim.ID.Hex(), edit)
			return rec
		}, http.StatusUnauthorized},
		{"anonymous availability", func() *httptest.ResponseRecorder {
			rec, _ := e.do(t, http.MethodPatch, "/donors/"+victim.ID.Hex()+"/availability", map[string]any{"available": false})
			return rec
		}, http.StatusUnauthorized},
		{"another donor's profile", func() *httptest.ResponseRecorder {
			rec, _ := e.doAs(t, other, http.MethodPut, "/donors/"+victim.ID.Hex(), edit)
			return rec
		}, http.StatusForbidden},
		{"another donor's availability", func() *httptest.ResponseRecorder {
			rec, _ := e.doAs(t, other, http.MethodPatch, "/donors/"+victim.ID.Hex()+"/availability", map[string]any{"available": false})
			return rec
		}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.send().Code)
		})
	}

	got, err := e.donors.GetByID(t.Context(), victim.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, "asha@example.com", got.Email)
	assert.Equal(t, "Pune", got.City)
	assert.True(t, got.IsAvailable())
}

func requestBody() map[string]any {
	return map[string]any{
		"patient_name":   "Ravi",
		"blood_group":    "O+",
		"hospital":       "City Hospital",
		"city":           "pune",
		"contact_number": "9123456780",
	}
}

func TestCreateRequest(t *testing.T) {
	e := newEnv(t, api.Options{})
	e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001"})

	rec, body := e.do(t, http.MethodPost, "/requests", requestBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), body["matching_donors"])
	req := body["request"].(map[string]any)
	assert.Equal(t, "urgent", req["urgency"])
	assert.Equal(t, "active", req["status"])
	assert.Equal(t, "Pune", req["city"])
}

func TestCreateRequest_Validation(t *testing.T) {
	e := newEnv(t, api.Options{})
	in := requestBody()
	in["urgency"] = "whenever"

	rec, body := e.do(t, http.MethodPost, "/requests", in)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "urgency", body["field"])
	assert.Zero(t, e.requests.Writes())
}

func TestListRequests(t *testing.T) {
	e := newEnv(t, api.Options{})
	now := time.Now()
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "old", BloodGroup: models.BloodGroupOPos, CreatedAt: now.Add(-time.Hour)})
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "pending", BloodGroup: models.BloodGroupAPos})
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "new", BloodGroup: models.BloodGroupOPos, CreatedAt: now})

	rec, body := e.do(t, http.MethodGet, "/requests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var names []string
	for _, r := range body["requests"].([]any) {
		names = append(names, r.(map[string]any)["patient_name"].(string))
	}
	assert.Equal(t, []string{"new", "old", "pending"}, names)

	rec, body = e.do(t, http.MethodGet, "/requests?blood_group=O%2B", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])
}

func TestResolveRequest(t *testing.T) {
	e := newEnv(t, api.Options{})
	r := e.requests.SeedRequest(models.EmergencyRequest{PatientName: "P", BloodGroup: models.BloodGroupOPos})

	rec, _ := e.do(t, http.MethodDelete, "/requests/"+r.ID.Hex(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = e.do(t, http.MethodDelete, "/requests/"+r.ID.Hex(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	e := newEnv(t, api.Options{})
	e.donors.Seed(models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9000000001", City: "Pune"})
	e.donors.Seed(models.Donor{Name: "B", BloodGroup: models.BloodGroupOPos, Phone: "9000000002", City: "Mumbai"})
	e.requests.SeedRequest(models.EmergencyRequest{PatientName: "P", BloodGroup: models.BloodGroupOPos})

	rec, body := e.do(t, http.MethodGet, "/stats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["donors"])
	assert.Equal(t, float64(1), body["requests"])
	assert.Equal(t, float64(2), body["cities"])
}

func TestUnknownRoute(t *testing.T) {
	e := newEnv(t, api.Options{})
	rec, body := e.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", body["error"])
}

func TestCORS(t *testing.T) {
	e := newEnv(t, api.Options{AllowedOrigins: []string{"https://app.example.org"}})
	req := httptest.NewRequest(http.MethodOptions, "/donors", nil)
	req.Header.Set("Origin", "https://app.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	e.router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example.org", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(2, time.Minute)
	t.Cleanup(limiter.Stop)
	e := newEnv(t, api.Options{Limiter: limiter})

	for i := 0; i < 2; i++ {
		rec, _ := e.do(t, http.MethodGet, "/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := e.do(t, http.MethodGet, "/stats", nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
