package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodlink/internal/app/store/emergencies"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateDonor inserts an available donor. City is stored exactly as given.
func (f *Fixtures) CreateDonor(ctx context.Context, name string, group models.BloodGroup, phone, city string) models.Donor {
	f.t.Helper()

	yes := true
	donor := models.Donor{
		ID:         primitive.NewObjectID(),
		Name:       name,
		BloodGroup: group,
		Phone:      phone,
		City:       city,
		Available:  &yes,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection(donorstore.Collection).InsertOne(ctx, donor); err != nil {
		f.t.Fatalf("failed to create test donor: %v", err)
	}
	return donor
}

// CreateBusyDonor inserts a donor with available=false.
func (f *Fixtures) CreateBusyDonor(ctx context.Context, name string, group models.BloodGroup, phone, city string) models.Donor {
	f.t.Helper()

	no := false
	donor := models.Donor{
		ID:         primitive.NewObjectID(),
		Name:       name,
		BloodGroup: group,
		Phone:      phone,
		City:       city,
		Available:  &no,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := f.db.Collection(donorstore.Collection).InsertOne(ctx, donor); err != nil {
		f.t.Fatalf("failed to create busy test donor: %v", err)
	}
	return donor
}

// CreateLegacyDonor inserts a raw document with no available field, the
// shape older clients wrote.
func (f *Fixtures) CreateLegacyDonor(ctx context.Context, name string, group models.BloodGroup) primitive.ObjectID {
	f.t.Helper()

	id := primitive.NewObjectID()
	_, err := f.db.Collection(donorstore.Collection).InsertOne(ctx, bson.M{
		"_id":         id,
		"name":        name,
		"blood_group": group,
	})
	if err != nil {
		f.t.Fatalf("failed to create legacy test donor: %v", err)
	}
	return id
}

// CreateRequest inserts an active emergency request with the given creation
// time. A zero createdAt is stored as-is.
func (f *Fixtures) CreateRequest(ctx context.Context, patient string, group models.BloodGroup, createdAt time.Time) models.EmergencyRequest {
	f.t.Helper()

	req := models.EmergencyRequest{
		ID:            primitive.NewObjectID(),
		PatientName:   patient,
		BloodGroup:    group,
		Hospital:      "City Hospital",
		City:          "Pune",
		ContactNumber: "9000000000",
		Urgency:       models.UrgencyUrgent,
		Status:        models.RequestStatusActive,
		CreatedAt:     createdAt,
	}

	if _, err := f.db.Collection(emergencystore.Collection).InsertOne(ctx, req); err != nil {
		f.t.Fatalf("failed to create test request: %v", err)
	}
	return req
}
