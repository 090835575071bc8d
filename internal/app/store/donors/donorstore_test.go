package donorstore_test

import (
	"errors"
	"testing"

	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	yes := true
	created, err := store.Create(ctx, models.Donor{
		Name:       "Asha",
		BloodGroup: models.BloodGroupOPos,
		Phone:      "9876543210",
		City:       "Pune",
		Available:  &yes,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Asha" || got.BloodGroup != models.BloodGroupOPos || got.City != "Pune" {
		t.Errorf("unexpected donor: %+v", got)
	}
	if !got.IsAvailable() {
		t.Error("expected donor to be available")
	}
}

func TestStore_GetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, donorstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PhoneLookups(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "One", models.BloodGroupOPos, "9876543210", "Pune")
	fixtures.CreateDonor(ctx, "Two", models.BloodGroupAPos, "9876543210", "Pune")

	exists, err := store.PhoneExists(ctx, "9876543210")
	if err != nil {
		t.Fatalf("PhoneExists failed: %v", err)
	}
	if !exists {
		t.Error("expected phone to exist")
	}

	exists, err = store.PhoneExists(ctx, "1111111111")
	if err != nil {
		t.Fatalf("PhoneExists failed: %v", err)
	}
	if exists {
		t.Error("expected phone not to exist")
	}

	// Without the unique index duplicates are both stored.
	found, err := store.FindByPhone(ctx, "9876543210")
	if err != nil {
		t.Fatalf("FindByPhone failed: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("FindByPhone: got %d donors, want 2", len(found))
	}
}

func TestStore_Create_UniquePhoneIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection(donorstore.Collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		t.Fatalf("create index: %v", err)
	}

	d := models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9876543210", City: "Pune"}
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err = store.Create(ctx, d)
	if !errors.Is(err, donorstore.ErrDuplicatePhone) {
		t.Errorf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestStore_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d1 := fixtures.CreateDonor(ctx, "One", models.BloodGroupOPos, "1000000001", "Pune")
	fixtures.CreateDonor(ctx, "Two", models.BloodGroupOPos, "1000000002", "Mumbai")
	fixtures.CreateDonor(ctx, "Three", models.BloodGroupAPos, "1000000003", "Pune")

	tests := []struct {
		name  string
		group models.BloodGroup
		city  string
		want  int
	}{
		{"no filter", "", "", 3},
		{"group only", models.BloodGroupOPos, "", 2},
		{"city only", "", "Pune", 2},
		{"both", models.BloodGroupOPos, "Pune", 1},
		{"city is exact match", "", "pune", 0},
		{"no match", models.BloodGroupABNeg, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Search(ctx, tt.group, tt.city)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d donors, want %d", len(got), tt.want)
			}
		})
	}

	got, err := store.Search(ctx, models.BloodGroupOPos, "Pune")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) == 1 && got[0].ID != d1.ID {
		t.Errorf("expected donor %s, got %s", d1.ID.Hex(), got[0].ID.Hex())
	}
}

func TestStore_CountAvailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "Ready", models.BloodGroupOPos, "1000000001", "Pune")
	fixtures.CreateBusyDonor(ctx, "Busy", models.BloodGroupOPos, "1000000002", "Pune")
	fixtures.CreateLegacyDonor(ctx, "Legacy", models.BloodGroupOPos)
	fixtures.CreateDonor(ctx, "Other", models.BloodGroupBPos, "1000000003", "Pune")

	n, err := store.CountAvailable(ctx, models.BloodGroupOPos)
	if err != nil {
		t.Fatalf("CountAvailable failed: %v", err)
	}
	if n != 2 {
		t.Errorf("CountAvailable: got %d, want 2", n)
	}
}

func TestStore_SetAvailable(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDonor(ctx, "A", models.BloodGroupOPos, "1000000001", "Pune")

	for range 2 {
		if err := store.SetAvailable(ctx, d.ID, false); err != nil {
			t.Fatalf("SetAvailable failed: %v", err)
		}
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.IsAvailable() {
		t.Error("expected donor to be unavailable")
	}
	if got.UpdatedAt == nil {
		t.Error("expected UpdatedAt to be set")
	}

	if err := store.SetAvailable(ctx, primitive.NewObjectID(), true); !errors.Is(err, donorstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UpdateProfile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	d := fixtures.CreateDonor(ctx, "A", models.BloodGroupOPos, "1000000001", "Pune")

	err := store.UpdateProfile(ctx, d.ID, donorstore.ProfileUpdate{
		Name:  "Asha",
		Email: "asha@example.org",
		City:  "Mumbai",
	})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}

	got, err := store.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Asha" || got.Email != "asha@example.org" || got.City != "Mumbai" || got.Area != "" {
		t.Errorf("unexpected donor after update: %+v", got)
	}
	if got.Phone != "1000000001" || got.BloodGroup != models.BloodGroupOPos {
		t.Error("phone and blood group must not change")
	}
}

func TestStore_TotalAndDistinctCities(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := donorstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "A", models.BloodGroupOPos, "1000000001", "Pune")
	fixtures.CreateDonor(ctx, "B", models.BloodGroupOPos, "1000000002", "Pune")
	fixtures.CreateDonor(ctx, "C", models.BloodGroupOPos, "1000000003", "Mumbai")

	total, err := store.Total(ctx)
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Total: got %d, want 3", total)
	}

	cities, err := store.DistinctCities(ctx)
	if err != nil {
		t.Fatalf("DistinctCities failed: %v", err)
	}
	if len(cities) != 2 {
		t.Errorf("DistinctCities: got %v, want 2 entries", cities)
	}
}
