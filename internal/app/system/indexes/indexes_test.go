package indexes_test

import (
	"strings"
	"testing"

	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodlink/internal/app/store/emergencies"
	"github.com/dalemusser/bloodlink/internal/app/system/indexes"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/dalemusser/bloodlink/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	out := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			out[name] = idx
		}
	}
	return out
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, indexes.Options{}); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, indexes.Options{}); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, indexes.Options{}); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	tests := []struct {
		coll  string
		names []string
	}{
		{donorstore.Collection, []string{
			"idx_donors_phone",
			"idx_donors_group_city",
			"idx_donors_city",
			"idx_donors_group_available",
		}},
		{emergencystore.Collection, []string{
			"idx_requests_group",
			"idx_requests_created_at",
		}},
	}

	for _, tt := range tests {
		got := indexNames(t, db, tt.coll)
		for _, name := range tt.names {
			if _, ok := got[name]; !ok {
				t.Errorf("%s: expected index %q to exist", tt.coll, name)
			}
		}
	}
}

func TestEnsureAll_SwitchesPhoneToUnique(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, indexes.Options{}); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, indexes.Options{UniquePhone: true}); err != nil {
		t.Fatalf("EnsureAll (unique) failed: %v", err)
	}

	got := indexNames(t, db, donorstore.Collection)
	if _, ok := got["idx_donors_phone"]; ok {
		t.Error("expected plain phone index to be replaced")
	}
	idx, ok := got[indexes.PhoneIndexName(true)]
	if !ok {
		t.Fatal("expected unique phone index")
	}
	if unique, _ := idx["unique"].(bool); !unique {
		t.Error("expected phone index to be unique")
	}

	// The unique index turns a second insert into ErrDuplicatePhone.
	store := donorstore.New(db)
	d := models.Donor{Name: "A", BloodGroup: models.BloodGroupOPos, Phone: "9876543210", City: "Pune"}
	if _, err := store.Create(ctx, d); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if _, err := store.Create(ctx, d); err != donorstore.ErrDuplicatePhone {
		t.Errorf("expected ErrDuplicatePhone, got %v", err)
	}
}

func TestEnsureAll_UniquePhoneFailsWithDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateDonor(ctx, "One", models.BloodGroupOPos, "9876543210", "Pune")
	fixtures.CreateDonor(ctx, "Two", models.BloodGroupOPos, "9876543210", "Pune")

	err := indexes.EnsureAll(ctx, db, indexes.Options{UniquePhone: true})
	if err == nil {
		t.Fatal("expected EnsureAll to fail when duplicate phones exist")
	}
	if !strings.Contains(err.Error(), "duplicate phones") {
		t.Errorf("expected duplicate hint in error, got %v", err)
	}
}
