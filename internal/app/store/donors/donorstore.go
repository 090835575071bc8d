// internal/app/store/donors/donorstore.go
package donorstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the donors collection name.
const Collection = "donors"

var (
	// ErrNotFound is returned when an ID lookup or update matches nothing.
	ErrNotFound = errors.New("donor not found")
	// ErrDuplicatePhone is only produced when the unique phone index exists.
	ErrDuplicatePhone = errors.New("a donor with this phone is already registered")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a donor. The caller supplies normalized fields; Create
// assigns the ID and created_at and leaves everything else as given.
func (s *Store) Create(ctx context.Context, d models.Donor) (models.Donor, error) {
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Donor{}, ErrDuplicatePhone
		}
		return models.Donor{}, err
	}
	return d, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error) {
	var d models.Donor
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return models.Donor{}, ErrNotFound
	}
	if err != nil {
		return models.Donor{}, err
	}
	return d, nil
}

// FindByPhone returns donors with exactly this phone, in natural order.
// More than one result is possible because uniqueness is advisory.
func (s *Store) FindByPhone(ctx context.Context, phone string) ([]models.Donor, error) {
	return s.Find(ctx, bson.M{"phone": phone})
}

// PhoneExists is the pre-insert duplicate check.
func (s *Store) PhoneExists(ctx context.Context, phone string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"phone": phone}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Search builds a conjunctive equality filter from the non-empty arguments.
// City must already be normalized.
func (s *Store) Search(ctx context.Context, group models.BloodGroup, city string) ([]models.Donor, error) {
	filter := bson.M{}
	if group != "" {
		filter["blood_group"] = group
	}
	if city != "" {
		filter["city"] = city
	}
	return s.Find(ctx, filter)
}

// CountAvailable counts donors of a group whose available flag is true or
// missing.
func (s *Store) CountAvailable(ctx context.Context, group models.BloodGroup) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"blood_group": group,
		"available":   bson.M{"$ne": false},
	})
}

// SetAvailable updates exactly the available field.
func (s *Store) SetAvailable(ctx context.Context, id primitive.ObjectID, available bool) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"available":  available,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ProfileUpdate carries the editable profile fields. All four are written,
// including empty strings.
type ProfileUpdate struct {
	Name  string
	Email string
	City  string
	Area  string
}

func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":       p.Name,
		"email":      p.Email,
		"city":       p.City,
		"area":       p.Area,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns donors matching filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Donor, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var donors []models.Donor
	if err := cur.All(ctx, &donors); err != nil {
		return nil, err
	}
	return donors, nil
}

// Total returns the number of donors in the collection.
func (s *Store) Total(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}

// DistinctCities returns every distinct stored city value.
func (s *Store) DistinctCities(ctx context.Context) ([]string, error) {
	vals, err := s.c.Distinct(ctx, "city", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if c, ok := v.(string); ok {
			out = append(out, c)
		}
	}
	return out, nil
}
