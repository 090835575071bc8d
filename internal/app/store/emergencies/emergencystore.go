// internal/app/store/emergencies/emergencystore.go
package emergencystore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the emergency requests collection name.
const Collection = "emergency_requests"

var ErrNotFound = errors.New("emergency request not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a request, assigning ID and created_at. Status defaults to
// active.
func (s *Store) Create(ctx context.Context, req models.EmergencyRequest) (models.EmergencyRequest, error) {
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now().UTC()
	if req.Status == "" {
		req.Status = models.RequestStatusActive
	}
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.EmergencyRequest{}, err
	}
	return req, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.EmergencyRequest, error) {
	var req models.EmergencyRequest
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err == mongo.ErrNoDocuments {
		return models.EmergencyRequest{}, ErrNotFound
	}
	if err != nil {
		return models.EmergencyRequest{}, err
	}
	return req, nil
}

// All returns every request in natural order. Sorting is left to the caller.
func (s *Store) All(ctx context.Context) ([]models.EmergencyRequest, error) {
	return s.Find(ctx, bson.M{})
}

// ByBloodGroup returns requests for one group in natural order.
func (s *Store) ByBloodGroup(ctx context.Context, group models.BloodGroup) ([]models.EmergencyRequest, error) {
	return s.Find(ctx, bson.M{"blood_group": group})
}

// Delete hard-deletes a request. Deleting a missing ID returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Find returns requests matching filter with optional find options.
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.EmergencyRequest, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reqs []models.EmergencyRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, err
	}
	return reqs, nil
}

// Total returns the number of requests in the collection.
func (s *Store) Total(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
