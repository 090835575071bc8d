// Package directory is the query layer between presentation (HTML features,
// JSON API) and the donor/request stores. It validates and normalizes input,
// issues store calls, and reports failures with the package's error values.
//
// Phone uniqueness is advisory: RegisterDonor checks for an existing phone and
// then inserts, with no transaction between the two. Two concurrent
// registrations with the same phone can both succeed unless the unique phone
// index is enabled (see indexes.Options.UniquePhone), in which case the second
// insert fails with ErrDuplicatePhone.
package directory

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/matching"
	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodlink/internal/app/store/emergencies"
	"github.com/dalemusser/bloodlink/internal/app/system/htmlsanitize"
	"github.com/dalemusser/bloodlink/internal/app/system/inputval"
	"github.com/dalemusser/bloodlink/internal/app/system/normalize"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DonorStore is the subset of donorstore.Store the service uses.
type DonorStore interface {
	matching.AvailabilityCounter
	Create(ctx context.Context, d models.Donor) (models.Donor, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Donor, error)
	FindByPhone(ctx context.Context, phone string) ([]models.Donor, error)
	PhoneExists(ctx context.Context, phone string) (bool, error)
	Search(ctx context.Context, group models.BloodGroup, city string) ([]models.Donor, error)
	SetAvailable(ctx context.Context, id primitive.ObjectID, available bool) error
	UpdateProfile(ctx context.Context, id primitive.ObjectID, p donorstore.ProfileUpdate) error
	Total(ctx context.Context) (int64, error)
	DistinctCities(ctx context.Context) ([]string, error)
}

// RequestStore is the subset of emergencystore.Store the service uses.
type RequestStore interface {
	Create(ctx context.Context, req models.EmergencyRequest) (models.EmergencyRequest, error)
	All(ctx context.Context) ([]models.EmergencyRequest, error)
	ByBloodGroup(ctx context.Context, group models.BloodGroup) ([]models.EmergencyRequest, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Total(ctx context.Context) (int64, error)
}

type Service struct {
	Donors   DonorStore
	Requests RequestStore
	Matcher  *matching.Engine
	Log      *zap.Logger
}

// New wires a Service over the given stores. The matching engine counts
// through the same donor store.
func New(donors DonorStore, requests RequestStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Donors:   donors,
		Requests: requests,
		Matcher:  matching.New(donors),
		Log:      logger,
	}
}

// NewMongo builds a Service over the Mongo-backed stores.
func NewMongo(db *mongo.Database, logger *zap.Logger) *Service {
	return New(donorstore.New(db), emergencystore.New(db), logger)
}

func (s *Service) fail(op string, err error, fields ...zap.Field) error {
	s.Log.Error("directory store call failed",
		append([]zap.Field{zap.String("op", op), zap.Error(err)}, fields...)...)
	return storeErr(op, err)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Donors                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// RegisterDonor validates in, rejects a phone that is already present, and
// inserts a new available donor.
func (s *Service) RegisterDonor(ctx context.Context, in DonorInput) (models.Donor, error) {
	in.Name = normalize.Name(in.Name)
	in.BloodGroup = strings.TrimSpace(in.BloodGroup)
	in.Phone = normalize.Phone(in.Phone)
	in.Email = normalize.Email(in.Email)
	in.City = strings.TrimSpace(in.City)
	in.Area = strings.TrimSpace(in.Area)

	if res := inputval.Validate(in); res.HasErrors() {
		return models.Donor{}, newValidationError(res)
	}

	exists, err := s.Donors.PhoneExists(ctx, in.Phone)
	if err != nil {
		return models.Donor{}, s.fail("register donor: phone check", err)
	}
	if exists {
		return models.Donor{}, ErrDuplicatePhone
	}

	available := true
	donor := models.Donor{
		Name:       in.Name,
		BloodGroup: models.BloodGroup(in.BloodGroup),
		Phone:      in.Phone,
		Email:      in.Email,
		City:       normalize.City(in.City),
		Area:       in.Area,
		Lat:        in.Lat,
		Lng:        in.Lng,
		Available:  &available,
	}

	created, err := s.Donors.Create(ctx, donor)
	if errors.Is(err, donorstore.ErrDuplicatePhone) {
		return models.Donor{}, ErrDuplicatePhone
	}
	if err != nil {
		return models.Donor{}, s.fail("register donor: insert", err)
	}

	s.Log.Info("donor registered",
		zap.String("donor_id", created.ID.Hex()),
		zap.String("blood_group", string(created.BloodGroup)),
		zap.String("city", created.City))
	return created, nil
}

// FindDonorByPhone is the dashboard login lookup. When several donors share
// a phone the first one in store order wins.
func (s *Service) FindDonorByPhone(ctx context.Context, phone string) (models.Donor, error) {
	phone = normalize.Phone(phone)
	if len([]rune(phone)) < 10 {
		return models.Donor{}, fieldError("phone", "Enter your registered phone number.")
	}

	donors, err := s.Donors.FindByPhone(ctx, phone)
	if err != nil {
		return models.Donor{}, s.fail("find donor by phone", err)
	}
	if len(donors) == 0 {
		return models.Donor{}, ErrNotFound
	}
	return donors[0], nil
}

// GetDonor loads a donor by hex ID.
func (s *Service) GetDonor(ctx context.Context, id string) (models.Donor, error) {
	oid, err := parseID(id)
	if err != nil {
		return models.Donor{}, err
	}
	d, err := s.Donors.GetByID(ctx, oid)
	if errors.Is(err, donorstore.ErrNotFound) {
		return models.Donor{}, ErrNotFound
	}
	if err != nil {
		return models.Donor{}, s.fail("get donor", err, zap.String("donor_id", id))
	}
	return d, nil
}

// SearchDonors runs a conjunctive equality search. An empty filter returns
// every donor; no matches is an empty slice, not an error.
func (s *Service) SearchDonors(ctx context.Context, f SearchFilter) ([]models.Donor, error) {
	if f.BloodGroup != "" && !f.BloodGroup.Valid() {
		return nil, fieldError("blood_group", "Please select a blood group.")
	}

	donors, err := s.Donors.Search(ctx, f.BloodGroup, normalize.City(f.City))
	if err != nil {
		return nil, s.fail("search donors", err)
	}
	if donors == nil {
		donors = []models.Donor{}
	}
	return donors, nil
}

// UpdateDonorAvailability sets the available flag. Setting the same value
// twice is harmless.
func (s *Service) UpdateDonorAvailability(ctx context.Context, id string, available bool) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	err = s.Donors.SetAvailable(ctx, oid, available)
	if errors.Is(err, donorstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail("update availability", err, zap.String("donor_id", id))
	}
	return nil
}

// UpdateDonorProfile overwrites name, email, city and area. City is
// normalized on every save; an empty city stays empty.
func (s *Service) UpdateDonorProfile(ctx context.Context, id string, in ProfileInput) error {
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.City = strings.TrimSpace(in.City)
	in.Area = strings.TrimSpace(in.Area)

	if res := inputval.Validate(in); res.HasErrors() {
		return newValidationError(res)
	}

	oid, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.Donors.UpdateProfile(ctx, oid, donorstore.ProfileUpdate{
		Name:  in.Name,
		Email: in.Email,
		City:  normalize.City(in.City),
		Area:  in.Area,
	})
	if errors.Is(err, donorstore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail("update profile", err, zap.String("donor_id", id))
	}
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Emergency requests                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateEmergencyRequest validates in, snapshots the number of available
// donors of the requested group, and stores the request as active.
func (s *Service) CreateEmergencyRequest(ctx context.Context, in RequestInput) (CreateResult, error) {
	in.PatientName = normalize.Name(in.PatientName)
	in.BloodGroup = strings.TrimSpace(in.BloodGroup)
	in.Hospital = strings.TrimSpace(in.Hospital)
	in.City = strings.TrimSpace(in.City)
	in.ContactNumber = normalize.Phone(in.ContactNumber)
	in.Urgency = strings.TrimSpace(in.Urgency)
	if in.Urgency == "" {
		in.Urgency = string(models.UrgencyUrgent)
	}
	in.Notes = htmlsanitize.PlainText(in.Notes)

	if res := inputval.Validate(in); res.HasErrors() {
		return CreateResult{}, newValidationError(res)
	}

	group := models.BloodGroup(in.BloodGroup)
	count, err := s.Matcher.CountAvailableDonors(ctx, group)
	if err != nil {
		return CreateResult{}, s.fail("create request: count matches", err)
	}

	req, err := s.Requests.Create(ctx, models.EmergencyRequest{
		PatientName:    in.PatientName,
		BloodGroup:     group,
		Hospital:       in.Hospital,
		City:           normalize.City(in.City),
		ContactNumber:  in.ContactNumber,
		Urgency:        models.Urgency(in.Urgency),
		Notes:          in.Notes,
		Status:         models.RequestStatusActive,
		MatchingDonors: count,
	})
	if err != nil {
		return CreateResult{}, s.fail("create request: insert", err)
	}

	s.Log.Info("emergency request created",
		zap.String("request_id", req.ID.Hex()),
		zap.String("blood_group", string(group)),
		zap.String("urgency", in.Urgency),
		zap.Int64("matching_donors", count))
	return CreateResult{Request: req, MatchingDonors: count}, nil
}

// ListEmergencyRequests returns every request, newest first. Requests with
// no creation time sort after all others.
func (s *Service) ListEmergencyRequests(ctx context.Context) ([]models.EmergencyRequest, error) {
	reqs, err := s.Requests.All(ctx)
	if err != nil {
		return nil, s.fail("list requests", err)
	}
	if reqs == nil {
		return []models.EmergencyRequest{}, nil
	}
	SortNewestFirst(reqs)
	return reqs, nil
}

// SortNewestFirst orders requests by created_at descending, stable for ties.
// A zero time is the earliest possible value, so it lands last.
func SortNewestFirst(reqs []models.EmergencyRequest) {
	slices.SortStableFunc(reqs, func(a, b models.EmergencyRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// ListRequestsMatchingBloodGroup returns requests for one group in store
// order.
func (s *Service) ListRequestsMatchingBloodGroup(ctx context.Context, group models.BloodGroup) ([]models.EmergencyRequest, error) {
	if !group.Valid() {
		return nil, fieldError("blood_group", "Please select a blood group.")
	}
	reqs, err := s.Requests.ByBloodGroup(ctx, group)
	if err != nil {
		return nil, s.fail("list requests by group", err)
	}
	if reqs == nil {
		reqs = []models.EmergencyRequest{}
	}
	return reqs, nil
}

// ResolveEmergencyRequest deletes the request. There is no soft delete; a
// second call for the same ID returns ErrNotFound.
func (s *Service) ResolveEmergencyRequest(ctx context.Context, id string) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	err = s.Requests.Delete(ctx, oid)
	if errors.Is(err, emergencystore.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail("resolve request", err, zap.String("request_id", id))
	}
	s.Log.Info("emergency request resolved", zap.String("request_id", id))
	return nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Stats                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Stats counts donors, requests, and distinct donor cities.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	donors, err := s.Donors.Total(ctx)
	if err != nil {
		return Stats{}, s.fail("stats: donors", err)
	}
	requests, err := s.Requests.Total(ctx)
	if err != nil {
		return Stats{}, s.fail("stats: requests", err)
	}
	cities, err := s.Donors.DistinctCities(ctx)
	if err != nil {
		return Stats{}, s.fail("stats: cities", err)
	}

	seen := make(map[string]struct{}, len(cities))
	for _, c := range cities {
		if k := normalize.CityKey(c); k != "" {
			seen[k] = struct{}{}
		}
	}
	return Stats{Donors: donors, Requests: requests, Cities: len(seen)}, nil
}
