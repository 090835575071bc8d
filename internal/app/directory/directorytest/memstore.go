// Package directorytest provides in-memory stores for exercising
// directory.Service and the handlers built on it without a database.
package directorytest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/bloodlink/internal/app/directory"
	donorstore "github.com/dalemusser/bloodlink/internal/app/store/donors"
	emergencystore "github.com/dalemusser/bloodlink/internal/app/store/emergencies"
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MemDonors is an in-memory DonorStore. Natural order is insertion order.
type MemDonors struct {
	mu     sync.Mutex
	donors []models.Donor
	writes int

	// UniquePhone makes Create behave as if the unique phone index exists.
	UniquePhone bool
	// AfterPhoneCheck runs after PhoneExists answers and before it returns.
	AfterPhoneCheck func()
	// Fail makes every call return this error.
	Fail error
}

func (m *MemDonors) Create(_ context.Context, d models.Donor) (models.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.Donor{}, m.Fail
	}
	if m.UniquePhone {
		for _, x := range m.donors {
			if x.Phone == d.Phone {
				return models.Donor{}, donorstore.ErrDuplicatePhone
			}
		}
	}
	d.ID = primitive.NewObjectID()
	d.CreatedAt = time.Now().UTC()
	m.donors = append(m.donors, d)
	m.writes++
	return d, nil
}

func (m *MemDonors) GetByID(_ context.Context, id primitive.ObjectID) (models.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.Donor{}, m.Fail
	}
	for _, d := range m.donors {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Donor{}, donorstore.ErrNotFound
}

func (m *MemDonors) FindByPhone(_ context.Context, phone string) ([]models.Donor, error) {
	return m.filter(func(d models.Donor) bool { return d.Phone == phone })
}

func (m *MemDonors) PhoneExists(_ context.Context, phone string) (bool, error) {
	m.mu.Lock()
	if m.Fail != nil {
		m.mu.Unlock()
		return false, m.Fail
	}
	exists := false
	for _, d := range m.donors {
		if d.Phone == phone {
			exists = true
			break
		}
	}
	hook := m.AfterPhoneCheck
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return exists, nil
}

func (m *MemDonors) Search(_ context.Context, group models.BloodGroup, city string) ([]models.Donor, error) {
	return m.filter(func(d models.Donor) bool {
		return (group == "" || d.BloodGroup == group) && (city == "" || d.City == city)
	})
}

func (m *MemDonors) CountAvailable(_ context.Context, group models.BloodGroup) (int64, error) {
	ds, err := m.filter(func(d models.Donor) bool { return d.BloodGroup == group && d.IsAvailable() })
	return int64(len(ds)), err
}

func (m *MemDonors) SetAvailable(_ context.Context, id primitive.ObjectID, available bool) error {
	return m.update(id, func(d *models.Donor) { d.Available = &available })
}

func (m *MemDonors) UpdateProfile(_ context.Context, id primitive.ObjectID, p donorstore.ProfileUpdate) error {
	return m.update(id, func(d *models.Donor) {
		d.Name, d.Email, d.City, d.Area = p.Name, p.Email, p.City, p.Area
	})
}

func (m *MemDonors) Total(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	return int64(len(m.donors)), nil
}

func (m *MemDonors) DistinctCities(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	seen := map[string]bool{}
	var out []string
	for _, d := range m.donors {
		if !seen[d.City] {
			seen[d.City] = true
			out = append(out, d.City)
		}
	}
	return out, nil
}

func (m *MemDonors) filter(keep func(models.Donor) bool) ([]models.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []models.Donor
	for _, d := range m.donors {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemDonors) update(id primitive.ObjectID, fn func(*models.Donor)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for i := range m.donors {
		if m.donors[i].ID == id {
			fn(&m.donors[i])
			m.writes++
			return nil
		}
	}
	return donorstore.ErrNotFound
}

// Seed inserts a donor as-is, bypassing the service.
func (m *MemDonors) Seed(d models.Donor) models.Donor {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	m.donors = append(m.donors, d)
	return d
}

// MemRequests is an in-memory RequestStore.
type MemRequests struct {
	mu     sync.Mutex
	reqs   []models.EmergencyRequest
	writes int
	Fail   error
}

func (m *MemRequests) Create(_ context.Context, r models.EmergencyRequest) (models.EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return models.EmergencyRequest{}, m.Fail
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	m.reqs = append(m.reqs, r)
	m.writes++
	return r, nil
}

func (m *MemRequests) All(_ context.Context) ([]models.EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	return append([]models.EmergencyRequest(nil), m.reqs...), nil
}

func (m *MemRequests) ByBloodGroup(_ context.Context, group models.BloodGroup) ([]models.EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return nil, m.Fail
	}
	var out []models.EmergencyRequest
	for _, r := range m.reqs {
		if r.BloodGroup == group {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemRequests) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return m.Fail
	}
	for i, r := range m.reqs {
		if r.ID == id {
			m.reqs = append(m.reqs[:i], m.reqs[i+1:]...)
			m.writes++
			return nil
		}
	}
	return emergencystore.ErrNotFound
}

func (m *MemRequests) Total(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail != nil {
		return 0, m.Fail
	}
	return int64(len(m.reqs)), nil
}

func (m *MemRequests) Get(id primitive.ObjectID) (models.EmergencyRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.ID == id {
			return r, true
		}
	}
	return models.EmergencyRequest{}, false
}

// ErrConnRefused is a convenient store failure for tests.
var ErrConnRefused = errors.New("connection refused")

// Writes returns the number of successful inserts and updates.
func (m *MemDonors) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Writes returns the number of successful inserts and deletes.
func (m *MemRequests) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// SeedRequest inserts a request as-is, bypassing the service.
func (m *MemRequests) SeedRequest(r models.EmergencyRequest) models.EmergencyRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	m.reqs = append(m.reqs, r)
	return r
}

// NewService returns a Service over fresh in-memory stores.
func NewService() (*directory.Service, *MemDonors, *MemRequests) {
	d := &MemDonors{}
	r := &MemRequests{}
	return directory.New(d, r, zap.NewNop()), d, r
}
