package directory

import (
	"github.com/dalemusser/bloodlink/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DonorInput is a registration submission.
type DonorInput struct {
	Name       string   `form:"name" json:"name" validate:"notblank,utf8,max=200" label:"Full name"`
	BloodGroup string   `form:"blood_group" json:"blood_group" validate:"bloodgroup" label:"Blood group"`
	Phone      string   `form:"phone" json:"phone" validate:"min=10,max=64" label:"Phone number"`
	Email      string   `form:"email" json:"email" validate:"omitempty,plausibleemail,max=254" label:"Email"`
	City       string   `form:"city" json:"city" validate:"notblank,utf8,max=100" label:"City"`
	Area       string   `form:"area" json:"area" validate:"utf8,max=200" label:"Area"`
	Lat        *float64 `form:"lat" json:"lat" validate:"omitempty,latitude" label:"Latitude"`
	Lng        *float64 `form:"lng" json:"lng" validate:"omitempty,longitude" label:"Longitude"`
}

// ProfileInput is a donor's own profile edit.
type ProfileInput struct {
	Name  string `form:"name" json:"name" validate:"notblank,utf8,max=200" label:"Name"`
	Email string `form:"email" json:"email" validate:"omitempty,plausibleemail,max=254" label:"Email"`
	City  string `form:"city" json:"city" validate:"utf8,max=100" label:"City"`
	Area  string `form:"area" json:"area" validate:"utf8,max=200" label:"Area"`
}

// RequestInput is an emergency request submission.
type RequestInput struct {
	PatientName   string `form:"patient_name" json:"patient_name" validate:"notblank,utf8,max=200" label:"Patient name"`
	BloodGroup    string `form:"blood_group" json:"blood_group" validate:"bloodgroup" label:"Blood group"`
	Hospital      string `form:"hospital" json:"hospital" validate:"notblank,utf8,max=200" label:"Hospital name"`
	City          string `form:"city" json:"city" validate:"notblank,utf8,max=100" label:"City"`
	ContactNumber string `form:"contact_number" json:"contact_number" validate:"min=10,max=64" label:"Contact number"`
	Urgency       string `form:"urgency" json:"urgency" validate:"urgency" label:"Urgency"`
	Notes         string `form:"notes" json:"notes" validate:"max=2000" label:"Notes"`
}

// SearchFilter narrows a donor search. Empty fields are ignored.
type SearchFilter struct {
	BloodGroup models.BloodGroup
	City       string
}

// CreateResult is returned from CreateEmergencyRequest. MatchingDonors is
// also stored on Request; it is repeated here so callers can branch on zero.
type CreateResult struct {
	Request        models.EmergencyRequest
	MatchingDonors int64
}

// ID is the hex form of the created request's ID.
func (r CreateResult) ID() string { return r.Request.ID.Hex() }

// Stats feeds the home page counters.
type Stats struct {
	Donors   int64 `json:"donors"`
	Requests int64 `json:"requests"`
	Cities   int   `json:"cities"`
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
