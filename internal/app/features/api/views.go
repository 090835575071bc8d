package api

import (
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/contactlink"
	"github.com/dalemusser/bloodlink/internal/domain/models"
)

type donorView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	BloodGroup string            `json:"blood_group"`
	Phone      string            `json:"phone"`
	Email      string            `json:"email,omitempty"`
	City       string            `json:"city"`
	Area       string            `json:"area,omitempty"`
	Lat        *float64          `json:"lat,omitempty"`
	Lng        *float64          `json:"lng,omitempty"`
	Available  bool              `json:"available"`
	CreatedAt  *time.Time        `json:"created_at,omitempty"`
	Contact    contactlink.Links `json:"contact"`
}

func toDonorView(d models.Donor) donorView {
	v := donorView{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		BloodGroup: string(d.BloodGroup),
		Phone:      d.Phone,
		Email:      d.Email,
		City:       d.City,
		Area:       d.Area,
		Lat:        d.Lat,
		Lng:        d.Lng,
		Available:  d.IsAvailable(),
		Contact:    contactlink.For(d.Phone, contactlink.DonorContactMessage),
	}
	if !d.CreatedAt.IsZero() {
		t := d.CreatedAt
		v.CreatedAt = &t
	}
	return v
}

func toDonorViews(ds []models.Donor) []donorView {
	out := make([]donorView, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDonorView(d))
	}
	return out
}

type requestView struct {
	ID             string            `json:"id"`
	PatientName    string            `json:"patient_name"`
	BloodGroup     string            `json:"blood_group"`
	Hospital       string            `json:"hospital"`
	City           string            `json:"city"`
	ContactNumber  string            `json:"contact_number"`
	Urgency        string            `json:"urgency"`
	Notes          string            `json:"notes,omitempty"`
	Status         string            `json:"status"`
	MatchingDonors int64             `json:"matching_donors"`
	CreatedAt      *time.Time        `json:"created_at,omitempty"`
	Contact        contactlink.Links `json:"contact"`
}

func toRequestView(r models.EmergencyRequest) requestView {
	v := requestView{
		ID:             r.ID.Hex(),
		PatientName:    r.PatientName,
		BloodGroup:     string(r.BloodGroup),
		Hospital:       r.Hospital,
		City:           r.City,
		ContactNumber:  r.ContactNumber,
		Urgency:        string(r.Urgency),
		Notes:          r.Notes,
		Status:         string(r.Status),
		MatchingDonors: r.MatchingDonors,
		Contact:        contactlink.For(r.ContactNumber, contactlink.RequestReplyMessage),
	}
	if !r.CreatedAt.IsZero() {
		t := r.CreatedAt
		v.CreatedAt = &t
	}
	return v
}

func toRequestViews(rs []models.EmergencyRequest) []requestView {
	out := make([]requestView, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRequestView(r))
	}
	return out
}
