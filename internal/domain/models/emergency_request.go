// internal/domain/models/emergency_request.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmergencyRequest is a posted need for blood of a specific group.
//
// MatchingDonors is a snapshot taken when the request was created. It is
// never recomputed, so it drifts as donors change availability.
type EmergencyRequest struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PatientName    string             `bson:"patient_name" json:"patient_name"`
	BloodGroup     BloodGroup         `bson:"blood_group" json:"blood_group"`
	Hospital       string             `bson:"hospital" json:"hospital"`
	City           string             `bson:"city" json:"city"`
	ContactNumber  string             `bson:"contact_number" json:"contact_number"`
	Urgency        Urgency            `bson:"urgency" json:"urgency"`
	Notes          string             `bson:"notes" json:"notes"`
	Status         RequestStatus      `bson:"status" json:"status"`
	MatchingDonors int64              `bson:"matching_donors" json:"matching_donors"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
