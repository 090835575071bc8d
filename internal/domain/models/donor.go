// internal/domain/models/donor.go
package models

import (
	"strings"
	"time"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Donor is a person registered as willing to give blood.
//
// NOTE:
//   - Phone doubles as the login key but uniqueness is only checked before
//     insert; the collection may hold duplicates.
//   - Available is a pointer because documents written by older clients may
//     lack the field, and a missing field means the donor is available.
type Donor struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	BloodGroup BloodGroup         `bson:"blood_group" json:"blood_group"`
	Phone      string             `bson:"phone" json:"phone"`
	Email      string             `bson:"email" json:"email"`
	City       string             `bson:"city" json:"city"` // normalized, see normalize.City
	Area       string             `bson:"area" json:"area"`
	Lat        *float64           `bson:"lat" json:"lat"`
	Lng        *float64           `bson:"lng" json:"lng"`
	Available  *bool              `bson:"available,omitempty" json:"available,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt *time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// IsAvailable treats an absent availability flag as available.
func (d Donor) IsAvailable() bool {
	return d.Available == nil || *d.Available
}

// HasLocation reports whether GPS coordinates were captured at registration.
func (d Donor) HasLocation() bool {
	return d.Lat != nil && d.Lng != nil
}

// Initial is the first letter of the donor's name for avatar badges.
func (d Donor) Initial() string {
	for _, r := range strings.TrimSpace(d.Name) {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// Location joins city and area for display ("Pune, Kothrud").
func (d Donor) Location() string {
	city := d.City
	if city == "" {
		city = "—"
	}
	if d.Area != "" {
		return city + ", " + d.Area
	}
	return city
}
