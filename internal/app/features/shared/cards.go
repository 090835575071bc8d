// Package shared holds view models rendered by more than one feature.
package shared

import (
	"time"

	"github.com/dalemusser/bloodlink/internal/app/system/contactlink"
	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// RequestCard feeds the "request_card" partial.
type RequestCard struct {
	ID             string
	PatientName    string
	BloodGroup     string
	Hospital       string
	City           string
	ContactNumber  string
	Urgency        string
	UrgencyLabel   string
	Notes          string
	MatchingDonors int64
	Posted         string
	Links          contactlink.Links

	// Resolve form; empty ResolveURL hides the button.
	ResolveURL string
	ReturnURL  string
	CSRFToken  string
}

// CardOptions controls the per-page parts of a request card.
type CardOptions struct {
	Message   string // prefilled WhatsApp text
	Resolve   bool
	ReturnURL string
	CSRFToken string
}

// RequestCards builds cards in the order given.
func RequestCards(reqs []models.EmergencyRequest, opt CardOptions) []RequestCard {
	out := make([]RequestCard, 0, len(reqs))
	for _, r := range reqs {
		c := RequestCard{
			ID:             r.ID.Hex(),
			PatientName:    r.PatientName,
			BloodGroup:     string(r.BloodGroup),
			Hospital:       r.Hospital,
			City:           r.City,
			ContactNumber:  r.ContactNumber,
			Urgency:        string(r.Urgency),
			UrgencyLabel:   r.Urgency.Label(),
			Notes:          r.Notes,
			MatchingDonors: r.MatchingDonors,
			Posted:         PostedAt(r.CreatedAt),
			Links:          contactlink.For(r.ContactNumber, opt.Message),
			ReturnURL:      opt.ReturnURL,
			CSRFToken:      opt.CSRFToken,
		}
		if opt.Resolve {
			c.ResolveURL = "/emergency/" + c.ID + "/resolve"
		}
		out = append(out, c)
	}
	return out
}

// PostedAt formats a creation time for cards; a missing time reads "Just now".
func PostedAt(t time.Time) string {
	if t.IsZero() {
		return "Just now"
	}
	return t.Local().Format("Jan 2, 2006 3:04 PM")
}

// DonorCard feeds donor search results.
type DonorCard struct {
	ID         string
	Name       string
	Initial    string
	BloodGroup string
	Location   string
	Available  bool
	Links      contactlink.Links
}

// DonorCards builds search result cards with the donor-contact message.
func DonorCards(donors []models.Donor) []DonorCard {
	out := make([]DonorCard, 0, len(donors))
	for _, d := range donors {
		out = append(out, DonorCard{
			ID:         d.ID.Hex(),
			Name:       d.Name,
			Initial:    d.Initial(),
			BloodGroup: string(d.BloodGroup),
			Location:   d.Location(),
			Available:  d.IsAvailable(),
			Links:      contactlink.For(d.Phone, contactlink.DonorContactMessage),
		})
	}
	return out
}
