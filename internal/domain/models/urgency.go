// internal/domain/models/urgency.go
package models

// Urgency ranks how soon an emergency request needs blood.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyNormal   Urgency = "normal"
)

// Urgencies is the closed set of urgency levels, most severe first.
var Urgencies = []Urgency{UrgencyCritical, UrgencyUrgent, UrgencyNormal}

// Valid reports whether u is one of Urgencies.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyCritical, UrgencyUrgent, UrgencyNormal:
		return true
	}
	return false
}

// Label is the display text used on request cards.
func (u Urgency) Label() string {
	switch u {
	case UrgencyCritical:
		return "Critical"
	case UrgencyUrgent:
		return "Urgent"
	case UrgencyNormal:
		return "Normal"
	}
	return string(u)
}

func (u Urgency) String() string { return string(u) }

// RequestStatus is the lifecycle state of an emergency request. Requests are
// only ever created active; resolving one deletes the document.
type RequestStatus string

const RequestStatusActive RequestStatus = "active"
