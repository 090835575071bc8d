// internal/domain/models/bloodgroup.go
package models

// BloodGroup is one of the eight ABO/Rh groups a donor or request can carry.
// The values are stored verbatim in the blood_group field.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// BloodGroups is the closed set of allowed blood groups, in the order the
// selection lists show them. Schema enums and validation read from here.
var BloodGroups = []BloodGroup{
	BloodGroupAPos,
	BloodGroupANeg,
	BloodGroupBPos,
	BloodGroupBNeg,
	BloodGroupABPos,
	BloodGroupABNeg,
	BloodGroupOPos,
	BloodGroupONeg,
}

// Valid reports whether g is one of BloodGroups.
func (g BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if v == g {
			return true
		}
	}
	return false
}

func (g BloodGroup) String() string { return string(g) }

// ParseBloodGroup returns the group for s, or false if s is not a member of
// the enumeration. Matching is exact; "o+" is not accepted.
func ParseBloodGroup(s string) (BloodGroup, bool) {
	g := BloodGroup(s)
	return g, g.Valid()
}
