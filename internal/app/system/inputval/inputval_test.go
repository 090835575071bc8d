package inputval

import "testing"

func TestIsPlausibleEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.co.in", true},
		{"user+tag@example.com", true},
		{"a@b.co", true},

		{"", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user@localhost", false}, // needs a dot after the @
		{"user @example.com", false},
		{"user@exam ple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			got := IsPlausibleEmail(tt.email)
			if got != tt.want {
				t.Errorf("IsPlausibleEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

type sampleInput struct {
	Name       string `form:"name" validate:"notblank" label:"Full name"`
	BloodGroup string `form:"blood_group" validate:"bloodgroup" label:"Blood group"`
	Phone      string `form:"phone" validate:"min=10" label:"Phone number"`
	Email      string `form:"email" validate:"omitempty,plausibleemail" label:"Email"`
	Urgency    string `form:"urgency" validate:"urgency" label:"Urgency"`
}

func TestValidate_OK(t *testing.T) {
	res := Validate(sampleInput{
		Name:       "Asha",
		BloodGroup: "O+",
		Phone:      "9876543210",
		Urgency:    "critical",
	})
	if res.HasErrors() {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	if res.First() != "" {
		t.Errorf("First() = %q, want empty", res.First())
	}
}

func TestValidate_ReportsEveryField(t *testing.T) {
	res := Validate(sampleInput{
		Name:       "   ",
		BloodGroup: "Z+",
		Phone:      "123",
		Email:      "nope",
		Urgency:    "whenever",
	})
	if !res.HasErrors() {
		t.Fatal("expected errors")
	}

	byField := res.ByField()
	want := map[string]string{
		"name":        "Full name is required.",
		"blood_group": "Please select a blood group.",
		"phone":       "Phone number must be at least 10 characters.",
		"email":       "Please enter a valid email.",
		"urgency":     "Please select an urgency level.",
	}
	for field, msg := range want {
		if got := byField[field]; got != msg {
			t.Errorf("field %s: got %q, want %q", field, got, msg)
		}
	}
}

func TestValidate_PointerInput(t *testing.T) {
	res := Validate(&sampleInput{Name: "", BloodGroup: "A+", Phone: "1234567890", Urgency: "normal"})
	if len(res.Errors) != 1 || res.Errors[0].Field != "name" {
		t.Fatalf("expected single name error, got %+v", res.Errors)
	}
	if res.Errors[0].Label != "Full name" {
		t.Errorf("Label = %q", res.Errors[0].Label)
	}
}

func TestValidate_RejectsInvalidUTF8(t *testing.T) {
	type cityInput struct {
		City string `form:"city" validate:"notblank,utf8" label:"City"`
	}

	res := Validate(cityInput{City: "\xffABC"})
	if len(res.Errors) != 1 || res.Errors[0].Field != "city" {
		t.Fatalf("expected single city error, got %+v", res.Errors)
	}
	if got := res.First(); got != "City contains invalid characters." {
		t.Errorf("First() = %q", got)
	}

	if res := Validate(cityInput{City: "Ålesund"}); res.HasErrors() {
		t.Errorf("valid UTF-8 rejected: %+v", res.Errors)
	}
}
