// Package formutil provides helpers for form re-rendering with validation errors.
//
// When a form submission fails validation, the form should be re-rendered with:
// - The user's previously entered values (echoed back)
// - An error message explaining what went wrong
// - Inline messages next to each failing field
//
// Example usage:
//
//	type registerData struct {
//		formutil.Base
//		Input directory.DonorInput
//	}
//
//	data := registerData{Input: in}
//	formutil.SetBase(&data.Base, r, "Register as Donor", "/")
//	data.SetFieldErrors(ve.ByField())
//	data.SetError(ve.Message())
//	templates.Render(w, r, "register", data)
package formutil

import (
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/bloodlink/internal/app/system/viewdata"
	"github.com/dalemusser/bloodlink/internal/domain/models"
)

// Base contains common fields for form pages that can be embedded in form data structs.
type Base struct {
	viewdata.BaseVM
	Error       template.HTML
	Success     string
	FieldErrors map[string]string
}

// SetBase populates the common Base fields from the request context.
func SetBase(b *Base, r *http.Request, title, backDefault string) {
	b.BaseVM = viewdata.NewBaseVM(r, title, backDefault)
}

// SetError sets the error message on a Base struct.
func (b *Base) SetError(msg string) {
	b.Error = template.HTML(template.HTMLEscapeString(msg))
}

// SetFieldErrors records per-field messages for inline display.
func (b *Base) SetFieldErrors(m map[string]string) {
	b.FieldErrors = m
}

// FieldError returns the message for field, or "".
func (b Base) FieldError(field string) string {
	return b.FieldErrors[field]
}

// GroupSelect feeds the "blood_group_options" partial.
type GroupSelect struct {
	Groups   []models.BloodGroup
	Selected string
}

// BloodGroups returns a GroupSelect with selected pre-chosen.
func BloodGroups(selected string) GroupSelect {
	return GroupSelect{Groups: models.BloodGroups, Selected: selected}
}

// OptionalFloat parses a form value as a float. Blank or malformed input
// yields nil.
func OptionalFloat(r *http.Request, key string) *float64 {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}
