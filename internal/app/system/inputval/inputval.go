// Package inputval validates form and API input with struct tags.
//
// Fields carry a `validate` tag (go-playground/validator syntax), a `form` tag
// naming the field as the client sent it, and a `label` tag used in messages:
//
//	type registerInput struct {
//		Name  string `form:"name" validate:"required" label:"Full name"`
//		Phone string `form:"phone" validate:"required,min=10" label:"Phone number"`
//	}
//
//	if res := inputval.Validate(in); res.HasErrors() {
//		first := res.Errors[0] // Field: "phone", Message: "..."
//	}
package inputval

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/dalemusser/bloodlink/internal/domain/models"
	"github.com/go-playground/validator/v10"
)

// emailRE is deliberately loose: something@something.tld with no spaces.
var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsPlausibleEmail reports whether s has the local@domain.tld shape.
func IsPlausibleEmail(s string) bool {
	return emailRE.MatchString(s)
}

// FieldError is one failed rule.
type FieldError struct {
	Field   string // form/json name, e.g. "blood_group"
	Label   string // human label, e.g. "Blood group"
	Message string
}

// Result collects every failed rule for one input struct.
type Result struct {
	Errors []FieldError
}

// HasErrors reports whether any rule failed.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when valid.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// ByField maps field name to message, for inline error display.
func (r Result) ByField() map[string]string {
	m := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := m[e.Field]; !ok {
			m[e.Field] = e.Message
		}
	}
	return m
}

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if name := f.Tag.Get("form"); name != "" && name != "-" {
				return name
			}
			return strings.ToLower(f.Name)
		})
		_ = v.RegisterValidation("bloodgroup", func(fl validator.FieldLevel) bool {
			return models.BloodGroup(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("urgency", func(fl validator.FieldLevel) bool {
			return models.Urgency(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("plausibleemail", func(fl validator.FieldLevel) bool {
			return IsPlausibleEmail(fl.Field().String())
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("utf8", func(fl validator.FieldLevel) bool {
			return utf8.ValidString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate runs the struct-tag rules on v (a struct or pointer to struct).
func Validate(v any) Result {
	err := instance().Struct(v)
	if err == nil {
		return Result{}
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}

	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		label := fe.Field()
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if l := sf.Tag.Get("label"); l != "" {
				label = l
			}
		}
		out = append(out, FieldError{
			Field:   fe.Field(),
			Label:   label,
			Message: message(label, fe),
		})
	}
	return Result{Errors: out}
}

func message(label string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "plausibleemail", "email":
		return "Please enter a valid email."
	case "bloodgroup":
		return "Please select a blood group."
	case "urgency":
		return "Please select an urgency level."
	case "utf8":
		return label + " contains invalid characters."
	case "latitude", "longitude":
		return label + " is out of range."
	}
	return label + " is invalid."
}
