// Package forms validates user input before it reaches the stores and turns
// accepted forms into store inputs.
package forms

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, field := range slices.Sorted(maps.Keys(e)) {
		parts = append(parts, fmt.Sprintf("%s: %s", field, e[field]))
	}
	return strings.Join(parts, "; ")
}

// First returns the message of the first field in order that failed.
func (e FieldErrors) First(order ...string) string {
	for _, field := range order {
		if msg, ok := e[field]; ok {
			return msg
		}
	}
	for _, field := range slices.Sorted(maps.Keys(e)) {
		return e[field]
	}
	return ""
}

// check validates form and converts failures to FieldErrors. Only the first
// failure per field is kept.
func check(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		return err
	}

	errs := make(FieldErrors, len(failures))
	for _, failure := range failures {
		field := rootField(failure)
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = message(field, failure)
	}
	return errs
}

// rootField strips the struct name and any map or slice index from the
// namespace, so "socialLinks[github]" reports as "socialLinks".
func rootField(failure validator.FieldError) string {
	field := failure.Field()
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	return field
}

var labels = map[string]string{
	"name":            "Name",
	"email":           "Email",
	"password":        "Password",
	"confirmPassword": "Confirm password",
	"title":           "Title",
	"body":            "Content",
	"bio":             "Bio",
	"avatarUrl":       "Avatar URL",
	"coverImage":      "Cover image",
	"socialLinks":     "Social links",
	"media":           "Media",
	"visibility":      "Visibility",
}

func message(field string, failure validator.FieldError) string {
	label, ok := labels[field]
	if !ok {
		label = field
	}

	switch failure.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return label + " is invalid"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, failure.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, failure.Param())
	case "eqfield":
		return "Passwords do not match"
	case "url", "http_url":
		return label + " must be a valid URL"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, failure.Param())
	default:
		return label + " is invalid"
	}
}
