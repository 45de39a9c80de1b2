package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kbukum/careerauth/errors"
)

// FieldError is one entry of details.fields in a 400 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors for checks that struct tags cannot
// express. Methods chain:
//
//	appErr := validation.New().Required("securityAnswer", answer).Validate()
type Validator struct {
	errors []FieldError
}

func New() *Validator {
	return &Validator{}
}

// AddError records message against field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errors) > 0 }

func (v *Validator) Errors() []FieldError { return v.errors }

// Required fails on an empty or whitespace-only value.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// MaxLength fails when value has more than n characters.
func (v *Validator) MaxLength(field, value string, n int) *Validator {
	if utf8.RuneCountInString(value) > n {
		v.AddError(field, fmt.Sprintf("must be at most %d characters", n))
	}
	return v
}

// Custom records message when ok is false.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

// Validate returns nil when nothing failed, otherwise a 400 INVALID_INPUT
// error listing every field. Compare the result with nil before returning
// it as an error interface.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, len(v.errors))
	for i, e := range v.errors {
		parts[i] = e.Field + " " + e.Message
	}
	appErr := errors.Validation(strings.Join(parts, "; "))
	appErr.Details = map[string]any{"fields": v.errors}
	return appErr
}

// FromViolations reports each violated rule against field, or returns nil
// when there are none.
func FromViolations(field string, violations []string) error {
	if len(violations) == 0 {
		return nil
	}
	v := New()
	for _, msg := range violations {
		v.AddError(field, msg)
	}
	return v.Validate()
}
