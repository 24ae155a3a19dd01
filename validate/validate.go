// Package validate provides explicit, composable validators invoked by each
// operation's entry point. Violations are collected into a structured field
// list instead of failing on the first one.
package validate

import (
	"fmt"
	"strings"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Errors accumulates field violations across validator calls.
type Errors struct {
	fields []apperr.FieldError
}

func New() *Errors { return &Errors{} }

func (e *Errors) Add(field, format string, args ...any) {
	e.fields = append(e.fields, apperr.FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Err returns a ValidationError carrying every collected violation, or nil.
func (e *Errors) Err() error {
	if len(e.fields) == 0 {
		return nil
	}
	return apperr.ValidationFields(e.fields)
}

func (e *Errors) Require(field, value string) *Errors {
	if strings.TrimSpace(value) == "" {
		e.Add(field, "is required")
	}
	return e
}

func (e *Errors) Positive(field string, value float64) *Errors {
	if value <= 0 {
		e.Add(field, "must be greater than zero")
	}
	return e
}

func (e *Errors) NonNegative(field string, value float64) *Errors {
	if value < 0 {
		e.Add(field, "must not be negative")
	}
	return e
}

func (e *Errors) Min(field string, value, min int) *Errors {
	if value < min {
		e.Add(field, "must be at least %d", min)
	}
	return e
}

func (e *Errors) CountBetween(field string, count, lo, hi int) *Errors {
	if count < lo || count > hi {
		e.Add(field, "must have between %d and %d entries", lo, hi)
	}
	return e
}

func (e *Errors) Email(field, value string) *Errors {
	if err := v.Var(value, "required,email"); err != nil {
		e.Add(field, "must be a valid email address")
	}
	return e
}

func (e *Errors) OneOf(field, value string, allowed ...string) *Errors {
	for _, a := range allowed {
		if value == a {
			return e
		}
	}
	e.Add(field, "must be one of: %s", strings.Join(allowed, ", "))
	return e
}

// BusinessHours requires exactly one entry per weekday.
func (e *Errors) BusinessHours(field string, hours map[string]models.DayHours) *Errors {
	if len(hours) == 0 {
		e.Add(field, "is required")
		return e
	}
	for _, day := range models.Weekdays {
		if _, ok := hours[day]; !ok {
			e.Add(field, "missing entry for %s", day)
		}
	}
	if len(hours) != len(models.Weekdays) {
		for day := range hours {
			known := false
			for _, d := range models.Weekdays {
				if d == day {
					known = true
					break
				}
			}
			if !known {
				e.Add(field, "unknown weekday %q", day)
			}
		}
	}
	return e
}
