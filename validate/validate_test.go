package validate

import (
	"testing"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectsAllViolations(t *testing.T) {
	e := New()
	e.Require("name", "  ").
		Positive("price", 0).
		Email("email", "not-an-email").
		CountBetween("contact_numbers", 5, 1, 3)

	err := e.Err()
	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Len(t, apperr.FieldsOf(err), 4)
}

func TestNoViolationsMeansNil(t *testing.T) {
	e := New()
	e.Require("name", "Pasta").Positive("price", 9.5).Email("email", "a@b.co")
	assert.NoError(t, e.Err())
}

func TestBusinessHours(t *testing.T) {
	full := map[string]models.DayHours{}
	for _, d := range models.Weekdays {
		full[d] = models.DayHours{Open: "09:00", Close: "22:00"}
	}
	assert.NoError(t, New().BusinessHours("business_hours", full).Err())

	partial := map[string]models.DayHours{"monday": {Open: "09:00", Close: "22:00"}}
	err := New().BusinessHours("business_hours", partial).Err()
	require.ErrorIs(t, err, apperr.ErrValidation)

	err = New().BusinessHours("business_hours", nil).Err()
	require.ErrorIs(t, err, apperr.ErrValidation)
}
