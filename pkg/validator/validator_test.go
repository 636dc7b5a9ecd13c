package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type form struct {
	Name    string `json:"name" validate:"required,max=10"`
	Phone   string `json:"phone_number" validate:"omitempty,phone"`
	Plate   string `json:"plate" validate:"omitempty,plate"`
	Blood   string `json:"blood_group" validate:"omitempty,blood_group"`
	Status  string `json:"status" validate:"omitempty,oneof=pending approved"`
	Age     int    `json:"age" validate:"gte=0"`
	Private string `json:"-" validate:"max=3"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&form{Name: "Cardiology", Phone: "+1 (555) 010-2000", Plate: "ab-123", Blood: "o+", Status: "approved"}))

	err := v.Validate(&form{Name: "", Phone: "abc", Plate: "!!", Blood: "C", Status: "lost", Age: -1, Private: "toolong"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := verrs.Fields()
	assert.Equal(t, "is required", fields["name"])
	assert.Equal(t, "must be a valid phone number", fields["phone_number"])
	assert.Equal(t, "must be a valid registration plate", fields["plate"])
	assert.Equal(t, "must be a valid blood group", fields["blood_group"])
	assert.Equal(t, "must be one of: pending, approved", fields["status"])
	assert.Equal(t, "must be at least 0", fields["age"])
	assert.Equal(t, "must be at most 3 characters", fields["Private"])
}

func TestValidationErrorsString(t *testing.T) {
	errs := ValidationErrors{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}}
	assert.Equal(t, "a: x; b: y", errs.Error())
	assert.Equal(t, "", ValidationErrors{}.Error())
}
