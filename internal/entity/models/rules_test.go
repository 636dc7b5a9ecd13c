package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func TestValidateDependent(t *testing.T) {
	tests := []struct {
		name string
		dep  Dependent
		want string
	}{
		{"young child", Dependent{Relationship: "child", DateOfBirth: NewDate(2015, 1, 1)}, ""},
		{"child day before 25th birthday", Dependent{Relationship: "child", DateOfBirth: NewDate(1999, 6, 16)}, ""},
		{"child on 25th birthday", Dependent{Relationship: "child", DateOfBirth: NewDate(1999, 6, 15)}, "child dependents must be under 25"},
		{"minor spouse", Dependent{Relationship: "spouse", DateOfBirth: NewDate(2010, 1, 1)}, "spouse must be at least 18"},
		{"adult spouse", Dependent{Relationship: "spouse", DateOfBirth: NewDate(1990, 1, 1)}, ""},
		{"future birth", Dependent{Relationship: "parent", DateOfBirth: NewDate(2030, 1, 1)}, "cannot be in the future"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateDependent(&tt.dep, today)
			assert.Equal(t, tt.want, errs["date_of_birth"])
		})
	}
}

func TestValidateImmunization(t *testing.T) {
	ok := Immunization{AdministeredOn: NewDate(2024, 1, 1), NextDueOn: NewDate(2024, 7, 1)}
	assert.Empty(t, ValidateImmunization(&ok, today))

	bad := Immunization{AdministeredOn: NewDate(2024, 1, 1), NextDueOn: NewDate(2024, 1, 1)}
	assert.Contains(t, ValidateImmunization(&bad, today), "next_due_on")
}

func TestValidateMedicalExam(t *testing.T) {
	e := MedicalExam{ExamDate: NewDate(2024, 6, 1), Status: "pending", Approval: "approved"}
	errs := ValidateMedicalExam(&e, today)
	assert.Contains(t, errs, "approval")
	assert.Contains(t, errs, "approved_by")

	e.Status, e.ApprovedBy = "passed", "dr. house"
	assert.Empty(t, ValidateMedicalExam(&e, today))
}

func TestDateJSON(t *testing.T) {
	var d struct {
		On  Date `json:"on"`
		Off Date `json:"off"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"on":"2024-02-29","off":null}`), &d))
	assert.Equal(t, NewDate(2024, 2, 29), d.On)
	assert.True(t, d.Off.IsZero())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"on":"2024-02-29","off":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"on":"29/02/2024"}`), &d))
}

func TestSystemUserNeverSerializesSecrets(t *testing.T) {
	u := SystemUser{Username: "root", PasswordHash: "$2a$hash"}
	out, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hash")
	assert.NotContains(t, string(out), "password")
}
