package models

import "time"

const (
	maxChildAge  = 25
	minSpouseAge = 18
)

// ValidateDependent applies the coverage age rules.
func ValidateDependent(d *Dependent, now time.Time) map[string]string {
	errs := map[string]string{}
	if d.DateOfBirth.IsZero() {
		return errs
	}
	if d.DateOfBirth.After(now) {
		errs["date_of_birth"] = "cannot be in the future"
		return errs
	}
	age := d.DateOfBirth.YearsUntil(now)
	switch d.Relationship {
	case "child":
		if age >= maxChildAge {
			errs["date_of_birth"] = "child dependents must be under 25"
		}
	case "spouse":
		if age < minSpouseAge {
			errs["date_of_birth"] = "spouse must be at least 18"
		}
	}
	return errs
}

func ValidateImmunization(i *Immunization, now time.Time) map[string]string {
	errs := map[string]string{}
	if i.AdministeredOn.After(now) {
		errs["administered_on"] = "cannot be in the future"
	}
	if !i.NextDueOn.IsZero() && !i.NextDueOn.After(i.AdministeredOn.Time) {
		errs["next_due_on"] = "must be after the administration date"
	}
	return errs
}

func ValidateMedicalExam(e *MedicalExam, now time.Time) map[string]string {
	errs := map[string]string{}
	if e.ExamDate.After(now) {
		errs["exam_date"] = "cannot be in the future"
	}
	if e.Approval == "approved" {
		if e.Status == "pending" {
			errs["approval"] = "a pending exam cannot be approved"
		}
		if e.ApprovedBy == "" {
			errs["approved_by"] = "is required when approved"
		}
	}
	return errs
}

func ValidateEmployee(e *Employee, now time.Time) map[string]string {
	errs := map[string]string{}
	if e.HireDate.After(now) {
		errs["hire_date"] = "cannot be in the future"
	}
	return errs
}
