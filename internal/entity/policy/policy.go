// Package policy configures the pipeline for each plant entity.
package policy

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"medplant/internal/entity/models"
	"medplant/internal/pipeline"
	rlmodels "medplant/internal/ratelimit/models"
	dErrors "medplant/pkg/domain-errors"
)

// Unique index names. They must match the migrations.
const (
	DepartmentName     = "uq_departments_plant_name"
	EmployeeNo         = "uq_employees_plant_employee_no"
	EmployeeEmail      = "uq_employees_plant_email"
	MedicineCode       = "uq_medicines_plant_code"
	DiagnosisCode      = "uq_diagnoses_plant_code"
	AmbulancePlate     = "uq_ambulances_plate_number"
	SystemUserUsername = "uq_system_users_username"
	RoleName           = "uq_roles_name"
)

func Department(rules rlmodels.Rules) pipeline.Policy[*models.Department] {
	return pipeline.Policy[*models.Department]{
		EntityType: "DEPARTMENT",
		Label:      "Department",
		New:        func() *models.Department { return &models.Department{} },
		Uniques: []pipeline.UniqueRule[*models.Department]{{
			Field: "name", Column: "name", Constraint: DepartmentName, PerTenant: true,
			Value: func(d *models.Department) any { return d.Name },
		}},
		Rules:        rules,
		TenantScoped: true,
	}
}

func Employee(rules rlmodels.Rules) pipeline.Policy[*models.Employee] {
	return pipeline.Policy[*models.Employee]{
		EntityType: "EMPLOYEE",
		Label:      "Employee",
		New:        func() *models.Employee { return &models.Employee{} },
		Validate:   models.ValidateEmployee,
		Uniques: []pipeline.UniqueRule[*models.Employee]{
			{
				Field: "employee_no", Column: "employee_no", Constraint: EmployeeNo, PerTenant: true,
				Value: func(e *models.Employee) any { return e.EmployeeNo },
			},
			{
				Field: "email", Column: "email", Constraint: EmployeeEmail, PerTenant: true,
				Value: func(e *models.Employee) any { return e.Email },
			},
		},
		Rules:        rules,
		TenantScoped: true,
	}
}

func Dependent(rules rlmodels.Rules) pipeline.Policy[*models.Dependent] {
	return pipeline.Policy[*models.Dependent]{
		EntityType:   "DEPENDENT",
		Label:        "Dependent",
		New:          func() *models.Dependent { return &models.Dependent{} },
		Validate:     models.ValidateDependent,
		Rules:        rules,
		TenantScoped: true,
	}
}

func Medicine(rules rlmodels.Rules) pipeline.Policy[*models.Medicine] {
	return pipeline.Policy[*models.Medicine]{
		EntityType: "MEDICINE",
		Label:      "Medicine",
		New:        func() *models.Medicine { return &models.Medicine{} },
		Uniques: []pipeline.UniqueRule[*models.Medicine]{{
			Field: "code", Column: "code", Constraint: MedicineCode, PerTenant: true,
			Value: func(m *models.Medicine) any { return m.Code },
		}},
		Rules:        rules,
		TenantScoped: true,
	}
}

func Diagnosis(rules rlmodels.Rules) pipeline.Policy[*models.Diagnosis] {
	return pipeline.Policy[*models.Diagnosis]{
		EntityType: "DIAGNOSIS",
		Label:      "Diagnosis",
		New:        func() *models.Diagnosis { return &models.Diagnosis{} },
		Uniques: []pipeline.UniqueRule[*models.Diagnosis]{{
			Field: "code", Column: "code", Constraint: DiagnosisCode, PerTenant: true,
			Value: func(d *models.Diagnosis) any { return d.Code },
		}},
		Rules:        rules,
		TenantScoped: true,
	}
}

// Ambulance plates are unique across plants.
func Ambulance(rules rlmodels.Rules) pipeline.Policy[*models.Ambulance] {
	return pipeline.Policy[*models.Ambulance]{
		EntityType: "AMBULANCE",
		Label:      "Ambulance",
		New:        func() *models.Ambulance { return &models.Ambulance{} },
		Uniques: []pipeline.UniqueRule[*models.Ambulance]{{
			Field: "plate_number", Column: "plate_number", Constraint: AmbulancePlate,
			Value: func(a *models.Ambulance) any { return a.PlateNumber },
		}},
		Rules:        rules,
		TenantScoped: true,
	}
}

func Immunization(rules rlmodels.Rules) pipeline.Policy[*models.Immunization] {
	return pipeline.Policy[*models.Immunization]{
		EntityType:   "IMMUNIZATION",
		Label:        "Immunization",
		New:          func() *models.Immunization { return &models.Immunization{} },
		Validate:     models.ValidateImmunization,
		Rules:        rules,
		TenantScoped: true,
	}
}

func MedicalExam(rules rlmodels.Rules) pipeline.Policy[*models.MedicalExam] {
	return pipeline.Policy[*models.MedicalExam]{
		EntityType:   "MEDICAL_EXAM",
		Label:        "Medical exam",
		New:          func() *models.MedicalExam { return &models.MedicalExam{} },
		Validate:     models.ValidateMedicalExam,
		Rules:        rules,
		TenantScoped: true,
	}
}

// SystemUser lets administrators manage users of every plant. Passwords are
// hashed before persisting and never reach the audit trail.
func SystemUser(rules rlmodels.Rules, bcryptCost int) pipeline.Policy[*models.SystemUser] {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return pipeline.Policy[*models.SystemUser]{
		EntityType: "SYSTEM_USER",
		Label:      "User",
		New:        func() *models.SystemUser { return &models.SystemUser{} },
		Uniques: []pipeline.UniqueRule[*models.SystemUser]{{
			Field: "username", Column: "username", Constraint: SystemUserUsername,
			Value: func(u *models.SystemUser) any { return u.Username },
		}},
		Rules:            rules,
		TenantScoped:     true,
		AllowScopeBypass: true,
		BeforePersist: func(_ context.Context, u, existing *models.SystemUser) error {
			return hashPassword(u, existing, bcryptCost)
		},
	}
}

func hashPassword(u, existing *models.SystemUser, cost int) error {
	if u.Password == "" {
		if existing == nil {
			return dErrors.Field(dErrors.CodeValidation, "password", "is required")
		}
		u.PasswordHash = existing.PasswordHash
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	u.Password = ""
	return nil
}

// Role definitions are shared by every plant.
func Role(rules rlmodels.Rules) pipeline.Policy[*models.Role] {
	return pipeline.Policy[*models.Role]{
		EntityType: "ROLE",
		Label:      "Role",
		New:        func() *models.Role { return &models.Role{} },
		Uniques: []pipeline.UniqueRule[*models.Role]{{
			Field: "name", Column: "name", Constraint: RoleName,
			Value: func(r *models.Role) any { return r.Name },
		}},
		Rules: rules,
	}
}
