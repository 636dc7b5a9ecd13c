package store

import "medplant/internal/entity/models"

var DepartmentTable = Table[*models.Department]{
	Name:    "departments",
	Columns: []string{"name", "description"},
	Fields: func(d *models.Department) []any {
		return []any{&d.Name, &d.Description}
	},
	New: func() *models.Department { return &models.Department{} },
}

var EmployeeTable = Table[*models.Employee]{
	Name: "employees",
	Columns: []string{"employee_no", "first_name", "last_name", "department_id",
		"email", "phone", "blood_group", "hire_date"},
	Fields: func(e *models.Employee) []any {
		return []any{&e.EmployeeNo, &e.FirstName, &e.LastName, &e.DepartmentID,
			&e.Email, &e.Phone, &e.BloodGroup, &e.HireDate}
	},
	New: func() *models.Employee { return &models.Employee{} },
}

var DependentTable = Table[*models.Dependent]{
	Name:    "dependents",
	Columns: []string{"employee_id", "name", "relationship", "date_of_birth"},
	Fields: func(d *models.Dependent) []any {
		return []any{&d.EmployeeID, &d.Name, &d.Relationship, &d.DateOfBirth}
	},
	New: func() *models.Dependent { return &models.Dependent{} },
}

var MedicineTable = Table[*models.Medicine]{
	Name:    "medicines",
	Columns: []string{"code", "name", "manufacturer", "unit", "stock_quantity", "expiry_date"},
	Fields: func(m *models.Medicine) []any {
		return []any{&m.Code, &m.Name, &m.Manufacturer, &m.Unit, &m.StockQuantity, &m.ExpiryDate}
	},
	New: func() *models.Medicine { return &models.Medicine{} },
}

var DiagnosisTable = Table[*models.Diagnosis]{
	Name:    "diagnoses",
	Columns: []string{"code", "name", "description"},
	Fields: func(d *models.Diagnosis) []any {
		return []any{&d.Code, &d.Name, &d.Description}
	},
	New: func() *models.Diagnosis { return &models.Diagnosis{} },
}

var AmbulanceTable = Table[*models.Ambulance]{
	Name:    "ambulances",
	Columns: []string{"plate_number", "model", "capacity", "status"},
	Fields: func(a *models.Ambulance) []any {
		return []any{&a.PlateNumber, &a.Model, &a.Capacity, &a.Status}
	},
	New: func() *models.Ambulance { return &models.Ambulance{} },
}

var ImmunizationTable = Table[*models.Immunization]{
	Name:    "immunizations",
	Columns: []string{"employee_id", "vaccine", "dose_number", "administered_on", "next_due_on", "notes"},
	Fields: func(i *models.Immunization) []any {
		return []any{&i.EmployeeID, &i.Vaccine, &i.DoseNumber, &i.AdministeredOn, &i.NextDueOn, &i.Notes}
	},
	New: func() *models.Immunization { return &models.Immunization{} },
}

var MedicalExamTable = Table[*models.MedicalExam]{
	Name:    "medical_exams",
	Columns: []string{"employee_id", "exam_type", "exam_date", "result", "status", "approval", "approved_by"},
	Fields: func(e *models.MedicalExam) []any {
		return []any{&e.EmployeeID, &e.ExamType, &e.ExamDate, &e.Result, &e.Status, &e.Approval, &e.ApprovedBy}
	},
	New: func() *models.MedicalExam { return &models.MedicalExam{} },
}

var SystemUserTable = Table[*models.SystemUser]{
	Name:    "system_users",
	Columns: []string{"username", "full_name", "email", "role", "active", "password_hash"},
	Fields: func(u *models.SystemUser) []any {
		return []any{&u.Username, &u.FullName, &u.Email, &u.Role, &u.Active, &u.PasswordHash}
	},
	New: func() *models.SystemUser { return &models.SystemUser{} },
}

var RoleTable = Table[*models.Role]{
	Name:    "roles",
	Columns: []string{"name", "description"},
	Fields: func(r *models.Role) []any {
		return []any{&r.Name, &r.Description}
	},
	New: func() *models.Role { return &models.Role{} },
}
