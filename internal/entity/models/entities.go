package models

// Department is a hospital unit within a plant.
type Department struct {
	Base
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type Employee struct {
	Base
	EmployeeNo   string `json:"employee_no" validate:"required,max=20"`
	FirstName    string `json:"first_name" validate:"required,max=60"`
	LastName     string `json:"last_name" validate:"required,max=60"`
	DepartmentID int64  `json:"department_id" validate:"required,gt=0"`
	Email        string `json:"email" validate:"omitempty,email,max=120"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	BloodGroup   string `json:"blood_group" validate:"omitempty,blood_group"`
	HireDate     Date   `json:"hire_date" validate:"required"`
}

// Dependent is a family member covered through an employee.
type Dependent struct {
	Base
	EmployeeID   int64  `json:"employee_id" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required,max=120"`
	Relationship string `json:"relationship" validate:"required,oneof=spouse child parent"`
	DateOfBirth  Date   `json:"date_of_birth" validate:"required"`
}

type Medicine struct {
	Base
	Code          string `json:"code" validate:"required,max=30"`
	Name          string `json:"name" validate:"required,max=120"`
	Manufacturer  string `json:"manufacturer" validate:"max=120"`
	Unit          string `json:"unit" validate:"required,oneof=tablet capsule ml mg vial"`
	StockQuantity int    `json:"stock_quantity" validate:"gte=0"`
	ExpiryDate    Date   `json:"expiry_date"`
}

// Diagnosis is a coded condition, typically an ICD-10 code.
type Diagnosis struct {
	Base
	Code        string `json:"code" validate:"required,max=10"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=1000"`
}

type Ambulance struct {
	Base
	PlateNumber string `json:"plate_number" validate:"required,plate"`
	Model       string `json:"model" validate:"max=80"`
	Capacity    int    `json:"capacity" validate:"gte=1,lte=20"`
	Status      string `json:"status" validate:"required,oneof=available on_call maintenance"`
}

type Immunization struct {
	Base
	EmployeeID     int64  `json:"employee_id" validate:"required,gt=0"`
	Vaccine        string `json:"vaccine" validate:"required,max=120"`
	DoseNumber     int    `json:"dose_number" validate:"gte=1,lte=10"`
	AdministeredOn Date   `json:"administered_on" validate:"required"`
	NextDueOn      Date   `json:"next_due_on"`
	Notes          string `json:"notes" validate:"max=500"`
}

// MedicalExam is an examination result that goes through approval.
type MedicalExam struct {
	Base
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	ExamType   string `json:"exam_type" validate:"required,max=80"`
	ExamDate   Date   `json:"exam_date" validate:"required"`
	Result     string `json:"result" validate:"max=2000"`
	Status     string `json:"status" validate:"required,oneof=pending passed failed"`
	Approval   string `json:"approval" validate:"required,oneof=pending approved rejected"`
	ApprovedBy string `json:"approved_by" validate:"max=120"`
}

// SystemUser is an application login. Password is write-only; only the
// bcrypt hash is stored and neither is ever serialized.
type SystemUser struct {
	Base
	Username     string `json:"username" validate:"required,min=3,max=60"`
	FullName     string `json:"full_name" validate:"required,max=120"`
	Email        string `json:"email" validate:"omitempty,email"`
	Role         string `json:"role" validate:"required,max=40"`
	Active       bool   `json:"active"`
	Password     string `json:"password,omitempty" sanitize:"-" validate:"omitempty,min=8,max=72"`
	PasswordHash string `json:"-" sanitize:"-" validate:"-"`
}

// Role is a global role definition shared by all plants.
type Role struct {
	Base
	Name        string `json:"name" validate:"required,max=40"`
	Description string `json:"description" validate:"max=200"`
}
