package models

// Decision is the outcome of a tenant authorization check.
type Decision int

const (
	// Allowed means the principal may act on the entity.
	Allowed Decision = iota
	// DenyNoTenant means the principal belongs to no plant and holds no bypass.
	DenyNoTenant
	// DenyMismatch means the entity belongs to another plant.
	DenyMismatch
)

func (d Decision) Allowed() bool {
	return d == Allowed
}

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DenyNoTenant:
		return "no_tenant"
	case DenyMismatch:
		return "tenant_mismatch"
	}
	return "unknown"
}

// Claims are the identity facts carried by a verified bearer token.
type Claims struct {
	Subject  string
	Name     string
	FullName string
	Role     string
	// PlantID is the token's plant claim, used when the user has no stored row.
	PlantID *int64
}
