// AngelaMos | 2026
// ownership.go

package tenant

// Ownership tags a resource as belonging to a tenant or as a legacy
// unscoped row. Unscoped resources predate tenant isolation and stay
// visible to every authenticated tenant; this is a documented
// backward-compatibility escape hatch, not an accident of a null check.
type Ownership struct {
	ownerID int
	scoped  bool
}

func OwnedBy(ownerID int) Ownership {
	return Ownership{ownerID: ownerID, scoped: true}
}

func Unscoped() Ownership {
	return Ownership{}
}

// FromNullable maps a nullable owner column into an Ownership value.
func FromNullable(ownerID *int) Ownership {
	if ownerID == nil {
		return Unscoped()
	}
	return OwnedBy(*ownerID)
}

func (o Ownership) IsUnscoped() bool {
	return !o.scoped
}

func (o Ownership) OwnerID() (int, bool) {
	return o.ownerID, o.scoped
}

func (o Ownership) AccessibleBy(ownerID int) bool {
	if !o.scoped {
		return true
	}
	return o.ownerID == ownerID
}
