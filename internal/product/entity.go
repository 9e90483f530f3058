// AngelaMos | 2026
// entity.go

package product

import (
	"time"

	"github.com/gestia-dev/gestia-backend/internal/tenant"
)

// Product is the canonical tenant-scoped resource. OwnerID is nullable
// because rows created before multi-tenancy carry no owner; those legacy
// rows stay visible to every tenant until they are claimed.
type Product struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	CategoryID  *int      `db:"category_id"`
	Barcode     *string   `db:"barcode"`
	UnitPrice   *string   `db:"unit_price"`
	OwnerID     *int      `db:"owner_id"`
	Active      bool      `db:"active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (p *Product) Ownership() tenant.Ownership {
	return tenant.FromNullable(p.OwnerID)
}
