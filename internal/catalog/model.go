package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

type Category string

const (
	CategoryGasCylinder Category = "gas_cylinder"
	CategoryWater       Category = "water"
	CategoryAccessory   Category = "accessory"
	CategoryOther       Category = "other"
)

// Product is the read-only projection of the catalog this engine consumes.
// The catalog itself (CRUD, pricing rules) is owned by an external service.
type Product struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Category  Category  `json:"category" db:"category"`
	UnitPrice float64   `json:"unit_price" db:"unit_price"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsReturnableContainer reports whether empty units of this product are loaned
// to customers and expected back. Only gas cylinders circulate that way.
func (p *Product) IsReturnableContainer() bool {
	return p.Category == CategoryGasCylinder
}
