package stock

import (
	"time"

	"github.com/gofrs/uuid"
)

type MovementKind string

const (
	MovementInbound     MovementKind = "inbound"      // resupply of full units
	MovementOutbound    MovementKind = "outbound"     // full units leaving for an order
	MovementAdjustment  MovementKind = "adjustment"   // recount, sets quantity to an absolute value
	MovementEmptyIntake MovementKind = "empty_intake" // empties bought or received outside an order
	MovementLoan        MovementKind = "loan"         // empty handed to the deliverer at dispatch
	MovementReturn      MovementKind = "return"       // loaned empty physically back on site
)

func (k MovementKind) Valid() bool {
	switch k {
	case MovementInbound, MovementOutbound, MovementAdjustment,
		MovementEmptyIntake, MovementLoan, MovementReturn:
		return true
	}
	return false
}

type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityLow      Severity = "low"
	SeverityCritical Severity = "critical"
)

// Line holds the inventory counters for one product. It is created implicitly
// on the first movement that references the product and is only ever mutated
// through movement application.
type Line struct {
	ProductID      uuid.UUID `json:"product_id" db:"product_id"`
	ProductName    string    `json:"product_name" db:"product_name"`
	Quantity       int       `json:"quantity" db:"quantity"`
	Empties        int       `json:"empties" db:"empties"`
	Loaned         int       `json:"loaned" db:"loaned"`
	AlertThreshold int       `json:"alert_threshold" db:"alert_threshold"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Movement is one applied ledger change. The trail is append-only: a movement
// is never mutated or deleted once recorded.
type Movement struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	ProductID     uuid.UUID    `json:"product_id" db:"product_id"`
	Kind          MovementKind `json:"kind" db:"kind"`
	Quantity      int          `json:"quantity" db:"quantity"`
	Note          string       `json:"note,omitempty" db:"note"`
	ActorID       uuid.UUID    `json:"actor_id" db:"actor_id"`
	OrderID       *uuid.UUID   `json:"order_id,omitempty" db:"order_id"`
	SeverityAfter Severity     `json:"severity_after" db:"severity_after"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// Alert is derived from a Line at read time, never stored.
type Alert struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Threshold   int       `json:"threshold"`
	Severity    Severity  `json:"severity"`
}
