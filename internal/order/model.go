package order

import (
	"time"

	"github.com/gofrs/uuid"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusPreparing  Status = "preparing"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
	StatusFinalized  Status = "finalized"
	StatusCancelled  Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// Terminal statuses accept no further transition.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// allowedTransitions is the exhaustive edge set of the order lifecycle. No
// status is reachable outside this table.
var allowedTransitions = map[Status]map[Status]bool{
	StatusNew: {
		StatusPreparing: true,
		StatusCancelled: true,
	},
	StatusPreparing: {
		StatusDispatched: true,
		StatusCancelled:  true,
	},
	StatusDispatched: {
		StatusDelivered: true,
		StatusCancelled: true,
	},
	StatusDelivered: {
		StatusFinalized: true,
	},
	StatusFinalized: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return allowedTransitions[from][to]
}

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "cash"
	PaymentCreditCard PaymentMethod = "credit_card"
	PaymentDebitCard  PaymentMethod = "debit_card"
	PaymentPix        PaymentMethod = "pix"
	PaymentOnCredit   PaymentMethod = "on_credit"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPix, PaymentOnCredit:
		return true
	}
	return false
}

// Channel is the origin of an order.
type Channel string

const (
	ChannelPhone    Channel = "phone"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelWalkIn   Channel = "walk_in"
	ChannelApp      Channel = "app"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelPhone, ChannelWhatsApp, ChannelWalkIn, ChannelApp:
		return true
	}
	return false
}

// Item is one order line. Product name and unit price are snapshots taken at
// creation time; once the order leaves StatusNew the item is immutable except
// through cancellation rollback.
type Item struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	Subtotal    float64   `json:"subtotal" db:"subtotal"`
	// ReturnsEmpty marks that the customer hands an empty cylinder to the
	// deliverer. Only meaningful for returnable-container products.
	ReturnsEmpty bool `json:"returns_empty" db:"returns_empty"`
}

type Order struct {
	ID                 uuid.UUID     `json:"id" db:"id"`
	CustomerID         uuid.UUID     `json:"customer_id" db:"customer_id"`
	AttendantID        uuid.UUID     `json:"attendant_id" db:"attendant_id"`
	DelivererID        *uuid.UUID    `json:"deliverer_id,omitempty" db:"deliverer_id"`
	Status             Status        `json:"status" db:"status"`
	PaymentMethod      PaymentMethod `json:"payment_method" db:"payment_method"`
	Channel            Channel       `json:"channel" db:"channel"`
	DeliveryAddress    string        `json:"delivery_address" db:"delivery_address"`
	Items              []Item        `json:"items" db:"-"`
	Total              float64       `json:"total" db:"total"`
	CancellationReason string        `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	DeliveredAt        *time.Time    `json:"delivered_at,omitempty" db:"delivered_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}
