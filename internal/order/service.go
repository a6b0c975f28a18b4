package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gasflow/fulfillment-service/internal/catalog"
	"github.com/gasflow/fulfillment-service/internal/keylock"
	"github.com/gasflow/fulfillment-service/internal/stock"
)

// Ledger is the slice of the stock ledger this service drives.
type Ledger interface {
	ApplyMovement(ctx context.Context, input stock.ApplyMovementInput) (*stock.Line, error)
}

type CreateOrderItem struct {
	ProductID    uuid.UUID
	Quantity     int
	ReturnsEmpty bool
}

type CreateOrderInput struct {
	CustomerID      uuid.UUID
	AttendantID     uuid.UUID
	DeliveryAddress string
	PaymentMethod   PaymentMethod
	Channel         Channel
	Items           []CreateOrderItem
}

// TransitionParams carries the per-transition inputs: the acting user always,
// a deliverer for dispatch, a reason for cancellation.
type TransitionParams struct {
	ActorID            uuid.UUID
	DelivererID        *uuid.UUID
	CancellationReason string
}

// Warning reports a ledger movement that failed during delivery confirmation.
// The order still advances; the counter mismatch becomes a manual follow-up.
type Warning struct {
	ProductID uuid.UUID          `json:"product_id"`
	Kind      stock.MovementKind `json:"kind"`
	Quantity  int                `json:"quantity"`
	Reason    string             `json:"reason"`
}

type TransitionResult struct {
	Order    *Order    `json:"order"`
	Warnings []Warning `json:"warnings,omitempty"`
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error)
	Transition(ctx context.Context, orderID uuid.UUID, target Status, params TransitionParams) (*TransitionResult, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, error)
}

type service struct {
	repo        Repository
	ledger      Ledger
	catalog     catalog.Repository
	locks       *keylock.KeyLock
	lockTimeout time.Duration
}

func NewService(repo Repository, ledger Ledger, cat catalog.Repository, lockTimeout time.Duration) Service {
	return &service{
		repo:        repo,
		ledger:      ledger,
		catalog:     cat,
		locks:       keylock.New(),
		lockTimeout: lockTimeout,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if input.CustomerID == uuid.Nil {
		return nil, ErrMissingCustomer
	}
	if input.DeliveryAddress == "" {
		return nil, ErrMissingDeliveryAddress
	}
	if !input.PaymentMethod.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	if !input.Channel.Valid() {
		return nil, ErrInvalidChannel
	}

	orderID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("service: failed to generate order ID: %w", err)
	}

	now := time.Now().UTC()
	o := &Order{
		ID:              orderID,
		CustomerID:      input.CustomerID,
		AttendantID:     input.AttendantID,
		Status:          StatusNew,
		PaymentMethod:   input.PaymentMethod,
		Channel:         input.Channel,
		DeliveryAddress: input.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, ErrInvalidItemQuantity
		}

		product, err := s.catalog.GetProduct(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("service: failed to resolve product %s: %w", in.ProductID, err)
		}
		if in.ReturnsEmpty && !product.IsReturnableContainer() {
			return nil, ErrItemNotReturnable
		}

		itemID, err := uuid.NewV4()
		if err != nil {
			return nil, fmt.Errorf("service: failed to generate item ID: %w", err)
		}

		item := Item{
			ID:           itemID,
			OrderID:      orderID,
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     in.Quantity,
			UnitPrice:    product.UnitPrice,
			Subtotal:     float64(in.Quantity) * product.UnitPrice,
			ReturnsEmpty: in.ReturnsEmpty,
		}
		o.Items = append(o.Items, item)
		o.Total += item.Subtotal
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("service: failed to create order: %w", err)
	}

	// Reserve stock: one outbound per item. On any failure the already
	// applied movements are reversed and the order record removed, so the
	// caller observes either a fully reserved order or nothing.
	reservations := make([]plannedMovement, 0, len(o.Items))
	for _, item := range o.Items {
		reservations = append(reservations, plannedMovement{
			productID: item.ProductID,
			kind:      stock.MovementOutbound,
			quantity:  item.Quantity,
			note:      "order reservation",
		})
	}
	if err := s.applyAll(ctx, o.ID, input.AttendantID, reservations); err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), o.ID); delErr != nil {
			log.Error().Err(delErr).Stringer("order_id", o.ID).Msg("failed to remove order after reservation failure")
		}
		return nil, err
	}

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("customer_id", o.CustomerID).
		Float64("total", o.Total).
		Int("items", len(o.Items)).
		Msg("order created")

	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order: %w", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, error) {
	orders, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// Transition validates and applies one status change, issuing the associated
// stock movements as part of the same logical operation. At most one
// transition is in flight per order; a retry that targets the order's current
// status is a no-op rather than a double application.
func (s *service) Transition(ctx context.Context, orderID uuid.UUID, target Status, params TransitionParams) (*TransitionResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	release, err := s.locks.Acquire(lockCtx, orderID.String())
	cancel()
	if err != nil {
		return nil, fmt.Errorf("service: order %s: %w", orderID, err)
	}
	defer release()

	// From here on the mutation runs to completion even if the caller
	// abandons the request.
	ctx = context.WithoutCancel(ctx)

	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch order for transition: %w", err)
	}

	if o.Status == target {
		log.Info().Stringer("order_id", orderID).Stringer("status", target).Msg("order already at target status")
		return &TransitionResult{Order: o}, nil
	}
	if !CanTransition(o.Status, target) {
		return nil, fmt.Errorf("service: %s -> %s: %w", o.Status, target, ErrInvalidTransition)
	}

	upd := StatusUpdate{
		Status:             target,
		DelivererID:        o.DelivererID,
		CancellationReason: o.CancellationReason,
		DeliveredAt:        o.DeliveredAt,
		UpdatedAt:          time.Now().UTC(),
	}

	var (
		movements []plannedMovement
		warnings  []Warning
	)

	switch target {
	case StatusPreparing, StatusFinalized:
		// No stock effect.

	case StatusDispatched:
		if params.DelivererID == nil {
			return nil, ErrMissingDeliverer
		}
		upd.DelivererID = params.DelivererID
		for _, item := range o.Items {
			if !item.ReturnsEmpty {
				continue
			}
			movements = append(movements, plannedMovement{
				productID: item.ProductID,
				kind:      stock.MovementLoan,
				quantity:  item.Quantity,
				note:      "empty loaned at dispatch",
			})
		}

	case StatusDelivered:
		deliveredAt := upd.UpdatedAt
		upd.DeliveredAt = &deliveredAt
		// Returns are applied best-effort after the status change below:
		// physical receipt is authoritative over ledger bookkeeping.

	case StatusCancelled:
		if params.CancellationReason == "" {
			return nil, ErrMissingCancellationReason
		}
		upd.CancellationReason = params.CancellationReason
		for _, item := range o.Items {
			movements = append(movements, plannedMovement{
				productID: item.ProductID,
				kind:      stock.MovementInbound,
				quantity:  item.Quantity,
				note:      "cancellation rollback",
			})
		}
		if o.Status == StatusDispatched {
			for _, item := range o.Items {
				if !item.ReturnsEmpty {
					continue
				}
				movements = append(movements, plannedMovement{
					productID: item.ProductID,
					kind:      stock.MovementReturn,
					quantity:  item.Quantity,
					note:      "cancellation loan reversal",
				})
			}
		}

	default:
		return nil, fmt.Errorf("service: %s -> %s: %w", o.Status, target, ErrInvalidTransition)
	}

	if err := s.applyAll(ctx, o.ID, params.ActorID, movements); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatus(ctx, o.ID, upd); err != nil {
		s.compensate(ctx, o.ID, params.ActorID, movements, len(movements))
		return nil, fmt.Errorf("service: failed to update order status: %w", err)
	}

	if target == StatusDelivered {
		warnings = s.applyDeliveryReturns(ctx, o, params.ActorID)
	}

	o.Status = target
	o.DelivererID = upd.DelivererID
	o.CancellationReason = upd.CancellationReason
	o.DeliveredAt = upd.DeliveredAt
	o.UpdatedAt = upd.UpdatedAt

	log.Info().
		Stringer("order_id", o.ID).
		Stringer("status", target).
		Int("warnings", len(warnings)).
		Msg("order transitioned")

	return &TransitionResult{Order: o, Warnings: warnings}, nil
}

type plannedMovement struct {
	productID uuid.UUID
	kind      stock.MovementKind
	quantity  int
	note      string
}

// inverseKind gives the movement that undoes another. Used only by the
// compensation path; adjustment never appears in a transition plan.
func inverseKind(kind stock.MovementKind) stock.MovementKind {
	switch kind {
	case stock.MovementInbound:
		return stock.MovementOutbound
	case stock.MovementOutbound:
		return stock.MovementInbound
	case stock.MovementLoan:
		return stock.MovementReturn
	case stock.MovementReturn:
		return stock.MovementLoan
	case stock.MovementEmptyIntake:
		return stock.MovementOutbound
	}
	return kind
}

// applyAll issues the planned movements in order. If one fails, every movement
// already applied is reversed before the error is returned, so the ledger is
// never left partially moved.
func (s *service) applyAll(ctx context.Context, orderID, actorID uuid.UUID, movements []plannedMovement) error {
	for i, mv := range movements {
		_, err := s.ledger.ApplyMovement(ctx, stock.ApplyMovementInput{
			ProductID: mv.productID,
			Kind:      mv.kind,
			Quantity:  mv.quantity,
			Note:      mv.note,
			ActorID:   actorID,
			OrderID:   &orderID,
		})
		if err != nil {
			s.compensate(ctx, orderID, actorID, movements, i)
			return fmt.Errorf("service: stock movement %s for product %s failed: %w", mv.kind, mv.productID, err)
		}
	}
	return nil
}

// compensate reverses the first n planned movements, newest first. Failures
// here are logged and pressed on: a stuck compensation must not strand the
// remaining reversals.
func (s *service) compensate(ctx context.Context, orderID, actorID uuid.UUID, movements []plannedMovement, n int) {
	for i := n - 1; i >= 0; i-- {
		mv := movements[i]
		_, err := s.ledger.ApplyMovement(ctx, stock.ApplyMovementInput{
			ProductID: mv.productID,
			Kind:      inverseKind(mv.kind),
			Quantity:  mv.quantity,
			Note:      "compensation: " + mv.note,
			ActorID:   actorID,
			OrderID:   &orderID,
		})
		if err != nil {
			log.Error().Err(err).
				Stringer("order_id", orderID).
				Stringer("product_id", mv.productID).
				Str("kind", string(inverseKind(mv.kind))).
				Msg("compensating stock movement failed")
		}
	}
}

// applyDeliveryReturns books the empties the deliverer brought back. A failed
// return is a reconciliation warning, never a reason to unwind the delivery.
func (s *service) applyDeliveryReturns(ctx context.Context, o *Order, actorID uuid.UUID) []Warning {
	var warnings []Warning
	for _, item := range o.Items {
		if !item.ReturnsEmpty {
			continue
		}
		_, err := s.ledger.ApplyMovement(ctx, stock.ApplyMovementInput{
			ProductID: item.ProductID,
			Kind:      stock.MovementReturn,
			Quantity:  item.Quantity,
			Note:      "empty returned on delivery",
			ActorID:   actorID,
			OrderID:   &o.ID,
		})
		if err != nil {
			log.Warn().Err(err).
				Stringer("order_id", o.ID).
				Stringer("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("delivery return could not be booked")
			warnings = append(warnings, Warning{
				ProductID: item.ProductID,
				Kind:      stock.MovementReturn,
				Quantity:  item.Quantity,
				Reason:    err.Error(),
			})
		}
	}
	return warnings
}
