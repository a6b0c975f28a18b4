package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gasflow/fulfillment-service/internal/catalog"
	"github.com/gasflow/fulfillment-service/internal/keylock"
)

// Ledger applies stock movements and answers inventory queries. All mutations
// are serialized per product: at most one movement is in flight for a given
// line at any time.
type Ledger interface {
	ApplyMovement(ctx context.Context, input ApplyMovementInput) (*Line, error)
	GetLine(ctx context.Context, productID uuid.UUID) (*Line, error)
	ListLines(ctx context.Context) ([]Line, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]Movement, error)
	SetAlertThreshold(ctx context.Context, productID uuid.UUID, threshold int, actorID uuid.UUID) (*Line, error)
	ListAlerts(ctx context.Context) ([]Alert, error)
}

type ApplyMovementInput struct {
	ProductID uuid.UUID
	Kind      MovementKind
	Quantity  int
	Note      string
	ActorID   uuid.UUID
	OrderID   *uuid.UUID
}

type ledger struct {
	repo        Repository
	catalog     catalog.Repository
	locks       *keylock.KeyLock
	lockTimeout time.Duration
}

func NewLedger(repo Repository, cat catalog.Repository, lockTimeout time.Duration) Ledger {
	return &ledger{
		repo:        repo,
		catalog:     cat,
		locks:       keylock.New(),
		lockTimeout: lockTimeout,
	}
}

func (s *ledger) ApplyMovement(ctx context.Context, input ApplyMovementInput) (*Line, error) {
	if !input.Kind.Valid() {
		return nil, ErrUnknownKind
	}
	if input.Kind == MovementAdjustment {
		if input.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
	} else if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to resolve product: %w", err)
	}
	switch input.Kind {
	case MovementEmptyIntake, MovementLoan, MovementReturn:
		if !product.IsReturnableContainer() {
			return nil, ErrNotReturnable
		}
	}

	release, err := s.acquire(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The caller may give up while waiting for the lock, but once the
	// mutation starts it runs to completion.
	applyCtx := context.WithoutCancel(ctx)

	line, err := s.loadOrCreateLine(applyCtx, input.ProductID, product.Name)
	if err != nil {
		return nil, err
	}

	if err := applyKind(line, input.Kind, input.Quantity); err != nil {
		return nil, err
	}
	line.UpdatedAt = time.Now().UTC()

	mv, err := newMovement(line, input)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveLineWithMovement(applyCtx, line, mv); err != nil {
		return nil, fmt.Errorf("ledger: failed to persist movement: %w", err)
	}

	log.Info().
		Stringer("product_id", input.ProductID).
		Str("kind", string(input.Kind)).
		Int("quantity", input.Quantity).
		Int("on_hand", line.Quantity).
		Int("empties", line.Empties).
		Int("loaned", line.Loaned).
		Msg("stock movement applied")

	return line, nil
}

// applyKind mutates the counters for one movement. Counters never go negative:
// any movement that would cross zero is rejected with the matching
// insufficiency error and the line is left untouched.
func applyKind(line *Line, kind MovementKind, quantity int) error {
	switch kind {
	case MovementInbound:
		line.Quantity += quantity
	case MovementOutbound:
		if line.Quantity < quantity {
			return ErrInsufficientStock
		}
		line.Quantity -= quantity
	case MovementAdjustment:
		line.Quantity = quantity
	case MovementEmptyIntake:
		line.Empties += quantity
	case MovementLoan:
		if line.Empties < quantity {
			return ErrInsufficientEmpties
		}
		line.Empties -= quantity
		line.Loaned += quantity
	case MovementReturn:
		if line.Loaned < quantity {
			return ErrInsufficientLoaned
		}
		line.Loaned -= quantity
		line.Empties += quantity
	default:
		return ErrUnknownKind
	}
	return nil
}

func newMovement(line *Line, input ApplyMovementInput) (*Movement, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to generate movement ID: %w", err)
	}
	return &Movement{
		ID:            id,
		ProductID:     input.ProductID,
		Kind:          input.Kind,
		Quantity:      input.Quantity,
		Note:          input.Note,
		ActorID:       input.ActorID,
		OrderID:       input.OrderID,
		SeverityAfter: SeverityOf(line),
		CreatedAt:     line.UpdatedAt,
	}, nil
}

func (s *ledger) GetLine(ctx context.Context, productID uuid.UUID) (*Line, error) {
	return s.repo.GetLine(ctx, productID)
}

func (s *ledger) ListLines(ctx context.Context) ([]Line, error) {
	lines, err := s.repo.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []Line{}
	}
	return lines, nil
}

func (s *ledger) ListMovements(ctx context.Context, productID uuid.UUID) ([]Movement, error) {
	movements, err := s.repo.ListMovements(ctx, productID)
	if err != nil {
		return nil, err
	}
	if movements == nil {
		movements = []Movement{}
	}
	return movements, nil
}

func (s *ledger) SetAlertThreshold(ctx context.Context, productID uuid.UUID, threshold int, actorID uuid.UUID) (*Line, error) {
	if threshold < 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to resolve product: %w", err)
	}

	release, err := s.acquire(ctx, productID)
	if err != nil {
		return nil, err
	}
	defer release()

	applyCtx := context.WithoutCancel(ctx)

	line, err := s.loadOrCreateLine(applyCtx, productID, product.Name)
	if err != nil {
		return nil, err
	}

	line.AlertThreshold = threshold
	line.UpdatedAt = time.Now().UTC()

	if err := s.repo.SaveLine(applyCtx, line); err != nil {
		return nil, fmt.Errorf("ledger: failed to persist threshold: %w", err)
	}

	log.Info().
		Stringer("product_id", productID).
		Int("threshold", threshold).
		Stringer("actor_id", actorID).
		Msg("alert threshold updated")

	return line, nil
}

func (s *ledger) ListAlerts(ctx context.Context) ([]Alert, error) {
	lines, err := s.repo.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	return buildAlerts(lines), nil
}

func (s *ledger) acquire(ctx context.Context, productID uuid.UUID) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locks.Acquire(lockCtx, productID.String())
	if err != nil {
		return nil, fmt.Errorf("ledger: stock line %s: %w", productID, err)
	}
	return release, nil
}

func (s *ledger) loadOrCreateLine(ctx context.Context, productID uuid.UUID, productName string) (*Line, error) {
	line, err := s.repo.GetLine(ctx, productID)
	if err == nil {
		return line, nil
	}
	if !errors.Is(err, ErrLineNotFound) {
		return nil, fmt.Errorf("ledger: failed to load stock line: %w", err)
	}
	return &Line{
		ProductID:   productID,
		ProductName: productName,
	}, nil
}
