package order

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

// StatusUpdate carries the fields a transition may change alongside the
// status itself.
type StatusUpdate struct {
	Status             Status
	DelivererID        *uuid.UUID
	CancellationReason string
	DeliveredAt        *time.Time
	UpdatedAt          time.Time
}

type ListFilter struct {
	Status *Status
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) error
	Delete(ctx context.Context, id uuid.UUID) error
}
