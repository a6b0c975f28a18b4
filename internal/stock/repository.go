package stock

import (
	"context"

	"github.com/gofrs/uuid"
)

// Repository persists lines and their movement trail. SaveLineWithMovement
// must store both or neither: a counter change without its audit record (or
// the reverse) may never become observable.
type Repository interface {
	GetLine(ctx context.Context, productID uuid.UUID) (*Line, error)
	ListLines(ctx context.Context) ([]Line, error)
	ListMovements(ctx context.Context, productID uuid.UUID) ([]Movement, error)
	SaveLine(ctx context.Context, line *Line) error
	SaveLineWithMovement(ctx context.Context, line *Line, mv *Movement) error
}
