package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetLine(ctx context.Context, productID uuid.UUID) (*Line, error) {
	query := `
		SELECT product_id, product_name, quantity, empties, loaned, alert_threshold, updated_at
		FROM stock_lines
		WHERE product_id = $1
	`

	var line Line
	err := r.db.QueryRow(ctx, query, productID).Scan(
		&line.ProductID,
		&line.ProductName,
		&line.Quantity,
		&line.Empties,
		&line.Loaned,
		&line.AlertThreshold,
		&line.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("repository: failed to select stock line %s: %w", productID, err)
	}

	return &line, nil
}

func (r *postgresRepository) ListLines(ctx context.Context) ([]Line, error) {
	query := `
		SELECT product_id, product_name, quantity, empties, loaned, alert_threshold, updated_at
		FROM stock_lines
		ORDER BY product_name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query stock lines: %w", err)
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.ProductID,
			&line.ProductName,
			&line.Quantity,
			&line.Empties,
			&line.Loaned,
			&line.AlertThreshold,
			&line.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan stock line: %w", err)
		}
		lines = append(lines, line)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating stock lines: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) ListMovements(ctx context.Context, productID uuid.UUID) ([]Movement, error) {
	query := `
		SELECT id, product_id, kind, quantity, note, actor_id, order_id, severity_after, created_at
		FROM stock_movements
		WHERE product_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query movements for product %s: %w", productID, err)
	}
	defer rows.Close()

	movements := make([]Movement, 0)
	for rows.Next() {
		var mv Movement
		err := rows.Scan(
			&mv.ID,
			&mv.ProductID,
			&mv.Kind,
			&mv.Quantity,
			&mv.Note,
			&mv.ActorID,
			&mv.OrderID,
			&mv.SeverityAfter,
			&mv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan movement for product %s: %w", productID, err)
		}
		movements = append(movements, mv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating movements for product %s: %w", productID, err)
	}

	return movements, nil
}

const upsertLineQuery = `
	INSERT INTO stock_lines (product_id, product_name, quantity, empties, loaned, alert_threshold, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (product_id) DO UPDATE
	SET product_name = EXCLUDED.product_name,
	    quantity = EXCLUDED.quantity,
	    empties = EXCLUDED.empties,
	    loaned = EXCLUDED.loaned,
	    alert_threshold = EXCLUDED.alert_threshold,
	    updated_at = EXCLUDED.updated_at
`

func (r *postgresRepository) SaveLine(ctx context.Context, line *Line) error {
	_, err := r.db.Exec(ctx, upsertLineQuery,
		line.ProductID,
		line.ProductName,
		line.Quantity,
		line.Empties,
		line.Loaned,
		line.AlertThreshold,
		line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert stock line %s: %w", line.ProductID, mapConstraintError(err))
	}
	return nil
}

// SaveLineWithMovement writes the updated counters and appends the movement in
// one transaction, so the audit trail can never diverge from the counters.
func (r *postgresRepository) SaveLineWithMovement(ctx context.Context, line *Line, mv *Movement) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error().Err(rbErr).Stringer("product_id", line.ProductID).Msg("failed to rollback stock transaction")
			}
		}
	}()

	_, err = tx.Exec(ctx, upsertLineQuery,
		line.ProductID,
		line.ProductName,
		line.Quantity,
		line.Empties,
		line.Loaned,
		line.AlertThreshold,
		line.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to upsert stock line %s: %w", line.ProductID, mapConstraintError(err))
	}

	movementQuery := `
		INSERT INTO stock_movements (id, product_id, kind, quantity, note, actor_id, order_id, severity_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, movementQuery,
		mv.ID,
		mv.ProductID,
		string(mv.Kind),
		mv.Quantity,
		mv.Note,
		mv.ActorID,
		mv.OrderID,
		string(mv.SeverityAfter),
		mv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert movement for product %s: %w", mv.ProductID, err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("repository: failed to commit stock transaction: %w", err)
	}
	return nil
}

// mapConstraintError translates the schema's non-negative check constraints
// into the domain error. The ledger validates before writing, so hitting this
// means a bug or a concurrent writer bypassing the service.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
		return ErrInvalidQuantity
	}
	return err
}
