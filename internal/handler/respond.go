package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gasflow/fulfillment-service/internal/catalog"
	"github.com/gasflow/fulfillment-service/internal/keylock"
	"github.com/gasflow/fulfillment-service/internal/order"
	"github.com/gasflow/fulfillment-service/internal/stock"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeServiceError maps domain errors onto HTTP statuses. Validation errors
// are the caller's fault, insufficiency and transition conflicts are business
// conflicts, lock contention is transient.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, stock.ErrLineNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)

	case errors.Is(err, keylock.ErrBusy):
		w.Header().Set("Retry-After", "1")
		http.Error(w, err.Error(), http.StatusServiceUnavailable)

	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, stock.ErrInsufficientStock),
		errors.Is(err, stock.ErrInsufficientEmpties),
		errors.Is(err, stock.ErrInsufficientLoaned):
		http.Error(w, err.Error(), http.StatusConflict)

	case errors.Is(err, order.ErrMissingDeliverer),
		errors.Is(err, order.ErrMissingCancellationReason),
		errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrMissingCustomer),
		errors.Is(err, order.ErrInvalidItemQuantity),
		errors.Is(err, order.ErrInvalidPaymentMethod),
		errors.Is(err, order.ErrInvalidChannel),
		errors.Is(err, order.ErrMissingDeliveryAddress),
		errors.Is(err, order.ErrItemNotReturnable),
		errors.Is(err, stock.ErrInvalidQuantity),
		errors.Is(err, stock.ErrNotReturnable),
		errors.Is(err, stock.ErrUnknownKind):
		http.Error(w, err.Error(), http.StatusBadRequest)

	default:
		log.Error().Err(err).Msg("unhandled service error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// actorID reads the acting user from the X-Actor-ID header. Authentication is
// an upstream concern; the engine only records who acted.
func actorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-Actor-ID")
	if raw == "" {
		http.Error(w, "X-Actor-ID header is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		http.Error(w, "X-Actor-ID must be a UUID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
