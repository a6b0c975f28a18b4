package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/gasflow/fulfillment-service/internal/stock"
)

// StockHandler exposes the stock ledger and alert evaluator over HTTP.
type StockHandler struct {
	ledger stock.Ledger
}

func NewStockHandler(ledger stock.Ledger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

func (h *StockHandler) RegisterRoutes(r chi.Router) {
	r.Post("/stock/movements", h.handleApplyMovement)
	r.Get("/stock", h.handleListLines)
	r.Get("/stock/alerts", h.handleListAlerts)
	r.Get("/stock/{productID}", h.handleGetLine)
	r.Get("/stock/{productID}/movements", h.handleListMovements)
	r.Put("/stock/{productID}/threshold", h.handleSetThreshold)
}

type ApplyMovementRequest struct {
	ProductID uuid.UUID          `json:"product_id"`
	Kind      stock.MovementKind `json:"kind"`
	Quantity  int                `json:"quantity"`
	Note      string             `json:"note,omitempty"`
}

func (h *StockHandler) handleApplyMovement(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req ApplyMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	line, err := h.ledger.ApplyMovement(r.Context(), stock.ApplyMovementInput{
		ProductID: req.ProductID,
		Kind:      req.Kind,
		Quantity:  req.Quantity,
		Note:      req.Note,
		ActorID:   actor,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, line)
}

func (h *StockHandler) handleListLines(w http.ResponseWriter, r *http.Request) {
	lines, err := h.ledger.ListLines(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, lines)
}

func (h *StockHandler) handleGetLine(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	line, err := h.ledger.GetLine(r.Context(), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *StockHandler) handleListMovements(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	movements, err := h.ledger.ListMovements(r.Context(), productID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, movements)
}

type SetThresholdRequest struct {
	Threshold int `json:"threshold"`
}

func (h *StockHandler) handleSetThreshold(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	var req SetThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	line, err := h.ledger.SetAlertThreshold(r.Context(), productID, req.Threshold, actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (h *StockHandler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.ledger.ListAlerts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}
