package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"

	"github.com/gasflow/fulfillment-service/internal/order"
)

// OrderHandler exposes the order lifecycle over HTTP.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/orders", h.handleCreateOrder)
	r.Get("/orders", h.handleListOrders)
	r.Get("/orders/{id}", h.handleGetOrder)
	r.Post("/orders/{id}/transition", h.handleTransition)
}

type CreateOrderItemRequest struct {
	ProductID    uuid.UUID `json:"product_id"`
	Quantity     int       `json:"quantity"`
	ReturnsEmpty bool      `json:"returns_empty"`
}

type CreateOrderRequest struct {
	CustomerID      uuid.UUID                `json:"customer_id"`
	DeliveryAddress string                   `json:"delivery_address"`
	PaymentMethod   order.PaymentMethod      `json:"payment_method"`
	Channel         order.Channel            `json:"channel"`
	Items           []CreateOrderItemRequest `json:"items"`
}

func (h *OrderHandler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	input := order.CreateOrderInput{
		CustomerID:      req.CustomerID,
		AttendantID:     actor,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Channel:         req.Channel,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, order.CreateOrderItem{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			ReturnsEmpty: item.ReturnsEmpty,
		})
	}

	o, err := h.svc.CreateOrder(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

type TransitionRequest struct {
	TargetStatus       order.Status `json:"target_status"`
	DelivererID        *uuid.UUID   `json:"deliverer_id,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
}

func (h *OrderHandler) handleTransition(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(w, r)
	if !ok {
		return
	}

	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Transition(r.Context(), orderID, req.TargetStatus, order.TransitionParams{
		ActorID:            actor,
		DelivererID:        req.DelivererID,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *OrderHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	o, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	filter := order.ListFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := order.Status(raw)
		filter.Status = &status
	}

	orders, err := h.svc.ListOrders(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}
