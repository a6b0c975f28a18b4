package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gasflow/fulfillment-service/internal/handler"
	"github.com/gasflow/fulfillment-service/internal/keylock"
	"github.com/gasflow/fulfillment-service/internal/order"
)

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) CreateOrder(ctx context.Context, input order.CreateOrderInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderService) Transition(ctx context.Context, orderID uuid.UUID, target order.Status, params order.TransitionParams) (*order.TransitionResult, error) {
	args := m.Called(ctx, orderID, target, params)
	if r := args.Get(0); r != nil {
		return r.(*order.TransitionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderService) ListOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if orders := args.Get(0); orders != nil {
		return orders.([]order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func newOrderRouter(svc order.Service) http.Handler {
	r := chi.NewRouter()
	handler.NewOrderHandler(svc).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, actor string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set("X-Actor-ID", actor)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	actor := uuid.Must(uuid.NewV4())
	customer := uuid.Must(uuid.NewV4())
	product := uuid.Must(uuid.NewV4())
	created := &order.Order{
		ID:         uuid.Must(uuid.NewV4()),
		CustomerID: customer,
		Status:     order.StatusNew,
		Total:      240,
	}

	svc := new(mockOrderService)
	svc.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in order.CreateOrderInput) bool {
		return in.CustomerID == customer && in.AttendantID == actor && len(in.Items) == 1
	})).Return(created, nil)

	rec := doRequest(t, newOrderRouter(svc), http.MethodPost, "/orders", handler.CreateOrderRequest{
		CustomerID:      customer,
		DeliveryAddress: "12 Ship Street",
		PaymentMethod:   order.PaymentCash,
		Channel:         order.ChannelPhone,
		Items: []handler.CreateOrderItemRequest{
			{ProductID: product, Quantity: 2, ReturnsEmpty: true},
		},
	}, actor.String())

	assert.Equal(t, http.StatusCreated, rec.Code)

	var got order.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 240.0, got.Total)
	svc.AssertExpectations(t)
}

func TestOrderHandler_CreateOrder_MissingActor(t *testing.T) {
	svc := new(mockOrderService)

	rec := doRequest(t, newOrderRouter(svc), http.MethodPost, "/orders", handler.CreateOrderRequest{}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_CreateOrder_InvalidBody(t *testing.T) {
	svc := new(mockOrderService)
	actor := uuid.Must(uuid.NewV4())

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Actor-ID", actor.String())
	rec := httptest.NewRecorder()
	newOrderRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "CreateOrder")
}

func TestOrderHandler_Transition_StatusMapping(t *testing.T) {
	actor := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "invalid_transition", err: fmt.Errorf("delivered -> new: %w", order.ErrInvalidTransition), wantCode: http.StatusConflict},
		{name: "order_not_found", err: order.ErrOrderNotFound, wantCode: http.StatusNotFound},
		{name: "missing_deliverer", err: order.ErrMissingDeliverer, wantCode: http.StatusBadRequest},
		{name: "lock_busy", err: fmt.Errorf("order %s: %w", orderID, keylock.ErrBusy), wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockOrderService)
			svc.On("Transition", mock.Anything, orderID, order.StatusDispatched, mock.Anything).
				Return(nil, tt.err)

			rec := doRequest(t, newOrderRouter(svc), http.MethodPost, "/orders/"+orderID.String()+"/transition",
				handler.TransitionRequest{TargetStatus: order.StatusDispatched}, actor.String())

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusServiceUnavailable {
				assert.Equal(t, "1", rec.Header().Get("Retry-After"))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Transition_ReturnsWarnings(t *testing.T) {
	actor := uuid.Must(uuid.NewV4())
	orderID := uuid.Must(uuid.NewV4())
	productID := uuid.Must(uuid.NewV4())

	result := &order.TransitionResult{
		Order: &order.Order{ID: orderID, Status: order.StatusDelivered},
		Warnings: []order.Warning{
			{ProductID: productID, Quantity: 2, Reason: "insufficient loaned containers"},
		},
	}

	svc := new(mockOrderService)
	svc.On("Transition", mock.Anything, orderID, order.StatusDelivered, mock.Anything).
		Return(result, nil)

	rec := doRequest(t, newOrderRouter(svc), http.MethodPost, "/orders/"+orderID.String()+"/transition",
		handler.TransitionRequest{TargetStatus: order.StatusDelivered}, actor.String())

	assert.Equal(t, http.StatusOK, rec.Code)

	var got order.TransitionResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Warnings, 1)
	assert.Equal(t, productID, got.Warnings[0].ProductID)
	svc.AssertExpectations(t)
}

func TestOrderHandler_GetOrder(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())

	t.Run("found", func(t *testing.T) {
		svc := new(mockOrderService)
		svc.On("GetOrder", mock.Anything, orderID).
			Return(&order.Order{ID: orderID, Status: order.StatusNew}, nil)

		rec := doRequest(t, newOrderRouter(svc), http.MethodGet, "/orders/"+orderID.String(), nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		svc := new(mockOrderService)
		svc.On("GetOrder", mock.Anything, orderID).Return(nil, order.ErrOrderNotFound)

		rec := doRequest(t, newOrderRouter(svc), http.MethodGet, "/orders/"+orderID.String(), nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad_id", func(t *testing.T) {
		svc := new(mockOrderService)

		rec := doRequest(t, newOrderRouter(svc), http.MethodGet, "/orders/not-a-uuid", nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		svc.AssertNotCalled(t, "GetOrder")
	})
}

func TestOrderHandler_ListOrders_StatusFilter(t *testing.T) {
	status := order.StatusPreparing

	svc := new(mockOrderService)
	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f order.ListFilter) bool {
		return f.Status != nil && *f.Status == status
	})).Return([]order.Order{}, nil)

	rec := doRequest(t, newOrderRouter(svc), http.MethodGet, "/orders?status=preparing", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
	svc.AssertExpectations(t)
}
