package http_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/auth"
	shophttp "github.com/vasiliy-maslov/shop-service/internal/handler/http"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

func TestOrderHandler_Place(t *testing.T) {
	s := newTestServer()
	s.placer.On("Place", mock.Anything, order.PlaceRequest{UserID: 1}).Return(&order.Placement{
		OrderID: 12,
		UserID:  1,
		Total:   0.1 + 0.2 + 34.7,
		Status:  order.StatusPending,
		Items: []order.Item{
			{OrderID: 12, ProductID: 100, Quantity: 2, PriceAtPurchase: 10},
			{OrderID: 12, ProductID: 200, Quantity: 3, PriceAtPurchase: 5},
		},
	}, nil).Once()

	rr, resp := s.do(t, http.MethodPost, "/api/user/placeOrderCart", nil, s.token(t, 1, auth.RoleUser))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Order placed successfully", resp.Message)
	assert.JSONEq(t, `{
		"orderId": 12,
		"userId": 1,
		"total": 35,
		"status": "pending",
		"items": [
			{"orderId": 12, "productId": 100, "quantity": 2, "priceAtPurchase": 10},
			{"orderId": 12, "productId": 200, "quantity": 3, "priceAtPurchase": 5}
		]
	}`, string(resp.Result))
	s.placer.AssertExpectations(t)
}

func TestOrderHandler_Place_SelectedCartIDs(t *testing.T) {
	s := newTestServer()
	s.placer.On("Place", mock.Anything, order.PlaceRequest{UserID: 1, CartIDs: []int64{11}}).
		Return(&order.Placement{OrderID: 13, UserID: 1, Total: 20, Status: order.StatusPending}, nil).Once()

	rr, _ := s.do(t, http.MethodPost, "/api/user/placeOrderCart", shophttp.PlaceOrderRequest{CartIDs: []int64{11}}, s.token(t, 1, auth.RoleUser))

	require.Equal(t, http.StatusOK, rr.Code)
	s.placer.AssertExpectations(t)
}

func TestOrderHandler_Place_Errors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{
			name:    "empty cart",
			err:     order.ErrEmptyCart,
			code:    http.StatusBadRequest,
			message: "Cart is empty or cart items not found",
		},
		{
			name:    "insufficient stock",
			err:     &order.InsufficientStockError{ProductID: 200},
			code:    http.StatusBadRequest,
			message: "Insufficient stock for product ID 200",
		},
		{
			name:    "stock taken after order written",
			err:     &order.InsufficientStockError{ProductID: 100, OrderID: 12},
			code:    http.StatusBadRequest,
			message: "Insufficient stock for product ID 100",
		},
		{
			name:    "store failure",
			err:     fmt.Errorf("service: place order: %w", assert.AnError),
			code:    http.StatusInternalServerError,
			message: "Server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			s.placer.On("Place", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rr, resp := s.do(t, http.MethodPost, "/api/user/placeOrderCart", nil, s.token(t, 1, auth.RoleUser))

			require.Equal(t, tt.code, rr.Code)
			assert.Equal(t, tt.message, resp.Message)
			assert.Equal(t, "null", string(resp.Result))
		})
	}
}

func TestOrderHandler_Place_InvalidCartIDs(t *testing.T) {
	s := newTestServer()

	rr, _ := s.do(t, http.MethodPost, "/api/user/placeOrderCart", `{"cartIds":[0]}`, s.token(t, 1, auth.RoleUser))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	s.placer.AssertNotCalled(t, "Place", mock.Anything, mock.Anything)
}

func TestOrderHandler_UserOrders(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := newTestServer()
	s.orders.On("UserOrders", mock.Anything, int64(1)).Return([]order.Order{{
		ID: 12, UserID: 1, Total: 35, Status: order.StatusPending, CreatedAt: created,
		Items: []order.Item{{OrderID: 12, ProductID: 100, Quantity: 2, PriceAtPurchase: 10}},
	}}, nil).Once()

	rr, resp := s.do(t, http.MethodGet, "/api/user/getUserOrders", nil, s.token(t, 1, auth.RoleUser))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "User orders fetched successfully", resp.Message)
	assert.JSONEq(t, `[{
		"orderId": 12,
		"total": 35,
		"status": "pending",
		"createdAt": "2024-05-01T12:00:00Z",
		"items": [{"productId": 100, "quantity": 2, "priceAtPurchase": 10}]
	}]`, string(resp.Result))
}

func TestOrderHandler_UserOrder_NotFound(t *testing.T) {
	s := newTestServer()
	s.orders.On("UserOrder", mock.Anything, int64(2), int64(12)).Return(nil, order.ErrNotFound).Once()

	rr, resp := s.do(t, http.MethodGet, "/api/user/getOrderById/12", nil, s.token(t, 2, auth.RoleUser))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Order not found", resp.Message)
}

func TestOrderHandler_AllOrders_IncludesUser(t *testing.T) {
	s := newTestServer()
	s.orders.On("AllOrders", mock.Anything).Return([]order.Order{{ID: 12, UserID: 7, Total: 5, Status: order.StatusShipped}}, nil).Once()

	rr, resp := s.do(t, http.MethodGet, "/api/admin/getAllOrders", nil, s.token(t, 1, auth.RoleAdmin))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "All orders fetched successfully", resp.Message)

	var got []shophttp.OrderResponse
	decodeResult(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].UserID)
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	updated := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		s := newTestServer()
		s.orders.On("UpdateStatus", mock.Anything, int64(12), "shipped").Return(&order.StatusChange{
			ID: 12, UserID: 7, PreviousStatus: order.StatusPending, UpdatedStatus: order.StatusShipped, UpdatedAt: updated,
		}, nil).Once()

		rr, resp := s.do(t, http.MethodPut, "/api/admin/updateOrderStatus/12",
			shophttp.UpdateOrderStatusRequest{Status: "shipped"}, s.token(t, 1, auth.RoleAdmin))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Order status updated successfully", resp.Message)
		assert.JSONEq(t, `{
			"id": 12,
			"userId": 7,
			"previousStatus": "pending",
			"updatedStatus": "shipped",
			"updatedAt": "2024-05-02T09:30:00Z"
		}`, string(resp.Result))
	})

	t.Run("invalid status", func(t *testing.T) {
		s := newTestServer()
		s.orders.On("UpdateStatus", mock.Anything, int64(12), "lost").
			Return(nil, fmt.Errorf("%w: %q", order.ErrInvalidStatus, "lost")).Once()

		rr, resp := s.do(t, http.MethodPut, "/api/admin/updateOrderStatus/12",
			shophttp.UpdateOrderStatusRequest{Status: "lost"}, s.token(t, 1, auth.RoleAdmin))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid order status. Valid statuses: pending, processing, shipped, delivered, cancelled", resp.Message)
	})

	t.Run("missing order", func(t *testing.T) {
		s := newTestServer()
		s.orders.On("UpdateStatus", mock.Anything, int64(99), "shipped").Return(nil, order.ErrNotFound).Once()

		rr, resp := s.do(t, http.MethodPut, "/api/admin/updateOrderStatus/99",
			shophttp.UpdateOrderStatusRequest{Status: "shipped"}, s.token(t, 1, auth.RoleAdmin))

		require.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Order not found", resp.Message)
	})
}
