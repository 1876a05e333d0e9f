package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-service/internal/order"
)

// OrderPlacer turns a user's cart into an order.
type OrderPlacer interface {
	Place(ctx context.Context, req order.PlaceRequest) (*order.Placement, error)
}

type PlaceOrderRequest struct {
	CartIDs []int64 `json:"cartIds" validate:"omitempty,dive,gt=0"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type OrderItemResponse struct {
	OrderID         int64   `json:"orderId,omitempty"`
	ProductID       int64   `json:"productId"`
	Quantity        int     `json:"quantity"`
	PriceAtPurchase float64 `json:"priceAtPurchase"`
}

type PlacementResponse struct {
	OrderID int64               `json:"orderId"`
	UserID  int64               `json:"userId"`
	Total   float64             `json:"total"`
	Status  order.Status        `json:"status"`
	Items   []OrderItemResponse `json:"items"`
}

type OrderResponse struct {
	OrderID   int64               `json:"orderId"`
	UserID    int64               `json:"userId,omitempty"`
	Total     float64             `json:"total"`
	Status    order.Status        `json:"status"`
	CreatedAt time.Time           `json:"createdAt"`
	Items     []OrderItemResponse `json:"items"`
}

type StatusChangeResponse struct {
	ID             int64        `json:"id"`
	UserID         int64        `json:"userId"`
	PreviousStatus order.Status `json:"previousStatus"`
	UpdatedStatus  order.Status `json:"updatedStatus"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

func toPlacementResponse(p *order.Placement) PlacementResponse {
	items := make([]OrderItemResponse, len(p.Items))
	for i, it := range p.Items {
		items[i] = OrderItemResponse{
			OrderID:         it.OrderID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		}
	}
	return PlacementResponse{
		OrderID: p.OrderID,
		UserID:  p.UserID,
		Total:   roundMoney(p.Total),
		Status:  p.Status,
		Items:   items,
	}
}

// toOrderResponses drops item order ids and, unless withUser is set, the
// owning user id.
func toOrderResponses(orders []order.Order, withUser bool) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = toOrderResponse(&o, withUser)
	}
	return out
}

func toOrderResponse(o *order.Order, withUser bool) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemResponse{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		}
	}

	resp := OrderResponse{
		OrderID:   o.ID,
		Total:     roundMoney(o.Total),
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
		Items:     items,
	}
	if withUser {
		resp.UserID = o.UserID
	}
	return resp
}

type OrderHandler struct {
	service  order.Service
	placer   OrderPlacer
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, placer OrderPlacer) *OrderHandler {
	return &OrderHandler{service: service, placer: placer, validate: newValidator()}
}

func (h *OrderHandler) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !decodeJSON(w, r, h.validate, &req, true) {
		return
	}

	placement, err := h.placer.Place(r.Context(), order.PlaceRequest{
		UserID:  currentUserID(r),
		CartIDs: req.CartIDs,
	})
	if err != nil {
		var (
			message  = "Cart is empty or cart items not found"
			stockErr *order.InsufficientStockError
		)
		if errors.As(err, &stockErr) {
			message = fmt.Sprintf("Insufficient stock for product ID %d", stockErr.ProductID)
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "Order placed successfully", toPlacementResponse(placement))
}

func (h *OrderHandler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.UserOrders(r.Context(), currentUserID(r))
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	respond(w, http.StatusOK, "User orders fetched successfully", toOrderResponses(orders, false))
}

func (h *OrderHandler) handleUserOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	o, err := h.service.UserOrder(r.Context(), currentUserID(r), id)
	if err != nil {
		respondWithServiceError(w, r, err, "Order not found")
		return
	}

	respond(w, http.StatusOK, "Order fetched successfully", toOrderResponse(o, false))
}

func (h *OrderHandler) handleAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.AllOrders(r.Context())
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	respond(w, http.StatusOK, "All orders fetched successfully", toOrderResponses(orders, true))
}

func (h *OrderHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if !decodeJSON(w, r, h.validate, &req, false) {
		return
	}

	change, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		message := "Order not found"
		if errors.Is(err, order.ErrInvalidStatus) {
			message = "Invalid order status. Valid statuses: " + order.StatusList()
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "Order status updated successfully", StatusChangeResponse{
		ID:             change.ID,
		UserID:         change.UserID,
		PreviousStatus: change.PreviousStatus,
		UpdatedStatus:  change.UpdatedStatus,
		UpdatedAt:      change.UpdatedAt,
	})
}
