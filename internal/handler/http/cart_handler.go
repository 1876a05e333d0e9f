package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
)

type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

type UpdateCartRequest struct {
	CartID   int64 `json:"cartId" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type CartItemResponse struct {
	CartID     int64   `json:"cartId"`
	UserID     int64   `json:"userId"`
	ProductID  int64   `json:"productId"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"totalPrice"`
}

type CartLineResponse struct {
	CartID     int64     `json:"cartId"`
	ProductID  int64     `json:"productId"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	TotalPrice float64   `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toCartItemResponse(it *cart.Item) CartItemResponse {
	return CartItemResponse{
		CartID:     it.ID,
		UserID:     it.UserID,
		ProductID:  it.ProductID,
		Quantity:   it.Quantity,
		TotalPrice: roundMoney(it.TotalPrice),
	}
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: newValidator()}
}

func (h *CartHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if !decodeJSON(w, r, h.validate, &req, false) {
		return
	}

	item, err := h.service.Add(r.Context(), currentUserID(r), req.ProductID, req.Quantity)
	if err != nil {
		message := "Product not found"
		if errors.Is(err, cart.ErrUserNotFound) {
			message = "User not found"
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "Item added to cart successfully", toCartItemResponse(item))
}

func (h *CartHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartRequest
	if !decodeJSON(w, r, h.validate, &req, false) {
		return
	}

	item, err := h.service.Update(r.Context(), currentUserID(r), req.CartID, req.Quantity)
	if err != nil {
		var message string
		switch {
		case errors.Is(err, cart.ErrForbidden):
			message = "Unauthorized to update this cart item"
		case errors.Is(err, cart.ErrProductNotFound):
			message = "Product associated with cart item not found"
		default:
			message = "Cart item not found"
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "Cart item updated successfully", toCartItemResponse(item))
}

func (h *CartHandler) handleList(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.List(r.Context(), currentUserID(r))
	if err != nil {
		respondWithServiceError(w, r, err, "User not found")
		return
	}

	result := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		result[i] = CartLineResponse{
			CartID:     l.CartID,
			ProductID:  l.ProductID,
			Title:      l.Title,
			Price:      l.Price,
			Quantity:   l.Quantity,
			TotalPrice: roundMoney(l.TotalPrice),
			CreatedAt:  l.CreatedAt,
			UpdatedAt:  l.UpdatedAt,
		}
	}

	respond(w, http.StatusOK, "Cart fetched successfully", result)
}

func (h *CartHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	cartID, err := idParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cart item id")
		return
	}

	if err := h.service.Remove(r.Context(), currentUserID(r), cartID); err != nil {
		message := "Cart item not found"
		if errors.Is(err, cart.ErrForbidden) {
			message = "You are not authorized to delete this cart item"
		}
		respondWithServiceError(w, r, err, message)
		return
	}

	respond(w, http.StatusOK, "Cart item deleted successfully", map[string]int64{"cartId": cartID})
}

func (h *CartHandler) handleClear(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Clear(r.Context(), currentUserID(r))
	if err != nil {
		respondWithServiceError(w, r, err, msgServerError)
		return
	}

	respond(w, http.StatusOK, "All cart items cleared successfully", map[string]int64{"deleted": n})
}
