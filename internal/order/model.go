package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled}

func (s Status) String() string {
	return string(s)
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus accepts only members of Statuses. Any valid status may follow
// any other, so there is no transition table.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// StatusList renders the valid statuses as "pending, processing, ...".
func StatusList() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = s.String()
	}
	return strings.Join(names, ", ")
}

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrEmptyCart         = errors.New("cart is empty or cart items not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the product that could not be covered. OrderID
// is set when the shortfall was detected after the order had been written.
type InsufficientStockError struct {
	ProductID int64
	OrderID   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product ID %d", e.ProductID)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Order struct {
	ID        int64
	UserID    int64
	Total     float64
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []Item
}

type Item struct {
	OrderID         int64   `db:"order_id"`
	ProductID       int64   `db:"product_id"`
	Quantity        int     `db:"quantity"`
	PriceAtPurchase float64 `db:"price_at_purchase"`
}

// Row is one order joined with one of its items.
type Row struct {
	OrderID         int64     `db:"order_id"`
	UserID          int64     `db:"user_id"`
	Total           float64   `db:"total"`
	Status          Status    `db:"status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	ProductID       int64     `db:"product_id"`
	Quantity        int       `db:"quantity"`
	PriceAtPurchase float64   `db:"price_at_purchase"`
}

// GroupRows folds joined rows into one Order per distinct order id. Orders
// keep the position of their first row and items keep their row order.
func GroupRows(rows []Row) []Order {
	orders := make([]Order, 0)
	index := make(map[int64]int)

	for _, r := range rows {
		i, seen := index[r.OrderID]
		if !seen {
			i = len(orders)
			index[r.OrderID] = i
			orders = append(orders, Order{
				ID:        r.OrderID,
				UserID:    r.UserID,
				Total:     r.Total,
				Status:    r.Status,
				CreatedAt: r.CreatedAt,
				UpdatedAt: r.UpdatedAt,
			})
		}

		orders[i].Items = append(orders[i].Items, Item{
			OrderID:         r.OrderID,
			ProductID:       r.ProductID,
			Quantity:        r.Quantity,
			PriceAtPurchase: r.PriceAtPurchase,
		})
	}

	return orders
}

// StatusChange describes an applied admin status update.
type StatusChange struct {
	ID             int64
	UserID         int64
	PreviousStatus Status
	UpdatedStatus  Status
	UpdatedAt      time.Time
}

// PlaceRequest asks to convert a user's cart into an order. An empty CartIDs
// places the whole cart.
type PlaceRequest struct {
	UserID  int64
	CartIDs []int64
}

type Placement struct {
	OrderID int64
	UserID  int64
	Total   float64
	Status  Status
	Items   []Item
}
