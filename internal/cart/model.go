package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart item not found")
	ErrForbidden       = errors.New("cart item belongs to another user")
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Item is one row of a user's cart. TotalPrice caches quantity * price at the
// time the row was last written.
type Item struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	ProductID  int64     `db:"product_id"`
	Quantity   int       `db:"quantity"`
	TotalPrice float64   `db:"total_price"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Line is a cart row joined with the product's current title and price.
type Line struct {
	CartID     int64     `db:"cart_id"`
	ProductID  int64     `db:"product_id"`
	Title      string    `db:"title"`
	Price      float64   `db:"price"`
	Quantity   int       `db:"quantity"`
	TotalPrice float64   `db:"total_price"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// OrderLine is the slice of a cart row needed to place an order, carrying the
// product's current price.
type OrderLine struct {
	CartID    int64   `db:"cart_id"`
	ProductID int64   `db:"product_id"`
	Quantity  int     `db:"quantity"`
	Price     float64 `db:"price"`
}
