package product

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

var ErrNotFound = errors.New("product not found")

type Product struct {
	ID          int64          `json:"id" db:"id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	Price       float64        `json:"price" db:"price"`
	Images      pq.StringArray `json:"images" db:"images"`
	Stock       int            `json:"stock" db:"stock"`
	CreatedAt   time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" db:"updated_at"`
}

// SearchFilter narrows a catalog search. Nil bounds and an empty Search are ignored.
type SearchFilter struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64
	Page     int
	Limit    int
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Offset converts the 1-based page into a row offset.
func (f SearchFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
