package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cart"
	"github.com/vasiliy-maslov/shop-service/internal/metrics"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

// CartSource resolves and removes the cart rows an order is built from.
type CartSource interface {
	ItemsForOrder(ctx context.Context, userID int64) ([]cart.OrderLine, error)
	ItemsByIDs(ctx context.Context, userID int64, ids []int64) ([]cart.OrderLine, error)
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
	Clear(ctx context.Context, userID int64) (int64, error)
}

// Inventory reads live stock and commits decrements.
type Inventory interface {
	Lookup(ctx context.Context, id int64) (*product.Product, error)
	ReduceStock(ctx context.Context, id int64, qty int) (bool, error)
}

// Writer persists a new order and its items.
type Writer interface {
	Create(ctx context.Context, userID int64, total float64) (*Order, error)
	InsertItems(ctx context.Context, items []Item) error
}

// Placer converts cart contents into an order.
//
// The steps are not wrapped in a transaction. If a conditional stock
// decrement loses a race after the order row is written, Place reports
// ErrInsufficientStock, the order and its items stay behind with status
// pending and the cart is left untouched.
type Placer struct {
	carts     CartSource
	inventory Inventory
	orders    Writer
}

func NewPlacer(carts CartSource, inventory Inventory, orders Writer) *Placer {
	return &Placer{carts: carts, inventory: inventory, orders: orders}
}

func (p *Placer) Place(ctx context.Context, req PlaceRequest) (*Placement, error) {
	placement, err := p.place(ctx, req)
	if err != nil {
		metrics.PlacementFailures.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	metrics.OrdersPlaced.Inc()
	return placement, nil
}

func (p *Placer) place(ctx context.Context, req PlaceRequest) (*Placement, error) {
	lines, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	for _, l := range lines {
		pr, err := p.inventory.Lookup(ctx, l.ProductID)
		if err != nil && !errors.Is(err, product.ErrNotFound) {
			return nil, fmt.Errorf("service: check stock of product %d: %w", l.ProductID, err)
		}
		if pr == nil || pr.Stock < l.Quantity {
			return nil, &InsufficientStockError{ProductID: l.ProductID}
		}
	}

	var total float64
	for _, l := range lines {
		total += l.Price * float64(l.Quantity)
	}

	o, err := p.orders.Create(ctx, req.UserID, total)
	if err != nil {
		return nil, fmt.Errorf("service: place order: %w", err)
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		items[i] = Item{
			OrderID:         o.ID,
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			PriceAtPurchase: l.Price,
		}
	}

	if err := p.orders.InsertItems(ctx, items); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Msg("Failed to insert order items")
		return nil, fmt.Errorf("service: place order %d: %w", o.ID, err)
	}

	for _, it := range items {
		ok, err := p.inventory.ReduceStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			log.Error().Err(err).Int64("order_id", o.ID).Int64("product_id", it.ProductID).Msg("Failed to reduce stock")
			return nil, fmt.Errorf("service: place order %d: %w", o.ID, err)
		}
		if !ok {
			log.Warn().
				Int64("order_id", o.ID).
				Int64("user_id", req.UserID).
				Int64("product_id", it.ProductID).
				Msg("Stock changed after order was written, order left pending")
			return nil, &InsufficientStockError{ProductID: it.ProductID, OrderID: o.ID}
		}
	}

	if err := p.cleanup(ctx, req, lines); err != nil {
		log.Error().Err(err).Int64("order_id", o.ID).Int64("user_id", req.UserID).Msg("Failed to clear cart after placing order")
		return nil, fmt.Errorf("service: place order %d: %w", o.ID, err)
	}

	log.Info().
		Int64("order_id", o.ID).
		Int64("user_id", req.UserID).
		Int("items", len(items)).
		Float64("total", total).
		Msg("Order placed")

	return &Placement{
		OrderID: o.ID,
		UserID:  req.UserID,
		Total:   total,
		Status:  o.Status,
		Items:   items,
	}, nil
}

func (p *Placer) resolve(ctx context.Context, req PlaceRequest) ([]cart.OrderLine, error) {
	var (
		lines []cart.OrderLine
		err   error
	)
	if len(req.CartIDs) > 0 {
		lines, err = p.carts.ItemsByIDs(ctx, req.UserID, req.CartIDs)
	} else {
		lines, err = p.carts.ItemsForOrder(ctx, req.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("service: load cart of user %d: %w", req.UserID, err)
	}
	return lines, nil
}

// cleanup removes exactly the cart rows the order was built from, or the
// whole cart when no ids were given.
func (p *Placer) cleanup(ctx context.Context, req PlaceRequest, lines []cart.OrderLine) error {
	if len(req.CartIDs) == 0 {
		_, err := p.carts.Clear(ctx, req.UserID)
		return err
	}

	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.CartID
	}
	_, err := p.carts.DeleteByIDs(ctx, req.UserID, ids)
	return err
}

func failureReason(err error) string {
	var stockErr *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		return metrics.ReasonEmptyCart
	case errors.As(err, &stockErr) && stockErr.OrderID != 0:
		return metrics.ReasonStockCommitConflict
	case errors.Is(err, ErrInsufficientStock):
		return metrics.ReasonInsufficientStock
	default:
		return metrics.ReasonError
	}
}
