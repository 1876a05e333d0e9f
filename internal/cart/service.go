package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	Add(ctx context.Context, userID, productID int64, quantity int) (*Item, error)
	Update(ctx context.Context, userID, cartID int64, quantity int) (*Item, error)
	List(ctx context.Context, userID int64) ([]Line, error)
	Remove(ctx context.Context, userID, cartID int64) error
	Clear(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Add(ctx context.Context, userID, productID int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	price, err := s.repo.ProductPrice(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: add to cart: %w", err)
	}

	item := &Item{
		UserID:     userID,
		ProductID:  productID,
		Quantity:   quantity,
		TotalPrice: price * float64(quantity),
	}

	if err := s.repo.Add(ctx, item); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Int64("product_id", productID).Msg("Failed to add cart item")
		return nil, fmt.Errorf("service: add to cart: %w", err)
	}

	return item, nil
}

// Update changes the quantity of an owned cart item and recomputes its total
// from the product's current price.
func (s *service) Update(ctx context.Context, userID, cartID int64, quantity int) (*Item, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.owned(ctx, userID, cartID)
	if err != nil {
		return nil, err
	}

	price, err := s.repo.ProductPrice(ctx, item.ProductID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("service: update cart item %d: %w", cartID, err)
	}

	total := price * float64(quantity)
	if err := s.repo.UpdateQuantity(ctx, cartID, quantity, total); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("cart_id", cartID).Msg("Failed to update cart item")
		return nil, fmt.Errorf("service: update cart item %d: %w", cartID, err)
	}

	item.Quantity = quantity
	item.TotalPrice = total

	return item, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]Line, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: list cart: %w", err)
	}

	return lines, nil
}

func (s *service) Remove(ctx context.Context, userID, cartID int64) error {
	if _, err := s.owned(ctx, userID, cartID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, cartID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("cart_id", cartID).Msg("Failed to delete cart item")
		return fmt.Errorf("service: delete cart item %d: %w", cartID, err)
	}

	return nil
}

func (s *service) Clear(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.Clear(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear cart")
		return 0, fmt.Errorf("service: clear cart: %w", err)
	}

	return n, nil
}

// owned loads a cart item and checks it belongs to userID before any mutation.
func (s *service) owned(ctx context.Context, userID, cartID int64) (*Item, error) {
	item, err := s.repo.GetItem(ctx, cartID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: get cart item %d: %w", cartID, err)
	}

	if item.UserID != userID {
		log.Warn().Int64("cart_id", cartID).Int64("owner_id", item.UserID).Int64("user_id", userID).
			Msg("Cart item ownership mismatch")
		return nil, ErrForbidden
	}

	return item, nil
}

func (s *service) ensureUser(ctx context.Context, userID int64) error {
	ok, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return fmt.Errorf("service: check user: %w", err)
	}
	if !ok {
		return ErrUserNotFound
	}
	return nil
}
