package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	UpdateStatus(ctx context.Context, id int64, status string) (*StatusChange, error)
	UserOrders(ctx context.Context, userID int64) ([]Order, error)
	UserOrder(ctx context.Context, userID, orderID int64) (*Order, error)
	AllOrders(ctx context.Context) ([]Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) UpdateStatus(ctx context.Context, id int64, raw string) (*StatusChange, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: update order status: %w", err)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("order_id", id).Str("status", status.String()).Msg("Failed to update order status")
		return nil, fmt.Errorf("service: update order status: %w", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service: reload order %d: %w", id, err)
	}

	log.Info().
		Int64("order_id", id).
		Str("previous_status", current.Status.String()).
		Str("updated_status", status.String()).
		Msg("Order status updated")

	return &StatusChange{
		ID:             id,
		UserID:         current.UserID,
		PreviousStatus: current.Status,
		UpdatedStatus:  status,
		UpdatedAt:      updated.UpdatedAt,
	}, nil
}

func (s *service) UserOrders(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service: user orders: %w", err)
	}
	return orders, nil
}

func (s *service) UserOrder(ctx context.Context, userID, orderID int64) (*Order, error) {
	o, err := s.repo.GetByIDForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: user order: %w", err)
	}
	return o, nil
}

func (s *service) AllOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: all orders: %w", err)
	}
	return orders, nil
}
