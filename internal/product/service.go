package product

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-service/internal/cache"
)

const allProductsKey = "product:all"

func productKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

type Service interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, f SearchFilter) ([]Product, error)
	// Lookup reads a product straight from the store, bypassing the cache.
	Lookup(ctx context.Context, id int64) (*Product, error)
	ReduceStock(ctx context.Context, id int64, qty int) (bool, error)
}

type service struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

func NewService(repo Repository, c cache.Cache, ttl time.Duration) Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &service{repo: repo, cache: c, ttl: ttl}
}

func (s *service) Create(ctx context.Context, p *Product) (*Product, error) {
	if err := s.repo.Create(ctx, p); err != nil {
		log.Error().Err(err).Str("title", p.Title).Msg("Failed to create product")
		return nil, fmt.Errorf("service: create product: %w", err)
	}

	s.invalidate(ctx)

	return p, nil
}

func (s *service) Update(ctx context.Context, p *Product) (*Product, error) {
	if err := s.repo.Update(ctx, p); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", p.ID).Msg("Failed to update product")
		return nil, fmt.Errorf("service: update product %d: %w", p.ID, err)
	}

	s.invalidate(ctx, p.ID)

	return p, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Product, error) {
	var cached Product
	if s.fromCache(ctx, productKey(id), &cached) {
		return &cached, nil
	}

	p, err := s.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, productKey(id), p)

	return p, nil
}

func (s *service) GetAll(ctx context.Context) ([]Product, error) {
	var cached []Product
	if s.fromCache(ctx, allProductsKey, &cached) {
		return cached, nil
	}

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		return nil, fmt.Errorf("service: get all products: %w", err)
	}

	s.toCache(ctx, allProductsKey, products)

	return products, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("product_id", id).Msg("Failed to delete product")
		return fmt.Errorf("service: delete product %d: %w", id, err)
	}

	s.invalidate(ctx, id)

	return nil
}

func (s *service) Search(ctx context.Context, f SearchFilter) ([]Product, error) {
	products, err := s.repo.Search(ctx, f)
	if err != nil {
		log.Error().Err(err).Str("search", f.Search).Msg("Failed to search products")
		return nil, fmt.Errorf("service: search products: %w", err)
	}

	return products, nil
}

func (s *service) Lookup(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: get product %d: %w", id, err)
	}

	return p, nil
}

func (s *service) ReduceStock(ctx context.Context, id int64, qty int) (bool, error) {
	ok, err := s.repo.ReduceStock(ctx, id, qty)
	if err != nil {
		return false, fmt.Errorf("service: reduce stock: %w", err)
	}

	if ok {
		s.invalidate(ctx, id)
	}

	return ok, nil
}

// A failing cache never fails the request; the store stays authoritative.
func (s *service) fromCache(ctx context.Context, key string, dest interface{}) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache read failed")
		return false
	}
	return found
}

func (s *service) toCache(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Catalog cache write failed")
	}
}

func (s *service) invalidate(ctx context.Context, ids ...int64) {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}
	keys = append(keys, allProductsKey)

	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("Catalog cache invalidation failed")
	}
}
