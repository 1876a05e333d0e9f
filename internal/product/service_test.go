package product_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/shop-service/internal/product"
)

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Create(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, p *product.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductRepository) GetAll(ctx context.Context) ([]product.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) Search(ctx context.Context, f product.SearchFilter) ([]product.Product, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]product.Product), args.Error(1)
}

func (m *MockProductRepository) ReduceStock(ctx context.Context, id int64, qty int) (bool, error) {
	args := m.Called(ctx, id, qty)
	return args.Bool(0), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func TestProductService_GetByID_CacheMissThenFill(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	stored := &product.Product{ID: 1, Title: "Lamp", Price: 10, Stock: 3}

	c.On("Get", mock.Anything, "product:1", mock.Anything).Return(false, nil).Once()
	repo.On("GetByID", mock.Anything, int64(1)).Return(stored, nil).Once()
	c.On("Set", mock.Anything, "product:1", stored, time.Minute).Return(nil).Once()

	got, err := svc.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(stored, got))
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestProductService_GetByID_CacheHit(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	c.On("Get", mock.Anything, "product:2", mock.AnythingOfType("*product.Product")).
		Run(func(args mock.Arguments) {
			*args.Get(2).(*product.Product) = product.Product{ID: 2, Title: "Cached"}
		}).
		Return(true, nil).Once()

	got, err := svc.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Cached", got.Title)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestProductService_GetByID_CacheDownFallsBackToStore(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	c.On("Get", mock.Anything, "product:3", mock.Anything).Return(false, errors.New("redis down")).Once()
	c.On("Set", mock.Anything, "product:3", mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
	repo.On("GetByID", mock.Anything, int64(3)).Return(&product.Product{ID: 3}, nil).Once()

	got, err := svc.GetByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ID)
}

func TestProductService_GetByID_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	svc := product.NewService(repo, nil, time.Minute)

	repo.On("GetByID", mock.Anything, int64(404)).Return(nil, product.ErrNotFound).Once()

	_, err := svc.GetByID(context.Background(), 404)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductService_MutationsInvalidate(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)
	ctx := context.Background()

	p := &product.Product{ID: 5, Title: "Chair", Price: 25}

	repo.On("Create", mock.Anything, p).Return(nil).Once()
	c.On("Delete", mock.Anything, []string{"product:all"}).Return(nil).Once()
	_, err := svc.Create(ctx, p)
	require.NoError(t, err)

	repo.On("Update", mock.Anything, p).Return(nil).Once()
	repo.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	repo.On("ReduceStock", mock.Anything, int64(5), 2).Return(true, nil).Once()
	c.On("Delete", mock.Anything, []string{"product:5", "product:all"}).Return(nil).Times(3)

	_, err = svc.Update(ctx, p)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, 5))
	ok, err := svc.ReduceStock(ctx, 5, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestProductService_ReduceStock_NoRowKeepsCache(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	repo.On("ReduceStock", mock.Anything, int64(6), 10).Return(false, nil).Once()

	ok, err := svc.ReduceStock(context.Background(), 6, 10)
	require.NoError(t, err)
	assert.False(t, ok)
	c.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductService_UpdateDelete_NotFound(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	repo.On("Update", mock.Anything, mock.Anything).Return(product.ErrNotFound).Once()
	repo.On("Delete", mock.Anything, int64(9)).Return(product.ErrNotFound).Once()

	_, err := svc.Update(context.Background(), &product.Product{ID: 9})
	require.ErrorIs(t, err, product.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), 9), product.ErrNotFound)
	c.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestProductService_GetAll_UsesCache(t *testing.T) {
	repo := new(MockProductRepository)
	c := new(MockCache)
	svc := product.NewService(repo, c, time.Minute)

	list := []product.Product{{ID: 2, Title: "B"}, {ID: 1, Title: "A"}}

	c.On("Get", mock.Anything, "product:all", mock.Anything).Return(false, nil).Once()
	repo.On("GetAll", mock.Anything).Return(list, nil).Once()
	c.On("Set", mock.Anything, "product:all", list, time.Minute).Return(nil).Once()

	got, err := svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list, got)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}
