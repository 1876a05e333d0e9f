package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	ProductPrice(ctx context.Context, productID int64) (float64, error)

	Add(ctx context.Context, item *Item) error
	GetItem(ctx context.Context, id int64) (*Item, error)
	UpdateQuantity(ctx context.Context, id int64, quantity int, totalPrice float64) error
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
	Clear(ctx context.Context, userID int64) (int64, error)

	ItemsForOrder(ctx context.Context, userID int64) ([]OrderLine, error)
	ItemsByIDs(ctx context.Context, userID int64, ids []int64) ([]OrderLine, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var exists bool

	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	if err != nil {
		return false, fmt.Errorf("repository: check user %d: %w", userID, err)
	}

	return exists, nil
}

func (r *repository) ProductPrice(ctx context.Context, productID int64) (float64, error) {
	var price float64

	err := r.db.GetContext(ctx, &price, `SELECT price FROM products WHERE id = $1`, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("repository: product price %d: %w", productID, err)
	}

	return price, nil
}

func (r *repository) Add(ctx context.Context, item *Item) error {
	query := `INSERT INTO cart (user_id, product_id, quantity, total_price)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, item.UserID, item.ProductID, item.Quantity, item.TotalPrice).
		Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: add cart item: %w", err)
	}

	return nil
}

func (r *repository) GetItem(ctx context.Context, id int64) (*Item, error) {
	var item Item

	query := `SELECT id, user_id, product_id, quantity, total_price, created_at, updated_at
			  FROM cart WHERE id = $1`

	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: get cart item %d: %w", id, err)
	}

	return &item, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, id int64, quantity int, totalPrice float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cart SET quantity = $1, total_price = $2, updated_at = NOW() WHERE id = $3`,
		quantity, totalPrice, id)
	if err != nil {
		return fmt.Errorf("repository: update cart item %d: %w", id, err)
	}

	return expectRows(res, id)
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Line, error) {
	lines := []Line{}

	query := `SELECT c.id AS cart_id, c.product_id, p.title, p.price, c.quantity, c.total_price,
					 c.created_at, c.updated_at
			  FROM cart c
			  JOIN products p ON c.product_id = p.id
			  WHERE c.user_id = $1
			  ORDER BY c.id`

	if err := r.db.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("repository: list cart of user %d: %w", userID, err)
	}

	return lines, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete cart item %d: %w", id, err)
	}

	return expectRows(res, id)
}

func (r *repository) DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1 AND id = ANY($2)`, userID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("repository: delete cart items of user %d: %w", userID, err)
	}

	return res.RowsAffected()
}

func (r *repository) Clear(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("repository: clear cart of user %d: %w", userID, err)
	}

	return res.RowsAffected()
}

func (r *repository) ItemsForOrder(ctx context.Context, userID int64) ([]OrderLine, error) {
	lines := []OrderLine{}

	query := `SELECT c.id AS cart_id, c.product_id, c.quantity, p.price
			  FROM cart c
			  JOIN products p ON c.product_id = p.id
			  WHERE c.user_id = $1
			  ORDER BY c.id`

	if err := r.db.SelectContext(ctx, &lines, query, userID); err != nil {
		return nil, fmt.Errorf("repository: cart lines for order of user %d: %w", userID, err)
	}

	return lines, nil
}

func (r *repository) ItemsByIDs(ctx context.Context, userID int64, ids []int64) ([]OrderLine, error) {
	lines := []OrderLine{}

	query := `SELECT c.id AS cart_id, c.product_id, c.quantity, p.price
			  FROM cart c
			  JOIN products p ON c.product_id = p.id
			  WHERE c.user_id = $1 AND c.id = ANY($2)
			  ORDER BY c.id`

	if err := r.db.SelectContext(ctx, &lines, query, userID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("repository: selected cart lines of user %d: %w", userID, err)
	}

	return lines, nil
}

func expectRows(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: cart item %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
