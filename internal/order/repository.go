package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// Create inserts an order with status pending.
	Create(ctx context.Context, userID int64, total float64) (*Order, error)
	InsertItems(ctx context.Context, items []Item) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetByIDForUser(ctx context.Context, id, userID int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const joinedSelect = `SELECT o.id AS order_id, o.user_id, o.total, o.status, o.created_at, o.updated_at,
		   oi.product_id, oi.quantity, oi.price_at_purchase
	FROM orders o
	JOIN order_items oi ON o.id = oi.order_id`

type orderRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Total     float64   `db:"total"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r orderRow) toOrder() *Order {
	return &Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Total:     r.Total,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *repository) Create(ctx context.Context, userID int64, total float64) (*Order, error) {
	var row orderRow

	query := `INSERT INTO orders (user_id, total, status)
			  VALUES ($1, $2, $3)
			  RETURNING id, user_id, total, status, created_at, updated_at`

	if err := r.db.GetContext(ctx, &row, query, userID, total, StatusPending); err != nil {
		return nil, fmt.Errorf("repository: create order for user %d: %w", userID, err)
	}

	return row.toOrder(), nil
}

func (r *repository) InsertItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
			  VALUES (:order_id, :product_id, :quantity, :price_at_purchase)`

	if _, err := r.db.NamedExecContext(ctx, query, items); err != nil {
		return fmt.Errorf("repository: insert items of order %d: %w", items[0].OrderID, err)
	}

	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	cmd, err := r.db.ExecContext(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("repository: update status of order %d: %w", id, err)
	}

	n, err := cmd.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: update status of order %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	var row orderRow

	err := r.db.GetContext(ctx, &row,
		`SELECT id, user_id, total, status, created_at, updated_at FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: get order %d: %w", id, err)
	}

	return row.toOrder(), nil
}

func (r *repository) GetByIDForUser(ctx context.Context, id, userID int64) (*Order, error) {
	rows, err := r.selectRows(ctx, joinedSelect+` WHERE o.id = $1 AND o.user_id = $2 ORDER BY oi.id`, id, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: get order %d of user %d: %w", id, userID, err)
	}

	orders := GroupRows(rows)
	if len(orders) == 0 {
		return nil, ErrNotFound
	}

	return &orders[0], nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	rows, err := r.selectRows(ctx, joinedSelect+` WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC, oi.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: list orders of user %d: %w", userID, err)
	}

	return GroupRows(rows), nil
}

func (r *repository) ListAll(ctx context.Context) ([]Order, error) {
	rows, err := r.selectRows(ctx, joinedSelect+` ORDER BY o.created_at DESC, o.id DESC, oi.id`)
	if err != nil {
		return nil, fmt.Errorf("repository: list all orders: %w", err)
	}

	return GroupRows(rows), nil
}

func (r *repository) selectRows(ctx context.Context, query string, args ...interface{}) ([]Row, error) {
	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}
