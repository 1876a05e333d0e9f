package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetAll(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, f SearchFilter) ([]Product, error)
	// ReduceStock decrements stock by qty only when enough is left. It reports
	// whether a row was changed.
	ReduceStock(ctx context.Context, id int64, qty int) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const productColumns = `id, title, description, price, images, stock, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `INSERT INTO products (title, description, price, images, stock)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id, price, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, p.Title, p.Description, p.Price, p.Images, p.Stock).
		Scan(&p.ID, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: create product: %w", err)
	}

	return nil
}

func (r *repository) Update(ctx context.Context, p *Product) error {
	query := `UPDATE products
			  SET title = $1, description = $2, price = $3, images = $4, stock = $5, updated_at = NOW()
			  WHERE id = $6
			  RETURNING price, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, p.Title, p.Description, p.Price, p.Images, p.Stock, p.ID).
		Scan(&p.Price, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("repository: update product %d: %w", p.ID, err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Product, error) {
	var p Product

	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: get product %d: %w", id, err)
	}

	return &p, nil
}

func (r *repository) GetAll(ctx context.Context) ([]Product, error) {
	products := []Product{}

	err := r.db.SelectContext(ctx, &products, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: get all products: %w", err)
	}

	return products, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: delete product %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository: delete product %d: rows affected: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *repository) Search(ctx context.Context, f SearchFilter) ([]Product, error) {
	var (
		conds []string
		args  []interface{}
	)

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + productColumns + ` FROM products`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	args = append(args, f.Limit, f.Offset())
	fmt.Fprintf(&b, " ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, b.String(), args...); err != nil {
		return nil, fmt.Errorf("repository: search products: %w", err)
	}

	return products, nil
}

func (r *repository) ReduceStock(ctx context.Context, id int64, qty int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`,
		qty, id)
	if err != nil {
		return false, fmt.Errorf("repository: reduce stock of product %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("repository: reduce stock of product %d: rows affected: %w", id, err)
	}

	return n > 0, nil
}
