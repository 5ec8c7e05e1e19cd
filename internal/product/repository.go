// AngelaMos | 2026
// repository.go

package product

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/storefront/internal/core"
)

type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	FindByFlag(ctx context.Context, flag Flag) ([]Product, error)
	// Update locks the row, applies fn to a copy and persists it. fn
	// returning an error aborts the transaction.
	Update(
		ctx context.Context,
		id string,
		fn func(*Product) error,
	) (before, after *Product, err error)
	Delete(ctx context.Context, id string) (*Product, error)
}

type repository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRepository returns the Postgres catalog. Every call is bounded by
// timeout and driver failures surface as upstream errors.
func NewRepository(db *sqlx.DB, timeout time.Duration) Repository {
	return &repository{db: db, timeout: timeout}
}

const productColumns = `id, name, description, price, images, category,
	is_featured, is_best_seller, in_stock, created_at, updated_at`

func (r *repository) Create(ctx context.Context, p *Product) error {
	query := `
		INSERT INTO products (id, name, description, price, images, category,
			is_featured, is_best_seller, in_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.QueryRowxContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.Price,
		p.Images,
		p.Category,
		p.IsFeatured,
		p.IsBestSeller,
		p.InStock,
	).Scan(&p.CreatedAt, &p.UpdatedAt)

	return core.StoreError("create product", err)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, core.StoreError("get product", err)
	}

	return &p, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Product, int, error) {
	params.Normalize()

	where := "TRUE"
	var args []any
	if params.Category != "" {
		where = "category = $1"
		args = append(args, params.Category)
	}

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	var total int
	countQuery := "SELECT COUNT(*) FROM products WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, core.StoreError("count products", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY created_at DESC, id
		LIMIT $%d OFFSET $%d`,
		productColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.PageSize, params.Offset())

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, 0, core.StoreError("list products", err)
	}

	return products, total, nil
}

// FindByFlag returns every product carrying flag, newest first. The
// column name comes from a closed set, never from input.
func (r *repository) FindByFlag(ctx context.Context, flag Flag) ([]Product, error) {
	if !flag.valid() {
		return nil, fmt.Errorf("find by flag %q: %w", flag, core.ErrInvalidInput)
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` +
		string(flag) + ` ORDER BY created_at DESC, id`

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, core.StoreError("find by flag "+string(flag), err)
	}

	return products, nil
}

func (r *repository) Update(
	ctx context.Context,
	id string,
	fn func(*Product) error,
) (*Product, *Product, error) {
	var before, after Product
	var rejected error

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lock := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &before, lock, id); err != nil {
			return core.StoreError("lock product", err)
		}

		next := before.clone()
		if rejected = fn(next); rejected != nil {
			return rejected
		}

		query := `
			UPDATE products
			SET name = $2, description = $3, price = $4, images = $5,
				category = $6, is_featured = $7, is_best_seller = $8,
				in_stock = $9, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + productColumns

		return core.StoreError("write product", tx.GetContext(ctx, &after, query,
			id,
			next.Name,
			next.Description,
			next.Price,
			next.Images,
			next.Category,
			next.IsFeatured,
			next.IsBestSeller,
			next.InStock,
		))
	})
	if rejected != nil {
		return nil, nil, fmt.Errorf("update product: %w", rejected)
	}
	if err != nil {
		return nil, nil, core.StoreError("update product", err)
	}

	return &before, &after, nil
}

func (r *repository) Delete(ctx context.Context, id string) (*Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	ctx, cancel := core.WithTimeout(ctx, r.timeout)
	defer cancel()

	var p Product
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, core.StoreError("delete product", err)
	}

	return &p, nil
}
