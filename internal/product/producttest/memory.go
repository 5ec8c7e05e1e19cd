// AngelaMos | 2026
// memory.go

// Package producttest provides an in-memory product.Repository for tests.
package producttest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/storefront/internal/core"
	"github.com/carterperez-dev/storefront/internal/product"
)

type Repository struct {
	mu       sync.Mutex
	products map[string]*product.Product
	clock    time.Time

	// WriteErr, when set, fails every mutation before it is applied.
	WriteErr error
	// ReadErr, when set, fails FindByFlag.
	ReadErr error
	// FlagReads counts FindByFlag calls.
	FlagReads int
}

func NewRepository() *Repository {
	return &Repository{
		products: make(map[string]*product.Product),
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (r *Repository) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *Repository) Create(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return fmt.Errorf("create product: %w", r.WriteErr)
	}
	if p.Images == nil {
		p.Images = product.Images{}
	}

	now := r.tick()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = copyOf(p)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("get product: %w", core.ErrNotFound)
	}
	return copyOf(p), nil
}

func (r *Repository) List(
	_ context.Context,
	params product.ListParams,
) ([]product.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	params.Normalize()
	all := r.sorted(func(p *product.Product) bool {
		return params.Category == "" || p.Category == params.Category
	})

	total := len(all)
	start := min(params.Offset(), total)
	end := min(start+params.PageSize, total)
	return all[start:end], total, nil
}

func (r *Repository) FindByFlag(
	_ context.Context,
	flag product.Flag,
) ([]product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.FlagReads++
	if r.ReadErr != nil {
		return nil, fmt.Errorf("find by flag: %w", r.ReadErr)
	}
	return r.sorted(func(p *product.Product) bool { return p.Has(flag) }), nil
}

func (r *Repository) Update(
	_ context.Context,
	id string,
	fn func(*product.Product) error,
) (*product.Product, *product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return nil, nil, fmt.Errorf("update product: %w", r.WriteErr)
	}

	current, ok := r.products[id]
	if !ok {
		return nil, nil, fmt.Errorf("update product: %w", core.ErrNotFound)
	}

	before := copyOf(current)
	next := copyOf(current)
	if err := fn(next); err != nil {
		return nil, nil, fmt.Errorf("update product: %w", err)
	}
	next.UpdatedAt = r.tick()
	r.products[id] = copyOf(next)

	return before, next, nil
}

func (r *Repository) Delete(_ context.Context, id string) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return nil, fmt.Errorf("delete product: %w", r.WriteErr)
	}

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("delete product: %w", core.ErrNotFound)
	}
	delete(r.products, id)
	return copyOf(p), nil
}

func (r *Repository) sorted(keep func(*product.Product) bool) []product.Product {
	out := []product.Product{}
	for _, p := range r.products {
		if keep(p) {
			out = append(out, *copyOf(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func copyOf(p *product.Product) *product.Product {
	cp := *p
	cp.Images = append(product.Images{}, p.Images...)
	return &cp
}

var _ product.Repository = (*Repository)(nil)
