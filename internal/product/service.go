// AngelaMos | 2026
// service.go

package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/storefront/internal/core"
)

type ChangeKind string

const (
	ChangeCreated           ChangeKind = "created"
	ChangeUpdated           ChangeKind = "updated"
	ChangeDeleted           ChangeKind = "deleted"
	ChangeFeaturedToggled   ChangeKind = "featured_toggled"
	ChangeBestSellerToggled ChangeKind = "best_seller_toggled"
	ChangeStockToggled      ChangeKind = "stock_toggled"
)

// Change describes a committed write. Before is nil for creates, After
// is nil for deletes.
type Change struct {
	Kind   ChangeKind
	Before *Product
	After  *Product
}

// Observer is told about every committed write before the service
// returns. An observer error fails the call even though the write
// itself has committed.
type Observer interface {
	ProductChanged(ctx context.Context, change Change) error
}

type Service struct {
	repo      Repository
	observers []Observer
	logger    *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger, observers ...Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		observers: observers,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("create product: negative price: %w", core.ErrInvalidInput)
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}

	p := &Product{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price.Round(2),
		Images:       append(Images{}, req.Images...),
		Category:     strings.TrimSpace(req.Category),
		IsFeatured:   req.IsFeatured,
		IsBestSeller: req.IsBestSeller,
		InStock:      inStock,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product.created", "product_id", p.ID)
	if err := s.notify(ctx, Change{Kind: ChangeCreated, After: p}); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params ListParams) ([]Product, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateProductRequest,
) (*Product, error) {
	if req.Price != nil && req.Price.IsNegative() {
		return nil, fmt.Errorf("update product: negative price: %w", core.ErrInvalidInput)
	}

	return s.mutate(ctx, id, ChangeUpdated, func(p *Product) error {
		req.apply(p)
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}

	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.logger.Info("product.deleted", "product_id", id)
	return s.notify(ctx, Change{Kind: ChangeDeleted, Before: p})
}

func (s *Service) ToggleFeatured(ctx context.Context, id string) (*Product, error) {
	return s.mutate(ctx, id, ChangeFeaturedToggled, func(p *Product) error {
		p.IsFeatured = !p.IsFeatured
		return nil
	})
}

func (s *Service) ToggleBestSeller(ctx context.Context, id string) (*Product, error) {
	return s.mutate(ctx, id, ChangeBestSellerToggled, func(p *Product) error {
		p.IsBestSeller = !p.IsBestSeller
		return nil
	})
}

func (s *Service) ToggleStock(ctx context.Context, id string) (*Product, error) {
	return s.mutate(ctx, id, ChangeStockToggled, func(p *Product) error {
		p.InStock = !p.InStock
		return nil
	})
}

func (s *Service) mutate(
	ctx context.Context,
	id string,
	kind ChangeKind,
	fn func(*Product) error,
) (*Product, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	before, after, err := s.repo.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}

	s.logger.Info("product.updated", "product_id", id, "change", string(kind))
	if err := s.notify(ctx, Change{Kind: kind, Before: before, After: after}); err != nil {
		return nil, err
	}
	return after, nil
}

func (s *Service) notify(ctx context.Context, change Change) error {
	var errs []error
	for _, obs := range s.observers {
		if err := obs.ProductChanged(ctx, change); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("product %s %s: %w", subjectID(change), change.Kind, errors.Join(errs...))
	}
	return nil
}

func subjectID(c Change) string {
	if c.After != nil {
		return c.After.ID
	}
	if c.Before != nil {
		return c.Before.ID
	}
	return ""
}

// checkID keeps malformed IDs away from the uuid column, where they would
// surface as a driver error instead of a miss.
func checkID(id string) error {
	if err := uuid.Validate(id); err != nil {
		return fmt.Errorf("product %q: %w", id, core.ErrNotFound)
	}
	return nil
}
