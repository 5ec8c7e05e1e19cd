// AngelaMos | 2026
// invalidator.go

package productview

import (
	"context"
	"errors"
	"log/slog"

	"github.com/carterperez-dev/storefront/internal/product"
)

// Invalidator recomputes the views a committed product write can affect.
// It reports an error only when a view could be neither refreshed nor
// dropped.
type Invalidator struct {
	views  *Views
	logger *slog.Logger
}

func NewInvalidator(views *Views, logger *slog.Logger) *Invalidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Invalidator{views: views, logger: logger}
}

func (i *Invalidator) ProductChanged(ctx context.Context, change product.Change) error {
	featured, bestSellers := affected(change)

	var errs []error
	if featured {
		if err := i.views.InvalidateFeatured(ctx); err != nil {
			i.failed(change, featuredView, err)
			errs = append(errs, err)
		}
	}
	if bestSellers {
		if err := i.views.InvalidateBestSellers(ctx); err != nil {
			i.failed(change, bestSellersView, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (i *Invalidator) failed(change product.Change, vw view, err error) {
	attrs := []any{
		"view", vw.name,
		"change", string(change.Kind),
		"error", err,
	}
	if p := subject(change); p != nil {
		attrs = append(attrs, "product_id", p.ID)
	}
	i.logger.Error("product_view.invalidation_failed", attrs...)
}

// affected maps a change to the views whose contents it can alter.
func affected(c product.Change) (featured, bestSellers bool) {
	switch c.Kind {
	case product.ChangeCreated:
		return c.After.IsFeatured, c.After.IsBestSeller
	case product.ChangeDeleted:
		return c.Before.IsFeatured, c.Before.IsBestSeller
	case product.ChangeFeaturedToggled:
		return true, false
	case product.ChangeBestSellerToggled:
		return false, true
	case product.ChangeStockToggled:
		return c.After.IsFeatured, c.After.IsBestSeller
	case product.ChangeUpdated:
		flagged := c.Before.IsFeatured || c.Before.IsBestSeller ||
			c.After.IsFeatured || c.After.IsBestSeller
		return flagged, flagged
	default:
		return false, false
	}
}

func subject(c product.Change) *product.Product {
	if c.After != nil {
		return c.After
	}
	return c.Before
}

var _ product.Observer = (*Invalidator)(nil)
