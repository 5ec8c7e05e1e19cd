// AngelaMos | 2026
// invalidator_test.go

package productview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carterperez-dev/storefront/internal/product"
)

func flags(featured, bestSeller bool) *product.Product {
	return &product.Product{IsFeatured: featured, IsBestSeller: bestSeller}
}

func TestAffected(t *testing.T) {
	tests := []struct {
		name           string
		change         product.Change
		wantFeatured   bool
		wantBestSeller bool
	}{
		{
			name:         "created featured",
			change:       product.Change{Kind: product.ChangeCreated, After: flags(true, false)},
			wantFeatured: true,
		},
		{
			name:   "created plain",
			change: product.Change{Kind: product.ChangeCreated, After: flags(false, false)},
		},
		{
			name:           "deleted best seller",
			change:         product.Change{Kind: product.ChangeDeleted, Before: flags(false, true)},
			wantBestSeller: true,
		},
		{
			name: "featured toggled off",
			change: product.Change{
				Kind: product.ChangeFeaturedToggled, Before: flags(true, true), After: flags(false, true),
			},
			wantFeatured: true,
		},
		{
			name: "best seller toggled on",
			change: product.Change{
				Kind: product.ChangeBestSellerToggled, Before: flags(false, false), After: flags(false, true),
			},
			wantBestSeller: true,
		},
		{
			name: "stock toggled on featured",
			change: product.Change{
				Kind: product.ChangeStockToggled, Before: flags(true, false), After: flags(true, false),
			},
			wantFeatured: true,
		},
		{
			name: "stock toggled on plain",
			change: product.Change{
				Kind: product.ChangeStockToggled, Before: flags(false, false), After: flags(false, false),
			},
		},
		{
			name: "update leaving a view",
			change: product.Change{
				Kind: product.ChangeUpdated, Before: flags(true, false), After: flags(false, false),
			},
			wantFeatured:   true,
			wantBestSeller: true,
		},
		{
			name: "update on plain product",
			change: product.Change{
				Kind: product.ChangeUpdated, Before: flags(false, false), After: flags(false, false),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			featured, bestSeller := affected(tt.change)
			assert.Equal(t, tt.wantFeatured, featured)
			assert.Equal(t, tt.wantBestSeller, bestSeller)
		})
	}
}
