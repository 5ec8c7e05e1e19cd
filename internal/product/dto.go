// AngelaMos | 2026
// dto.go

package product

import (
	"strings"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name         string          `json:"name"         validate:"required,min=1,max=200"`
	Description  string          `json:"description"  validate:"max=5000"`
	Price        decimal.Decimal `json:"price"`
	Images       []string        `json:"images"       validate:"max=10,dive,url"`
	Category     string          `json:"category"     validate:"required,min=1,max=100"`
	IsFeatured   bool            `json:"isFeatured"`
	IsBestSeller bool            `json:"isBestSeller"`
	InStock      *bool           `json:"inStock"`
}

// UpdateProductRequest applies only the fields that are present.
type UpdateProductRequest struct {
	Name         *string          `json:"name"         validate:"omitempty,min=1,max=200"`
	Description  *string          `json:"description"  validate:"omitempty,max=5000"`
	Price        *decimal.Decimal `json:"price"`
	Images       []string         `json:"images"       validate:"omitempty,max=10,dive,url"`
	Category     *string          `json:"category"     validate:"omitempty,min=1,max=100"`
	IsFeatured   *bool            `json:"isFeatured"`
	IsBestSeller *bool            `json:"isBestSeller"`
	InStock      *bool            `json:"inStock"`
}

func (r *UpdateProductRequest) apply(p *Product) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = r.Price.Round(2)
	}
	if r.Images != nil {
		p.Images = append(Images(nil), r.Images...)
	}
	if r.Category != nil {
		p.Category = strings.TrimSpace(*r.Category)
	}
	if r.IsFeatured != nil {
		p.IsFeatured = *r.IsFeatured
	}
	if r.IsBestSeller != nil {
		p.IsBestSeller = *r.IsBestSeller
	}
	if r.InStock != nil {
		p.InStock = *r.InStock
	}
}

type ListParams struct {
	Page     int
	PageSize int
	Category string
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}
