// AngelaMos | 2026
// entity.go

package product

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string          `db:"id"             json:"id"`
	Name         string          `db:"name"           json:"name"`
	Description  string          `db:"description"    json:"description"`
	Price        decimal.Decimal `db:"price"          json:"price"`
	Images       Images          `db:"images"         json:"images"`
	Category     string          `db:"category"       json:"category"`
	IsFeatured   bool            `db:"is_featured"    json:"isFeatured"`
	IsBestSeller bool            `db:"is_best_seller" json:"isBestSeller"`
	InStock      bool            `db:"in_stock"       json:"inStock"`
	CreatedAt    time.Time       `db:"created_at"     json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at"     json:"updatedAt"`
}

// Flag names a boolean column that defines a product view.
type Flag string

const (
	FlagFeatured   Flag = "is_featured"
	FlagBestSeller Flag = "is_best_seller"
)

func (f Flag) valid() bool {
	return f == FlagFeatured || f == FlagBestSeller
}

// Has reports whether p carries flag f.
func (p *Product) Has(f Flag) bool {
	switch f {
	case FlagFeatured:
		return p.IsFeatured
	case FlagBestSeller:
		return p.IsBestSeller
	default:
		return false
	}
}

// Images is stored as a JSONB array of URLs.
type Images []string

func (i Images) Value() (driver.Value, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]string(i))
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	return b, nil
}

func (i *Images) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*i = Images{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan images: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan images: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*i = out
	return nil
}

func (i Images) MarshalJSON() ([]byte, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(i))
}

func (p *Product) clone() *Product {
	cp := *p
	if p.Images != nil {
		cp.Images = append(Images(nil), p.Images...)
	}
	return &cp
}
