package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultIconClass is applied to categories and subcategories created without an icon.
const DefaultIconClass = "bi-tag"

// EntityKind identifies the catalog entity family a value or mutation belongs to.
type EntityKind string

const (
	// EntityCategory identifies top-level categories.
	EntityCategory EntityKind = "category"
	// EntitySubCategory identifies subcategories listed under a category.
	EntitySubCategory EntityKind = "subcategory"
	// EntityProduct identifies products.
	EntityProduct EntityKind = "product"
	// EntityVariant identifies product variants.
	EntityVariant EntityKind = "variant"
)

// Valid reports whether the kind is one of the known entity kinds.
func (k EntityKind) Valid() bool {
	switch k {
	case EntityCategory, EntitySubCategory, EntityProduct, EntityVariant:
		return true
	default:
		return false
	}
}

// Category groups subcategories. SubCategoryIDs lists members only; it does not own their lifecycle.
type Category struct {
	ID             string
	Name           string
	Description    string
	IconClass      string
	IsEnabled      bool
	DisplayOrder   int
	SubCategoryIDs []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubCategory belongs to exactly one parent category.
type SubCategory struct {
	ID               string
	Name             string
	Description      string
	IconClass        string
	IsEnabled        bool
	DisplayOrder     int
	ParentCategoryID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Product is a sellable item. HasVariants records intent and may be true with no variants loaded.
type Product struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	Category      string
	IsActive      bool
	HasVariants   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Variant is a purchasable option of a product with its own stock.
type Variant struct {
	ID            string
	ProductID     string
	Name          string
	SKU           string
	StockQuantity int
	ImageURL      string
	PriceOverride *decimal.Decimal
	IsAvailable   bool
	IsFeatured    bool
	DisplayOrder  int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Equal reports structural equality between two categories.
func (c Category) Equal(other Category) bool {
	if c.ID != other.ID || c.Name != other.Name || c.Description != other.Description ||
		c.IconClass != other.IconClass || c.IsEnabled != other.IsEnabled || c.DisplayOrder != other.DisplayOrder {
		return false
	}
	if !c.CreatedAt.Equal(other.CreatedAt) || !c.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	return equalStrings(c.SubCategoryIDs, other.SubCategoryIDs)
}

// Equal reports structural equality between two products. Prices compare by value.
func (p Product) Equal(other Product) bool {
	return p.ID == other.ID && p.Name == other.Name && p.Description == other.Description &&
		p.Price.Equal(other.Price) && p.StockQuantity == other.StockQuantity && p.Category == other.Category &&
		p.IsActive == other.IsActive && p.HasVariants == other.HasVariants &&
		p.CreatedAt.Equal(other.CreatedAt) && p.UpdatedAt.Equal(other.UpdatedAt)
}

// Equal reports structural equality between two variants. Price overrides compare by value.
func (v Variant) Equal(other Variant) bool {
	if v.ID != other.ID || v.ProductID != other.ProductID || v.Name != other.Name || v.SKU != other.SKU ||
		v.StockQuantity != other.StockQuantity || v.ImageURL != other.ImageURL || v.IsAvailable != other.IsAvailable ||
		v.IsFeatured != other.IsFeatured || v.DisplayOrder != other.DisplayOrder {
		return false
	}
	if !v.CreatedAt.Equal(other.CreatedAt) || !v.UpdatedAt.Equal(other.UpdatedAt) {
		return false
	}
	switch {
	case v.PriceOverride == nil && other.PriceOverride == nil:
		return true
	case v.PriceOverride == nil || other.PriceOverride == nil:
		return false
	default:
		return v.PriceOverride.Equal(*other.PriceOverride)
	}
}

// Clone returns a copy that shares no mutable state with the receiver.
func (c Category) Clone() Category {
	c.SubCategoryIDs = cloneStrings(c.SubCategoryIDs)
	return c
}

// Clone returns a copy that shares no mutable state with the receiver.
func (v Variant) Clone() Variant {
	if v.PriceOverride != nil {
		override := *v.PriceOverride
		v.PriceOverride = &override
	}
	return v
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
