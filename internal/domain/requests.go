package domain

import (
	"html"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

var descriptionPolicy = bluemonday.StrictPolicy()

// CategoryInput captures a category form exactly as the operator typed it.
type CategoryInput struct {
	ID           string
	Name         string
	Description  string
	IconClass    string
	IsEnabled    bool
	DisplayOrder string
}

// SubCategoryInput captures a subcategory form.
type SubCategoryInput struct {
	ID               string
	Name             string
	Description      string
	IconClass        string
	IsEnabled        bool
	DisplayOrder     string
	ParentCategoryID string
}

// ProductInput captures a product form.
type ProductInput struct {
	ID            string
	Name          string
	Description   string
	Price         string
	StockQuantity string
	Category      string
	IsActive      bool
	HasVariants   bool
}

// VariantInput captures a variant form.
type VariantInput struct {
	ID            string
	ProductID     string
	Name          string
	SKU           string
	StockQuantity string
	ImageURL      string
	PriceOverride string
	IsAvailable   bool
	IsFeatured    bool
	DisplayOrder  string
}

// NewCategoryInput trims and normalises the raw form fields. No business rules are applied.
func NewCategoryInput(in CategoryInput) CategoryInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = NormalizeText(in.Name)
	in.Description = NormalizeDescription(in.Description)
	in.IconClass = normalizeIconClass(in.IconClass)
	in.DisplayOrder = strings.TrimSpace(in.DisplayOrder)
	return in
}

// NewSubCategoryInput trims and normalises the raw form fields.
func NewSubCategoryInput(in SubCategoryInput) SubCategoryInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = NormalizeText(in.Name)
	in.Description = NormalizeDescription(in.Description)
	in.IconClass = normalizeIconClass(in.IconClass)
	in.DisplayOrder = strings.TrimSpace(in.DisplayOrder)
	in.ParentCategoryID = strings.TrimSpace(in.ParentCategoryID)
	return in
}

// NewProductInput trims and normalises the raw form fields.
func NewProductInput(in ProductInput) ProductInput {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = NormalizeText(in.Name)
	in.Description = NormalizeDescription(in.Description)
	in.Price = strings.TrimSpace(in.Price)
	in.StockQuantity = strings.TrimSpace(in.StockQuantity)
	in.Category = NormalizeText(in.Category)
	return in
}

// NewVariantInput trims and normalises the raw form fields.
func NewVariantInput(in VariantInput) VariantInput {
	in.ID = strings.TrimSpace(in.ID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	in.Name = NormalizeText(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	in.StockQuantity = strings.TrimSpace(in.StockQuantity)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.PriceOverride = strings.TrimSpace(in.PriceOverride)
	in.DisplayOrder = strings.TrimSpace(in.DisplayOrder)
	return in
}

// CategoryInputFrom renders a category back into form input.
func CategoryInputFrom(c Category) CategoryInput {
	return CategoryInput{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		IconClass:    c.IconClass,
		IsEnabled:    c.IsEnabled,
		DisplayOrder: strconv.Itoa(c.DisplayOrder),
	}
}

// SubCategoryInputFrom renders a subcategory back into form input.
func SubCategoryInputFrom(s SubCategory) SubCategoryInput {
	return SubCategoryInput{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		IconClass:        s.IconClass,
		IsEnabled:        s.IsEnabled,
		DisplayOrder:     strconv.Itoa(s.DisplayOrder),
		ParentCategoryID: s.ParentCategoryID,
	}
}

// ProductInputFrom renders a product back into form input.
func ProductInputFrom(p Product) ProductInput {
	return ProductInput{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.StringFixed(2),
		StockQuantity: strconv.Itoa(p.StockQuantity),
		Category:      p.Category,
		IsActive:      p.IsActive,
		HasVariants:   p.HasVariants,
	}
}

// VariantInputFrom renders a variant back into form input.
func VariantInputFrom(v Variant) VariantInput {
	in := VariantInput{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Name:          v.Name,
		SKU:           v.SKU,
		StockQuantity: strconv.Itoa(v.StockQuantity),
		ImageURL:      v.ImageURL,
		IsAvailable:   v.IsAvailable,
		IsFeatured:    v.IsFeatured,
		DisplayOrder:  strconv.Itoa(v.DisplayOrder),
	}
	if v.PriceOverride != nil {
		in.PriceOverride = v.PriceOverride.StringFixed(2)
	}
	return in
}

// NormalizeText trims surrounding whitespace and applies Unicode NFC composition.
func NormalizeText(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// NormalizeDescription strips markup from free text and normalises it. The result is plain text:
// entities the sanitizer emits for text nodes are decoded again.
func NormalizeDescription(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	return NormalizeText(html.UnescapeString(descriptionPolicy.Sanitize(value)))
}

// FormatPrice renders a decimal with the two fractional digits used across the catalog.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func normalizeIconClass(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return DefaultIconClass
	}
	return value
}
