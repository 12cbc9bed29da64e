// Package validation checks proposed catalog mutations before they are dispatched.
// Every function here is synchronous and free of I/O.
package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/catalog-console/internal/domain"
)

const (
	categoryNameMin = 2
	variantNameMin  = 1
	nameMax         = 100
	priceScale      = 2
)

// SKUScope selects how widely variant SKUs must be unique.
type SKUScope string

const (
	// SKUScopeNone performs no SKU uniqueness check.
	SKUScopeNone SKUScope = "none"
	// SKUScopeProduct requires unique SKUs among the variants of one product.
	SKUScopeProduct SKUScope = "product"
	// SKUScopeGlobal requires unique SKUs across every loaded variant.
	SKUScopeGlobal SKUScope = "global"
)

// ParseSKUScope converts configuration text into a scope. Empty input selects SKUScopeNone.
func ParseSKUScope(raw string) (SKUScope, error) {
	switch SKUScope(strings.ToLower(strings.TrimSpace(raw))) {
	case "", SKUScopeNone:
		return SKUScopeNone, nil
	case SKUScopeProduct:
		return SKUScopeProduct, nil
	case SKUScopeGlobal:
		return SKUScopeGlobal, nil
	default:
		return "", fmt.Errorf("validation: unknown sku scope %q", raw)
	}
}

// CompanionInstruction asks the coordinator to clear fields on a sibling variant once the
// primary mutation has committed.
type CompanionInstruction struct {
	VariantID string
	Fields    []string
}

// VariantPlan is an accepted variant together with the companion writes it implies.
type VariantPlan struct {
	Variant    domain.Variant
	Companions []CompanionInstruction
}

// Engine carries the configurable parts of variant validation.
type Engine struct {
	skuScope        SKUScope
	catalogVariants func() []domain.Variant
}

// Option customises an Engine.
type Option func(*Engine)

// WithSKUScope sets the SKU uniqueness scope.
func WithSKUScope(scope SKUScope) Option {
	return func(e *Engine) {
		e.skuScope = scope
	}
}

// WithCatalogVariants supplies every loaded variant for SKUScopeGlobal checks.
func WithCatalogVariants(fn func() []domain.Variant) Option {
	return func(e *Engine) {
		e.catalogVariants = fn
	}
}

// NewEngine constructs an engine. The default performs no SKU checks.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{skuScope: SKUScopeNone}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// SKUScope reports the configured uniqueness scope.
func (e *Engine) SKUScope() SKUScope {
	if e == nil {
		return SKUScopeNone
	}
	return e.skuScope
}

// ValidateCategory normalises and checks a category form.
func ValidateCategory(in domain.CategoryInput) (domain.Category, error) {
	in = domain.NewCategoryInput(in)
	var c collector
	checkName(&c, in.Name, categoryNameMin)
	order := parseOrder(&c, in.DisplayOrder)
	if err := c.err(); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{
		ID:           in.ID,
		Name:         in.Name,
		Description:  in.Description,
		IconClass:    in.IconClass,
		IsEnabled:    in.IsEnabled,
		DisplayOrder: order,
	}, nil
}

// ValidateSubCategory normalises and checks a subcategory form. When parents is nil only the
// presence of a parent identifier is checked.
func ValidateSubCategory(in domain.SubCategoryInput, parents map[string]struct{}) (domain.SubCategory, error) {
	in = domain.NewSubCategoryInput(in)
	var c collector
	checkName(&c, in.Name, categoryNameMin)
	order := parseOrder(&c, in.DisplayOrder)
	switch {
	case in.ParentCategoryID == "":
		c.add(FieldParent, CodeParentRequired)
	case parents != nil:
		if _, ok := parents[in.ParentCategoryID]; !ok {
			c.add(FieldParent, CodeParentNotFound)
		}
	}
	if err := c.err(); err != nil {
		return domain.SubCategory{}, err
	}
	return domain.SubCategory{
		ID:               in.ID,
		Name:             in.Name,
		Description:      in.Description,
		IconClass:        in.IconClass,
		IsEnabled:        in.IsEnabled,
		DisplayOrder:     order,
		ParentCategoryID: in.ParentCategoryID,
	}, nil
}

// ValidateProduct normalises and checks a product form.
func ValidateProduct(in domain.ProductInput) (domain.Product, error) {
	in = domain.NewProductInput(in)
	var c collector
	checkName(&c, in.Name, variantNameMin)
	var price decimal.Decimal
	if in.Price == "" {
		c.add(FieldPrice, CodePriceRequired)
	} else if parsed, ok := parsePositivePrice(in.Price); ok {
		price = parsed
	} else {
		c.add(FieldPrice, CodePriceInvalid)
	}
	stock := parseStock(&c, in.StockQuantity)
	if err := c.err(); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		ID:            in.ID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         price,
		StockQuantity: stock,
		Category:      in.Category,
		IsActive:      in.IsActive,
		HasVariants:   in.HasVariants,
	}, nil
}

// ValidateVariant checks a variant form with the default engine.
func ValidateVariant(in domain.VariantInput, siblings []domain.Variant) (VariantPlan, error) {
	return NewEngine().ValidateVariant(in, siblings)
}

// ValidateVariant normalises and checks a variant form against its siblings. A featured
// variant is never rejected; every other featured sibling yields a companion instruction.
func (e *Engine) ValidateVariant(in domain.VariantInput, siblings []domain.Variant) (VariantPlan, error) {
	in = domain.NewVariantInput(in)
	var c collector
	if in.ProductID == "" {
		c.add(FieldProduct, CodeParentRequired)
	}
	checkName(&c, in.Name, variantNameMin)
	stock := parseStock(&c, in.StockQuantity)
	var override *decimal.Decimal
	if in.PriceOverride != "" {
		if parsed, ok := parsePositivePrice(in.PriceOverride); ok {
			override = &parsed
		} else {
			c.add(FieldPriceOverride, CodePriceInvalid)
		}
	}
	order := parseOrder(&c, in.DisplayOrder)
	if e.skuTaken(in, siblings) {
		c.add(FieldSKU, CodeSKUDuplicate)
	}
	if err := c.err(); err != nil {
		return VariantPlan{}, err
	}

	plan := VariantPlan{
		Variant: domain.Variant{
			ID:            in.ID,
			ProductID:     in.ProductID,
			Name:          in.Name,
			SKU:           in.SKU,
			StockQuantity: stock,
			ImageURL:      in.ImageURL,
			PriceOverride: override,
			IsAvailable:   in.IsAvailable,
			IsFeatured:    in.IsFeatured,
			DisplayOrder:  order,
		},
	}
	if in.IsFeatured {
		plan.Companions = FeaturedCompanions(in.ID, siblings)
	}
	return plan, nil
}

// FeaturedCompanions lists the clear-featured instructions needed when variantID becomes the
// featured variant among siblings. Output is ordered by sibling identifier.
func FeaturedCompanions(variantID string, siblings []domain.Variant) []CompanionInstruction {
	var out []CompanionInstruction
	for _, sib := range siblings {
		if !sib.IsFeatured || sib.ID == "" || sib.ID == variantID {
			continue
		}
		out = append(out, CompanionInstruction{VariantID: sib.ID, Fields: []string{FieldIsFeatured}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out
}

func (e *Engine) skuTaken(in domain.VariantInput, siblings []domain.Variant) bool {
	if e == nil || in.SKU == "" {
		return false
	}
	var pool []domain.Variant
	switch e.skuScope {
	case SKUScopeProduct:
		pool = siblings
	case SKUScopeGlobal:
		if e.catalogVariants != nil {
			pool = e.catalogVariants()
		} else {
			pool = siblings
		}
	default:
		return false
	}
	for _, v := range pool {
		if v.ID != "" && v.ID == in.ID {
			continue
		}
		if e.skuScope == SKUScopeProduct && v.ProductID != "" && v.ProductID != in.ProductID {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(v.SKU), in.SKU) {
			return true
		}
	}
	return false
}

func checkName(c *collector, name string, min int) {
	length := utf8.RuneCountInString(name)
	switch {
	case length == 0:
		c.add(FieldName, CodeNameRequired)
	case length < min:
		c.add(FieldName, CodeNameTooShort)
	case length > nameMax:
		c.add(FieldName, CodeNameTooLong)
	}
}

func parseOrder(c *collector, raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.add(FieldDisplayOrder, CodeInvalidOrder)
		return 0
	}
	return n
}

func parseStock(c *collector, raw string) int {
	if raw == "" {
		c.add(FieldStockQuantity, CodeStockRequired)
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.add(FieldStockQuantity, CodeStockInvalid)
		return 0
	}
	return n
}

// parsePositivePrice accepts positive amounts with at most two significant fractional digits.
// "1.50" and "1.500" pass; "1.005" is rejected rather than rounded.
func parsePositivePrice(raw string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() || !d.Equal(d.Truncate(priceScale)) {
		return decimal.Decimal{}, false
	}
	return d.Round(priceScale), true
}
