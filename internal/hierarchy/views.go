package hierarchy

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/hanko-field/catalog-console/internal/domain"
)

// CategoryView is a category with its resolved, ordered children.
type CategoryView struct {
	Category      domain.Category
	SubCategories []SubCategoryVisibility
}

// ProductView is a product with variant-derived state resolved for display.
type ProductView struct {
	Product          domain.Product
	Variants         []VariantView
	Featured         *domain.Variant
	EffectiveStock   int
	MinPrice         decimal.Decimal
	MaxPrice         decimal.Decimal
	AwaitingVariants bool
}

// VariantView is a variant with its effective price.
type VariantView struct {
	Variant        domain.Variant
	EffectivePrice decimal.Decimal
}

// DeleteImpact describes what deleting a category would leave behind. It never blocks.
type DeleteImpact struct {
	CategoryID     string
	MemberCount    int
	SubCategoryIDs []string
	Warning        string
}

// BuildCategoryTree resolves every category in the snapshot into display order with
// visibility-annotated subcategories. Subcategories with an unknown parent are skipped.
func BuildCategoryTree(snapshot *domain.CatalogSnapshot) []CategoryView {
	categories := SortForDisplay(snapshot.Categories())
	out := make([]CategoryView, 0, len(categories))
	for _, cat := range categories {
		subs := SortForDisplay(snapshot.SubCategoriesOf(cat.ID))
		out = append(out, CategoryView{
			Category:      cat,
			SubCategories: ResolveEffectiveVisibility(cat, subs),
		})
	}
	return out
}

// ResolveProductView computes the display state of one product.
func (r *Resolver) ResolveProductView(ctx context.Context, product domain.Product, variants []domain.Variant) ProductView {
	ordered := SortForDisplay(variants)
	view := ProductView{
		Product:          product,
		Variants:         make([]VariantView, 0, len(ordered)),
		EffectiveStock:   ResolveEffectiveStock(product, ordered),
		MinPrice:         product.Price,
		MaxPrice:         product.Price,
		AwaitingVariants: product.HasVariants && len(ordered) == 0,
	}
	for i, v := range ordered {
		price := ResolveEffectivePrice(product, v)
		view.Variants = append(view.Variants, VariantView{Variant: v, EffectivePrice: price})
		if i == 0 {
			view.MinPrice, view.MaxPrice = price, price
			continue
		}
		if price.LessThan(view.MinPrice) {
			view.MinPrice = price
		}
		if price.GreaterThan(view.MaxPrice) {
			view.MaxPrice = price
		}
	}
	if featured, ok := r.ResolveFeaturedVariant(ctx, ordered); ok {
		view.Featured = &featured
	}
	return view
}

// CategoryDeleteImpact reports the subcategories still listed under a category.
func CategoryDeleteImpact(snapshot *domain.CatalogSnapshot, categoryID string) DeleteImpact {
	impact := DeleteImpact{CategoryID: categoryID}
	seen := make(map[string]struct{})
	if cat, ok := snapshot.Category(categoryID); ok {
		for _, id := range cat.SubCategoryIDs {
			seen[id] = struct{}{}
		}
	}
	for _, sub := range snapshot.SubCategoriesOf(categoryID) {
		seen[sub.ID] = struct{}{}
	}
	for id := range seen {
		impact.SubCategoryIDs = append(impact.SubCategoryIDs, id)
	}
	sort.Strings(impact.SubCategoryIDs)
	impact.MemberCount = len(impact.SubCategoryIDs)
	if impact.MemberCount > 0 {
		impact.Warning = fmt.Sprintf("category %s still lists %d subcategories; the catalog service decides what happens to them", categoryID, impact.MemberCount)
	}
	return impact
}
