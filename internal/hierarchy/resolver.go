// Package hierarchy derives effective catalog state: visibility, prices, stock, the featured
// variant and display order. Nothing here mutates its inputs or performs I/O.
package hierarchy

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/domain"
)

const meterName = "github.com/hanko-field/catalog-console/internal/hierarchy"

// SubCategoryVisibility pairs a subcategory with its computed visibility.
type SubCategoryVisibility struct {
	SubCategory domain.SubCategory
	Visible     bool
}

// ResolveEffectiveVisibility annotates each subcategory. A subcategory is visible only when it
// and its parent category are both enabled. Stored flags are never changed.
func ResolveEffectiveVisibility(category domain.Category, subs []domain.SubCategory) []SubCategoryVisibility {
	out := make([]SubCategoryVisibility, 0, len(subs))
	for _, sub := range subs {
		out = append(out, SubCategoryVisibility{
			SubCategory: sub,
			Visible:     sub.IsEnabled && category.IsEnabled,
		})
	}
	return out
}

// ResolveEffectivePrice returns the variant override when present, otherwise the product price.
func ResolveEffectivePrice(product domain.Product, variant domain.Variant) decimal.Decimal {
	if variant.PriceOverride != nil {
		return *variant.PriceOverride
	}
	return product.Price
}

// ResolveEffectiveStock returns the sellable stock of a product. Products that declare variants
// and have them loaded sum their available variants; everything else uses product stock.
func ResolveEffectiveStock(product domain.Product, variants []domain.Variant) int {
	if !product.HasVariants || len(variants) == 0 {
		return product.StockQuantity
	}
	total := 0
	for _, v := range variants {
		if v.ProductID != product.ID || !v.IsAvailable {
			continue
		}
		total += v.StockQuantity
	}
	return total
}

// Resolver resolves the featured variant and reports integrity conflicts.
type Resolver struct {
	logger    *zap.Logger
	conflicts metric.Int64Counter
}

// Option customises a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	logger *zap.Logger
	meter  metric.Meter
}

// WithLogger sets the logger used for consistency warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *resolverConfig) {
		cfg.logger = logger
	}
}

// WithMeter injects a custom OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *resolverConfig) {
		cfg.meter = m
	}
}

// NewResolver constructs a Resolver. Without options it logs nowhere and uses the global meter.
func NewResolver(opts ...Option) *Resolver {
	cfg := resolverConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.meter == nil {
		cfg.meter = otel.Meter(meterName)
	}
	r := &Resolver{logger: cfg.logger}
	if counter, err := cfg.meter.Int64Counter(
		"catalog.featured_conflicts",
		metric.WithDescription("Products observed with more than one featured variant"),
	); err == nil {
		r.conflicts = counter
	}
	return r
}

// ResolveFeaturedVariant returns the featured variant, if any. When several are featured the
// one with the lowest DisplayOrder (then ID) wins and a consistency warning is emitted.
func (r *Resolver) ResolveFeaturedVariant(ctx context.Context, variants []domain.Variant) (domain.Variant, bool) {
	var featured []domain.Variant
	for _, v := range variants {
		if v.IsFeatured {
			featured = append(featured, v)
		}
	}
	switch len(featured) {
	case 0:
		return domain.Variant{}, false
	case 1:
		return featured[0], true
	}

	sort.SliceStable(featured, func(i, j int) bool {
		if featured[i].DisplayOrder != featured[j].DisplayOrder {
			return featured[i].DisplayOrder < featured[j].DisplayOrder
		}
		return featured[i].ID < featured[j].ID
	})
	winner := featured[0]
	if r != nil {
		ids := make([]string, 0, len(featured))
		for _, v := range featured {
			ids = append(ids, v.ID)
		}
		r.logger.Warn("multiple featured variants for product",
			zap.String("product_id", winner.ProductID),
			zap.Strings("variant_ids", ids),
			zap.String("resolved_variant_id", winner.ID),
		)
		if r.conflicts != nil {
			r.conflicts.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", winner.ProductID)))
		}
	}
	return winner, true
}
