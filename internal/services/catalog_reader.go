package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/hierarchy"
	"github.com/hanko-field/catalog-console/internal/repositories"
)

// CatalogReaderDeps bundles constructor inputs for the catalog reader.
type CatalogReaderDeps struct {
	Catalog         repositories.CatalogRepository
	Snapshot        *SnapshotStore
	Resolver        *hierarchy.Resolver
	Logger          *zap.Logger
	Clock           func() time.Time
	IncludeDisabled bool
}

type loadState struct {
	loading bool
	loaded  bool
	err     error
}

type catalogReader struct {
	repo            repositories.CatalogRepository
	store           *SnapshotStore
	resolver        *hierarchy.Resolver
	logger          *zap.Logger
	clock           func() time.Time
	includeDisabled bool

	mu         sync.Mutex
	categories loadState
	variants   map[string]loadState
}

// NewCatalogReader wires dependencies into a CatalogReader.
func NewCatalogReader(deps CatalogReaderDeps) (CatalogReader, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog reader: catalog repository is required")
	}
	if deps.Snapshot == nil {
		return nil, errors.New("catalog reader: snapshot store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = hierarchy.NewResolver(hierarchy.WithLogger(logger))
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogReader{
		repo:            deps.Catalog,
		store:           deps.Snapshot,
		resolver:        resolver,
		logger:          logger,
		clock:           func() time.Time { return clock().UTC() },
		includeDisabled: deps.IncludeDisabled,
		variants:        make(map[string]loadState),
	}, nil
}

// Refresh loads every category, subcategory, product and variant into a fresh snapshot. On failure
// the previous snapshot is kept.
func (r *catalogReader) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.categories.loading = true
	r.mu.Unlock()

	since := r.store.beginLoad()
	loaded, err := r.load(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories.loading = false
	if err != nil {
		r.store.finishLoad(since, nil)
		r.categories.err = err
		r.logger.Warn("catalog refresh failed", zap.Error(err))
		return err
	}
	snap := r.store.finishLoad(since, func(*domain.CatalogSnapshot) *domain.CatalogSnapshot { return loaded })
	r.categories = loadState{loaded: true}
	r.variants = make(map[string]loadState)
	for _, p := range snap.Products() {
		r.variants[p.ID] = loadState{loaded: true}
	}
	r.logger.Debug("catalog refreshed",
		zap.Int("categories", len(snap.Categories())),
		zap.Int("products", len(snap.Products())),
	)
	return nil
}

func (r *catalogReader) load(ctx context.Context) (*domain.CatalogSnapshot, error) {
	categories, err := r.repo.ListCategories(ctx, r.includeDisabled)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	subs, err := r.repo.ListSubCategories(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list subcategories: %w", err)
	}
	products, err := r.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var variants []domain.Variant
	for _, p := range products {
		vs, err := r.repo.ListVariants(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list variants of %s: %w", p.ID, err)
		}
		variants = append(variants, vs...)
	}
	return domain.NewCatalogSnapshot(categories, subs, products, variants, r.clock()), nil
}

// LoadVariants reloads one product and its variants.
func (r *catalogReader) LoadVariants(ctx context.Context, productID string) error {
	r.mu.Lock()
	state := r.variants[productID]
	state.loading = true
	r.variants[productID] = state
	r.mu.Unlock()

	since := r.store.beginLoad()
	product, err := r.repo.GetProduct(ctx, productID)
	var variants []domain.Variant
	if err == nil {
		variants, err = r.repo.ListVariants(ctx, productID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.store.finishLoad(since, nil)
		r.variants[productID] = loadState{loaded: state.loaded, err: err}
		return err
	}
	r.store.finishLoad(since, func(s *domain.CatalogSnapshot) *domain.CatalogSnapshot {
		next := s.WithoutProduct(productID).WithProduct(product)
		for _, v := range variants {
			next = next.WithVariant(v)
		}
		return next
	})
	r.variants[productID] = loadState{loaded: true}
	return nil
}

func (r *catalogReader) CategoriesState() domain.ResourceState[[]hierarchy.CategoryView] {
	r.mu.Lock()
	state := r.categories
	r.mu.Unlock()
	switch {
	case state.loading:
		return domain.Loading[[]hierarchy.CategoryView]()
	case state.err != nil:
		return domain.Failed[[]hierarchy.CategoryView](state.err)
	case !state.loaded:
		return domain.Loading[[]hierarchy.CategoryView]()
	}
	return domain.Ready(hierarchy.BuildCategoryTree(r.store.Load()))
}

func (r *catalogReader) VariantsState(productID string) domain.ResourceState[[]hierarchy.VariantView] {
	r.mu.Lock()
	state := r.variants[productID]
	r.mu.Unlock()
	switch {
	case state.loading:
		return domain.Loading[[]hierarchy.VariantView]()
	case state.err != nil:
		return domain.Failed[[]hierarchy.VariantView](state.err)
	}
	snap := r.store.Load()
	product, ok := snap.Product(productID)
	if !ok {
		return domain.Failed[[]hierarchy.VariantView](fmt.Errorf("%w: product %s", ErrNotLoaded, productID))
	}
	views := make([]hierarchy.VariantView, 0)
	for _, v := range hierarchy.SortForDisplay(snap.VariantsOf(productID)) {
		views = append(views, hierarchy.VariantView{Variant: v, EffectivePrice: hierarchy.ResolveEffectivePrice(product, v)})
	}
	return domain.Ready(views)
}

func (r *catalogReader) ProductView(ctx context.Context, productID string) (hierarchy.ProductView, error) {
	snap := r.store.Load()
	product, ok := snap.Product(productID)
	if !ok {
		return hierarchy.ProductView{}, fmt.Errorf("%w: product %s", ErrNotLoaded, productID)
	}
	return r.resolver.ResolveProductView(ctx, product, snap.VariantsOf(productID)), nil
}

func (r *catalogReader) Snapshot() *domain.CatalogSnapshot {
	return r.store.Load()
}
