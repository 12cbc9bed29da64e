// Package memory provides an in-process Catalog Service used for local runs and tests.
package memory

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hanko-field/catalog-console/internal/domain"
	"github.com/hanko-field/catalog-console/internal/repositories"
)

// Hook runs before every operation, outside the store lock. Returning an error fails the call.
type Hook func(ctx context.Context, method string) error

// Option customises a CatalogService.
type Option func(*CatalogService)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(s *CatalogService) {
		if clock != nil {
			s.now = func() time.Time { return clock().UTC() }
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *CatalogService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithHook installs a hook invoked before each operation.
func WithHook(hook Hook) Option {
	return func(s *CatalogService) {
		s.hook = hook
	}
}

// CatalogService keeps categories, subcategories, products and variants in maps guarded by a mutex.
// Deleting a category leaves its subcategories in place with a dangling parent reference.
// Featured-variant exclusivity is not enforced, matching the remote service.
type CatalogService struct {
	mu            sync.Mutex
	categories    map[string]domain.Category
	subCategories map[string]domain.SubCategory
	products      map[string]domain.Product
	variants      map[string]domain.Variant
	faults        map[string][]error

	now   func() time.Time
	newID func() string
	hook  Hook
}

var _ repositories.CatalogRepository = (*CatalogService)(nil)

// NewCatalogService constructs an empty in-memory catalog.
func NewCatalogService(opts ...Option) *CatalogService {
	s := &CatalogService{
		categories:    make(map[string]domain.Category),
		subCategories: make(map[string]domain.SubCategory),
		products:      make(map[string]domain.Product),
		variants:      make(map[string]domain.Variant),
		faults:        make(map[string][]error),
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// FailNext queues a failure for the next call of method, e.g. "UpdateVariant".
// A zero status simulates a network failure.
func (s *CatalogService) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method] = append(s.faults[method], repositories.NewServiceError("memory."+method, status, message, nil))
}

// Seed stores entities verbatim, bypassing validation. Existing entries with the same ID are replaced.
func (s *CatalogService) Seed(categories []domain.Category, subs []domain.SubCategory, products []domain.Product, variants []domain.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range categories {
		s.categories[c.ID] = c.Clone()
	}
	for _, sub := range subs {
		s.subCategories[sub.ID] = sub
		s.addMember(sub.ParentCategoryID, sub.ID)
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, v := range variants {
		s.variants[v.ID] = v.Clone()
	}
}

func (s *CatalogService) begin(ctx context.Context, method string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.hook != nil {
		if err := s.hook(ctx, method); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	if queue := s.faults[method]; len(queue) > 0 {
		s.faults[method] = queue[1:]
		s.mu.Unlock()
		return nil, queue[0]
	}
	return s.mu.Unlock, nil
}

func fail(method string, status int, message string) error {
	return repositories.NewServiceError("memory."+method, status, message, nil)
}

func (s *CatalogService) ListCategories(ctx context.Context, includeDisabled bool) ([]domain.Category, error) {
	unlock, err := s.begin(ctx, "ListCategories")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if !includeDisabled && !c.IsEnabled {
			continue
		}
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, categoryID string) (domain.Category, error) {
	unlock, err := s.begin(ctx, "GetCategory")
	if err != nil {
		return domain.Category{}, err
	}
	defer unlock()
	c, ok := s.categories[categoryID]
	if !ok {
		return domain.Category{}, fail("GetCategory", http.StatusNotFound, "category not found")
	}
	return c.Clone(), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	unlock, err := s.begin(ctx, "CreateCategory")
	if err != nil {
		return domain.Category{}, err
	}
	defer unlock()
	if strings.TrimSpace(category.Name) == "" {
		return domain.Category{}, fail("CreateCategory", http.StatusUnprocessableEntity, "name is required")
	}
	if category.ID == "" {
		category.ID = s.newID()
	} else if _, exists := s.categories[category.ID]; exists {
		return domain.Category{}, fail("CreateCategory", http.StatusConflict, "category already exists")
	}
	now := s.now()
	category.CreatedAt, category.UpdatedAt = now, now
	category.SubCategoryIDs = nil
	s.categories[category.ID] = category
	return category.Clone(), nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category domain.Category) (domain.Category, error) {
	unlock, err := s.begin(ctx, "UpdateCategory")
	if err != nil {
		return domain.Category{}, err
	}
	defer unlock()
	prev, ok := s.categories[category.ID]
	if !ok {
		return domain.Category{}, fail("UpdateCategory", http.StatusNotFound, "category not found")
	}
	category.CreatedAt = prev.CreatedAt
	category.UpdatedAt = s.now()
	category.SubCategoryIDs = prev.SubCategoryIDs
	s.categories[category.ID] = category.Clone()
	return category.Clone(), nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, categoryID string) error {
	unlock, err := s.begin(ctx, "DeleteCategory")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := s.categories[categoryID]; !ok {
		return fail("DeleteCategory", http.StatusNotFound, "category not found")
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *CatalogService) ListSubCategories(ctx context.Context, categoryID string) ([]domain.SubCategory, error) {
	unlock, err := s.begin(ctx, "ListSubCategories")
	if err != nil {
		return nil, err
	}
	defer unlock()
	var out []domain.SubCategory
	for _, sub := range s.subCategories {
		if categoryID == "" || sub.ParentCategoryID == categoryID {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *CatalogService) GetSubCategory(ctx context.Context, subCategoryID string) (domain.SubCategory, error) {
	unlock, err := s.begin(ctx, "GetSubCategory")
	if err != nil {
		return domain.SubCategory{}, err
	}
	defer unlock()
	sub, ok := s.subCategories[subCategoryID]
	if !ok {
		return domain.SubCategory{}, fail("GetSubCategory", http.StatusNotFound, "subcategory not found")
	}
	return sub, nil
}

func (s *CatalogService) CreateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error) {
	unlock, err := s.begin(ctx, "CreateSubCategory")
	if err != nil {
		return domain.SubCategory{}, err
	}
	defer unlock()
	if _, ok := s.categories[sub.ParentCategoryID]; !ok {
		return domain.SubCategory{}, fail("CreateSubCategory", http.StatusUnprocessableEntity, "parent category not found")
	}
	if sub.ID == "" {
		sub.ID = s.newID()
	} else if _, exists := s.subCategories[sub.ID]; exists {
		return domain.SubCategory{}, fail("CreateSubCategory", http.StatusConflict, "subcategory already exists")
	}
	now := s.now()
	sub.CreatedAt, sub.UpdatedAt = now, now
	s.subCategories[sub.ID] = sub
	s.addMember(sub.ParentCategoryID, sub.ID)
	return sub, nil
}

func (s *CatalogService) UpdateSubCategory(ctx context.Context, sub domain.SubCategory) (domain.SubCategory, error) {
	unlock, err := s.begin(ctx, "UpdateSubCategory")
	if err != nil {
		return domain.SubCategory{}, err
	}
	defer unlock()
	prev, ok := s.subCategories[sub.ID]
	if !ok {
		return domain.SubCategory{}, fail("UpdateSubCategory", http.StatusNotFound, "subcategory not found")
	}
	if _, ok := s.categories[sub.ParentCategoryID]; !ok {
		return domain.SubCategory{}, fail("UpdateSubCategory", http.StatusUnprocessableEntity, "parent category not found")
	}
	sub.CreatedAt = prev.CreatedAt
	sub.UpdatedAt = s.now()
	if prev.ParentCategoryID != sub.ParentCategoryID {
		s.removeMember(prev.ParentCategoryID, sub.ID)
		s.addMember(sub.ParentCategoryID, sub.ID)
	}
	s.subCategories[sub.ID] = sub
	return sub, nil
}

func (s *CatalogService) DeleteSubCategory(ctx context.Context, subCategoryID string) error {
	unlock, err := s.begin(ctx, "DeleteSubCategory")
	if err != nil {
		return err
	}
	defer unlock()
	prev, ok := s.subCategories[subCategoryID]
	if !ok {
		return fail("DeleteSubCategory", http.StatusNotFound, "subcategory not found")
	}
	s.removeMember(prev.ParentCategoryID, subCategoryID)
	delete(s.subCategories, subCategoryID)
	return nil
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	unlock, err := s.begin(ctx, "ListProducts")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	unlock, err := s.begin(ctx, "GetProduct")
	if err != nil {
		return domain.Product{}, err
	}
	defer unlock()
	p, ok := s.products[productID]
	if !ok {
		return domain.Product{}, fail("GetProduct", http.StatusNotFound, "product not found")
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	unlock, err := s.begin(ctx, "CreateProduct")
	if err != nil {
		return domain.Product{}, err
	}
	defer unlock()
	if !product.Price.IsPositive() {
		return domain.Product{}, fail("CreateProduct", http.StatusUnprocessableEntity, "price must be positive")
	}
	if product.ID == "" {
		product.ID = s.newID()
	} else if _, exists := s.products[product.ID]; exists {
		return domain.Product{}, fail("CreateProduct", http.StatusConflict, "product already exists")
	}
	now := s.now()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = product
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	unlock, err := s.begin(ctx, "UpdateProduct")
	if err != nil {
		return domain.Product{}, err
	}
	defer unlock()
	prev, ok := s.products[product.ID]
	if !ok {
		return domain.Product{}, fail("UpdateProduct", http.StatusNotFound, "product not found")
	}
	product.CreatedAt = prev.CreatedAt
	product.UpdatedAt = s.now()
	s.products[product.ID] = product
	return product, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	unlock, err := s.begin(ctx, "DeleteProduct")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := s.products[productID]; !ok {
		return fail("DeleteProduct", http.StatusNotFound, "product not found")
	}
	delete(s.products, productID)
	for id, v := range s.variants {
		if v.ProductID == productID {
			delete(s.variants, id)
		}
	}
	return nil
}

func (s *CatalogService) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	unlock, err := s.begin(ctx, "ListVariants")
	if err != nil {
		return nil, err
	}
	defer unlock()
	if _, ok := s.products[productID]; !ok {
		return nil, fail("ListVariants", http.StatusNotFound, "product not found")
	}
	var out []domain.Variant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, v.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, productID, variantID string) (domain.Variant, error) {
	unlock, err := s.begin(ctx, "GetVariant")
	if err != nil {
		return domain.Variant{}, err
	}
	defer unlock()
	v, ok := s.variants[variantID]
	if !ok || v.ProductID != productID {
		return domain.Variant{}, fail("GetVariant", http.StatusNotFound, "variant not found")
	}
	return v.Clone(), nil
}

func (s *CatalogService) CreateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error) {
	unlock, err := s.begin(ctx, "CreateVariant")
	if err != nil {
		return domain.Variant{}, err
	}
	defer unlock()
	if _, ok := s.products[variant.ProductID]; !ok {
		return domain.Variant{}, fail("CreateVariant", http.StatusUnprocessableEntity, "product not found")
	}
	if variant.ID == "" {
		variant.ID = s.newID()
	} else if _, exists := s.variants[variant.ID]; exists {
		return domain.Variant{}, fail("CreateVariant", http.StatusConflict, "variant already exists")
	}
	now := s.now()
	variant.CreatedAt, variant.UpdatedAt = now, now
	s.variants[variant.ID] = variant.Clone()
	return variant.Clone(), nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, variant domain.Variant) (domain.Variant, error) {
	unlock, err := s.begin(ctx, "UpdateVariant")
	if err != nil {
		return domain.Variant{}, err
	}
	defer unlock()
	prev, ok := s.variants[variant.ID]
	if !ok || prev.ProductID != variant.ProductID {
		return domain.Variant{}, fail("UpdateVariant", http.StatusNotFound, "variant not found")
	}
	variant.CreatedAt = prev.CreatedAt
	variant.UpdatedAt = s.now()
	s.variants[variant.ID] = variant.Clone()
	return variant.Clone(), nil
}

func (s *CatalogService) DeleteVariant(ctx context.Context, productID, variantID string) error {
	unlock, err := s.begin(ctx, "DeleteVariant")
	if err != nil {
		return err
	}
	defer unlock()
	v, ok := s.variants[variantID]
	if !ok || v.ProductID != productID {
		return fail("DeleteVariant", http.StatusNotFound, "variant not found")
	}
	delete(s.variants, variantID)
	return nil
}

func (s *CatalogService) addMember(categoryID, subID string) {
	parent, ok := s.categories[categoryID]
	if !ok {
		return
	}
	for _, id := range parent.SubCategoryIDs {
		if id == subID {
			return
		}
	}
	parent = parent.Clone()
	parent.SubCategoryIDs = append(parent.SubCategoryIDs, subID)
	s.categories[categoryID] = parent
}

func (s *CatalogService) removeMember(categoryID, subID string) {
	parent, ok := s.categories[categoryID]
	if !ok {
		return
	}
	members := make([]string, 0, len(parent.SubCategoryIDs))
	for _, id := range parent.SubCategoryIDs {
		if id != subID {
			members = append(members, id)
		}
	}
	parent.SubCategoryIDs = members
	s.categories[categoryID] = parent
}
