package domain

import "time"

// CatalogSnapshot is an immutable view of the catalog loaded for one console session.
// Every With/Without helper returns a new snapshot and leaves the receiver untouched.
type CatalogSnapshot struct {
	categories    map[string]Category
	subCategories map[string]SubCategory
	products      map[string]Product
	variants      map[string]Variant
	loadedAt      time.Time
}

// NewCatalogSnapshot indexes the supplied entities. Later duplicates replace earlier ones.
func NewCatalogSnapshot(categories []Category, subs []SubCategory, products []Product, variants []Variant, loadedAt time.Time) *CatalogSnapshot {
	s := &CatalogSnapshot{
		categories:    make(map[string]Category, len(categories)),
		subCategories: make(map[string]SubCategory, len(subs)),
		products:      make(map[string]Product, len(products)),
		variants:      make(map[string]Variant, len(variants)),
		loadedAt:      loadedAt,
	}
	for _, c := range categories {
		s.categories[c.ID] = c.Clone()
	}
	for _, sub := range subs {
		s.subCategories[sub.ID] = sub
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, v := range variants {
		s.variants[v.ID] = v.Clone()
	}
	return s
}

// EmptySnapshot returns a snapshot with no entities.
func EmptySnapshot() *CatalogSnapshot {
	return NewCatalogSnapshot(nil, nil, nil, nil, time.Time{})
}

// LoadedAt reports when the snapshot was last fully loaded from the catalog service.
func (s *CatalogSnapshot) LoadedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.loadedAt
}

// Category looks up a category by identifier.
func (s *CatalogSnapshot) Category(id string) (Category, bool) {
	if s == nil {
		return Category{}, false
	}
	c, ok := s.categories[id]
	return c.Clone(), ok
}

// SubCategory looks up a subcategory by identifier.
func (s *CatalogSnapshot) SubCategory(id string) (SubCategory, bool) {
	if s == nil {
		return SubCategory{}, false
	}
	sub, ok := s.subCategories[id]
	return sub, ok
}

// Product looks up a product by identifier.
func (s *CatalogSnapshot) Product(id string) (Product, bool) {
	if s == nil {
		return Product{}, false
	}
	p, ok := s.products[id]
	return p, ok
}

// Variant looks up a variant by identifier.
func (s *CatalogSnapshot) Variant(id string) (Variant, bool) {
	if s == nil {
		return Variant{}, false
	}
	v, ok := s.variants[id]
	return v.Clone(), ok
}

// Categories returns every category in unspecified order.
func (s *CatalogSnapshot) Categories() []Category {
	if s == nil {
		return nil
	}
	out := make([]Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c.Clone())
	}
	return out
}

// CategoryIDs returns the set of known category identifiers.
func (s *CatalogSnapshot) CategoryIDs() map[string]struct{} {
	out := make(map[string]struct{})
	if s == nil {
		return out
	}
	for id := range s.categories {
		out[id] = struct{}{}
	}
	return out
}

// SubCategoriesOf returns the subcategories whose parent is categoryID, in unspecified order.
func (s *CatalogSnapshot) SubCategoriesOf(categoryID string) []SubCategory {
	if s == nil {
		return nil
	}
	var out []SubCategory
	for _, sub := range s.subCategories {
		if sub.ParentCategoryID == categoryID {
			out = append(out, sub)
		}
	}
	return out
}

// Products returns every product in unspecified order.
func (s *CatalogSnapshot) Products() []Product {
	if s == nil {
		return nil
	}
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out
}

// VariantsOf returns the variants of productID in unspecified order.
func (s *CatalogSnapshot) VariantsOf(productID string) []Variant {
	if s == nil {
		return nil
	}
	var out []Variant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, v.Clone())
		}
	}
	return out
}

// Variants returns every variant in unspecified order.
func (s *CatalogSnapshot) Variants() []Variant {
	if s == nil {
		return nil
	}
	out := make([]Variant, 0, len(s.variants))
	for _, v := range s.variants {
		out = append(out, v.Clone())
	}
	return out
}

// WithCategory returns a copy with the category inserted or replaced wholesale.
func (s *CatalogSnapshot) WithCategory(c Category) *CatalogSnapshot {
	next := s.clone()
	next.categories[c.ID] = c.Clone()
	return next
}

// WithoutCategory returns a copy without the category. Subcategories are left as-is;
// what happens to them is decided by the catalog service.
func (s *CatalogSnapshot) WithoutCategory(id string) *CatalogSnapshot {
	next := s.clone()
	delete(next.categories, id)
	return next
}

// WithSubCategory returns a copy with the subcategory inserted or replaced, keeping the
// parent's membership list in sync.
func (s *CatalogSnapshot) WithSubCategory(sub SubCategory) *CatalogSnapshot {
	next := s.clone()
	if prev, ok := next.subCategories[sub.ID]; ok && prev.ParentCategoryID != sub.ParentCategoryID {
		next.removeMember(prev.ParentCategoryID, sub.ID)
	}
	next.subCategories[sub.ID] = sub
	if parent, ok := next.categories[sub.ParentCategoryID]; ok && !containsString(parent.SubCategoryIDs, sub.ID) {
		parent = parent.Clone()
		parent.SubCategoryIDs = append(parent.SubCategoryIDs, sub.ID)
		next.categories[parent.ID] = parent
	}
	return next
}

// WithoutSubCategory returns a copy without the subcategory or its membership entry.
func (s *CatalogSnapshot) WithoutSubCategory(id string) *CatalogSnapshot {
	next := s.clone()
	if prev, ok := next.subCategories[id]; ok {
		next.removeMember(prev.ParentCategoryID, id)
	}
	delete(next.subCategories, id)
	return next
}

// WithProduct returns a copy with the product inserted or replaced wholesale.
func (s *CatalogSnapshot) WithProduct(p Product) *CatalogSnapshot {
	next := s.clone()
	next.products[p.ID] = p
	return next
}

// WithoutProduct returns a copy without the product and its variants.
func (s *CatalogSnapshot) WithoutProduct(id string) *CatalogSnapshot {
	next := s.clone()
	delete(next.products, id)
	for vid, v := range next.variants {
		if v.ProductID == id {
			delete(next.variants, vid)
		}
	}
	return next
}

// WithVariant returns a copy with the variant inserted or replaced wholesale.
func (s *CatalogSnapshot) WithVariant(v Variant) *CatalogSnapshot {
	next := s.clone()
	next.variants[v.ID] = v.Clone()
	return next
}

// WithoutVariant returns a copy without the variant.
func (s *CatalogSnapshot) WithoutVariant(id string) *CatalogSnapshot {
	next := s.clone()
	delete(next.variants, id)
	return next
}

func (s *CatalogSnapshot) clone() *CatalogSnapshot {
	if s == nil {
		s = EmptySnapshot()
	}
	next := &CatalogSnapshot{
		categories:    make(map[string]Category, len(s.categories)),
		subCategories: make(map[string]SubCategory, len(s.subCategories)),
		products:      make(map[string]Product, len(s.products)),
		variants:      make(map[string]Variant, len(s.variants)),
		loadedAt:      s.loadedAt,
	}
	for k, v := range s.categories {
		next.categories[k] = v
	}
	for k, v := range s.subCategories {
		next.subCategories[k] = v
	}
	for k, v := range s.products {
		next.products[k] = v
	}
	for k, v := range s.variants {
		next.variants[k] = v
	}
	return next
}

func (s *CatalogSnapshot) removeMember(categoryID, subID string) {
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

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
